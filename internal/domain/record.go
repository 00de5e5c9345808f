package domain

// RecordType distinguishes ordinary narrations from sacred-attributed ones.
type RecordType string

const (
	TypeOrdinary RecordType = "marfu"
	TypeSacred   RecordType = "qudsi"
)

// Narrator is the normalised narrator of a record. Only Name is guaranteed;
// the remaining fields are filled when the source carries a rich profile.
type Narrator struct {
	Name             string
	Kunya            string
	Title            string
	Tribe            string
	DiedAH           int
	DiedCE           int
	NarrationsCount  int
	Bio              string
	IsCompanion      bool
	PromisedParadise bool
	HasProfile       bool
}

// Source is the normalised citation of a record.
type Source struct {
	Label string
	Books []string
	Grade string
}

// Gloss is a single vocabulary entry.
type Gloss struct {
	Word    string
	Meaning string
}

// Text returns the gloss as searchable text.
func (g Gloss) Text() string {
	if g.Meaning == "" {
		return g.Word
	}
	return g.Word + " " + g.Meaning
}

// Record is one immutable item of the corpus. ID is the only key used
// elsewhere in the system.
type Record struct {
	ID            int
	Title         string
	Body          string
	NarratorIntro string
	BodyOnly      string
	Narrator      Narrator
	Source        Source
	Vocabulary    []Gloss
	Benefits      []string
	Topics        []string
	TopicsEnglish []string
	Category      string
	Type          RecordType
	TypeLabel     string
	Related       []int

	EnglishNarrator string
	EnglishBody     string
}

// IsSacred reports whether the record is sacred-attributed.
func (r Record) IsSacred() bool {
	return r.Type == TypeSacred
}
