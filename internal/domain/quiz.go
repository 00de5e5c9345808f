package domain

// QuestionKind tags how a quiz question was built.
type QuestionKind string

const (
	KindNarrator   QuestionKind = "narrator"
	KindTitle      QuestionKind = "title"
	KindCompletion QuestionKind = "completion"
	KindSource     QuestionKind = "source"
)

// QuizQuestion is a single-answer multiple-choice question about one record.
type QuizQuestion struct {
	SubjectID int
	Prompt    string
	Options   []string
	Correct   string
	Kind      QuestionKind
}

// Valid reports whether the question may be shown to a learner: it has a
// prompt, a kind, a correct value, at least two options, and the correct
// value appears exactly once among them.
func (q *QuizQuestion) Valid() bool {
	if q == nil || q.Prompt == "" || q.Kind == "" || q.Correct == "" {
		return false
	}
	if len(q.Options) < 2 {
		return false
	}
	seen := 0
	for _, o := range q.Options {
		if o == q.Correct {
			seen++
		}
	}
	return seen == 1
}
