// Package corpus holds the read-only record index: lookup, ranked search,
// related-item resolution, and the category and topic inverted indexes.
package corpus

import (
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/conorfennell/nibras/internal/domain"
	"github.com/conorfennell/nibras/internal/normalize"
	"github.com/conorfennell/nibras/internal/parser"
)

// Relevance weights for search scoring.
const (
	weightTitlePhrase   = 100
	weightTitleAllTerms = 50
	weightBodyPhrase    = 30
	weightTopicsPhrase  = 20
	weightNarrator      = 15
	weightVocabulary    = 10
	weightBenefits      = 10
	maxBrevityBonus     = 10
)

// Index is built once and never mutated afterwards, so it is safe for
// concurrent readers without locking.
type Index struct {
	records     []domain.Record
	byID        map[int]int
	categories  map[string][]int
	topics      map[string][]int
	searchable  []searchFields
	fingerprint string
}

type searchFields struct {
	title, body, narrator, source, topics, vocabulary, benefits string
	full                                                        string
}

// New builds an index over the given records, in order.
func New(records []domain.Record) *Index {
	idx := &Index{
		records:    records,
		byID:       make(map[int]int, len(records)),
		categories: make(map[string][]int),
		topics:     make(map[string][]int),
		searchable: make([]searchFields, len(records)),
	}
	for i, r := range records {
		idx.byID[r.ID] = i
		if r.Category != "" {
			idx.categories[r.Category] = append(idx.categories[r.Category], r.ID)
		}
		for _, tag := range r.Topics {
			idx.topics[tag] = append(idx.topics[tag], r.ID)
		}
		idx.searchable[i] = buildSearchFields(r)
	}
	idx.fingerprint = normalize.Fingerprint(records)
	return idx
}

// Load parses the corpus document at path. An unreadable document yields an
// empty index, never an error: every query then degrades to "no data".
func Load(path string) *Index {
	records, err := parser.ParseFile(path)
	if err != nil {
		slog.Error("Failed to load corpus, continuing with an empty index", "path", path, "error", err)
		return New(nil)
	}
	idx := New(records)
	slog.Info("Corpus loaded",
		"path", path,
		"records", len(records),
		"categories", len(idx.categories),
		"fingerprint", idx.fingerprint[:12],
	)
	return idx
}

func buildSearchFields(r domain.Record) searchFields {
	vocab := make([]string, 0, len(r.Vocabulary))
	for _, g := range r.Vocabulary {
		vocab = append(vocab, g.Text())
	}
	f := searchFields{
		title:      normalize.Text(r.Title),
		body:       normalize.Text(r.Body),
		narrator:   normalize.Text(r.Narrator.Name),
		source:     normalize.Text(r.Source.Label),
		topics:     normalize.Text(strings.Join(r.Topics, " ")),
		vocabulary: normalize.Text(strings.Join(vocab, " ")),
		benefits:   normalize.Text(strings.Join(r.Benefits, " ")),
	}
	f.full = strings.Join([]string{f.title, f.body, f.narrator, f.source, f.topics, f.vocabulary, f.benefits}, " ")
	return f
}

// Len returns the number of records.
func (idx *Index) Len() int {
	return len(idx.records)
}

// Fingerprint identifies the loaded corpus content.
func (idx *Index) Fingerprint() string {
	return idx.fingerprint
}

// All returns every record in load order. The slice must not be modified.
func (idx *Index) All() []domain.Record {
	return idx.records
}

// IDs returns every record id in load order.
func (idx *Index) IDs() []int {
	ids := make([]int, len(idx.records))
	for i, r := range idx.records {
		ids[i] = r.ID
	}
	return ids
}

// Get returns the record with the given id.
func (idx *Index) Get(id int) (domain.Record, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return domain.Record{}, false
	}
	return idx.records[i], true
}

// Random returns a uniformly chosen record, or false when the index is empty.
func (idx *Index) Random(rng *rand.Rand) (domain.Record, bool) {
	if len(idx.records) == 0 {
		return domain.Record{}, false
	}
	return idx.records[rng.Intn(len(idx.records))], true
}

// Search returns up to limit records containing every whitespace-separated
// term of keyword, highest relevance first. Matching is case-insensitive
// substring matching over title, body, narrator, source, topics, vocabulary
// and benefits. Equal scores keep load order. A blank keyword matches nothing.
func (idx *Index) Search(keyword string, limit int) []domain.Record {
	phrase := normalize.Text(keyword)
	if phrase == "" || limit <= 0 {
		return nil
	}
	terms := strings.Fields(phrase)

	type scored struct {
		score int
		pos   int
	}
	var hits []scored
	for i, f := range idx.searchable {
		if !containsAll(f.full, terms) {
			continue
		}
		hits = append(hits, scored{score: score(f, phrase, terms), pos: i})
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]domain.Record, len(hits))
	for i, h := range hits {
		out[i] = idx.records[h.pos]
	}
	return out
}

func score(f searchFields, phrase string, terms []string) int {
	s := 0
	if strings.Contains(f.title, phrase) {
		s += weightTitlePhrase
	}
	if containsAll(f.title, terms) {
		s += weightTitleAllTerms
	}
	if strings.Contains(f.body, phrase) {
		s += weightBodyPhrase
	}
	if strings.Contains(f.topics, phrase) {
		s += weightTopicsPhrase
	}
	if strings.Contains(f.narrator, phrase) {
		s += weightNarrator
	}
	if strings.Contains(f.vocabulary, phrase) {
		s += weightVocabulary
	}
	if strings.Contains(f.benefits, phrase) {
		s += weightBenefits
	}
	// Shorter passages are more focused.
	if bonus := maxBrevityBonus - utf8.RuneCountInString(f.body)/100; bonus > 0 {
		s += bonus
	}
	return s
}

func containsAll(text string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}

// Related returns records connected to id. Curated related ids win: the
// first limit of them are resolved in stored order, skipping any that no
// longer resolve. Only when none resolve are records ranked by the number of
// whole title words they share with the subject.
func (idx *Index) Related(id, limit int) []domain.Record {
	current, ok := idx.Get(id)
	if !ok || limit <= 0 {
		return nil
	}

	if len(current.Related) > 0 {
		curated := current.Related
		if len(curated) > limit {
			curated = curated[:limit]
		}
		var out []domain.Record
		for _, rid := range curated {
			if r, ok := idx.Get(rid); ok {
				out = append(out, r)
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	titleWords := make(map[string]bool)
	for _, w := range strings.Fields(current.Title) {
		titleWords[w] = true
	}

	type scored struct {
		common int
		rec    domain.Record
	}
	var candidates []scored
	for _, r := range idx.records {
		if r.ID == id {
			continue
		}
		shared := make(map[string]bool)
		for _, w := range strings.Fields(r.Title) {
			if titleWords[w] {
				shared[w] = true
			}
		}
		if len(shared) > 0 {
			candidates = append(candidates, scored{common: len(shared), rec: r})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].common > candidates[b].common
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]domain.Record, len(candidates))
	for i, c := range candidates {
		out[i] = c.rec
	}
	return out
}

// Categories returns category label → ids. The map must not be modified.
func (idx *Index) Categories() map[string][]int {
	return idx.categories
}

// ByCategory returns the records in a category, in load order.
func (idx *Index) ByCategory(label string) []domain.Record {
	return idx.resolve(idx.categories[label])
}

// Topics returns topic tag → ids. The map must not be modified.
func (idx *Index) Topics() map[string][]int {
	return idx.topics
}

// ByTopic returns the records carrying a topic tag, in load order.
func (idx *Index) ByTopic(tag string) []domain.Record {
	return idx.resolve(idx.topics[tag])
}

// Sacred returns the sacred-attributed records.
func (idx *Index) Sacred() []domain.Record {
	var out []domain.Record
	for _, r := range idx.records {
		if r.IsSacred() {
			out = append(out, r)
		}
	}
	return out
}

func (idx *Index) resolve(ids []int) []domain.Record {
	out := make([]domain.Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := idx.Get(id); ok {
			out = append(out, r)
		}
	}
	return out
}
