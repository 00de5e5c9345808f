// Package quiz builds multiple-choice questions whose wrong options are drawn
// from the corpus itself.
package quiz

import (
	"math/rand"
	"strings"
	"unicode/utf8"

	"github.com/conorfennell/nibras/internal/domain"
)

const (
	optionsPerQuestion = 4
	minCompletionWords = 15
	completionWindow   = 5
	maxWindowSamples   = 10
	promptExcerptRunes = 80
)

var (
	wellKnownNarrators = []string{
		"أبو هريرة",
		"عمر بن الخطاب",
		"عائشة",
		"أنس بن مالك",
		"ابن عباس",
		"أبو سعيد الخدري",
	}
	wellKnownSources = []string{
		"صحيح البخاري",
		"صحيح مسلم",
		"سنن أبي داود",
		"سنن الترمذي",
		"سنن النسائي",
		"سنن ابن ماجه",
	}
	fillerPhrases = []string{
		"والله أعلم بذلك",
		"وهو على كل شيء قدير",
		"إن الله غفور رحيم",
	}
	allKinds = []domain.QuestionKind{
		domain.KindNarrator,
		domain.KindTitle,
		domain.KindCompletion,
		domain.KindSource,
	}
)

// Corpus is the read-only view of the records the generator draws from.
type Corpus interface {
	All() []domain.Record
}

// Generator builds questions. It is not safe for concurrent use because it
// owns a *rand.Rand.
type Generator struct {
	corpus Corpus
	rng    *rand.Rand
}

// NewGenerator returns a generator over corpus using rng for every random
// choice.
func NewGenerator(corpus Corpus, rng *rand.Rand) *Generator {
	return &Generator{corpus: corpus, rng: rng}
}

// Generate samples min(count, corpus size) distinct records and builds one
// question for each. A record whose randomly chosen kind cannot produce a
// valid question is retried as a narrator question and dropped if that also
// fails, so the result may be shorter than count or empty.
func (g *Generator) Generate(count int) []domain.QuizQuestion {
	records := g.corpus.All()
	if count <= 0 || len(records) == 0 {
		return nil
	}
	if count > len(records) {
		count = len(records)
	}

	picks := g.rng.Perm(len(records))[:count]
	questions := make([]domain.QuizQuestion, 0, count)
	for _, i := range picks {
		subject := records[i]
		kind := allKinds[g.rng.Intn(len(allKinds))]

		q := g.Build(subject, kind)
		if !q.Valid() && kind != domain.KindNarrator {
			q = g.Build(subject, domain.KindNarrator)
		}
		if q.Valid() {
			questions = append(questions, *q)
		}
	}
	return questions
}

// Build returns a question of the given kind about subject, or nil when the
// record cannot support that kind.
func (g *Generator) Build(subject domain.Record, kind domain.QuestionKind) *domain.QuizQuestion {
	switch kind {
	case domain.KindNarrator:
		return g.narratorQuestion(subject)
	case domain.KindTitle:
		return g.titleQuestion(subject)
	case domain.KindCompletion:
		return g.completionQuestion(subject)
	case domain.KindSource:
		return g.sourceQuestion(subject)
	}
	return nil
}

func (g *Generator) narratorQuestion(subject domain.Record) *domain.QuizQuestion {
	correct := subject.Narrator.Name
	if correct == "" {
		return nil
	}
	pool := g.others(subject.ID, func(r domain.Record) string { return r.Narrator.Name })
	pool = append(pool, wellKnownNarrators...)
	return &domain.QuizQuestion{
		SubjectID: subject.ID,
		Prompt:    "من راوي هذا الحديث؟\n\n" + subject.Title,
		Options:   g.options(correct, pool),
		Correct:   correct,
		Kind:      domain.KindNarrator,
	}
}

func (g *Generator) titleQuestion(subject domain.Record) *domain.QuizQuestion {
	correct := subject.Title
	if correct == "" {
		return nil
	}
	pool := g.others(subject.ID, func(r domain.Record) string { return r.Title })
	return &domain.QuizQuestion{
		SubjectID: subject.ID,
		Prompt:    "ما عنوان هذا الحديث؟\n\n" + excerpt(subject.Body, promptExcerptRunes),
		Options:   g.options(correct, pool),
		Correct:   correct,
		Kind:      domain.KindTitle,
	}
}

func (g *Generator) sourceQuestion(subject domain.Record) *domain.QuizQuestion {
	correct := subject.Source.Label
	if correct == "" {
		return nil
	}
	pool := g.others(subject.ID, func(r domain.Record) string { return r.Source.Label })
	pool = append(pool, wellKnownSources...)
	return &domain.QuizQuestion{
		SubjectID: subject.ID,
		Prompt:    "ما مصدر هذا الحديث؟\n\n" + subject.Title,
		Options:   g.options(correct, pool),
		Correct:   correct,
		Kind:      domain.KindSource,
	}
}

func (g *Generator) completionQuestion(subject domain.Record) *domain.QuizQuestion {
	words := strings.Fields(subject.Body)
	n := len(words)
	if n < minCompletionWords {
		return nil
	}

	lo, hi := n/3, n/2
	cut := lo + g.rng.Intn(hi-lo+1)
	correct := strings.Join(words[cut:cut+completionWindow], " ")

	var pool []string
	for _, r := range g.corpus.All() {
		if r.ID == subject.ID {
			continue
		}
		other := strings.Fields(r.Body)
		if len(other) < completionWindow {
			continue
		}
		start := g.rng.Intn(len(other) - completionWindow + 1)
		window := strings.Join(other[start:start+completionWindow], " ")
		if window != correct {
			pool = append(pool, window)
		}
		if len(pool) >= maxWindowSamples {
			break
		}
	}
	if len(dedupe(pool, correct)) < optionsPerQuestion-1 {
		pool = append(pool, fillerPhrases...)
	}

	return &domain.QuizQuestion{
		SubjectID: subject.ID,
		Prompt:    "أكمل الحديث:\n\n" + strings.Join(words[:cut], " ") + " ...",
		Options:   g.options(correct, pool),
		Correct:   correct,
		Kind:      domain.KindCompletion,
	}
}

// others projects every record except the subject through field, dropping
// empty values.
func (g *Generator) others(subjectID int, field func(domain.Record) string) []string {
	var out []string
	for _, r := range g.corpus.All() {
		if r.ID == subjectID {
			continue
		}
		if v := field(r); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// options deduplicates pool, removes correct, keeps up to three shuffled
// distractors and returns them shuffled together with correct.
func (g *Generator) options(correct string, pool []string) []string {
	distractors := dedupe(pool, correct)
	g.rng.Shuffle(len(distractors), func(i, j int) {
		distractors[i], distractors[j] = distractors[j], distractors[i]
	})
	if len(distractors) > optionsPerQuestion-1 {
		distractors = distractors[:optionsPerQuestion-1]
	}

	opts := append([]string{correct}, distractors...)
	g.rng.Shuffle(len(opts), func(i, j int) {
		opts[i], opts[j] = opts[j], opts[i]
	})
	return opts
}

func dedupe(pool []string, exclude string) []string {
	seen := make(map[string]bool, len(pool))
	out := make([]string, 0, len(pool))
	for _, v := range pool {
		if v == "" || v == exclude || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
