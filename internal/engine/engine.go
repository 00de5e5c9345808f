// Package engine wires the corpus index, quiz generator, progress store,
// session registry and tutor into the operations a learner performs.
package engine

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/conorfennell/nibras/internal/corpus"
	"github.com/conorfennell/nibras/internal/domain"
	"github.com/conorfennell/nibras/internal/progress"
	"github.com/conorfennell/nibras/internal/quiz"
	"github.com/conorfennell/nibras/internal/reminder"
	"github.com/conorfennell/nibras/internal/session"
	"github.com/conorfennell/nibras/internal/tutor"
)

var (
	// ErrNotFound is returned when a record id does not resolve.
	ErrNotFound = errors.New("record not found")
	// ErrNoData is returned by corpus-dependent operations when the corpus is empty.
	ErrNoData = errors.New("no corpus data")
	// ErrDailyDone is returned when today's daily record was already delivered.
	ErrDailyDone = errors.New("daily record already delivered today")
	// ErrInvalidPlan is returned for a study plan of fewer than one day.
	ErrInvalidPlan = errors.New("study plan needs at least one day")
	// ErrBanned is returned by Admit for a banned learner.
	ErrBanned = errors.New("learner is banned")
)

// Options tunes engine behaviour.
type Options struct {
	QuestionCount   int
	SearchLimit     int
	RelatedLimit    int
	SupportInterval int
	ReminderWindow  time.Duration
	Rand            *rand.Rand
}

// DefaultOptions returns the default engine options.
func DefaultOptions() Options {
	return Options{
		QuestionCount:   5,
		SearchLimit:     10,
		RelatedLimit:    5,
		SupportInterval: 30,
		ReminderWindow:  reminder.DefaultWindow,
	}
}

// Engine is safe for concurrent use across learners. Operations for the
// same learner may race on that learner's progress document.
type Engine struct {
	index    *corpus.Index
	store    *progress.Store
	sessions *session.Registry
	tutor    *tutor.Tutor
	opts     Options

	rngMu sync.Mutex
	rng   *rand.Rand
	quiz  *quiz.Generator
}

// New returns an Engine. tutor may be nil, in which case Explain always
// returns the fallback text.
func New(index *corpus.Index, store *progress.Store, t *tutor.Tutor, opts Options) *Engine {
	d := DefaultOptions()
	if opts.QuestionCount <= 0 {
		opts.QuestionCount = d.QuestionCount
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = d.SearchLimit
	}
	if opts.RelatedLimit <= 0 {
		opts.RelatedLimit = d.RelatedLimit
	}
	if opts.ReminderWindow <= 0 {
		opts.ReminderWindow = d.ReminderWindow
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	sessionRng := rand.New(rand.NewSource(rng.Int63()))

	return &Engine{
		index:    index,
		store:    store,
		sessions: session.NewRegistry(sessionRng),
		tutor:    t,
		opts:     opts,
		rng:      rng,
		quiz:     quiz.NewGenerator(index, rng),
	}
}

// Index returns the corpus index.
func (e *Engine) Index() *corpus.Index { return e.index }

// Store returns the progress store.
func (e *Engine) Store() *progress.Store { return e.store }

// Admit reports whether the learner may use the engine at all.
func (e *Engine) Admit(learnerID int64) error {
	if e.store.IsBanned(learnerID) {
		return ErrBanned
	}
	return nil
}

// Get returns the record with id.
func (e *Engine) Get(id int) (domain.Record, error) {
	if e.index.Len() == 0 {
		return domain.Record{}, ErrNoData
	}
	r, ok := e.index.Get(id)
	if !ok {
		return domain.Record{}, ErrNotFound
	}
	return r, nil
}

// Search runs a ranked search with the configured limit.
func (e *Engine) Search(keyword string) []domain.Record {
	return e.index.Search(keyword, e.opts.SearchLimit)
}

// Related returns the records related to id with the configured limit.
func (e *Engine) Related(id int) []domain.Record {
	return e.index.Related(id, e.opts.RelatedLimit)
}

// Read shows a record to a learner: it is marked read, becomes the tutor's
// active subject, and any badges it unlocks are returned.
func (e *Engine) Read(learnerID int64, id int) (domain.Record, []string, error) {
	r, err := e.Get(id)
	if err != nil {
		return domain.Record{}, nil, err
	}
	e.store.MarkRead(learnerID, id)
	if e.tutor != nil {
		e.tutor.Memory().SetActive(learnerID, id)
	}
	return r, e.store.CheckAndAwardBadges(learnerID), nil
}

// Random returns a uniformly chosen record.
func (e *Engine) Random() (domain.Record, error) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	r, ok := e.index.Random(e.rng)
	if !ok {
		return domain.Record{}, ErrNoData
	}
	return r, nil
}

// Daily is the result of a daily-record request.
type Daily struct {
	Record domain.Record
	// Remaining is the number of unread records left after this one.
	Remaining int
	Badges    []string
}

// Daily delivers one record per calendar day, preferring unread records.
func (e *Engine) Daily(learnerID int64) (Daily, error) {
	if e.index.Len() == 0 {
		return Daily{}, ErrNoData
	}
	if e.store.LastDaily(learnerID) == e.store.Today() {
		return Daily{}, ErrDailyDone
	}

	var unread []int
	for _, id := range e.store.UnreadIDs(learnerID, e.index.Len()) {
		if _, ok := e.index.Get(id); ok {
			unread = append(unread, id)
		}
	}

	e.rngMu.Lock()
	var pick domain.Record
	if len(unread) > 0 {
		pick, _ = e.index.Get(unread[e.rng.Intn(len(unread))])
	} else {
		pick, _ = e.index.Random(e.rng)
	}
	e.rngMu.Unlock()

	e.store.MarkDaily(learnerID)
	r, badges, err := e.Read(learnerID, pick.ID)
	if err != nil {
		return Daily{}, err
	}
	remaining := 0
	if len(unread) > 0 {
		remaining = len(unread) - 1
	}
	return Daily{Record: r, Remaining: remaining, Badges: badges}, nil
}

// AddFavorite favorites id and returns newly earned badges.
func (e *Engine) AddFavorite(learnerID int64, id int) ([]string, error) {
	if _, err := e.Get(id); err != nil {
		return nil, err
	}
	e.store.AddFavorite(learnerID, id)
	return e.store.CheckAndAwardBadges(learnerID), nil
}

// SetNote stores a note on id and returns newly earned badges.
func (e *Engine) SetNote(learnerID int64, id int, text string) ([]string, error) {
	if _, err := e.Get(id); err != nil {
		return nil, err
	}
	e.store.SetNote(learnerID, id, text)
	return e.store.CheckAndAwardBadges(learnerID), nil
}

// Stats returns the learner's statistics against the loaded corpus.
func (e *Engine) Stats(learnerID int64) progress.Stats {
	return e.store.Statistics(learnerID, e.index.Len())
}

// Interact counts one learner interaction and reports whether the support
// prompt is due.
func (e *Engine) Interact(learnerID int64) bool {
	e.store.IncrementInteraction(learnerID)
	return e.store.ShouldShowSupport(learnerID, e.opts.SupportInterval)
}

// Explain asks the tutor about question. subjectID 0 means the learner's
// current active subject, if any.
func (e *Engine) Explain(ctx context.Context, learnerID int64, question string, mode tutor.Mode, subjectID int) string {
	if e.tutor == nil {
		return tutor.FallbackText
	}
	if subjectID == 0 {
		subjectID, _ = e.tutor.Memory().Active(learnerID)
	}
	var subject *domain.Record
	if r, ok := e.index.Get(subjectID); ok {
		subject = &r
	}
	return e.tutor.Explain(ctx, learnerID, question, mode, subject)
}

// SuggestQuestions returns follow-up questions for record id.
func (e *Engine) SuggestQuestions(id int) ([]string, error) {
	r, err := e.Get(id)
	if err != nil {
		return nil, err
	}
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return tutor.SuggestQuestions(r, e.rng), nil
}

// DueReminder is one learner whose reminder slots are due.
type DueReminder struct {
	LearnerID int64
	Slots     reminder.Slots
}

// DueReminders lists learners with a slot due at now. Banned learners are skipped.
func (e *Engine) DueReminders(now time.Time) []DueReminder {
	var out []DueReminder
	for _, id := range e.store.Learners() {
		p := e.store.Load(id)
		if p.Banned {
			continue
		}
		if slots := reminder.Due(p.Reminder, now, e.opts.ReminderWindow); slots.Any() {
			out = append(out, DueReminder{LearnerID: id, Slots: slots})
		}
	}
	return out
}
