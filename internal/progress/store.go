// Package progress holds per-learner learning state: read tracking, streaks,
// weekly counters, favorites, notes, quiz history, self-assessment and badges.
//
// Every mutating operation loads the learner's whole document, changes it in
// memory and saves it back. There is no lock around that cycle, so two
// concurrent operations for the same learner can overwrite each other.
package progress

import (
	"log/slog"
	"sort"
	"time"

	"github.com/conorfennell/nibras/internal/domain"
)

// Default reminder settings for a learner seen for the first time.
const (
	DefaultReminderTime = "08:00"
	DefaultTimezone     = "Asia/Riyadh"
)

// Persistence stores one opaque document per learner.
type Persistence interface {
	// LoadProgress returns (nil, nil) when the learner has no document yet.
	LoadProgress(learnerID int64) (*domain.Progress, error)
	SaveProgress(learnerID int64, p *domain.Progress) error
}

// Lister is implemented by backends that can enumerate stored learners.
type Lister interface {
	LearnerIDs() ([]int64, error)
}

// Store applies progress operations on top of a Persistence backend.
// Backend failures never surface as errors: loads degrade to a fresh
// document and saves report false.
type Store struct {
	db           Persistence
	now          func() time.Time
	reminderTime string
	timezone     string
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, which drives streaks, week keys and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithReminderDefaults sets the reminder time and timezone given to new learners.
func WithReminderDefaults(reminderTime, timezone string) Option {
	return func(s *Store) {
		s.reminderTime = reminderTime
		s.timezone = timezone
	}
}

// NewStore returns a Store backed by db.
func NewStore(db Persistence, opts ...Option) *Store {
	s := &Store{
		db:           db,
		now:          time.Now,
		reminderTime: DefaultReminderTime,
		timezone:     DefaultTimezone,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the learner's document, or a fresh one when it is missing or
// cannot be read.
func (s *Store) Load(learnerID int64) *domain.Progress {
	p, err := s.db.LoadProgress(learnerID)
	if err != nil {
		slog.Error("Failed to load progress, using defaults", "learner", learnerID, "error", err)
		return domain.NewProgress(s.reminderTime, s.timezone)
	}
	if p == nil {
		return domain.NewProgress(s.reminderTime, s.timezone)
	}
	p.FillDefaults(s.reminderTime, s.timezone)
	return p
}

// Save persists the whole document and reports whether it was written.
func (s *Store) Save(learnerID int64, p *domain.Progress) bool {
	if err := s.db.SaveProgress(learnerID, p); err != nil {
		slog.Error("Failed to save progress", "learner", learnerID, "error", err)
		return false
	}
	return true
}

// update runs one read-modify-write cycle. fn reports whether it changed
// anything; unchanged documents are not written and count as success.
func (s *Store) update(learnerID int64, fn func(p *domain.Progress) bool) bool {
	p := s.Load(learnerID)
	if !fn(p) {
		return true
	}
	return s.Save(learnerID, p)
}

// Learners returns every stored learner id, or nil when the backend cannot
// enumerate.
func (s *Store) Learners() []int64 {
	lister, ok := s.db.(Lister)
	if !ok {
		return nil
	}
	ids, err := lister.LearnerIDs()
	if err != nil {
		slog.Error("Failed to list learners", "error", err)
		return nil
	}
	return ids
}

// MarkRead adds subjectID to the read set. Only the first read of an id
// bumps the current week's counter and the daily streak.
func (s *Store) MarkRead(learnerID int64, subjectID int) bool {
	return s.update(learnerID, func(p *domain.Progress) bool {
		if p.HasRead(subjectID) {
			return false
		}
		now := s.now()
		p.ReadIDs = append(p.ReadIDs, subjectID)
		p.WeeklyReads[WeekKey(now)]++
		updateStreak(p, now)
		return true
	})
}

// ReadIDs returns the read ids in the order they were first read.
func (s *Store) ReadIDs(learnerID int64) []int {
	return s.Load(learnerID).ReadIDs
}

// UnreadIDs returns the ids 1..total not yet read, ascending.
func (s *Store) UnreadIDs(learnerID int64, total int) []int {
	p := s.Load(learnerID)
	var out []int
	for id := 1; id <= total; id++ {
		if !p.HasRead(id) {
			out = append(out, id)
		}
	}
	return out
}

// AddFavorite adds subjectID to the favorites set.
func (s *Store) AddFavorite(learnerID int64, subjectID int) bool {
	return s.update(learnerID, func(p *domain.Progress) bool {
		if p.IsFavorite(subjectID) {
			return false
		}
		p.Favorites = append(p.Favorites, subjectID)
		return true
	})
}

// RemoveFavorite removes subjectID from the favorites set.
func (s *Store) RemoveFavorite(learnerID int64, subjectID int) bool {
	return s.update(learnerID, func(p *domain.Progress) bool {
		for i, id := range p.Favorites {
			if id == subjectID {
				p.Favorites = append(p.Favorites[:i], p.Favorites[i+1:]...)
				return true
			}
		}
		return false
	})
}

// IsFavorite reports whether subjectID is a favorite.
func (s *Store) IsFavorite(learnerID int64, subjectID int) bool {
	return s.Load(learnerID).IsFavorite(subjectID)
}

// Favorites returns the favorite ids in insertion order.
func (s *Store) Favorites(learnerID int64) []int {
	return s.Load(learnerID).Favorites
}

// SetNote stores text as the note on subjectID, replacing any earlier note.
func (s *Store) SetNote(learnerID int64, subjectID int, text string) bool {
	return s.update(learnerID, func(p *domain.Progress) bool {
		p.Notes[subjectID] = domain.Note{Text: text, Timestamp: s.now()}
		return true
	})
}

// Note returns the note on subjectID.
func (s *Store) Note(learnerID int64, subjectID int) (domain.Note, bool) {
	n, ok := s.Load(learnerID).Notes[subjectID]
	return n, ok
}

// DeleteNote removes the note on subjectID.
func (s *Store) DeleteNote(learnerID int64, subjectID int) bool {
	return s.update(learnerID, func(p *domain.Progress) bool {
		if _, ok := p.Notes[subjectID]; !ok {
			return false
		}
		delete(p.Notes, subjectID)
		return true
	})
}

// SaveQuizScore appends a quiz result.
func (s *Store) SaveQuizScore(learnerID int64, score, total int) bool {
	return s.update(learnerID, func(p *domain.Progress) bool {
		p.QuizScores = append(p.QuizScores, domain.QuizResult{
			Score:      score,
			Total:      total,
			Percentage: Percentage(score, total),
			Timestamp:  s.now(),
		})
		return true
	})
}

// QuizHistory returns every stored quiz result, oldest first.
func (s *Store) QuizHistory(learnerID int64) []domain.QuizResult {
	return s.Load(learnerID).QuizScores
}

// SetStudyPlan replaces the learner's plan.
func (s *Store) SetStudyPlan(learnerID int64, ids []int) bool {
	return s.update(learnerID, func(p *domain.Progress) bool {
		p.StudyPlan = append([]int{}, ids...)
		return true
	})
}

// StudyPlan returns the learner's plan.
func (s *Store) StudyPlan(learnerID int64) []int {
	return s.Load(learnerID).StudyPlan
}

// SelfAssess records whether the learner knows subjectID. The latest answer wins.
func (s *Store) SelfAssess(learnerID int64, subjectID int, knows bool) bool {
	return s.update(learnerID, func(p *domain.Progress) bool {
		p.SelfAssessment[subjectID] = knows
		return true
	})
}

// NeedsReview returns, ascending, the ids whose latest self-assessment is "does not know".
func (s *Store) NeedsReview(learnerID int64) []int {
	return needsReview(s.Load(learnerID))
}

func needsReview(p *domain.Progress) []int {
	var out []int
	for id, knows := range p.SelfAssessment {
		if !knows {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// IncrementFlashcard bumps the flashcard review counter and returns the stored value.
func (s *Store) IncrementFlashcard(learnerID int64) int {
	p := s.Load(learnerID)
	p.FlashcardCount++
	if !s.Save(learnerID, p) {
		return p.FlashcardCount - 1
	}
	return p.FlashcardCount
}

// Streak is the learner's daily reading streak.
type Streak struct {
	Count    int
	Best     int
	LastDate string
}

// Streak returns the learner's streak counters.
func (s *Store) Streak(learnerID int64) Streak {
	p := s.Load(learnerID)
	return Streak{Count: p.StreakCount, Best: p.StreakBest, LastDate: p.StreakLastDate}
}

// EarnedBadges returns the ids of every badge the learner holds.
func (s *Store) EarnedBadges(learnerID int64) []string {
	return s.Load(learnerID).EarnedBadges
}

// CheckAndAwardBadges evaluates the badge table and returns the ids newly
// earned by this call, in table order. Earned badges are never removed. When
// the award cannot be saved nothing is reported.
func (s *Store) CheckAndAwardBadges(learnerID int64) []string {
	p := s.Load(learnerID)
	fresh := award(p)
	if len(fresh) > 0 && !s.Save(learnerID, p) {
		return nil
	}
	return fresh
}
