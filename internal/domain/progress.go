package domain

import "time"

// Note is a learner's free-text note on a record.
type Note struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// QuizResult is one completed quiz run.
type QuizResult struct {
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percentage float64   `json:"percentage"`
	Timestamp  time.Time `json:"timestamp"`
}

// ReminderSettings is the learner's reminder configuration. Times are "HH:MM"
// in Timezone; an empty EveningTime means the evening slot is off.
type ReminderSettings struct {
	Enabled     bool       `json:"enabled"`
	Time        string     `json:"time"`
	EveningTime string     `json:"time_evening,omitempty"`
	Timezone    string     `json:"timezone"`
	LastSent    *time.Time `json:"last_sent,omitempty"`
	LastEvening *time.Time `json:"last_evening,omitempty"`
}

// Progress is the whole persisted document for one learner. It is always
// loaded, mutated and saved as a unit.
type Progress struct {
	ReadIDs          []int            `json:"read_hadiths"`
	Favorites        []int            `json:"favorites"`
	Notes            map[int]Note     `json:"notes"`
	QuizScores       []QuizResult     `json:"quiz_scores"`
	StudyPlan        []int            `json:"study_plan"`
	WeeklyReads      map[string]int   `json:"weekly_reads"`
	StreakCount      int              `json:"streak_count"`
	StreakBest       int              `json:"streak_best"`
	StreakLastDate   string           `json:"streak_last_date,omitempty"`
	EarnedBadges     []string         `json:"earned_badges"`
	SelfAssessment   map[int]bool     `json:"self_assessment"`
	FlashcardCount   int              `json:"flashcard_count"`
	InteractionCount int              `json:"interaction_count"`
	LastDaily        string           `json:"last_daily,omitempty"`
	Reminder         ReminderSettings `json:"reminder"`
	Banned           bool             `json:"banned"`
}

// NewProgress returns a document with every collection initialised.
func NewProgress(reminderTime, timezone string) *Progress {
	p := &Progress{
		Reminder: ReminderSettings{Time: reminderTime, Timezone: timezone},
	}
	p.FillDefaults(reminderTime, timezone)
	return p
}

// FillDefaults initialises any nil collection and empty reminder field, so a
// document decoded from an older shape is usable without further checks.
func (p *Progress) FillDefaults(reminderTime, timezone string) {
	if p.ReadIDs == nil {
		p.ReadIDs = []int{}
	}
	if p.Favorites == nil {
		p.Favorites = []int{}
	}
	if p.Notes == nil {
		p.Notes = map[int]Note{}
	}
	if p.QuizScores == nil {
		p.QuizScores = []QuizResult{}
	}
	if p.StudyPlan == nil {
		p.StudyPlan = []int{}
	}
	if p.WeeklyReads == nil {
		p.WeeklyReads = map[string]int{}
	}
	if p.EarnedBadges == nil {
		p.EarnedBadges = []string{}
	}
	if p.SelfAssessment == nil {
		p.SelfAssessment = map[int]bool{}
	}
	if p.Reminder.Time == "" {
		p.Reminder.Time = reminderTime
	}
	if p.Reminder.Timezone == "" {
		p.Reminder.Timezone = timezone
	}
}

// HasRead reports whether id is in the read set.
func (p *Progress) HasRead(id int) bool {
	return containsInt(p.ReadIDs, id)
}

// IsFavorite reports whether id is in the favorites set.
func (p *Progress) IsFavorite(id int) bool {
	return containsInt(p.Favorites, id)
}

// HasBadge reports whether the badge id has been earned.
func (p *Progress) HasBadge(id string) bool {
	for _, b := range p.EarnedBadges {
		if b == id {
			return true
		}
	}
	return false
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
