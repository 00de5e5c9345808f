package progress

import (
	"time"

	"github.com/conorfennell/nibras/internal/domain"
)

// IncrementInteraction bumps the interaction counter and returns the stored value.
func (s *Store) IncrementInteraction(learnerID int64) int {
	p := s.Load(learnerID)
	p.InteractionCount++
	if !s.Save(learnerID, p) {
		return p.InteractionCount - 1
	}
	return p.InteractionCount
}

// ShouldShowSupport reports whether the interaction counter sits on a
// multiple of interval. A non-positive interval disables the prompt.
func (s *Store) ShouldShowSupport(learnerID int64, interval int) bool {
	if interval <= 0 {
		return false
	}
	n := s.Load(learnerID).InteractionCount
	return n > 0 && n%interval == 0
}

// LastDaily returns the ISO date of the learner's last daily item, or "".
func (s *Store) LastDaily(learnerID int64) string {
	return s.Load(learnerID).LastDaily
}

// MarkDaily records today as the learner's last daily item date.
func (s *Store) MarkDaily(learnerID int64) bool {
	return s.update(learnerID, func(p *domain.Progress) bool {
		p.LastDaily = s.now().Format(isoDate)
		return true
	})
}

// Today returns the store clock's current ISO date.
func (s *Store) Today() string {
	return s.now().Format(isoDate)
}

// EnableReminder turns the morning reminder on at hhmm in timezone.
func (s *Store) EnableReminder(learnerID int64, hhmm, timezone string) bool {
	return s.update(learnerID, func(p *domain.Progress) bool {
		p.Reminder.Enabled = true
		p.Reminder.Time = hhmm
		if timezone != "" {
			p.Reminder.Timezone = timezone
		}
		return true
	})
}

// DisableReminder turns the morning reminder off and keeps its settings.
func (s *Store) DisableReminder(learnerID int64) bool {
	return s.update(learnerID, func(p *domain.Progress) bool {
		p.Reminder.Enabled = false
		return true
	})
}

// SetEveningReminder sets the evening slot; an empty hhmm clears it.
func (s *Store) SetEveningReminder(learnerID int64, hhmm string) bool {
	return s.update(learnerID, func(p *domain.Progress) bool {
		p.Reminder.EveningTime = hhmm
		return true
	})
}

// Reminder returns the learner's reminder settings.
func (s *Store) Reminder(learnerID int64) domain.ReminderSettings {
	return s.Load(learnerID).Reminder
}

// RecordReminderSent stamps the morning or evening slot as sent now.
func (s *Store) RecordReminderSent(learnerID int64, evening bool) bool {
	return s.update(learnerID, func(p *domain.Progress) bool {
		now := s.now()
		if evening {
			p.Reminder.LastEvening = &now
		} else {
			p.Reminder.LastSent = &now
		}
		return true
	})
}

// Ban marks the learner as banned.
func (s *Store) Ban(learnerID int64) bool {
	return s.setBanned(learnerID, true)
}

// Unban clears the banned flag.
func (s *Store) Unban(learnerID int64) bool {
	return s.setBanned(learnerID, false)
}

// IsBanned reports whether the learner is banned.
func (s *Store) IsBanned(learnerID int64) bool {
	return s.Load(learnerID).Banned
}

func (s *Store) setBanned(learnerID int64, banned bool) bool {
	return s.update(learnerID, func(p *domain.Progress) bool {
		if p.Banned == banned {
			return false
		}
		p.Banned = banned
		return true
	})
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.now()
}
