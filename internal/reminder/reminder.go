// Package reminder decides whether a learner's reminder slots are due. It
// does not schedule or deliver anything.
package reminder

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Zone data for hosts without a system database

	"github.com/conorfennell/nibras/internal/domain"
)

// DefaultWindow is how close to the slot time the clock must be.
const DefaultWindow = 3 * time.Minute

// ParseTime parses "HH:MM" into minutes after midnight.
func ParseTime(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// ShouldSend reports whether a slot last sent at lastSent may fire again at
// now: never sent, an unknown timezone, or a last send on an earlier
// calendar day in the learner's zone.
func ShouldSend(lastSent *time.Time, timezone string, now time.Time) bool {
	if lastSent == nil || lastSent.IsZero() {
		return true
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return true
	}
	return dateOf(lastSent.In(loc)).Before(dateOf(now.In(loc)))
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Slots says which reminder slots are due.
type Slots struct {
	Morning bool
	Evening bool
}

// Any reports whether at least one slot is due.
func (s Slots) Any() bool {
	return s.Morning || s.Evening
}

// Due evaluates both slots of settings at now. A slot is due when reminders
// are enabled, its time parses, the clock in the learner's zone is within
// window of it, and it has not been sent today.
func Due(settings domain.ReminderSettings, now time.Time, window time.Duration) Slots {
	if !settings.Enabled {
		return Slots{}
	}
	if window <= 0 {
		window = DefaultWindow
	}
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		slog.Warn("Unknown reminder timezone", "timezone", settings.Timezone, "error", err)
		return Slots{}
	}
	local := now.In(loc)
	current := local.Hour()*60 + local.Minute()
	limit := int(window / time.Minute)

	within := func(slot string) bool {
		minutes, ok := ParseTime(slot)
		if !ok {
			return false
		}
		diff := current - minutes
		if diff < 0 {
			diff = -diff
		}
		return diff < limit
	}

	var s Slots
	s.Morning = within(settings.Time) && ShouldSend(settings.LastSent, settings.Timezone, now)
	if settings.EveningTime != "" {
		s.Evening = within(settings.EveningTime) && ShouldSend(settings.LastEvening, settings.Timezone, now)
	}
	return s
}
