package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/conorfennell/nibras/internal/domain"
)

func TestParseTime(t *testing.T) {
	testCases := []struct {
		input    string
		expected int
		ok       bool
	}{
		{input: "08:00", expected: 480, ok: true},
		{input: "8:5", expected: 485, ok: true},
		{input: "23:59", expected: 1439, ok: true},
		{input: "00:00", expected: 0, ok: true},
		{input: "24:00"},
		{input: "12:60"},
		{input: "noon"},
		{input: "12"},
		{input: "1:2:3"},
		{input: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := ParseTime(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestShouldSend(t *testing.T) {
	riyadh, _ := time.LoadLocation("Asia/Riyadh")
	now := time.Date(2024, 3, 2, 6, 0, 0, 0, riyadh)

	earlierToday := time.Date(2024, 3, 2, 1, 0, 0, 0, riyadh)
	yesterday := time.Date(2024, 3, 1, 23, 0, 0, 0, riyadh)
	// 22:30 UTC on Mar 1 is already Mar 2 in Riyadh.
	lateUTC := time.Date(2024, 3, 1, 22, 30, 0, 0, time.UTC)

	assert.True(t, ShouldSend(nil, "Asia/Riyadh", now))
	assert.True(t, ShouldSend(&time.Time{}, "Asia/Riyadh", now))
	assert.False(t, ShouldSend(&earlierToday, "Asia/Riyadh", now))
	assert.True(t, ShouldSend(&yesterday, "Asia/Riyadh", now))
	assert.False(t, ShouldSend(&lateUTC, "Asia/Riyadh", now))
	assert.True(t, ShouldSend(&earlierToday, "Not/AZone", now))
}

func TestDue(t *testing.T) {
	riyadh, _ := time.LoadLocation("Asia/Riyadh")
	at := func(h, m int) time.Time { return time.Date(2024, 3, 2, h, m, 0, 0, riyadh) }
	sentToday := at(8, 0)

	base := domain.ReminderSettings{Enabled: true, Time: "08:00", EveningTime: "21:00", Timezone: "Asia/Riyadh"}

	testCases := []struct {
		name     string
		mutate   func(s *domain.ReminderSettings)
		now      time.Time
		expected Slots
	}{
		{name: "Morning on time", now: at(8, 0), expected: Slots{Morning: true}},
		{name: "Morning inside window", now: at(8, 2), expected: Slots{Morning: true}},
		{name: "Morning before window", now: at(7, 58), expected: Slots{Morning: true}},
		{name: "Morning outside window", now: at(8, 3), expected: Slots{}},
		{name: "Evening on time", now: at(21, 1), expected: Slots{Evening: true}},
		{name: "Morning already sent", now: at(8, 1), mutate: func(s *domain.ReminderSettings) { s.LastSent = &sentToday }, expected: Slots{}},
		{name: "Evening cleared", now: at(21, 0), mutate: func(s *domain.ReminderSettings) { s.EveningTime = "" }, expected: Slots{}},
		{name: "Disabled", now: at(8, 0), mutate: func(s *domain.ReminderSettings) { s.Enabled = false }, expected: Slots{}},
		{name: "Unparseable time", now: at(8, 0), mutate: func(s *domain.ReminderSettings) { s.Time = "8am" }, expected: Slots{}},
		{name: "Unknown zone", now: at(8, 0), mutate: func(s *domain.ReminderSettings) { s.Timezone = "Mars/Base" }, expected: Slots{}},
		{name: "Clock in another zone", now: at(8, 0).UTC(), expected: Slots{Morning: true}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := base
			if tc.mutate != nil {
				tc.mutate(&s)
			}
			got := Due(s, tc.now, DefaultWindow)
			assert.Equal(t, tc.expected, got)
			assert.Equal(t, got.Morning || got.Evening, got.Any())
		})
	}
}
