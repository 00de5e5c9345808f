package progress

import (
	"fmt"
	"math"
	"time"

	"github.com/conorfennell/nibras/internal/domain"
)

const isoDate = "2006-01-02"

// WeekKey returns the calendar-week bucket for t as "YYYY-Www". Weeks start
// on Monday; days of a new year before its first Monday fall in week 00.
func WeekKey(t time.Time) string {
	mondayIndex := (int(t.Weekday()) + 6) % 7
	week := (t.YearDay() - 1 + 7 - mondayIndex) / 7
	return fmt.Sprintf("%d-W%02d", t.Year(), week)
}

// recentWeekKeys returns the distinct week keys covering the seven calendar
// days ending at now.
func recentWeekKeys(now time.Time) []string {
	var keys []string
	seen := make(map[string]bool)
	for i := 0; i < 7; i++ {
		k := WeekKey(now.AddDate(0, 0, -i))
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

// updateStreak applies one day of reading activity at now. Repeat activity on
// the same day changes nothing; activity the day after the last streak day
// extends it; any other gap restarts it at 1.
func updateStreak(p *domain.Progress, now time.Time) {
	today := now.Format(isoDate)
	if p.StreakLastDate == today {
		return
	}
	yesterday := now.AddDate(0, 0, -1).Format(isoDate)
	if p.StreakLastDate == yesterday {
		p.StreakCount++
	} else {
		p.StreakCount = 1
	}
	p.StreakLastDate = today
	if p.StreakCount > p.StreakBest {
		p.StreakBest = p.StreakCount
	}
}

// Percentage returns 100*score/total rounded to two decimals, or 0 when total is 0.
func Percentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round(float64(score)/float64(total)*100, 2)
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}
