package progress

// Stats is the aggregate view of one learner.
type Stats struct {
	ReadCount          int
	Total              int
	ProgressPercentage float64
	Favorites          int
	Notes              int
	QuizzesTaken       int
	AverageQuizScore   float64
	BestQuizScore      float64
	Streak             int
	StreakBest         int
	WeekReads          int
	EarnedBadges       []string
	FlashcardCount     int
	NeedsReview        int
}

// Statistics summarises the learner's state against a corpus of total items.
//
// WeekReads sums the weekly buckets touched by the last seven calendar days.
// Near a week boundary that includes reads older than seven days.
func (s *Store) Statistics(learnerID int64, total int) Stats {
	p := s.Load(learnerID)

	var sum, best float64
	for _, q := range p.QuizScores {
		sum += q.Percentage
		if q.Percentage > best {
			best = q.Percentage
		}
	}
	var avg float64
	if len(p.QuizScores) > 0 {
		avg = sum / float64(len(p.QuizScores))
	}

	weekReads := 0
	for _, k := range recentWeekKeys(s.now()) {
		weekReads += p.WeeklyReads[k]
	}

	return Stats{
		ReadCount:          len(p.ReadIDs),
		Total:              total,
		ProgressPercentage: Percentage(len(p.ReadIDs), total),
		Favorites:          len(p.Favorites),
		Notes:              len(p.Notes),
		QuizzesTaken:       len(p.QuizScores),
		AverageQuizScore:   Round(avg, 2),
		BestQuizScore:      Round(best, 2),
		Streak:             p.StreakCount,
		StreakBest:         p.StreakBest,
		WeekReads:          weekReads,
		EarnedBadges:       p.EarnedBadges,
		FlashcardCount:     p.FlashcardCount,
		NeedsReview:        len(needsReview(p)),
	}
}
