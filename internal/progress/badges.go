package progress

import "github.com/conorfennell/nibras/internal/domain"

// Badge is a one-way achievement unlocked when Earned first holds.
type Badge struct {
	ID          string
	Emoji       string
	Label       string
	Description string
	Earned      func(p *domain.Progress) bool
}

// Badges is the fixed badge table, in display order.
var Badges = []Badge{
	{ID: "seedling", Emoji: "🌱", Label: "مبتدئ", Description: "قراءة 5 أحاديث", Earned: readAtLeast(5)},
	{ID: "student", Emoji: "📚", Label: "طالب علم", Description: "قراءة 20 حديثاً", Earned: readAtLeast(20)},
	{ID: "graduate", Emoji: "🎓", Label: "الخريج", Description: "إتمام الـ 42", Earned: readAtLeast(42)},
	{ID: "champion", Emoji: "🏆", Label: "الحافظ", Description: "نتيجة 100% في اختبار", Earned: perfectQuiz},
	{ID: "starred", Emoji: "⭐", Label: "المميز", Description: "10 أحاديث في المفضلة", Earned: func(p *domain.Progress) bool {
		return len(p.Favorites) >= 10
	}},
	{ID: "writer", Emoji: "📝", Label: "الكاتب", Description: "10 ملاحظات مكتوبة", Earned: func(p *domain.Progress) bool {
		return len(p.Notes) >= 10
	}},
	{ID: "streak7", Emoji: "🔥", Label: "الثابت", Description: "7 أيام متواصلة", Earned: streakAtLeast(7)},
	{ID: "streak30", Emoji: "💎", Label: "المداوم", Description: "30 يوم متواصلة", Earned: streakAtLeast(30)},
	{ID: "flashcard", Emoji: "🃏", Label: "المتدرب", Description: "10 بطاقات حفظ مراجعة", Earned: func(p *domain.Progress) bool {
		return p.FlashcardCount >= 10
	}},
}

// LookupBadge returns the table entry for id.
func LookupBadge(id string) (Badge, bool) {
	for _, b := range Badges {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

func readAtLeast(n int) func(*domain.Progress) bool {
	return func(p *domain.Progress) bool { return len(p.ReadIDs) >= n }
}

func streakAtLeast(n int) func(*domain.Progress) bool {
	return func(p *domain.Progress) bool { return p.StreakCount >= n }
}

func perfectQuiz(p *domain.Progress) bool {
	for _, q := range p.QuizScores {
		if q.Percentage == 100 {
			return true
		}
	}
	return false
}

// award adds every newly satisfied badge to p and returns their ids.
func award(p *domain.Progress) []string {
	var fresh []string
	for _, b := range Badges {
		if p.HasBadge(b.ID) || !b.Earned(p) {
			continue
		}
		p.EarnedBadges = append(p.EarnedBadges, b.ID)
		fresh = append(fresh, b.ID)
	}
	return fresh
}
