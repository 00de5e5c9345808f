package tutor

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/conorfennell/nibras/internal/domain"
)

const maxSuggestions = 5

var keywordQuestions = []struct {
	keyword  string
	question string
}{
	{"نية", "ما أهمية النية في الأعمال؟"},
	{"إيمان", "كيف نقوي الإيمان من خلال هذا الحديث؟"},
	{"صلاة", "ما الأحكام المستفادة عن الصلاة؟"},
	{"صوم", "ما فضل الصيام في هذا الحديث؟"},
	{"زكاة", "ما شروط الزكاة المذكورة؟"},
	{"حج", "ما أركان الحج الواردة؟"},
	{"تقوى", "كيف نحقق التقوى عملياً؟"},
	{"صدق", "ما ثمرات الصدق؟"},
	{"حلال", "كيف نميز بين الحلال والحرام؟"},
	{"حرام", "لماذا حُرم ما ذُكر في الحديث؟"},
	{"رحمة", "كيف نجسّد الرحمة في حياتنا؟"},
	{"ظلم", "ما عقوبة الظلم المستفادة؟"},
}

// SuggestQuestions returns up to five follow-up questions about r, drawn at
// random from general prompts, keyword prompts matched against the body, and
// prompts for its first two topics.
func SuggestQuestions(r domain.Record, rng *rand.Rand) []string {
	questions := []string{
		fmt.Sprintf("ما المعنى الإجمالي للحديث رقم %d؟", r.ID),
		fmt.Sprintf("ما الفوائد العملية من حديث %s؟", r.Title),
		fmt.Sprintf("كيف أطبق حديث '%s' في حياتي اليومية؟", r.Title),
	}
	if r.ID > 1 {
		questions = append(questions, fmt.Sprintf("ما العلاقة بين الحديث %d والأحاديث الأخرى؟", r.ID))
	}

	body := strings.ToLower(r.Body)
	for _, kq := range keywordQuestions {
		if strings.Contains(body, kq.keyword) {
			questions = append(questions, kq.question)
		}
	}

	topics := r.Topics
	if len(topics) > 2 {
		topics = topics[:2]
	}
	for _, topic := range topics {
		questions = append(questions, fmt.Sprintf("كيف يتعلق موضوع '%s' بحياتنا اليومية؟", topic))
	}

	rng.Shuffle(len(questions), func(i, j int) { questions[i], questions[j] = questions[j], questions[i] })
	if len(questions) > maxSuggestions {
		questions = questions[:maxSuggestions]
	}
	return questions
}
