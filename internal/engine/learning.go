package engine

import (
	"github.com/conorfennell/nibras/internal/domain"
	"github.com/conorfennell/nibras/internal/session"
)

// StartQuiz generates up to count questions (the configured default when
// count is not positive) and opens a quiz session over them.
func (e *Engine) StartQuiz(learnerID int64, count int) (string, int, error) {
	if e.index.Len() == 0 {
		return "", 0, ErrNoData
	}
	if e.sessions.QuizActive(learnerID) {
		return "", 0, session.ErrSessionActive
	}
	if count <= 0 {
		count = e.opts.QuestionCount
	}

	e.rngMu.Lock()
	questions := e.quiz.Generate(count)
	e.rngMu.Unlock()

	id, err := e.sessions.StartQuiz(learnerID, questions)
	if err != nil {
		return "", 0, err
	}
	return id, len(questions), nil
}

// CurrentQuestion returns the question awaiting an answer; ok is false once
// the quiz has no questions left.
func (e *Engine) CurrentQuestion(learnerID int64) (q domain.QuizQuestion, index int, ok bool, err error) {
	return e.sessions.CurrentQuestion(learnerID)
}

// Answer grades choice against the current question.
func (e *Engine) Answer(learnerID int64, choice string) (session.Answer, error) {
	return e.sessions.SubmitAnswer(learnerID, choice)
}

// FinishQuiz closes the quiz, stores its score and returns the result with
// any newly earned badges.
func (e *Engine) FinishQuiz(learnerID int64) (session.QuizResult, []string, error) {
	res, err := e.sessions.FinishQuiz(learnerID)
	if err != nil {
		return session.QuizResult{}, nil, err
	}
	e.store.SaveQuizScore(learnerID, res.Score, res.Total)
	return res, e.store.CheckAndAwardBadges(learnerID), nil
}

// CancelQuiz discards the learner's quiz.
func (e *Engine) CancelQuiz(learnerID int64) bool {
	return e.sessions.CancelQuiz(learnerID)
}

// StartFlashcards opens a flashcard pass over every record, or only over the
// records marked for review when reviewOnly is set. It returns the number of
// cards.
func (e *Engine) StartFlashcards(learnerID int64, reviewOnly bool) (int, error) {
	if e.index.Len() == 0 {
		return 0, ErrNoData
	}
	var ids []int
	if reviewOnly {
		for _, id := range e.store.NeedsReview(learnerID) {
			if _, ok := e.index.Get(id); ok {
				ids = append(ids, id)
			}
		}
	} else {
		ids = e.index.IDs()
	}
	if _, err := e.sessions.StartFlashcards(learnerID, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Card is the flashcard under review.
type Card struct {
	Record domain.Record
	Index  int
	Total  int
}

// CurrentCard returns the card under review; ok is false once the pass is
// exhausted.
func (e *Engine) CurrentCard(learnerID int64) (Card, bool, error) {
	id, index, total, ok, err := e.sessions.CurrentCard(learnerID)
	if err != nil || !ok {
		return Card{}, false, err
	}
	r, found := e.index.Get(id)
	if !found {
		return Card{}, false, ErrNotFound
	}
	return Card{Record: r, Index: index, Total: total}, true, nil
}

// AnswerCard records the learner's self-assessment of the current card,
// counts the review and advances. It reports whether the pass has ended.
func (e *Engine) AnswerCard(learnerID int64, knew bool) (bool, error) {
	id, _, _, ok, err := e.sessions.CurrentCard(learnerID)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, session.ErrSessionDone
	}
	e.store.SelfAssess(learnerID, id, knew)
	e.store.IncrementFlashcard(learnerID)
	return e.sessions.Advance(learnerID, knew)
}

// FinishFlashcards closes the pass and returns its result with any newly
// earned badges.
func (e *Engine) FinishFlashcards(learnerID int64) (session.FlashcardResult, []string, error) {
	res, err := e.sessions.FinishFlashcards(learnerID)
	if err != nil {
		return session.FlashcardResult{}, nil, err
	}
	return res, e.store.CheckAndAwardBadges(learnerID), nil
}

// CancelFlashcards discards the learner's flashcard pass.
func (e *Engine) CancelFlashcards(learnerID int64) bool {
	return e.sessions.CancelFlashcards(learnerID)
}
