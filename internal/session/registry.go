// Package session holds the in-memory quiz and flashcard passes, at most one
// of each per learner. Sessions are lost on restart.
package session

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/conorfennell/nibras/internal/domain"
	"github.com/conorfennell/nibras/internal/progress"
)

var (
	// ErrSessionActive is returned when starting a session while one of the
	// same kind is in progress for the learner.
	ErrSessionActive = errors.New("session already in progress")
	// ErrNoSession is returned when the learner has no session of that kind.
	ErrNoSession = errors.New("no active session")
	// ErrNoQuestions is returned when a session would start with nothing in it.
	ErrNoQuestions = errors.New("nothing to review")
	// ErrSessionDone is returned when answering past the last item.
	ErrSessionDone = errors.New("no items remaining in session")
)

// Answer is one entry of a quiz answer log.
type Answer struct {
	SubjectID     int
	UserAnswer    string
	CorrectAnswer string
	IsCorrect     bool
}

// QuizResult is returned once when a quiz session is finished.
type QuizResult struct {
	SessionID  string
	Score      int
	Total      int
	Percentage float64
	Answers    []Answer
}

// FlashcardResult is returned once when a flashcard session is finished.
type FlashcardResult struct {
	SessionID string
	Correct   int
	Total     int
}

type quizSession struct {
	id        string
	questions []domain.QuizQuestion
	index     int
	score     int
	answers   []Answer
}

type flashcardSession struct {
	id      string
	queue   []int
	index   int
	correct int
}

// Registry owns every live session. It is safe for concurrent use.
type Registry struct {
	mu         sync.Mutex
	rng        *rand.Rand
	quizzes    map[int64]*quizSession
	flashcards map[int64]*flashcardSession
}

// NewRegistry returns an empty registry that shuffles flashcard queues with rng.
func NewRegistry(rng *rand.Rand) *Registry {
	return &Registry{
		rng:        rng,
		quizzes:    make(map[int64]*quizSession),
		flashcards: make(map[int64]*flashcardSession),
	}
}

// StartQuiz opens a quiz over questions and returns its session id.
func (r *Registry) StartQuiz(learnerID int64, questions []domain.QuizQuestion) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.quizzes[learnerID]; ok {
		return "", ErrSessionActive
	}
	if len(questions) == 0 {
		return "", ErrNoQuestions
	}
	s := &quizSession{
		id:        uuid.NewString(),
		questions: append([]domain.QuizQuestion(nil), questions...),
	}
	r.quizzes[learnerID] = s
	return s.id, nil
}

// QuizActive reports whether the learner has a quiz in progress.
func (r *Registry) QuizActive(learnerID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.quizzes[learnerID]
	return ok
}

// CurrentQuestion returns the question awaiting an answer. ok is false once
// every question has been answered; the caller then finishes the quiz.
func (r *Registry) CurrentQuestion(learnerID int64) (q domain.QuizQuestion, index int, ok bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, found := r.quizzes[learnerID]
	if !found {
		return domain.QuizQuestion{}, 0, false, ErrNoSession
	}
	if s.index >= len(s.questions) {
		return domain.QuizQuestion{}, s.index, false, nil
	}
	return s.questions[s.index], s.index, true, nil
}

// SubmitAnswer grades choice against the current question and advances.
func (r *Registry) SubmitAnswer(learnerID int64, choice string) (Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, found := r.quizzes[learnerID]
	if !found {
		return Answer{}, ErrNoSession
	}
	if s.index >= len(s.questions) {
		return Answer{}, ErrSessionDone
	}

	q := s.questions[s.index]
	a := Answer{
		SubjectID:     q.SubjectID,
		UserAnswer:    choice,
		CorrectAnswer: q.Correct,
		IsCorrect:     choice == q.Correct,
	}
	if a.IsCorrect {
		s.score++
	}
	s.answers = append(s.answers, a)
	s.index++
	return a, nil
}

// FinishQuiz removes the learner's quiz and returns its result. A second
// call returns ErrNoSession.
func (r *Registry) FinishQuiz(learnerID int64) (QuizResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, found := r.quizzes[learnerID]
	if !found {
		return QuizResult{}, ErrNoSession
	}
	delete(r.quizzes, learnerID)

	return QuizResult{
		SessionID:  s.id,
		Score:      s.score,
		Total:      len(s.questions),
		Percentage: progress.Percentage(s.score, len(s.questions)),
		Answers:    s.answers,
	}, nil
}

// CancelQuiz discards the learner's quiz, reporting whether there was one.
func (r *Registry) CancelQuiz(learnerID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.quizzes[learnerID]
	delete(r.quizzes, learnerID)
	return ok
}

// StartFlashcards opens a flashcard pass over a shuffled copy of ids and
// returns its session id.
func (r *Registry) StartFlashcards(learnerID int64, ids []int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.flashcards[learnerID]; ok {
		return "", ErrSessionActive
	}
	if len(ids) == 0 {
		return "", ErrNoQuestions
	}
	queue := append([]int(nil), ids...)
	r.rng.Shuffle(len(queue), func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })

	s := &flashcardSession{id: uuid.NewString(), queue: queue}
	r.flashcards[learnerID] = s
	return s.id, nil
}

// FlashcardsActive reports whether the learner has a flashcard pass in progress.
func (r *Registry) FlashcardsActive(learnerID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.flashcards[learnerID]
	return ok
}

// CurrentCard returns the id under review and its position. ok is false once
// the queue is exhausted.
func (r *Registry) CurrentCard(learnerID int64) (id, index, total int, ok bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, found := r.flashcards[learnerID]
	if !found {
		return 0, 0, 0, false, ErrNoSession
	}
	if s.index >= len(s.queue) {
		return 0, s.index, len(s.queue), false, nil
	}
	return s.queue[s.index], s.index, len(s.queue), true, nil
}

// Advance records whether the learner knew the current card, moves to the
// next one, and reports whether the pass has just ended.
func (r *Registry) Advance(learnerID int64, knew bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, found := r.flashcards[learnerID]
	if !found {
		return false, ErrNoSession
	}
	if s.index >= len(s.queue) {
		return true, ErrSessionDone
	}
	if knew {
		s.correct++
	}
	s.index++
	return s.index >= len(s.queue), nil
}

// FinishFlashcards removes the learner's flashcard pass and returns its
// result. A second call returns ErrNoSession.
func (r *Registry) FinishFlashcards(learnerID int64) (FlashcardResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, found := r.flashcards[learnerID]
	if !found {
		return FlashcardResult{}, ErrNoSession
	}
	delete(r.flashcards, learnerID)
	return FlashcardResult{SessionID: s.id, Correct: s.correct, Total: len(s.queue)}, nil
}

// CancelFlashcards discards the learner's flashcard pass, reporting whether
// there was one.
func (r *Registry) CancelFlashcards(learnerID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.flashcards[learnerID]
	delete(r.flashcards, learnerID)
	return ok
}
