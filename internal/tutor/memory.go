package tutor

import (
	"sync"

	"github.com/sashabaranov/go-openai"
)

// Memory keeps a bounded chat history and the subject under discussion for
// each learner. It is safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	max     int
	history map[int64][]openai.ChatCompletionMessage
	active  map[int64]int
}

// NewMemory returns a Memory that keeps the last max messages per learner.
func NewMemory(max int) *Memory {
	if max <= 0 {
		max = DefaultMaxHistory
	}
	return &Memory{
		max:     max,
		history: make(map[int64][]openai.ChatCompletionMessage),
		active:  make(map[int64]int),
	}
}

// Add appends a message, dropping the oldest once the bound is reached.
func (m *Memory) Add(learnerID int64, role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := append(m.history[learnerID], openai.ChatCompletionMessage{Role: role, Content: content})
	if len(h) > m.max {
		h = h[len(h)-m.max:]
	}
	m.history[learnerID] = h
}

// History returns a copy of the learner's messages, oldest first.
func (m *Memory) History(learnerID int64) []openai.ChatCompletionMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]openai.ChatCompletionMessage(nil), m.history[learnerID]...)
}

// SetActive records the subject the learner is discussing.
func (m *Memory) SetActive(learnerID int64, subjectID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[learnerID] = subjectID
}

// Active returns the subject the learner is discussing.
func (m *Memory) Active(learnerID int64) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.active[learnerID]
	return id, ok
}

// Clear forgets the learner's history and active subject.
func (m *Memory) Clear(learnerID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.history, learnerID)
	delete(m.active, learnerID)
}
