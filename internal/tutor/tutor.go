// Package tutor asks an external chat-completion service to explain corpus
// records, keeping a short per-learner conversation.
package tutor

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"

	"github.com/conorfennell/nibras/internal/domain"
)

// DefaultMaxHistory is the number of messages remembered per learner.
const DefaultMaxHistory = 8

const contextExcerptRunes = 400

// Mode selects the explanation style.
type Mode string

const (
	ModeNormal  Mode = "normal"
	ModeSimple  Mode = "simple"
	ModeCompare Mode = "compare"
)

var systemPrompts = map[Mode]string{
	ModeNormal: "أنت 'نبراس'، مساعد ذكي متخصص حصرياً في شرح وتفسير 'الأربعين النووية'.\n" +
		"تتميز بالدقة العلمية والوضوح والوقار مع التركيز على التطبيق العملي.\n\n" +
		"في نهاية كل رد اقترح سؤالاً واحداً ذكياً بين ## ##",
	ModeSimple: "أنت معلم صبور يشرح للأطفال والمبتدئين.\n" +
		"اشرح بلغة بسيطة مع أمثلة من الحياة اليومية وجمل قصيرة.\n" +
		"في النهاية اقترح سؤالاً مناسباً بين ## ##",
	ModeCompare: "أنت عالم يقدم شروحاً مقارنة للأحاديث:\n" +
		"1. الفهم اللغوي  2. الشرح الفقهي  3. الجوانب الأخلاقية  4. التطبيق المعاصر\n" +
		"في النهاية اقترح سؤالاً عميقاً بين ## ##",
}

// FallbackText is returned whenever the completion service fails.
const FallbackText = "أعتذر، واجهت صعوبة في معالجة طلبك حالياً.\n\n" +
	"يمكنك المحاولة مرة أخرى بعد دقائق، أو إرسال رقم الحديث مباشرة."

// Config holds the completion service settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxHistory int
	Timeout    time.Duration
}

// DefaultConfig returns the default completion settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "https://openrouter.ai/api/v1",
		Model:      "google/gemini-2.0-flash-001",
		MaxHistory: DefaultMaxHistory,
		Timeout:    30 * time.Second,
	}
}

// Completer is the part of the chat-completion client the tutor uses.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Tutor produces explanations through a Completer.
type Tutor struct {
	client Completer
	cfg    Config
	memory *Memory
}

// New returns a Tutor talking to the OpenAI-compatible endpoint in cfg.
func New(cfg Config) *Tutor {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return NewWithClient(openai.NewClientWithConfig(clientConfig), cfg)
}

// NewWithClient returns a Tutor using client.
func NewWithClient(client Completer, cfg Config) *Tutor {
	d := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = d.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	return &Tutor{client: client, cfg: cfg, memory: NewMemory(cfg.MaxHistory)}
}

// Memory returns the tutor's conversation memory.
func (t *Tutor) Memory() *Memory {
	return t.memory
}

// Explain answers question in mode. When subject is non-nil it becomes the
// learner's active subject and is described to the service. The exchange is
// remembered only when the service answers; on failure FallbackText is
// returned.
func (t *Tutor) Explain(ctx context.Context, learnerID int64, question string, mode Mode, subject *domain.Record) string {
	if subject != nil {
		t.memory.SetActive(learnerID, subject.ID)
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:    t.cfg.Model,
		Messages: t.buildMessages(learnerID, question, mode, subject),
	}
	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("Chat completion failed", "learner", learnerID, "mode", mode, "error", err)
		return FallbackText
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		slog.Error("Chat completion returned no content", "learner", learnerID, "mode", mode)
		return FallbackText
	}

	answer := resp.Choices[0].Message.Content
	t.memory.Add(learnerID, openai.ChatMessageRoleUser, question)
	t.memory.Add(learnerID, openai.ChatMessageRoleAssistant, answer)
	return answer
}

func (t *Tutor) buildMessages(learnerID int64, question string, mode Mode, subject *domain.Record) []openai.ChatCompletionMessage {
	prompt, ok := systemPrompts[mode]
	if !ok {
		prompt = systemPrompts[ModeNormal]
	}
	if subject != nil {
		prompt += SubjectContext(*subject)
	}

	messages := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: prompt}}
	messages = append(messages, t.memory.History(learnerID)...)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: question})
	return messages
}

// SubjectContext describes a record to the completion service: id, title,
// narrator and the first 400 characters of the body.
func SubjectContext(r domain.Record) string {
	body := r.Body
	if utf8.RuneCountInString(body) > contextExcerptRunes {
		body = string([]rune(body)[:contextExcerptRunes])
	}
	return fmt.Sprintf("\n\nالحديث المناقَش حالياً:\nالرقم: %d - %s\nالراوي: %s\nالنص: %s",
		r.ID, r.Title, r.Narrator.Name, body)
}
