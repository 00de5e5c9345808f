package tutor

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/nibras/internal/domain"
)

// completionServer answers chat completions with reply and records every
// request it receives.
func completionServer(t *testing.T, status int, reply string) (*httptest.Server, *[]openai.ChatCompletionRequest) {
	t.Helper()
	var requests []openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), "unexpected path %s", r.URL.Path)
		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream down","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func testTutor(url string) *Tutor {
	cfg := DefaultConfig()
	cfg.BaseURL = url + "/v1"
	cfg.APIKey = "test-key"
	cfg.MaxHistory = 4
	return New(cfg)
}

func subject() *domain.Record {
	return &domain.Record{
		ID:       1,
		Title:    "النية",
		Body:     strings.Repeat("ن", 500),
		Narrator: domain.Narrator{Name: "عمر بن الخطاب"},
	}
}

func TestExplain(t *testing.T) {
	srv, requests := completionServer(t, http.StatusOK, "شرح")
	tu := testTutor(srv.URL)

	got := tu.Explain(context.Background(), 9, "ما معنى الحديث؟", ModeSimple, subject())
	assert.Equal(t, "شرح", got)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "google/gemini-2.0-flash-001", req.Model)
	require.Len(t, req.Messages, 2)
	system := req.Messages[0]
	assert.Equal(t, openai.ChatMessageRoleSystem, system.Role)
	assert.True(t, strings.HasPrefix(system.Content, systemPrompts[ModeSimple]))
	assert.Contains(t, system.Content, "الرقم: 1 - النية")
	assert.Contains(t, system.Content, "عمر بن الخطاب")
	assert.Contains(t, system.Content, strings.Repeat("ن", 400))
	assert.NotContains(t, system.Content, strings.Repeat("ن", 401))

	id, ok := tu.Memory().Active(9)
	require.True(t, ok)
	assert.Equal(t, 1, id)

	tu.Explain(context.Background(), 9, "وماذا بعد؟", "unknown-mode", nil)
	require.Len(t, *requests, 2)
	second := (*requests)[1]
	assert.Equal(t, systemPrompts[ModeNormal], second.Messages[0].Content)
	require.Len(t, second.Messages, 4, "system, remembered pair, new question")
	assert.Equal(t, "ما معنى الحديث؟", second.Messages[1].Content)
	assert.Equal(t, "شرح", second.Messages[2].Content)
}

func TestExplainFallback(t *testing.T) {
	srv, requests := completionServer(t, http.StatusInternalServerError, "")
	tu := testTutor(srv.URL)

	got := tu.Explain(context.Background(), 3, "سؤال", ModeNormal, nil)
	assert.Equal(t, FallbackText, got)
	assert.NotEmpty(t, *requests)
	assert.Empty(t, tu.Memory().History(3), "failed exchanges are not remembered")
}

func TestMemory(t *testing.T) {
	m := NewMemory(3)
	for _, c := range []string{"a", "b", "c", "d"} {
		m.Add(1, openai.ChatMessageRoleUser, c)
	}
	h := m.History(1)
	require.Len(t, h, 3)
	assert.Equal(t, "b", h[0].Content)
	assert.Equal(t, "d", h[2].Content)

	m.SetActive(1, 7)
	m.Clear(1)
	assert.Empty(t, m.History(1))
	_, ok := m.Active(1)
	assert.False(t, ok)

	assert.Equal(t, DefaultMaxHistory, NewMemory(0).max)
}

func TestSuggestQuestions(t *testing.T) {
	r := domain.Record{
		ID:     2,
		Title:  "الإسلام",
		Body:   "بني الإسلام على خمس ومنها إقام الصلاة وإيتاء الزكاة وصوم رمضان وحج البيت",
		Topics: []string{"أركان الإسلام", "العبادات", "ثالث"},
	}
	rng := rand.New(rand.NewSource(4))

	got := SuggestQuestions(r, rng)
	assert.Len(t, got, 5)
	seen := map[string]bool{}
	for _, q := range got {
		assert.False(t, seen[q], "duplicate suggestion %q", q)
		seen[q] = true
	}

	first := domain.Record{ID: 1, Title: "t", Body: "لا شيء"}
	got = SuggestQuestions(first, rng)
	assert.Len(t, got, 3)
	for _, q := range got {
		assert.NotContains(t, q, "العلاقة بين الحديث")
	}
}
