package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"samadhan-setu/models"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI answers every Messages call with text and records the prompts.
type fakeAPI struct {
	mu      sync.Mutex
	prompts []string
	text    string
	status  int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Messages []struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"messages"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	for _, m := range body.Messages {
		for _, c := range m.Content {
			f.prompts = append(f.prompts, c.Text)
		}
	}
	status, text := f.status, f.text
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "overloaded_error", "message": "Overloaded"},
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":    "msg_test123",
		"type":  "message",
		"role":  "assistant",
		"model": DefaultModel,
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 10, "output_tokens": 20},
	})
}

func (f *fakeAPI) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func newTestProvider(t *testing.T, api *fakeAPI) *Anthropic {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAnthropic(log, "test-key", "", option.WithBaseURL(server.URL))
}

func TestEnhance(t *testing.T) {
	api := &fakeAPI{text: "Here you go:\n```json\n" +
		`{"enhanced_description":"Deep pothole near the bus stop.","category":"Roads","priority":"high"}` +
		"\n```"}
	p := newTestProvider(t, api)

	enh, err := p.Enhance(context.Background(), "big hole near bus stop")
	require.NoError(t, err)
	assert.Equal(t, "Deep pothole near the bus stop.", enh.EnhancedDescription)
	assert.Equal(t, "Roads", enh.Category)
	assert.Equal(t, models.High, enh.Priority)
	assert.Contains(t, api.lastPrompt(), `Citizen Report: "big hole near bus stop"`)
}

func TestEnhanceRejectsBadOutput(t *testing.T) {
	tests := map[string]string{
		"not json":         "I cannot help with that.",
		"broken json":      `{"category": "Roads",`,
		"unknown priority": `{"enhanced_description":"x","category":"Roads","priority":"Urgent"}`,
		"missing fields":   `{"priority":"Low"}`,
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			p := newTestProvider(t, &fakeAPI{text: text})
			_, err := p.Enhance(context.Background(), "something broke")
			assert.True(t, errors.Is(err, ErrUnavailable))
		})
	}
}

func TestProviderErrorIsUnavailable(t *testing.T) {
	p := newTestProvider(t, &fakeAPI{status: http.StatusServiceUnavailable})

	_, err := p.Enhance(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrUnavailable))

	_, err = p.Summarize(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrUnavailable))

	_, err = p.GenerateFeedback(context.Background(), "t", "r")
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestSummarizePrompt(t *testing.T) {
	api := &fakeAPI{text: "Roads: one critical pothole."}
	p := newTestProvider(t, api)

	text, err := p.Summarize(context.Background(), []IssueDigest{
		{Category: "Roads", Title: "Pothole", Priority: models.Critical, Address: "MG Road"},
		{Category: "Water", Title: "Leak", Priority: models.Low},
	})
	require.NoError(t, err)
	assert.Equal(t, "Roads: one critical pothole.", text)

	prompt := api.lastPrompt()
	assert.Contains(t, prompt, "- [Roads] Pothole (Critical): MG Road")
	assert.Contains(t, prompt, "- [Water] Leak (Low): No Address")
}

func TestGenerateFeedback(t *testing.T) {
	api := &fakeAPI{text: "  Your issue is fixed.  "}
	p := newTestProvider(t, api)

	text, err := p.GenerateFeedback(context.Background(), "Streetlight out", "Replaced bulb")
	require.NoError(t, err)
	assert.Equal(t, "Your issue is fixed.", text)
	assert.Contains(t, api.lastPrompt(), `Resolution Remark: "Replaced bulb"`)

	empty := newTestProvider(t, &fakeAPI{text: "   "})
	_, err = empty.GenerateFeedback(context.Background(), "a", "b")
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestAnalyzeAdmin(t *testing.T) {
	api := &fakeAPI{text: `{"category":"Water","improved_description":"Main pipe burst.","severity_level":"high",` +
		`"priority":"Critical","recommended_action":"Shut valve","why_flagged":"Flooding"}`}
	p := newTestProvider(t, api)

	a, err := p.AnalyzeAdmin(context.Background(), "pipe burst")
	require.NoError(t, err)
	assert.Equal(t, "Water", a.Category)
	assert.Equal(t, models.Critical, a.Priority)
	assert.Equal(t, "Shut valve", a.RecommendedAction)
	assert.True(t, strings.Contains(api.lastPrompt(), "ADMIN-SIDE"))
}

func TestFallback(t *testing.T) {
	enh := Fallback("water leaking", "")
	assert.Equal(t, &Enhancement{EnhancedDescription: "water leaking", Category: "Maintenance", Priority: models.Medium}, enh)

	enh = Fallback("water leaking", " Water ")
	assert.Equal(t, "Water", enh.Category)
	assert.NoError(t, enh.Validate())
}

func TestUnavailable(t *testing.T) {
	var s Service = Unavailable{}
	_, err := s.Enhance(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrUnavailable))
	_, err = s.AnalyzeAdmin(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestNormalizePriority(t *testing.T) {
	assert.Equal(t, models.Low, normalizePriority(" LOW "))
	assert.Equal(t, models.Critical, normalizePriority("critical"))
	assert.Equal(t, models.Priority("Urgent"), normalizePriority("Urgent"))
}
