package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"samadhan-setu/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultModel = "claude-3-5-haiku-latest"

	structuredMaxTokens = 1024
	narrativeMaxTokens  = 1024
)

var prompts = template.Must(template.New("prompts").Parse(`
{{define "enhance"}}You are an AI assistant for a civic issue reporting platform.
Your task is to analyze the following citizen report and extract structured information.
Citizen Report: "{{.Description}}"

Output strictly in the following JSON format:
{
  "enhanced_description": "Clear, professional, and detailed description of the issue.",
  "category": "One of: Sanitation, Roads, Water, Electricity, Public Safety, Maintenance, Other",
  "priority": "One of: Low, Medium, High, Critical"
}{{end}}
{{define "summary"}}You are an expert civic analyst. Summarize the following list of pending issues for an executive administrator.
Issues List:
{{range .Issues}}- [{{.Category}}] {{.Title}} ({{.Priority}}): {{if .Address}}{{.Address}}{{else}}No Address{{end}}
{{end}}
Provide a concise summary grouping by category and highlighting critical areas.
Output strictly in text format suitable for a daily report.{{end}}
{{define "feedback"}}You are a polite civic representative. Write a short message to a citizen informing them that their issue has been resolved.
Issue Title: "{{.Title}}"
Resolution Remark: "{{.Remark}}"

Keep it warm, professional, and concise.{{end}}
{{define "analyze"}}You are an AI assistant inside a civic issue reporting platform.
Your task is to analyze ADMIN-SIDE issue submissions.

User Issue:
"{{.RawText}}"

Generate the following strictly in JSON format:
{
  "category": "...",
  "improved_description": "...",
  "severity_level": "low | medium | high",
  "priority": "Low | Medium | High | Critical",
  "recommended_action": "...",
  "why_flagged": "brief explanation"
}{{end}}
`))

// Anthropic implements Service with the Anthropic Messages API.
// SDK retries are disabled: a failed call falls straight through to the
// caller's fallback.
type Anthropic struct {
	client anthropic.Client
	model  anthropic.Model
	log    *slog.Logger
}

// NewAnthropic builds a provider. Extra options are appended after the
// API key, which lets tests point the client at a local server.
func NewAnthropic(log *slog.Logger, apiKey, model string, opts ...option.RequestOption) *Anthropic {
	if model == "" {
		model = DefaultModel
	}
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	return &Anthropic{
		client: anthropic.NewClient(append(base, opts...)...),
		model:  anthropic.Model(model),
		log:    log.With("service", "enrichment"),
	}
}

func (a *Anthropic) Enhance(ctx context.Context, description string) (*Enhancement, error) {
	text, err := a.run(ctx, "enhance", map[string]string{"Description": description}, structuredMaxTokens)
	if err != nil {
		return nil, err
	}

	var out Enhancement
	if err := decodeJSON(text, &out); err != nil {
		return nil, err
	}
	out.Priority = normalizePriority(out.Priority)
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Anthropic) Summarize(ctx context.Context, issues []IssueDigest) (string, error) {
	return a.run(ctx, "summary", map[string]any{"Issues": issues}, narrativeMaxTokens)
}

func (a *Anthropic) GenerateFeedback(ctx context.Context, title, remark string) (string, error) {
	return a.run(ctx, "feedback", map[string]string{"Title": title, "Remark": remark}, narrativeMaxTokens)
}

func (a *Anthropic) AnalyzeAdmin(ctx context.Context, rawText string) (*Analysis, error) {
	text, err := a.run(ctx, "analyze", map[string]string{"RawText": rawText}, structuredMaxTokens)
	if err != nil {
		return nil, err
	}

	var out Analysis
	if err := decodeJSON(text, &out); err != nil {
		return nil, err
	}
	out.Priority = normalizePriority(out.Priority)
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// run renders prompt name with data and returns the concatenated text of
// the model's answer.
func (a *Anthropic) run(ctx context.Context, name string, data any, maxTokens int64) (string, error) {
	var prompt bytes.Buffer
	if err := prompts.ExecuteTemplate(&prompt, name, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.String())),
		},
	})
	if err != nil {
		a.log.Warn("llm call failed", slog.String("prompt", name), slog.String("error", err.Error()))
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: %s: empty response", ErrUnavailable, name)
	}
	return text, nil
}

// decodeJSON pulls the first JSON object out of model text, tolerating
// markdown fences or prose around it.
func decodeJSON(text string, v any) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("%w: no JSON object in response", ErrUnavailable)
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

func normalizePriority(p models.Priority) models.Priority {
	switch strings.ToLower(strings.TrimSpace(string(p))) {
	case "low":
		return models.Low
	case "medium":
		return models.Medium
	case "high":
		return models.High
	case "critical":
		return models.Critical
	}
	return p
}
