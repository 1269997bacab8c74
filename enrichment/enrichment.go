// Package enrichment turns free-form complaint text into structured issue
// fields using a language model, and defines the fallbacks used when the
// model is unreachable or answers with something unusable.
package enrichment

//go:generate mockgen -source=enrichment.go -destination=mocks/mock_service.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"samadhan-setu/models"
)

// ErrUnavailable covers every provider failure: transport errors,
// timeouts, empty answers, malformed JSON and schema violations.
var ErrUnavailable = errors.New("enrichment unavailable")

// FallbackSummary is returned by the summary report when the provider fails.
const FallbackSummary = "Unable to generate summary at this time."

// Enhancement is the structured result of enhancing a citizen report.
type Enhancement struct {
	EnhancedDescription string          `json:"enhanced_description"`
	Category            string          `json:"category"`
	Priority            models.Priority `json:"priority"`
}

// Analysis is the admin-side breakdown of a raw complaint.
type Analysis struct {
	Category            string          `json:"category"`
	ImprovedDescription string          `json:"improved_description"`
	SeverityLevel       string          `json:"severity_level"`
	Priority            models.Priority `json:"priority"`
	RecommendedAction   string          `json:"recommended_action"`
	WhyFlagged          string          `json:"why_flagged"`
}

// IssueDigest is the slice of an issue handed to Summarize.
type IssueDigest struct {
	Category string
	Title    string
	Priority models.Priority
	Address  string
}

// Service is the text enrichment provider consumed by the workflow.
type Service interface {
	Enhance(ctx context.Context, description string) (*Enhancement, error)
	Summarize(ctx context.Context, issues []IssueDigest) (string, error)
	GenerateFeedback(ctx context.Context, title, remark string) (string, error)
	AnalyzeAdmin(ctx context.Context, rawText string) (*Analysis, error)
}

// Fallback is the deterministic enhancement applied when Enhance fails.
func Fallback(description, categoryHint string) *Enhancement {
	category := strings.TrimSpace(categoryHint)
	if category == "" {
		category = models.DefaultCategory
	}
	return &Enhancement{
		EnhancedDescription: description,
		Category:            category,
		Priority:            models.Medium,
	}
}

// Validate checks an enhancement decoded from provider output.
func (e *Enhancement) Validate() error {
	if strings.TrimSpace(e.EnhancedDescription) == "" {
		return fmt.Errorf("%w: empty enhanced_description", ErrUnavailable)
	}
	if strings.TrimSpace(e.Category) == "" {
		return fmt.Errorf("%w: empty category", ErrUnavailable)
	}
	if !e.Priority.Valid() {
		return fmt.Errorf("%w: invalid priority %q", ErrUnavailable, e.Priority)
	}
	return nil
}

// Validate checks an analysis decoded from provider output.
func (a *Analysis) Validate() error {
	if strings.TrimSpace(a.Category) == "" {
		return fmt.Errorf("%w: empty category", ErrUnavailable)
	}
	if strings.TrimSpace(a.ImprovedDescription) == "" {
		return fmt.Errorf("%w: empty improved_description", ErrUnavailable)
	}
	if !a.Priority.Valid() {
		return fmt.Errorf("%w: invalid priority %q", ErrUnavailable, a.Priority)
	}
	return nil
}

// Unavailable is the provider used when no model is configured.
// Every call fails with ErrUnavailable so callers take their fallback path.
type Unavailable struct{}

func (Unavailable) Enhance(context.Context, string) (*Enhancement, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Summarize(context.Context, []IssueDigest) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) GenerateFeedback(context.Context, string, string) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) AnalyzeAdmin(context.Context, string) (*Analysis, error) {
	return nil, ErrUnavailable
}
