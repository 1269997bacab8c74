package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"samadhan-setu/enrichment"
	"samadhan-setu/models"
	"samadhan-setu/repository"
)

// Reports builds the admin digest and dashboard numbers.
type Reports struct {
	issues    repository.IssueRepository
	ai        enrichment.Service
	aiTimeout time.Duration
	log       *slog.Logger
}

func NewReports(log *slog.Logger, issues repository.IssueRepository, ai enrichment.Service, aiTimeout time.Duration) *Reports {
	if aiTimeout <= 0 {
		aiTimeout = DefaultAITimeout
	}
	return &Reports{
		issues:    issues,
		ai:        ai,
		aiTimeout: aiTimeout,
		log:       log.With("service", "reports"),
	}
}

// GetSummary narrates every issue that is not yet Resolved. The whole
// unresolved set is sent on each call. A failing AI service yields
// enrichment.FallbackSummary; repository errors are returned.
func (r *Reports) GetSummary(ctx context.Context, caller models.Caller) (string, error) {
	if err := Authorize(caller, models.ActionViewSummary); err != nil {
		return "", err
	}

	issues, err := r.issues.Find(ctx, repository.IssueFilter{
		ExcludeStatus: []models.IssueStatus{models.Resolved},
	})
	if err != nil {
		return "", err
	}

	digests := make([]enrichment.IssueDigest, 0, len(issues))
	for _, issue := range issues {
		digests = append(digests, enrichment.IssueDigest{
			Category: issue.Category,
			Title:    issue.Title,
			Priority: issue.Priority,
			Address:  issue.Location.Address,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, r.aiTimeout)
	defer cancel()

	summary, err := r.ai.Summarize(ctx, digests)
	summary = strings.TrimSpace(summary)
	if err != nil || summary == "" {
		if err != nil {
			r.log.Warn("summary generation failed", slog.String("error", err.Error()))
		}
		return enrichment.FallbackSummary, nil
	}
	return summary, nil
}

// GetStats returns issue counts grouped by status, category and zone.
func (r *Reports) GetStats(ctx context.Context, caller models.Caller) (*models.IssueStats, error) {
	if err := Authorize(caller, models.ActionViewStats); err != nil {
		return nil, err
	}
	return r.issues.Stats(ctx)
}
