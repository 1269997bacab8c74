package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"samadhan-setu/enrichment"
	"samadhan-setu/models"
	"samadhan-setu/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultAITimeout = 20 * time.Second

// transition describes one status-changing action of the lifecycle.
type transition struct {
	action models.Action
	to     models.IssueStatus
	// from is enforced only in strict mode.
	from   []models.IssueStatus
	remark string
}

var (
	assignTransition = transition{
		action: models.ActionAssignIssue,
		to:     models.InProgress,
		from:   []models.IssueStatus{models.Pending, models.InProgress},
		remark: "Assigned to field worker",
	}
	resolveTransition = transition{
		action: models.ActionResolveIssue,
		to:     models.PendingVerification,
		from:   []models.IssueStatus{models.InProgress},
	}
	verifyTransition = transition{
		action: models.ActionVerifyIssue,
		to:     models.Resolved,
		from:   []models.IssueStatus{models.PendingVerification},
		remark: "Verified by Admin",
	}
	dismissTransition = transition{
		action: models.ActionDismissIssue,
		to:     models.InProgress,
		from:   []models.IssueStatus{models.PendingVerification},
		remark: "Resolution dismissed by Admin",
	}
	failTransition = transition{
		action: models.ActionFailIssue,
		to:     models.Failed,
		from:   []models.IssueStatus{models.Pending, models.InProgress, models.PendingVerification},
		remark: "Marked as failed by Admin",
	}
)

const createdRemark = "Issue reported"

// EngineOptions tunes the lifecycle engine.
type EngineOptions struct {
	// Strict enforces allowed predecessor statuses, checks that an assigned
	// worker exists, and requires a resolving worker to be the assignee.
	// With Strict off any transition is accepted from any status and only
	// role plus list visibility guard a worker's Resolve.
	Strict    bool
	AITimeout time.Duration
	Now       func() time.Time
}

// Engine drives issues through their status lifecycle.
type Engine struct {
	issues    repository.IssueRepository
	users     repository.UserRepository
	ai        enrichment.Service
	strict    bool
	aiTimeout time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func NewEngine(
	log *slog.Logger,
	issues repository.IssueRepository,
	users repository.UserRepository,
	ai enrichment.Service,
	opts EngineOptions,
) *Engine {
	if opts.AITimeout <= 0 {
		opts.AITimeout = DefaultAITimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		issues:    issues,
		users:     users,
		ai:        ai,
		strict:    opts.Strict,
		aiTimeout: opts.AITimeout,
		now:       opts.Now,
		log:       log.With("service", "lifecycle"),
	}
}

type CreateIssueInput struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Description string           `json:"description" validate:"required,max=5000"`
	Category    string           `json:"category" validate:"max=100"`
	Zone        models.Zone      `json:"zone" validate:"omitempty,zone"`
	Location    *models.Location `json:"location" validate:"required"`
	Images      []string         `json:"images" validate:"max=10,dive,required"`
	Audio       *string          `json:"audio,omitempty"`
}

type ResolveInput struct {
	ProofImage string `json:"proofImage"`
	Remark     string `json:"remark" validate:"max=1000"`
}

type ClassifyInput struct {
	Category            *string          `json:"category" validate:"omitempty,min=1,max=100"`
	Priority            *models.Priority `json:"priority" validate:"omitempty,priority"`
	Severity            *string          `json:"severity" validate:"omitempty,max=50"`
	RecommendedAction   *string          `json:"recommendedAction" validate:"omitempty,max=1000"`
	EnhancedDescription *string          `json:"ai_enhanced_description" validate:"omitempty,max=5000"`
}

type ListFilter struct {
	Status models.IssueStatus
	Zone   models.Zone
}

// Create files a new issue for a citizen. The description is enriched by
// the AI service; any enrichment failure falls back to the reporter's
// category hint (or "Maintenance"), Medium priority and the original text.
func (e *Engine) Create(ctx context.Context, caller models.Caller, in CreateIssueInput) (*models.Issue, error) {
	if err := Authorize(caller, models.ActionCreateIssue); err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	enh := e.enhance(ctx, in.Description, in.Category)

	images := in.Images
	if images == nil {
		images = []string{}
	}

	now := e.now()
	issue := &models.Issue{
		ID:                    primitive.NewObjectID(),
		Title:                 in.Title,
		OriginalDescription:   in.Description,
		AIEnhancedDescription: &enh.EnhancedDescription,
		Category:              enh.Category,
		Priority:              enh.Priority,
		Zone:                  in.Zone,
		Location:              *in.Location,
		Images:                images,
		Audio:                 in.Audio,
		Status:                models.Pending,
		ReportedBy:            caller.ID,
		StatusHistory: []models.StatusHistoryEntry{{
			Status:    models.Pending,
			Timestamp: now,
			UpdatedBy: caller.ID,
			Remark:    createdRemark,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := e.issues.Insert(ctx, issue); err != nil {
		return nil, err
	}

	e.log.Info("issue created",
		slog.String("issue_id", issue.ID.Hex()),
		slog.String("reported_by", caller.ID.Hex()),
		slog.String("category", issue.Category),
		slog.String("priority", string(issue.Priority)),
	)
	return issue, nil
}

func (e *Engine) enhance(ctx context.Context, description, hint string) *enrichment.Enhancement {
	ctx, cancel := context.WithTimeout(ctx, e.aiTimeout)
	defer cancel()

	enh, err := e.ai.Enhance(ctx, description)
	if err == nil && enh == nil {
		err = enrichment.ErrUnavailable
	}
	if err == nil {
		err = enh.Validate()
	}
	if err != nil {
		e.log.Warn("enhancement failed, using fallback", slog.String("error", err.Error()))
		return enrichment.Fallback(description, hint)
	}
	return enh
}

// Assign hands an issue to a field worker and moves it to In Progress.
// Re-assigning an issue that is already In Progress is allowed.
func (e *Engine) Assign(ctx context.Context, caller models.Caller, issueID, workerID primitive.ObjectID) (*models.Issue, error) {
	if err := Authorize(caller, models.ActionAssignIssue); err != nil {
		return nil, err
	}
	if workerID.IsZero() {
		return nil, models.NewValidationError("workerId", "is required")
	}

	if e.strict {
		worker, err := e.users.FindByID(ctx, workerID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, fmt.Errorf("worker %s: %w", workerID.Hex(), models.ErrNotFound)
			}
			return nil, err
		}
		if worker.Role != models.RoleWorker {
			return nil, models.NewValidationError("workerId", "user is not a field worker")
		}
	}

	return e.apply(ctx, caller, issueID, assignTransition, repository.IssueUpdate{AssignedTo: &workerID}, "")
}

// Resolve records a worker's proof of completion and hands the issue to an
// admin for verification. Citizen feedback text is generated best-effort:
// when the AI service fails the issue is still resolved, without feedback.
func (e *Engine) Resolve(ctx context.Context, caller models.Caller, issueID primitive.ObjectID, in ResolveInput) (*models.Issue, error) {
	if err := Authorize(caller, models.ActionResolveIssue); err != nil {
		return nil, err
	}
	in.Remark = strings.TrimSpace(in.Remark)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	issue, err := e.issues.FindByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if e.strict {
		if issue.AssignedTo == nil || *issue.AssignedTo != caller.ID {
			return nil, fmt.Errorf("issue %s is not assigned to %s: %w", issueID.Hex(), caller.ID.Hex(), models.ErrForbidden)
		}
		if err := e.checkFrom(issue, resolveTransition); err != nil {
			return nil, err
		}
	}

	upd := repository.IssueUpdate{}
	if e.strict {
		// Feedback generation is slow; the issue may be reassigned meanwhile.
		assignee := caller.ID
		upd.AssignedToIs = &assignee
	}
	if feedback, ok := e.feedback(ctx, issue.Title, in.Remark); ok {
		upd.AIFeedback = &feedback
	}

	upd.History = &models.StatusHistoryEntry{ProofImage: in.ProofImage, Remark: in.Remark}
	return e.apply(ctx, caller, issueID, resolveTransition, upd, "")
}

func (e *Engine) feedback(ctx context.Context, title, remark string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, e.aiTimeout)
	defer cancel()

	text, err := e.ai.GenerateFeedback(ctx, title, remark)
	if err != nil {
		e.log.Warn("feedback generation failed", slog.String("error", err.Error()))
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}

// Verify accepts a worker's resolution.
func (e *Engine) Verify(ctx context.Context, caller models.Caller, issueID primitive.ObjectID) (*models.Issue, error) {
	if err := Authorize(caller, models.ActionVerifyIssue); err != nil {
		return nil, err
	}
	return e.apply(ctx, caller, issueID, verifyTransition, repository.IssueUpdate{}, "")
}

// Dismiss rejects a worker's resolution and sends the issue back to In Progress.
func (e *Engine) Dismiss(ctx context.Context, caller models.Caller, issueID primitive.ObjectID) (*models.Issue, error) {
	if err := Authorize(caller, models.ActionDismissIssue); err != nil {
		return nil, err
	}
	return e.apply(ctx, caller, issueID, dismissTransition, repository.IssueUpdate{}, "")
}

// MarkFailed closes an issue that cannot be fixed.
func (e *Engine) MarkFailed(ctx context.Context, caller models.Caller, issueID primitive.ObjectID, remark string) (*models.Issue, error) {
	if err := Authorize(caller, models.ActionFailIssue); err != nil {
		return nil, err
	}
	remark = strings.TrimSpace(remark)
	if len(remark) > 1000 {
		return nil, models.NewValidationError("remark", "must be at most 1000")
	}
	return e.apply(ctx, caller, issueID, failTransition, repository.IssueUpdate{}, remark)
}

// apply writes t onto the issue in one atomic update together with its
// history entry.
func (e *Engine) apply(
	ctx context.Context,
	caller models.Caller,
	issueID primitive.ObjectID,
	t transition,
	upd repository.IssueUpdate,
	remark string,
) (*models.Issue, error) {
	now := e.now()
	to := t.to

	if upd.History == nil {
		upd.History = &models.StatusHistoryEntry{}
	}
	upd.History.Status = to
	upd.History.Timestamp = now
	upd.History.UpdatedBy = caller.ID
	switch {
	case remark != "":
		upd.History.Remark = remark
	case upd.History.Remark == "":
		upd.History.Remark = t.remark
	}

	upd.Status = &to
	upd.UpdatedAt = now
	if e.strict {
		upd.From = t.from
	}

	issue, err := e.issues.Update(ctx, issueID, upd)
	if err != nil {
		return nil, err
	}

	e.log.Info("issue transitioned",
		slog.String("issue_id", issueID.Hex()),
		slog.String("action", string(t.action)),
		slog.String("status", string(to)),
		slog.String("by", caller.ID.Hex()),
	)
	return issue, nil
}

func (e *Engine) checkFrom(issue *models.Issue, t transition) error {
	for _, s := range t.from {
		if issue.Status == s {
			return nil
		}
	}
	return fmt.Errorf("cannot %s an issue in status %q: %w", t.action, issue.Status, models.ErrConflict)
}

// UpdateCost sets the estimated repair cost. It is not a status change.
func (e *Engine) UpdateCost(ctx context.Context, caller models.Caller, issueID primitive.ObjectID, cost float64) (*models.Issue, error) {
	if err := Authorize(caller, models.ActionUpdateCost); err != nil {
		return nil, err
	}
	if math.IsNaN(cost) || math.IsInf(cost, 0) || cost < 0 {
		return nil, models.NewValidationError("cost", "must be a non-negative number")
	}
	return e.issues.Update(ctx, issueID, repository.IssueUpdate{Cost: &cost, UpdatedAt: e.now()})
}

// Classify stores admin-reviewed enrichment fields on an issue.
func (e *Engine) Classify(ctx context.Context, caller models.Caller, issueID primitive.ObjectID, in ClassifyInput) (*models.Issue, error) {
	if err := Authorize(caller, models.ActionClassifyIssue); err != nil {
		return nil, err
	}
	if in.Category == nil && in.Priority == nil && in.Severity == nil &&
		in.RecommendedAction == nil && in.EnhancedDescription == nil {
		return nil, models.NewValidationError("body", "at least one field is required")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	return e.issues.Update(ctx, issueID, repository.IssueUpdate{
		Category:              in.Category,
		Priority:              in.Priority,
		Severity:              in.Severity,
		RecommendedAction:     in.RecommendedAction,
		AIEnhancedDescription: in.EnhancedDescription,
		UpdatedAt:             e.now(),
	})
}

// Analyze runs the admin-side AI analysis of raw complaint text. Unlike the
// other enrichment calls it has no fallback: failures reach the caller as
// enrichment.ErrUnavailable.
func (e *Engine) Analyze(ctx context.Context, caller models.Caller, rawText string) (*enrichment.Analysis, error) {
	if err := Authorize(caller, models.ActionAnalyzeText); err != nil {
		return nil, err
	}
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return nil, models.NewValidationError("rawText", "is required")
	}

	ctx, cancel := context.WithTimeout(ctx, e.aiTimeout)
	defer cancel()

	analysis, err := e.ai.AnalyzeAdmin(ctx, rawText)
	if err == nil && analysis == nil {
		err = enrichment.ErrUnavailable
	}
	if err == nil {
		err = analysis.Validate()
	}
	if err != nil {
		e.log.Warn("admin analysis failed", slog.String("error", err.Error()))
		if !errors.Is(err, enrichment.ErrUnavailable) {
			err = fmt.Errorf("%w: %v", enrichment.ErrUnavailable, err)
		}
		return nil, err
	}
	return analysis, nil
}

// Get returns one issue if caller may see it. Issues outside the caller's
// scope are reported as not found.
func (e *Engine) Get(ctx context.Context, caller models.Caller, issueID primitive.ObjectID) (*models.Issue, error) {
	if err := Authorize(caller, models.ActionListIssues); err != nil {
		return nil, err
	}
	issue, err := e.issues.FindByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if !Visible(caller, issue) {
		return nil, models.ErrNotFound
	}
	return issue, nil
}

// List returns the issues in caller's scope, newest first.
func (e *Engine) List(ctx context.Context, caller models.Caller, lf ListFilter) ([]models.Issue, error) {
	if err := Authorize(caller, models.ActionListIssues); err != nil {
		return nil, err
	}
	if lf.Status != "" && !lf.Status.Valid() {
		return nil, models.NewValidationError("status", "unknown status")
	}
	if lf.Zone != "" && !lf.Zone.Valid() {
		return nil, models.NewValidationError("zone", "unknown zone")
	}

	filter, err := ScopeQuery(caller)
	if err != nil {
		return nil, err
	}
	filter.Status = lf.Status
	filter.Zone = lf.Zone
	return e.issues.Find(ctx, filter)
}

// ListPublic returns the anonymous map view of every issue.
func (e *Engine) ListPublic(ctx context.Context) ([]models.IssuePublicView, error) {
	return e.issues.FindPublic(ctx)
}
