// Package repository persists users, issues and feedback messages.
package repository

import (
	"context"
	"time"

	"samadhan-setu/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueFilter narrows an issue listing. Zero-valued fields do not filter.
type IssueFilter struct {
	ReportedBy    *primitive.ObjectID
	AssignedTo    *primitive.ObjectID
	Status        models.IssueStatus
	ExcludeStatus []models.IssueStatus
	Zone          models.Zone
}

// IssueUpdate is applied to one issue as a single atomic write.
// Nil fields are left untouched.
type IssueUpdate struct {
	Status                *models.IssueStatus
	AssignedTo            *primitive.ObjectID
	AIFeedback            *string
	Cost                  *float64
	Category              *string
	Priority              *models.Priority
	Severity              *string
	RecommendedAction     *string
	AIEnhancedDescription *string

	// History, when set, is appended to status_history in the same write.
	History *models.StatusHistoryEntry

	// From restricts the write to issues currently in one of these
	// statuses. Empty means any status.
	From []models.IssueStatus

	// AssignedToIs restricts the write to issues currently assigned to
	// this user. Nil means no assignee check.
	AssignedToIs *primitive.ObjectID

	UpdatedAt time.Time
}

type IssueRepository interface {
	Insert(ctx context.Context, issue *models.Issue) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	Find(ctx context.Context, filter IssueFilter) ([]models.Issue, error)
	FindPublic(ctx context.Context) ([]models.IssuePublicView, error)
	// Update returns the issue after the write. It fails with
	// models.ErrNotFound when id does not exist and models.ErrConflict when
	// the issue's status is outside upd.From.
	Update(ctx context.Context, id primitive.ObjectID, upd IssueUpdate) (*models.Issue, error)
	Stats(ctx context.Context) (*models.IssueStats, error)
}

type UserRepository interface {
	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindWorkers(ctx context.Context) ([]models.WorkerView, error)
}

type FeedbackRepository interface {
	Insert(ctx context.Context, fb *models.Feedback) error
}

func statusAllowed(s models.IssueStatus, from []models.IssueStatus) bool {
	if len(from) == 0 {
		return true
	}
	for _, f := range from {
		if f == s {
			return true
		}
	}
	return false
}
