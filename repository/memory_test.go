package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"samadhan-setu/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newIssue(reporter primitive.ObjectID, status models.IssueStatus, created time.Time) *models.Issue {
	return &models.Issue{
		Title:      "Broken streetlight",
		Category:   "Electricity",
		Priority:   models.Medium,
		Status:     status,
		Location:   models.Location{Lat: 12.9, Lng: 77.6, Address: "MG Road"},
		Images:     []string{},
		ReportedBy: reporter,
		StatusHistory: []models.StatusHistoryEntry{{
			Status: models.Pending, Timestamp: created, UpdatedBy: reporter,
		}},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestMemoryIssueInsertAndFind(t *testing.T) {
	ctx := context.Background()
	issues := NewMemory().Issues()

	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	first := newIssue(alice, models.Pending, base)
	second := newIssue(alice, models.InProgress, base.Add(time.Hour))
	other := newIssue(bob, models.Resolved, base.Add(2*time.Hour))
	for _, issue := range []*models.Issue{first, second, other} {
		require.NoError(t, issues.Insert(ctx, issue))
		assert.False(t, issue.ID.IsZero())
	}

	got, err := issues.Find(ctx, IssueFilter{ReportedBy: &alice})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID, "newest first")
	assert.Equal(t, first.ID, got[1].ID)

	got, err = issues.Find(ctx, IssueFilter{ExcludeStatus: []models.IssueStatus{models.Resolved}})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = issues.Find(ctx, IssueFilter{Status: models.Resolved})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, other.ID, got[0].ID)

	err = issues.Insert(ctx, first)
	assert.True(t, errors.Is(err, models.ErrAlreadyExists))

	_, err = issues.FindByID(ctx, primitive.NewObjectID())
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestMemoryFindReturnsCopies(t *testing.T) {
	ctx := context.Background()
	issues := NewMemory().Issues()
	issue := newIssue(primitive.NewObjectID(), models.Pending, time.Now())
	require.NoError(t, issues.Insert(ctx, issue))

	got, err := issues.FindByID(ctx, issue.ID)
	require.NoError(t, err)
	got.StatusHistory[0].Remark = "tampered"
	got.Title = "tampered"

	again, err := issues.FindByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, "Broken streetlight", again.Title)
	assert.Empty(t, again.StatusHistory[0].Remark)
}

func TestMemoryUpdateAppendsHistory(t *testing.T) {
	ctx := context.Background()
	issues := NewMemory().Issues()
	issue := newIssue(primitive.NewObjectID(), models.Pending, time.Now())
	require.NoError(t, issues.Insert(ctx, issue))

	worker := primitive.NewObjectID()
	status := models.InProgress
	now := time.Now()
	got, err := issues.Update(ctx, issue.ID, IssueUpdate{
		Status:     &status,
		AssignedTo: &worker,
		History:    &models.StatusHistoryEntry{Status: status, Timestamp: now, Remark: "Assigned to field worker"},
		From:       []models.IssueStatus{models.Pending},
		UpdatedAt:  now,
	})
	require.NoError(t, err)
	assert.Equal(t, models.InProgress, got.Status)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, worker, *got.AssignedTo)
	require.Len(t, got.StatusHistory, 2)
	assert.Equal(t, models.InProgress, got.LastHistory().Status)
}

func TestMemoryUpdateGuards(t *testing.T) {
	ctx := context.Background()
	issues := NewMemory().Issues()
	issue := newIssue(primitive.NewObjectID(), models.Resolved, time.Now())
	require.NoError(t, issues.Insert(ctx, issue))

	status := models.InProgress
	_, err := issues.Update(ctx, issue.ID, IssueUpdate{
		Status: &status,
		From:   []models.IssueStatus{models.PendingVerification},
	})
	assert.True(t, errors.Is(err, models.ErrConflict))

	stored, err := issues.FindByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Resolved, stored.Status)
	assert.Len(t, stored.StatusHistory, 1)

	_, err = issues.Update(ctx, primitive.NewObjectID(), IssueUpdate{Status: &status})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestMemoryUpdateAssigneeGuard(t *testing.T) {
	ctx := context.Background()
	issues := NewMemory().Issues()
	issue := newIssue(primitive.NewObjectID(), models.InProgress, time.Now())
	worker, other := primitive.NewObjectID(), primitive.NewObjectID()
	issue.AssignedTo = &worker
	require.NoError(t, issues.Insert(ctx, issue))

	status := models.PendingVerification
	_, err := issues.Update(ctx, issue.ID, IssueUpdate{
		Status:       &status,
		History:      &models.StatusHistoryEntry{Status: status},
		AssignedToIs: &other,
	})
	assert.True(t, errors.Is(err, models.ErrConflict))

	stored, err := issues.FindByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InProgress, stored.Status)
	assert.Len(t, stored.StatusHistory, 1)

	got, err := issues.Update(ctx, issue.ID, IssueUpdate{
		Status:       &status,
		History:      &models.StatusHistoryEntry{Status: status},
		AssignedToIs: &worker,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PendingVerification, got.Status)
	assert.Len(t, got.StatusHistory, 2)
}

func TestMemoryConcurrentUpdatesKeepEveryEntry(t *testing.T) {
	ctx := context.Background()
	issues := NewMemory().Issues()
	issue := newIssue(primitive.NewObjectID(), models.Pending, time.Now())
	require.NoError(t, issues.Insert(ctx, issue))

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := models.InProgress
			worker := primitive.NewObjectID()
			_, err := issues.Update(ctx, issue.ID, IssueUpdate{
				Status:     &status,
				AssignedTo: &worker,
				History:    &models.StatusHistoryEntry{Status: status, UpdatedBy: worker},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := issues.FindByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Len(t, got.StatusHistory, writers+1)
	assert.Equal(t, *got.AssignedTo, got.LastHistory().UpdatedBy)
}

func TestMemoryPublicView(t *testing.T) {
	ctx := context.Background()
	issues := NewMemory().Issues()
	issue := newIssue(primitive.NewObjectID(), models.Pending, time.Now())
	require.NoError(t, issues.Insert(ctx, issue))

	views, err := issues.FindPublic(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, issue.Title, views[0].Title)
	assert.Equal(t, issue.Location, views[0].Location)
}

func TestMemoryStats(t *testing.T) {
	ctx := context.Background()
	issues := NewMemory().Issues()
	reporter := primitive.NewObjectID()

	a := newIssue(reporter, models.Pending, time.Now())
	a.Zone = models.NorthZone
	a.Cost = 100
	b := newIssue(reporter, models.Resolved, time.Now())
	b.Category = "Roads"
	b.Cost = 250.5
	c := newIssue(reporter, models.InProgress, time.Now())
	c.Zone = models.NorthZone
	for _, issue := range []*models.Issue{a, b, c} {
		require.NoError(t, issues.Insert(ctx, issue))
	}

	stats, err := issues.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalIssues)
	assert.EqualValues(t, 2, stats.OpenIssues)
	assert.InDelta(t, 350.5, stats.TotalCost, 0.001)
	assert.Equal(t, []models.CountBucket{{Name: "Electricity", Value: 2}, {Name: "Roads", Value: 1}}, stats.ByCategory)
	assert.Equal(t, []models.CountBucket{{Name: string(models.NorthZone), Value: 2}}, stats.ByZone)
	assert.Len(t, stats.ByStatus, 3)
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	users := NewMemory().Users()

	admin := &models.User{Name: "Asha", Email: "asha@example.com", Role: models.RoleAdmin}
	worker := &models.User{Name: "Ravi", Email: "ravi@example.com", Role: models.RoleWorker}
	require.NoError(t, users.Insert(ctx, admin))
	require.NoError(t, users.Insert(ctx, worker))

	err := users.Insert(ctx, &models.User{Name: "Dup", Email: "ASHA@example.com"})
	assert.True(t, errors.Is(err, models.ErrAlreadyExists))

	got, err := users.FindByEmail(ctx, "Ravi@Example.com")
	require.NoError(t, err)
	assert.Equal(t, worker.ID, got.ID)

	workers, err := users.FindWorkers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.WorkerView{{ID: worker.ID, Name: "Ravi", Email: "ravi@example.com"}}, workers)

	_, err = users.FindByID(ctx, primitive.NewObjectID())
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestMemoryFeedback(t *testing.T) {
	mem := NewMemory()
	fb := &models.Feedback{User: primitive.NewObjectID(), Subject: "Thanks", Message: "Road fixed fast"}
	require.NoError(t, mem.Feedback().Insert(context.Background(), fb))
	assert.False(t, fb.ID.IsZero())
	assert.Equal(t, 1, mem.FeedbackCount())
}
