//go:build integration

package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"samadhan-setu/config"
	"samadhan-setu/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	mongoOnce sync.Once
	mongoURI  string
	mongoErr  error
)

// setupMongo starts one MongoDB container for the test run and returns a
// fresh database per test.
func setupMongo(t *testing.T) *mongo.Database {
	t.Helper()

	mongoOnce.Do(func() {
		mongoURI, mongoErr = startMongo()
	})
	if mongoErr != nil {
		t.Fatalf("failed to start mongo: %v", mongoErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	m := config.NewMongo(slog.New(slog.NewTextHandler(io.Discard, nil)), config.MongoConfig{
		URI:      mongoURI,
		Database: fmt.Sprintf("test_%s", primitive.NewObjectID().Hex()),
		Timeout:  10 * time.Second,
	})
	db, err := m.EnsureConnected(ctx)
	require.NoError(t, err)
	require.NoError(t, EnsureIndexes(ctx, db))

	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = m.Disconnect(context.Background())
	})
	return db
}

func startMongo() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}
	return fmt.Sprintf("mongodb://%s:%s", host, port.Port()), nil
}

func TestMongoIssueLifecycleWrites(t *testing.T) {
	db := setupMongo(t)
	ctx := context.Background()
	issues := NewMongoIssues(db)

	reporter := primitive.NewObjectID()
	now := time.Now().UTC().Truncate(time.Millisecond)
	issue := &models.Issue{
		Title:      "Overflowing drain",
		Category:   "Sanitation",
		Priority:   models.High,
		Zone:       models.EastZone,
		Status:     models.Pending,
		Location:   models.Location{Lat: 19.07, Lng: 72.87},
		Images:     []string{},
		ReportedBy: reporter,
		StatusHistory: []models.StatusHistoryEntry{{
			Status: models.Pending, Timestamp: now, UpdatedBy: reporter, Remark: "Issue reported",
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, issues.Insert(ctx, issue))

	worker := primitive.NewObjectID()
	status := models.InProgress
	got, err := issues.Update(ctx, issue.ID, IssueUpdate{
		Status:     &status,
		AssignedTo: &worker,
		History:    &models.StatusHistoryEntry{Status: status, Timestamp: now, UpdatedBy: reporter},
		From:       []models.IssueStatus{models.Pending},
		UpdatedAt:  now,
	})
	require.NoError(t, err)
	assert.Equal(t, models.InProgress, got.Status)
	require.Len(t, got.StatusHistory, 2)
	assert.Equal(t, worker, *got.AssignedTo)

	_, err = issues.Update(ctx, issue.ID, IssueUpdate{
		Status: &status,
		From:   []models.IssueStatus{models.PendingVerification},
	})
	assert.True(t, errors.Is(err, models.ErrConflict))

	_, err = issues.Update(ctx, primitive.NewObjectID(), IssueUpdate{Status: &status})
	assert.True(t, errors.Is(err, models.ErrNotFound))

	stranger := primitive.NewObjectID()
	_, err = issues.Update(ctx, issue.ID, IssueUpdate{
		Status:       &status,
		History:      &models.StatusHistoryEntry{Status: status, Timestamp: now, UpdatedBy: stranger},
		AssignedToIs: &stranger,
	})
	assert.True(t, errors.Is(err, models.ErrConflict), "assignee guard")

	scoped, err := issues.Find(ctx, IssueFilter{AssignedTo: &worker})
	require.NoError(t, err)
	require.Len(t, scoped, 1)

	views, err := issues.FindPublic(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Overflowing drain", views[0].Title)

	stats, err := issues.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalIssues)
	assert.EqualValues(t, 1, stats.OpenIssues)
	assert.Equal(t, []models.CountBucket{{Name: string(models.EastZone), Value: 1}}, stats.ByZone)
}

func TestMongoUsersUniqueEmail(t *testing.T) {
	db := setupMongo(t)
	ctx := context.Background()
	users := NewMongoUsers(db)

	worker := &models.User{Name: "Ravi", Email: "ravi@example.com", Role: models.RoleWorker}
	require.NoError(t, users.Insert(ctx, worker))

	err := users.Insert(ctx, &models.User{Name: "Other", Email: "ravi@example.com", Role: models.RoleCitizen})
	assert.True(t, errors.Is(err, models.ErrAlreadyExists))

	workers, err := users.FindWorkers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.WorkerView{{ID: worker.ID, Name: "Ravi", Email: "ravi@example.com"}}, workers)

	_, err = users.FindByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestMongoFeedbackInsert(t *testing.T) {
	db := setupMongo(t)
	fb := &models.Feedback{User: primitive.NewObjectID(), Role: models.RoleCitizen, Subject: "Hi", Message: "Thanks"}
	require.NoError(t, NewMongoFeedback(db).Insert(context.Background(), fb))
	assert.False(t, fb.ID.IsZero())
}
