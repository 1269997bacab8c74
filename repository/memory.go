package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"samadhan-setu/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is a process-local store used when STORE_BACKEND=memory and in
// tests. Every write holds the lock for its whole read-modify-write, which
// gives the same per-document atomicity as a single Mongo update.
type Memory struct {
	mu       sync.RWMutex
	issues   map[primitive.ObjectID]*models.Issue
	users    map[primitive.ObjectID]*models.User
	feedback []models.Feedback
}

func NewMemory() *Memory {
	return &Memory{
		issues: make(map[primitive.ObjectID]*models.Issue),
		users:  make(map[primitive.ObjectID]*models.User),
	}
}

// Issues returns the issue repository view of m.
func (m *Memory) Issues() IssueRepository { return memoryIssues{m} }

// Users returns the user repository view of m.
func (m *Memory) Users() UserRepository { return memoryUsers{m} }

// Feedback returns the feedback repository view of m.
func (m *Memory) Feedback() FeedbackRepository { return memoryFeedback{m} }

// FeedbackCount reports how many feedback messages were stored.
func (m *Memory) FeedbackCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.feedback)
}

type memoryIssues struct{ m *Memory }

func (r memoryIssues) Insert(_ context.Context, issue *models.Issue) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if _, ok := r.m.issues[issue.ID]; ok {
		return fmt.Errorf("issue %s: %w", issue.ID.Hex(), models.ErrAlreadyExists)
	}
	r.m.issues[issue.ID] = cloneIssue(issue)
	return nil
}

func (r memoryIssues) FindByID(_ context.Context, id primitive.ObjectID) (*models.Issue, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	issue, ok := r.m.issues[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneIssue(issue), nil
}

func (r memoryIssues) Find(_ context.Context, filter IssueFilter) ([]models.Issue, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := []models.Issue{}
	for _, issue := range r.m.issues {
		if matches(issue, filter) {
			out = append(out, *cloneIssue(issue))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r memoryIssues) FindPublic(ctx context.Context) ([]models.IssuePublicView, error) {
	issues, err := r.Find(ctx, IssueFilter{})
	if err != nil {
		return nil, err
	}
	views := make([]models.IssuePublicView, 0, len(issues))
	for _, issue := range issues {
		views = append(views, models.IssuePublicView{
			Title:     issue.Title,
			Location:  issue.Location,
			Category:  issue.Category,
			Status:    issue.Status,
			CreatedAt: issue.CreatedAt,
		})
	}
	return views, nil
}

func (r memoryIssues) Update(_ context.Context, id primitive.ObjectID, upd IssueUpdate) (*models.Issue, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	issue, ok := r.m.issues[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !statusAllowed(issue.Status, upd.From) {
		return nil, fmt.Errorf("issue %s is not in %v: %w", id.Hex(), upd.From, models.ErrConflict)
	}
	if upd.AssignedToIs != nil && (issue.AssignedTo == nil || *issue.AssignedTo != *upd.AssignedToIs) {
		return nil, fmt.Errorf("issue %s is no longer assigned to %s: %w", id.Hex(), upd.AssignedToIs.Hex(), models.ErrConflict)
	}

	applyUpdate(issue, upd)
	return cloneIssue(issue), nil
}

func (r memoryIssues) Stats(_ context.Context) (*models.IssueStats, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	byStatus := map[string]int64{}
	byCategory := map[string]int64{}
	byZone := map[string]int64{}
	stats := &models.IssueStats{}

	for _, issue := range r.m.issues {
		stats.TotalIssues++
		stats.TotalCost += issue.Cost
		if statusAllowed(issue.Status, openStatuses) {
			stats.OpenIssues++
		}
		byStatus[string(issue.Status)]++
		byCategory[issue.Category]++
		if issue.Zone != "" {
			byZone[string(issue.Zone)]++
		}
	}

	stats.ByStatus = buckets(byStatus)
	stats.ByCategory = buckets(byCategory)
	stats.ByZone = buckets(byZone)
	return stats, nil
}

type memoryUsers struct{ m *Memory }

func (r memoryUsers) Insert(_ context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("user %s: %w", user.Email, models.ErrAlreadyExists)
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	u := *user
	r.m.users[user.ID] = &u
	return nil
}

func (r memoryUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	u, ok := r.m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r memoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r memoryUsers) FindWorkers(_ context.Context) ([]models.WorkerView, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	workers := []models.WorkerView{}
	for _, u := range r.m.users {
		if u.Role == models.RoleWorker {
			workers = append(workers, models.WorkerView{ID: u.ID, Name: u.Name, Email: u.Email})
		}
	}
	sort.Slice(workers, func(i, j int) bool { return workers[i].Name < workers[j].Name })
	return workers, nil
}

type memoryFeedback struct{ m *Memory }

func (r memoryFeedback) Insert(_ context.Context, fb *models.Feedback) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if fb.ID.IsZero() {
		fb.ID = primitive.NewObjectID()
	}
	r.m.feedback = append(r.m.feedback, *fb)
	return nil
}

func matches(issue *models.Issue, f IssueFilter) bool {
	if f.ReportedBy != nil && issue.ReportedBy != *f.ReportedBy {
		return false
	}
	if f.AssignedTo != nil && (issue.AssignedTo == nil || *issue.AssignedTo != *f.AssignedTo) {
		return false
	}
	if f.Status != "" {
		if issue.Status != f.Status {
			return false
		}
	} else if len(f.ExcludeStatus) > 0 && statusAllowed(issue.Status, f.ExcludeStatus) {
		return false
	}
	if f.Zone != "" && issue.Zone != f.Zone {
		return false
	}
	return true
}

func applyUpdate(issue *models.Issue, upd IssueUpdate) {
	if upd.Status != nil {
		issue.Status = *upd.Status
	}
	if upd.AssignedTo != nil {
		id := *upd.AssignedTo
		issue.AssignedTo = &id
	}
	if upd.AIFeedback != nil {
		s := *upd.AIFeedback
		issue.AIFeedback = &s
	}
	if upd.Cost != nil {
		issue.Cost = *upd.Cost
	}
	if upd.Category != nil {
		issue.Category = *upd.Category
	}
	if upd.Priority != nil {
		issue.Priority = *upd.Priority
	}
	if upd.Severity != nil {
		issue.Severity = *upd.Severity
	}
	if upd.RecommendedAction != nil {
		s := *upd.RecommendedAction
		issue.RecommendedAction = &s
	}
	if upd.AIEnhancedDescription != nil {
		s := *upd.AIEnhancedDescription
		issue.AIEnhancedDescription = &s
	}
	if upd.History != nil {
		issue.StatusHistory = append(issue.StatusHistory, *upd.History)
	}
	issue.UpdatedAt = upd.UpdatedAt
}

func cloneIssue(in *models.Issue) *models.Issue {
	out := *in
	out.Images = append([]string(nil), in.Images...)
	out.StatusHistory = append([]models.StatusHistoryEntry(nil), in.StatusHistory...)
	out.AIEnhancedDescription = cloneString(in.AIEnhancedDescription)
	out.RecommendedAction = cloneString(in.RecommendedAction)
	out.Audio = cloneString(in.Audio)
	out.AIFeedback = cloneString(in.AIFeedback)
	if in.AssignedTo != nil {
		id := *in.AssignedTo
		out.AssignedTo = &id
	}
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func sortNewestFirst(issues []models.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].CreatedAt.Equal(issues[j].CreatedAt) {
			return issues[i].ID.Hex() > issues[j].ID.Hex()
		}
		return issues[i].CreatedAt.After(issues[j].CreatedAt)
	})
}

func buckets(counts map[string]int64) []models.CountBucket {
	out := make([]models.CountBucket, 0, len(counts))
	for name, value := range counts {
		out = append(out, models.CountBucket{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
