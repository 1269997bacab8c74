package services

import (
	"fmt"

	"samadhan-setu/models"
	"samadhan-setu/repository"
)

// Authorize checks the capability table for caller's role.
// An anonymous or malformed caller is unauthorized, a known caller whose
// role lacks the action is forbidden.
func Authorize(caller models.Caller, action models.Action) error {
	if caller.ID.IsZero() || !caller.Role.Valid() {
		return models.ErrUnauthorized
	}
	if !models.Can(caller.Role, action) {
		return fmt.Errorf("%s may not %s: %w", caller.Role, action, models.ErrForbidden)
	}
	return nil
}

// ScopeQuery returns the issue filter that bounds what caller may see:
// citizens see what they reported, workers what is assigned to them,
// admins everything.
func ScopeQuery(caller models.Caller) (repository.IssueFilter, error) {
	id := caller.ID
	switch caller.Role {
	case models.RoleCitizen:
		return repository.IssueFilter{ReportedBy: &id}, nil
	case models.RoleWorker:
		return repository.IssueFilter{AssignedTo: &id}, nil
	case models.RoleAdmin:
		return repository.IssueFilter{}, nil
	}
	return repository.IssueFilter{}, models.ErrUnauthorized
}

// Visible applies the ScopeQuery rules to a single issue.
func Visible(caller models.Caller, issue *models.Issue) bool {
	switch caller.Role {
	case models.RoleCitizen:
		return issue.ReportedBy == caller.ID
	case models.RoleWorker:
		return issue.AssignedTo != nil && *issue.AssignedTo == caller.ID
	case models.RoleAdmin:
		return true
	}
	return false
}
