package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role enum
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
	RoleWorker  Role = "worker"
)

// Roles lists every role a user can hold.
var Roles = []Role{RoleCitizen, RoleAdmin, RoleWorker}

func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleAdmin, RoleWorker:
		return true
	}
	return false
}

// ParseRole converts a raw role string. An empty string yields RoleCitizen.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleCitizen, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", NewValidationError("role", fmt.Sprintf("unknown role %q", s))
	}
	return r, nil
}

// Action is an operation a caller may attempt against the workflow.
type Action string

const (
	ActionCreateIssue    Action = "create_issue"
	ActionListIssues     Action = "list_issues"
	ActionAssignIssue    Action = "assign_issue"
	ActionResolveIssue   Action = "resolve_issue"
	ActionVerifyIssue    Action = "verify_issue"
	ActionDismissIssue   Action = "dismiss_issue"
	ActionFailIssue      Action = "fail_issue"
	ActionUpdateCost     Action = "update_cost"
	ActionClassifyIssue  Action = "classify_issue"
	ActionAnalyzeText    Action = "analyze_text"
	ActionViewSummary    Action = "view_summary"
	ActionViewStats      Action = "view_stats"
	ActionListWorkers    Action = "list_workers"
	ActionSubmitFeedback Action = "submit_feedback"
)

// Actions lists every action known to the capability table.
var Actions = []Action{
	ActionCreateIssue, ActionListIssues, ActionAssignIssue, ActionResolveIssue,
	ActionVerifyIssue, ActionDismissIssue, ActionFailIssue, ActionUpdateCost,
	ActionClassifyIssue, ActionAnalyzeText, ActionViewSummary, ActionViewStats,
	ActionListWorkers, ActionSubmitFeedback,
}

var capabilities = map[Action][]Role{
	ActionCreateIssue:    {RoleCitizen},
	ActionListIssues:     {RoleCitizen, RoleAdmin, RoleWorker},
	ActionAssignIssue:    {RoleAdmin},
	ActionResolveIssue:   {RoleWorker},
	ActionVerifyIssue:    {RoleAdmin},
	ActionDismissIssue:   {RoleAdmin},
	ActionFailIssue:      {RoleAdmin},
	ActionUpdateCost:     {RoleAdmin},
	ActionClassifyIssue:  {RoleAdmin},
	ActionAnalyzeText:    {RoleAdmin},
	ActionViewSummary:    {RoleAdmin},
	ActionViewStats:      {RoleAdmin},
	ActionListWorkers:    {RoleAdmin},
	ActionSubmitFeedback: {RoleCitizen, RoleAdmin, RoleWorker},
}

// Can reports whether role is allowed to perform action.
// Actions absent from the capability table are denied.
func Can(role Role, action Action) bool {
	for _, r := range capabilities[action] {
		if r == role {
			return true
		}
	}
	return false
}

// RolesFor returns the roles allowed to perform action.
func RolesFor(action Action) []Role {
	return append([]Role(nil), capabilities[action]...)
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	ID   primitive.ObjectID
	Role Role
	Name string
}
