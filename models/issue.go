package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueStatus enum
type IssueStatus string

const (
	Pending             IssueStatus = "Pending"
	InProgress          IssueStatus = "In Progress"
	PendingVerification IssueStatus = "Pending Verification"
	Resolved            IssueStatus = "Resolved"
	Failed              IssueStatus = "Failed"
)

// Statuses lists every issue status in lifecycle order.
var Statuses = []IssueStatus{Pending, InProgress, PendingVerification, Resolved, Failed}

func (s IssueStatus) Valid() bool {
	switch s {
	case Pending, InProgress, PendingVerification, Resolved, Failed:
		return true
	}
	return false
}

// Terminal reports whether no further lifecycle transition is expected.
func (s IssueStatus) Terminal() bool {
	return s == Resolved || s == Failed
}

// Priority enum
type Priority string

const (
	Low      Priority = "Low"
	Medium   Priority = "Medium"
	High     Priority = "High"
	Critical Priority = "Critical"
)

func (p Priority) Valid() bool {
	switch p {
	case Low, Medium, High, Critical:
		return true
	}
	return false
}

// Zone enum
type Zone string

const (
	NorthZone Zone = "North Zone"
	SouthZone Zone = "South Zone"
	EastZone  Zone = "East Zone"
	WestZone  Zone = "West Zone"
)

func (z Zone) Valid() bool {
	switch z {
	case NorthZone, SouthZone, EastZone, WestZone:
		return true
	}
	return false
}

// DefaultCategory is used when neither the enrichment service nor the
// reporter supplies a category.
const DefaultCategory = "Maintenance"

type Location struct {
	Lat     float64 `bson:"lat" json:"lat" validate:"gte=-90,lte=90"`
	Lng     float64 `bson:"lng" json:"lng" validate:"gte=-180,lte=180"`
	Address string  `bson:"address,omitempty" json:"address,omitempty" validate:"max=300"`
}

// StatusHistoryEntry is one immutable step in an issue's timeline.
type StatusHistoryEntry struct {
	Status     IssueStatus        `bson:"status" json:"status"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
	UpdatedBy  primitive.ObjectID `bson:"updatedBy" json:"updatedBy"`
	Remark     string             `bson:"remark,omitempty" json:"remark,omitempty"`
	ProofImage string             `bson:"proofImage,omitempty" json:"proofImage,omitempty"`
}

// Issue represents a civic complaint reported by a citizen
type Issue struct {
	ID                    primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title                 string               `bson:"title" json:"title"`
	OriginalDescription   string               `bson:"original_description" json:"original_description"`
	AIEnhancedDescription *string              `bson:"ai_enhanced_description,omitempty" json:"ai_enhanced_description,omitempty"`
	Category              string               `bson:"category" json:"category"`
	Priority              Priority             `bson:"priority" json:"priority"`
	Severity              string               `bson:"severity,omitempty" json:"severity,omitempty"`
	RecommendedAction     *string              `bson:"recommendedAction,omitempty" json:"recommendedAction,omitempty"`
	Zone                  Zone                 `bson:"zone,omitempty" json:"zone,omitempty"`
	Location              Location             `bson:"location" json:"location"`
	Images                []string             `bson:"images" json:"images"`
	Audio                 *string              `bson:"audio,omitempty" json:"audio,omitempty"`
	Cost                  float64              `bson:"cost" json:"cost"`
	Status                IssueStatus          `bson:"status" json:"status"`
	ReportedBy            primitive.ObjectID   `bson:"reportedBy" json:"reportedBy"`
	AssignedTo            *primitive.ObjectID  `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	AIFeedback            *string              `bson:"ai_feedback,omitempty" json:"ai_feedback,omitempty"`
	StatusHistory         []StatusHistoryEntry `bson:"status_history" json:"status_history"`
	CreatedAt             time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// LastHistory returns the most recent history entry, or nil.
func (i *Issue) LastHistory() *StatusHistoryEntry {
	if len(i.StatusHistory) == 0 {
		return nil
	}
	return &i.StatusHistory[len(i.StatusHistory)-1]
}

// IssuePublicView is the anonymous map projection of an issue.
type IssuePublicView struct {
	Title     string      `bson:"title" json:"title"`
	Location  Location    `bson:"location" json:"location"`
	Category  string      `bson:"category" json:"category"`
	Status    IssueStatus `bson:"status" json:"status"`
	CreatedAt time.Time   `bson:"createdAt" json:"createdAt"`
}

// CountBucket is one row of a grouped count.
type CountBucket struct {
	Name  string `bson:"name" json:"name"`
	Value int64  `bson:"value" json:"value"`
}

// IssueStats aggregates the issue collection for the admin dashboard.
type IssueStats struct {
	TotalIssues int64         `json:"totalIssues"`
	OpenIssues  int64         `json:"openIssues"`
	TotalCost   float64       `json:"totalCost"`
	ByStatus    []CountBucket `json:"issuesByStatus"`
	ByCategory  []CountBucket `json:"issuesByCategory"`
	ByZone      []CountBucket `json:"issuesByZone"`
}
