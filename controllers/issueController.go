package controllers

import (
	"log/slog"
	"net/http"

	"samadhan-setu/models"
	"samadhan-setu/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IssueController struct {
	engine  *services.Engine
	reports *services.Reports
	log     *slog.Logger
}

func NewIssueController(log *slog.Logger, engine *services.Engine, reports *services.Reports) *IssueController {
	return &IssueController{engine: engine, reports: reports, log: log}
}

// CreateIssue handles the creation of a new issue
func (ic *IssueController) CreateIssue(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var input services.CreateIssueInput
	if !bindJSON(c, &input) {
		return
	}

	issue, err := ic.engine.Create(c.Request.Context(), caller, input)
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

// GetIssues lists the issues visible to the caller, optionally filtered
// by status and zone
func (ic *IssueController) GetIssues(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	filter := services.ListFilter{
		Status: models.IssueStatus(c.Query("status")),
		Zone:   models.Zone(c.Query("zone")),
	}
	if filter.Status == "all" {
		filter.Status = ""
	}
	if filter.Zone == "all" {
		filter.Zone = ""
	}

	issues, err := ic.engine.List(c.Request.Context(), caller, filter)
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

// GetPublicIssues returns the anonymous map view
func (ic *IssueController) GetPublicIssues(c *gin.Context) {
	views, err := ic.engine.ListPublic(c.Request.Context())
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetIssue retrieves one issue in the caller's scope
func (ic *IssueController) GetIssue(c *gin.Context) {
	ic.withIssue(c, func(caller models.Caller, id primitive.ObjectID) (*models.Issue, error) {
		return ic.engine.Get(c.Request.Context(), caller, id)
	})
}

// AssignIssue assigns a field worker
func (ic *IssueController) AssignIssue(c *gin.Context) {
	var input struct {
		WorkerID string `json:"workerId" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}
	workerID, err := primitive.ObjectIDFromHex(input.WorkerID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid worker ID", "code": "validation"})
		return
	}

	ic.withIssue(c, func(caller models.Caller, id primitive.ObjectID) (*models.Issue, error) {
		return ic.engine.Assign(c.Request.Context(), caller, id, workerID)
	})
}

// ResolveIssue records a worker's proof of completion
func (ic *IssueController) ResolveIssue(c *gin.Context) {
	var input services.ResolveInput
	if !bindJSON(c, &input) {
		return
	}

	ic.withIssue(c, func(caller models.Caller, id primitive.ObjectID) (*models.Issue, error) {
		return ic.engine.Resolve(c.Request.Context(), caller, id, input)
	})
}

// VerifyIssue accepts a resolution
func (ic *IssueController) VerifyIssue(c *gin.Context) {
	ic.withIssue(c, func(caller models.Caller, id primitive.ObjectID) (*models.Issue, error) {
		return ic.engine.Verify(c.Request.Context(), caller, id)
	})
}

// DismissIssue rejects a resolution
func (ic *IssueController) DismissIssue(c *gin.Context) {
	ic.withIssue(c, func(caller models.Caller, id primitive.ObjectID) (*models.Issue, error) {
		return ic.engine.Dismiss(c.Request.Context(), caller, id)
	})
}

// FailIssue closes an issue as failed
func (ic *IssueController) FailIssue(c *gin.Context) {
	var input struct {
		Remark string `json:"remark"`
	}
	if c.Request.ContentLength > 0 && !bindJSON(c, &input) {
		return
	}

	ic.withIssue(c, func(caller models.Caller, id primitive.ObjectID) (*models.Issue, error) {
		return ic.engine.MarkFailed(c.Request.Context(), caller, id, input.Remark)
	})
}

// UpdateCost sets the repair cost
func (ic *IssueController) UpdateCost(c *gin.Context) {
	var input struct {
		Cost *float64 `json:"cost" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}

	ic.withIssue(c, func(caller models.Caller, id primitive.ObjectID) (*models.Issue, error) {
		return ic.engine.UpdateCost(c.Request.Context(), caller, id, *input.Cost)
	})
}

// ClassifyIssue stores admin-reviewed enrichment fields
func (ic *IssueController) ClassifyIssue(c *gin.Context) {
	var input services.ClassifyInput
	if !bindJSON(c, &input) {
		return
	}

	ic.withIssue(c, func(caller models.Caller, id primitive.ObjectID) (*models.Issue, error) {
		return ic.engine.Classify(c.Request.Context(), caller, id, input)
	})
}

// GetSummary returns the AI digest of unresolved issues
func (ic *IssueController) GetSummary(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	summary, err := ic.reports.GetSummary(c.Request.Context(), caller)
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetIssueAnalytics returns dashboard counts
func (ic *IssueController) GetIssueAnalytics(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	stats, err := ic.reports.GetStats(c.Request.Context(), caller)
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ImproveIssue runs the admin-side AI analysis of raw complaint text
func (ic *IssueController) ImproveIssue(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var input struct {
		RawText string `json:"rawText" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}

	analysis, err := ic.engine.Analyze(c.Request.Context(), caller, input.RawText)
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// withIssue resolves the caller and :issueId, runs fn and writes the
// updated issue.
func (ic *IssueController) withIssue(c *gin.Context, fn func(models.Caller, primitive.ObjectID) (*models.Issue, error)) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "issueId")
	if !ok {
		return
	}

	issue, err := fn(caller, id)
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}
