package routes

import (
	"samadhan-setu/middlewares"
	"samadhan-setu/models"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue lifecycle routes and the admin AI route
func IssueRoutes(r *gin.Engine, h Handlers) {
	create := []gin.HandlerFunc{h.Authenticate, middlewares.RequireAction(models.ActionCreateIssue)}
	if h.IssueLimiter != nil {
		create = append(create, h.IssueLimiter)
	}
	create = append(create, h.Issues.CreateIssue)

	issue := r.Group("/api/issues")
	{
		issue.GET("/public", h.Issues.GetPublicIssues)

		issue.POST("", create...)
		issue.GET("", h.Authenticate, h.Issues.GetIssues)
		issue.GET("/summary", h.Authenticate, middlewares.RequireAction(models.ActionViewSummary), h.Issues.GetSummary)
		issue.GET("/stats", h.Authenticate, middlewares.RequireAction(models.ActionViewStats), h.Issues.GetIssueAnalytics)
		issue.GET("/:issueId", h.Authenticate, h.Issues.GetIssue)

		issue.PUT("/:issueId/assign", h.Authenticate, middlewares.RequireAction(models.ActionAssignIssue), h.Issues.AssignIssue)
		issue.PUT("/:issueId/resolve", h.Authenticate, middlewares.RequireAction(models.ActionResolveIssue), h.Issues.ResolveIssue)
		issue.PUT("/:issueId/verify", h.Authenticate, middlewares.RequireAction(models.ActionVerifyIssue), h.Issues.VerifyIssue)
		issue.PUT("/:issueId/dismiss", h.Authenticate, middlewares.RequireAction(models.ActionDismissIssue), h.Issues.DismissIssue)
		issue.PUT("/:issueId/fail", h.Authenticate, middlewares.RequireAction(models.ActionFailIssue), h.Issues.FailIssue)
		issue.PUT("/:issueId/cost", h.Authenticate, middlewares.RequireAction(models.ActionUpdateCost), h.Issues.UpdateCost)
		issue.PUT("/:issueId/classification", h.Authenticate, middlewares.RequireAction(models.ActionClassifyIssue), h.Issues.ClassifyIssue)
	}

	adminAI := r.Group("/api/admin/ai", h.Authenticate, middlewares.RequireAction(models.ActionAnalyzeText))
	{
		adminAI.POST("/improve-issue", h.Issues.ImproveIssue)
	}
}
