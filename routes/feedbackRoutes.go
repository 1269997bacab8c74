package routes

import (
	"samadhan-setu/middlewares"
	"samadhan-setu/models"

	"github.com/gin-gonic/gin"
)

// FeedbackRoutes sets up the feedback mailbox route
func FeedbackRoutes(r *gin.Engine, h Handlers) {
	feedback := r.Group("/api/feedback", h.Authenticate)
	{
		feedback.POST("", middlewares.RequireAction(models.ActionSubmitFeedback), h.Feedback.SubmitFeedback)
	}
}
