package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"samadhan-setu/enrichment"
	"samadhan-setu/middlewares"
	"samadhan-setu/models"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// respondError maps a service error onto its HTTP status and a tagged
// JSON body. Server-side failures are logged and reported to Sentry.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	status, code, message := classify(err)
	body := gin.H{"error": message, "code": code}

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Errors
	}

	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("request_id", c.GetString("request_id")),
			slog.String("error", err.Error()),
		)
		if status == http.StatusInternalServerError {
			sentry.CaptureException(err)
		}
	}
	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "validation", err.Error()
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "Invalid credentials"
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, "forbidden", "Access denied"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, models.ErrAlreadyExists):
		return http.StatusConflict, "already_exists", err.Error()
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, "conflict", err.Error()
	case errors.Is(err, models.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited", err.Error()
	case errors.Is(err, enrichment.ErrUnavailable):
		return http.StatusBadGateway, "enrichment_unavailable", "AI processing failed"
	}
	return http.StatusInternalServerError, "internal", "Something went wrong"
}

func mustCaller(c *gin.Context) (models.Caller, bool) {
	caller, ok := middlewares.CallerFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated", "code": "unauthorized"})
	}
	return caller, ok
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID", "code": "validation"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return false
	}
	return true
}
