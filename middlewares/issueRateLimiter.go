package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type issueLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// IssueRateLimiter caps how many issues one user may file per window.
// It must run after Auth.Middleware.
func IssueRateLimiter(log *slog.Logger, limiter issueLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated", "code": "unauthorized"})
			return
		}

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), caller.ID.Hex())
		if err != nil {
			log.Error("rate limiter failed", slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong", "code": "internal"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"code":        "rate_limited",
				"retry_after": retryAfter.Seconds(),
			})
			return
		}

		c.Next()
	}
}
