package routes

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"samadhan-setu/controllers"
	"samadhan-setu/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the route groups need.
type Handlers struct {
	Auth     *controllers.AuthController
	Issues   *controllers.IssueController
	Feedback *controllers.FeedbackController

	// Authenticate resolves the caller from the request token.
	Authenticate gin.HandlerFunc
	// IssueLimiter throttles issue creation; nil disables throttling.
	IssueLimiter gin.HandlerFunc
}

// NewRouter builds the gin engine with the shared middleware chain and
// every route group mounted.
func NewRouter(log *slog.Logger, corsOrigins []string, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middlewares.RequestID(),
		middlewares.RequestLogger(log),
		cors.New(cors.Config{
			AllowOriginFunc:  allowOrigin(corsOrigins),
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middlewares.RequestIDHeader},
			ExposeHeaders:    []string{middlewares.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	Register(r, h)
	return r
}

// allowOrigin accepts the configured origins and any localhost origin.
func allowOrigin(origins []string) func(string) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimSuffix(strings.TrimSpace(o), "/")] = true
	}
	return func(origin string) bool {
		if allowed[origin] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && (u.Hostname() == "localhost" || u.Hostname() == "127.0.0.1")
	}
}

// Register mounts every route group on r.
func Register(r *gin.Engine, h Handlers) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/api", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API is live"})
	})

	AuthRoutes(r, h)
	IssueRoutes(r, h)
	FeedbackRoutes(r, h)
}
