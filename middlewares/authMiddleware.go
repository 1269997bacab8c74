package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"samadhan-setu/models"
	authUtils "samadhan-setu/utils"

	"github.com/gin-gonic/gin"
)

const (
	AuthCookie = "auth_token"

	callerKey = "caller"
	tokenKey  = "token"
	expiryKey = "token_expiry"
)

type tokenParser interface {
	Parse(tokenString string) (*authUtils.Claims, error)
}

type revocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type accountChecker interface {
	Exists(ctx context.Context, caller models.Caller) (bool, error)
}

// Auth authenticates the request from a bearer token or the auth cookie.
// revoked and accounts are optional; when set, logged-out tokens and
// tokens of deleted accounts are refused.
type Auth struct {
	tokens   tokenParser
	revoked  revocationChecker
	accounts accountChecker
	log      *slog.Logger
}

func NewAuth(log *slog.Logger, tokens tokenParser, revoked revocationChecker, accounts accountChecker) *Auth {
	return &Auth{tokens: tokens, revoked: revoked, accounts: accounts, log: log}
}

func (a *Auth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided", "code": "unauthorized"})
			return
		}

		claims, err := a.tokens.Parse(tokenString)
		if err != nil {
			a.log.Debug("token validation failed", slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization token", "code": "unauthorized"})
			return
		}
		caller, err := claims.Caller()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims", "code": "unauthorized"})
			return
		}

		ctx := c.Request.Context()
		if a.revoked != nil {
			revoked, err := a.revoked.IsRevoked(ctx, tokenString)
			if err != nil {
				a.log.Error("revocation check failed", slog.String("error", err.Error()))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong", "code": "internal"})
				return
			}
			if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked", "code": "unauthorized"})
				return
			}
		}
		if a.accounts != nil {
			exists, err := a.accounts.Exists(ctx, caller)
			if err != nil {
				a.log.Error("account lookup failed", slog.String("error", err.Error()))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong", "code": "internal"})
				return
			}
			if !exists {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found", "code": "unauthorized"})
				return
			}
		}

		c.Set(callerKey, caller)
		c.Set(tokenKey, tokenString)
		c.Set(expiryKey, claims.Expiry())
		c.Set("user_id", caller.ID.Hex())
		c.Next()
	}
}

// RequireAction rejects callers whose role may not perform action.
// It must run after Auth.Middleware.
func RequireAction(action models.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated", "code": "unauthorized"})
			return
		}
		if !models.Can(caller.Role, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied", "code": "forbidden"})
			return
		}
		c.Next()
	}
}

// CallerFrom returns the identity stored by Auth.Middleware.
func CallerFrom(c *gin.Context) (models.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return models.Caller{}, false
	}
	caller, ok := v.(models.Caller)
	return caller, ok
}

// TokenFrom returns the raw token the request authenticated with.
func TokenFrom(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// TokenExpiry returns when the request's token expires, or the zero time.
func TokenExpiry(c *gin.Context) time.Time {
	return c.GetTime(expiryKey)
}

func extractToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		// Extracting token from "Bearer <token>" format
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := c.Cookie(AuthCookie); err == nil {
		return cookie
	}
	return ""
}
