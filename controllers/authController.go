package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"samadhan-setu/middlewares"
	"samadhan-setu/services"

	"github.com/gin-gonic/gin"
)

type tokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

// CookieSettings controls the auth cookie written on login.
type CookieSettings struct {
	Domain     string
	Production bool
	MaxAge     time.Duration
}

type AuthController struct {
	identity *services.Identity
	revoker  tokenRevoker
	cookie   CookieSettings
	log      *slog.Logger
}

// NewAuthController wires the auth handlers. revoker may be nil, in which
// case logout only clears the cookie.
func NewAuthController(log *slog.Logger, identity *services.Identity, revoker tokenRevoker, cookie CookieSettings) *AuthController {
	return &AuthController{identity: identity, revoker: revoker, cookie: cookie, log: log}
}

// RegisterUser handles user registration
func (ac *AuthController) RegisterUser(c *gin.Context) {
	var input services.RegisterInput
	if !bindJSON(c, &input) {
		return
	}

	user, err := ac.identity.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":        user.ID,
		"name":      user.Name,
		"email":     user.Email,
		"role":      user.Role,
		"createdAt": user.CreatedAt,
	})
}

// LoginUser handles user login
func (ac *AuthController) LoginUser(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}

	result, err := ac.identity.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}

	// For production, don't set domain to allow cross-origin cookies
	domain := ac.cookie.Domain
	if ac.cookie.Production {
		domain = ""
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middlewares.AuthCookie,
		Value:    result.Token,
		MaxAge:   int(ac.cookie.MaxAge.Seconds()),
		Path:     "/",
		Domain:   domain,
		Secure:   ac.cookie.Production,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})

	c.JSON(http.StatusOK, gin.H{
		"token": result.Token,
		"user": gin.H{
			"id":    result.User.ID,
			"name":  result.User.Name,
			"email": result.User.Email,
			"role":  result.User.Role,
		},
	})
}

// GetMe retrieves the authenticated user's information
func (ac *AuthController) GetMe(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	user, err := ac.identity.Me(c.Request.Context(), caller)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        user.ID,
		"name":      user.Name,
		"email":     user.Email,
		"role":      user.Role,
		"createdAt": user.CreatedAt,
	})
}

// LogoutUser revokes the current token and clears the auth_token cookie
func (ac *AuthController) LogoutUser(c *gin.Context) {
	if ac.revoker != nil {
		if token := middlewares.TokenFrom(c); token != "" {
			// Denylist entries only need to outlive the token itself.
			ttl := ac.cookie.MaxAge
			if exp := middlewares.TokenExpiry(c); !exp.IsZero() {
				ttl = time.Until(exp)
			}
			if err := ac.revoker.Revoke(c.Request.Context(), token, ttl); err != nil {
				respondError(c, ac.log, err)
				return
			}
		}
	}

	c.SetCookie(middlewares.AuthCookie, "", -1, "/", ac.cookie.Domain, ac.cookie.Production, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetWorkers lists field workers for the admin assignment view
func (ac *AuthController) GetWorkers(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	workers, err := ac.identity.ListWorkers(c.Request.Context(), caller)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	c.JSON(http.StatusOK, workers)
}
