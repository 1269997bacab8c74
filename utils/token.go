package authUtils

import (
	"errors"
	"fmt"
	"time"

	"samadhan-setu/models"

	"github.com/dgrijalva/jwt-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Claims carried by every auth token.
type Claims struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
	Name   string      `json:"name"`
	jwt.StandardClaims
}

// TokenManager signs and verifies HS256 auth tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime given to new tokens.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Generate issues a token for user.
func (m *TokenManager) Generate(user *models.User) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		Name:   user.Name,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(m.ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// Parse verifies tokenString and returns its claims.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %v: %w", err, models.ErrUnauthorized)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("invalid token role %q: %w", claims.Role, models.ErrUnauthorized)
	}
	return claims, nil
}

// Caller converts verified claims into a request identity.
func (c *Claims) Caller() (models.Caller, error) {
	id, err := primitive.ObjectIDFromHex(c.UserID)
	if err != nil {
		return models.Caller{}, errors.Join(models.ErrUnauthorized, err)
	}
	return models.Caller{ID: id, Role: c.Role, Name: c.Name}, nil
}

// Expiry is the instant the token stops being accepted.
func (c *Claims) Expiry() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}
