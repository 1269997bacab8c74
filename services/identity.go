package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"samadhan-setu/models"
	"samadhan-setu/repository"
)

type tokenIssuer interface {
	Generate(user *models.User) (string, error)
}

// Identity registers and authenticates users.
type Identity struct {
	users            repository.UserRepository
	tokens           tokenIssuer
	allowStaffSignup bool
	now              func() time.Time
	log              *slog.Logger
}

func NewIdentity(log *slog.Logger, users repository.UserRepository, tokens tokenIssuer, allowStaffSignup bool) *Identity {
	return &Identity{
		users:            users,
		tokens:           tokens,
		allowStaffSignup: allowStaffSignup,
		now:              time.Now,
		log:              log.With("service", "identity"),
	}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"`
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a user. The role defaults to citizen; admin and worker
// sign-ups are refused unless staff sign-up is enabled.
func (s *Identity) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	if role != models.RoleCitizen && !s.allowStaffSignup {
		return nil, models.ErrForbidden
	}

	now := s.now()
	user := &models.User{
		Name:      in.Name,
		Email:     in.Email,
		Password:  in.Password,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.HashPassword(); err != nil {
		return nil, err
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user registered", slog.String("user_id", user.ID.Hex()), slog.String("role", string(role)))
	return user, nil
}

// Login checks credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Identity) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, models.NewValidationError("email", "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		return nil, err
	}
	if !user.ComparePassword(password) {
		return nil, models.ErrUnauthorized
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}

// Me returns the caller's user record.
func (s *Identity) Me(ctx context.Context, caller models.Caller) (*models.User, error) {
	if caller.ID.IsZero() {
		return nil, models.ErrUnauthorized
	}
	return s.users.FindByID(ctx, caller.ID)
}

// Exists reports whether the caller's account is still present.
func (s *Identity) Exists(ctx context.Context, caller models.Caller) (bool, error) {
	_, err := s.users.FindByID(ctx, caller.ID)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ListWorkers returns every field worker for the assignment dropdown.
func (s *Identity) ListWorkers(ctx context.Context, caller models.Caller) ([]models.WorkerView, error) {
	if err := Authorize(caller, models.ActionListWorkers); err != nil {
		return nil, err
	}
	return s.users.FindWorkers(ctx)
}
