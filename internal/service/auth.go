package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Kerhoff/familyalbum/internal/auth"
	"github.com/Kerhoff/familyalbum/internal/models"
	"github.com/Kerhoff/familyalbum/internal/repository"
)

// RegisterInput is the payload of a sign-up.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is a signed token with the profile it was issued for.
type AuthResult struct {
	Token string         `json:"token"`
	User  models.Profile `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and signs a token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, validationError("all fields required")
	}

	existing, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, internalError("failed to register", err)
	}
	if existing != nil {
		return nil, conflictError("email already registered", nil)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, internalError("failed to register", err)
	}

	user, err := s.Users.Create(ctx, &models.User{Name: name, Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError("email already registered", err)
		}
		return nil, internalError("failed to register", err)
	}
	s.logger.WithField("user_id", user.ID).Info("registered new user")

	return s.sessionFor(user)
}

// Login checks credentials and signs a token. Unknown emails and wrong
// passwords produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, internalError("failed to log in", err)
	}
	if user == nil {
		return nil, validationError("invalid credentials")
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, internalError("failed to log in", err)
	}
	if !ok {
		return nil, validationError("invalid credentials")
	}

	return s.sessionFor(user)
}

func (s *Service) sessionFor(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, internalError("failed to issue token", err)
	}
	return &AuthResult{Token: token, User: user.Profile()}, nil
}

// Me returns the profile of the caller.
func (s *Service) Me(ctx context.Context, userID string) (*models.Profile, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, internalError("failed to load user", err)
	}
	if user == nil {
		return nil, notFoundError("user not found")
	}
	p := user.Profile()
	return &p, nil
}

// CheckEntitlement reports whether the caller may use paid features. A
// caller whose account no longer exists is unauthorized.
func (s *Service) CheckEntitlement(ctx context.Context, userID string) error {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return internalError("failed to load user", err)
	}
	if user == nil {
		return &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	}
	if !user.IsPaid {
		return &Error{Kind: KindPaymentRequired, Message: "payment required"}
	}
	return nil
}
