package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/apperr"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/models"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/repositories"
)

// Service turns credentials into user identities: bearer tokens on the
// authenticated paths, email+password on login.
type Service struct {
	users  repositories.UserRepository
	tokens *TokenManager
}

// NewService constructs the auth service.
func NewService(users repositories.UserRepository, tokens *TokenManager) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, name, email, password string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.users.Create(ctx, name, email, string(hash))
}

// Login verifies the password and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (string, models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return "", models.User{}, apperr.ErrUnauthenticated
	}
	if err != nil {
		return "", models.User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", models.User{}, apperr.ErrUnauthenticated
	}
	if user.IsBanned {
		return "", models.User{}, apperr.ErrForbidden
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", models.User{}, err
	}
	return token, user, nil
}

// Authenticate resolves a raw bearer token to an active user. A missing,
// malformed or expired token and an unknown user all map to
// apperr.ErrUnauthenticated; a banned user to apperr.ErrForbidden.
func (s *Service) Authenticate(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, apperr.ErrUnauthenticated
	}

	userID, err := s.tokens.Parse(token)
	if err != nil {
		return models.User{}, apperr.ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.User{}, apperr.ErrUnauthenticated
	}
	if err != nil {
		return models.User{}, err
	}
	if user.IsBanned {
		return models.User{}, apperr.ErrForbidden
	}
	return user, nil
}
