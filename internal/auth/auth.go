// Package auth handles account registration and session management.
// Passwords are stored as bcrypt hashes and sessions are opaque UUID
// tokens with a server-side expiry.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const MinPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrEmptyUsername      = errors.New("empty username")
)

type Service struct {
	repo       *storage.SQLiteRepository
	sessionTTL time.Duration
}

func NewService(repo *storage.SQLiteRepository, sessionTTL time.Duration) *Service {
	return &Service{repo: repo, sessionTTL: sessionTTL}
}

// HashPassword produces a bcrypt hash at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Signup registers a new account. The username must be unused and the
// password at least MinPasswordLength characters.
func (s *Service) Signup(ctx context.Context, username, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return core.User{}, ErrEmptyUsername
	}
	if len(password) < MinPasswordLength {
		return core.User{}, ErrWeakPassword
	}

	q := s.repo.Queries()
	if _, err := q.GetUserByUsername(ctx, username); err == nil {
		return core.User{}, ErrUsernameTaken
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.User{}, fmt.Errorf("check username: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return core.User{}, err
	}

	user, err := q.CreateUser(ctx, username, hash)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies the credentials and opens a session, returning the
// opaque token. Unknown usernames and wrong passwords both come back as
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, core.User, error) {
	q := s.repo.Queries()

	user, err := q.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", core.User{}, ErrInvalidCredentials
		}
		return "", core.User{}, fmt.Errorf("load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", core.User{}, ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := q.CreateSession(ctx, token, user.ID, time.Now().Add(s.sessionTTL)); err != nil {
		return "", core.User{}, fmt.Errorf("create session: %w", err)
	}
	return token, user, nil
}

// ValidateSession resolves a token to its user. Expired and unknown
// tokens come back as ErrInvalidCredentials.
func (s *Service) ValidateSession(ctx context.Context, token string) (core.User, error) {
	user, err := s.repo.Queries().GetSessionUser(ctx, token)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, ErrInvalidCredentials
		}
		return core.User{}, fmt.Errorf("load session: %w", err)
	}
	return user, nil
}

// Logout deletes the session. Deleting an unknown token is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.repo.Queries().DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions removes sessions past their expiry.
func (s *Service) PurgeExpiredSessions(ctx context.Context) error {
	if err := s.repo.Queries().DeleteExpiredSessions(ctx); err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	return nil
}
