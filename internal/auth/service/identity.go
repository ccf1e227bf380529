package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"scene-editor/internal/auth/models"
	"scene-editor/internal/auth/repository"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength matches what the sign-up form enforces.
const MinPasswordLength = 6

// MaxPasswordLength is the longest password bcrypt accepts, in bytes.
const MaxPasswordLength = 72

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes", MaxPasswordLength)
	ErrNoSession          = errors.New("no session")
)

// Users is the storage the identity service needs.
type Users interface {
	Create(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ============================================================
// Identity Service
// ============================================================

type Identity struct {
	users    Users
	sessions *SessionManager
	cost     int
}

func NewIdentity(users Users, sessions *SessionManager) *Identity {
	return &Identity{users: users, sessions: sessions, cost: bcrypt.DefaultCost}
}

// SignUp registers a new account. It does not sign the user in.
func (s *Identity) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	if len(password) > MaxPasswordLength {
		return nil, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.users.Create(ctx, email, string(hash))
}

// SignIn checks credentials and issues a session token.
func (s *Identity) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &models.Session{Token: s.sessions.Issue(user.ID), User: *user}, nil
}

// SignOut revokes token. Unknown tokens are ignored.
func (s *Identity) SignOut(_ context.Context, token string) {
	s.sessions.Revoke(token)
}

// GetSession resolves token to its session.
func (s *Identity) GetSession(ctx context.Context, token string) (*models.Session, error) {
	userID, ok := s.sessions.Resolve(token)
	if !ok {
		return nil, ErrNoSession
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.sessions.Revoke(token)
			return nil, ErrNoSession
		}
		return nil, err
	}
	return &models.Session{Token: token, User: *user}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
