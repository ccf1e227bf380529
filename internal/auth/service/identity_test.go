package service

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scene-editor/internal/auth/repository"
	"scene-editor/internal/common/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestIdentity(t *testing.T) (*Identity, *SessionManager) {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.New(db)
	require.NoError(t, repo.Init(context.Background()))

	sessions := NewSessionManager(time.Hour)
	id := NewIdentity(repo, sessions)
	id.cost = bcrypt.MinCost
	return id, sessions
}

func TestSignUpSignInSignOut(t *testing.T) {
	ctx := context.Background()
	id, _ := newTestIdentity(t)

	user, err := id.SignUp(ctx, "  Ada@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEmpty(t, user.ID)

	_, err = id.SignUp(ctx, "ada@example.com", "another")
	assert.ErrorIs(t, err, repository.ErrEmailTaken)

	_, err = id.SignIn(ctx, "ada@example.com", "wrong!!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = id.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err := id.SignIn(ctx, "ADA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, sess.User.ID)
	require.NotEmpty(t, sess.Token)

	got, err := id.GetSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.User.ID)

	id.SignOut(ctx, sess.Token)
	_, err = id.GetSession(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSignUpValidation(t *testing.T) {
	ctx := context.Background()
	id, _ := newTestIdentity(t)

	_, err := id.SignUp(ctx, "not-an-email", "secret1")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = id.SignUp(ctx, "Bob <bob@example.com>", "secret1")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = id.SignUp(ctx, "bob@example.com", "123")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = id.SignUp(ctx, "bob@example.com", strings.Repeat("x", MaxPasswordLength+8))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	user, err := id.SignUp(ctx, "bob@example.com", strings.Repeat("x", MaxPasswordLength))
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email)
}

func TestSessionExpiry(t *testing.T) {
	m := NewSessionManager(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	tok := m.Issue("u1")
	userID, ok := m.Resolve(tok)
	assert.True(t, ok)
	assert.Equal(t, "u1", userID)

	now = now.Add(2 * time.Minute)
	_, ok = m.Resolve(tok)
	assert.False(t, ok)
	assert.False(t, m.Revoke(tok))
}
