package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage/sqlite"
)

func newTestAuthenticator(t *testing.T) *PasswordAuthenticator {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
}

func TestPasswordAuthenticator_Register(t *testing.T) {
	a := newTestAuthenticator(t)
	ctx := context.Background()

	user, err := a.Register(ctx, "  Alice@Example.com ", "Alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	tests := []struct {
		name     string
		email    string
		display  string
		password string
		want     error
	}{
		{"duplicate email", "alice@example.com", "Other", "password123", ErrEmailExists},
		{"short password", "bob@example.com", "Bob", "short", ErrWeakPassword},
		{"malformed email", "not-an-email", "Bob", "password123", ErrInvalidEmail},
		{"named address", "Bob <bob@example.com>", "Bob", "password123", ErrInvalidEmail},
		{"blank name", "bob@example.com", "   ", "password123", ErrMissingName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Register(ctx, tt.email, tt.display, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPasswordAuthenticator_Authenticate(t *testing.T) {
	a := newTestAuthenticator(t)
	ctx := context.Background()

	registered, err := a.Register(ctx, "carol@example.com", "Carol", "password123")
	require.NoError(t, err)

	user, err := a.Authenticate(ctx, "CAROL@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = a.Authenticate(ctx, "carol@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	found, err := a.Lookup(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carol", found.DisplayName)

	_, err = a.Lookup(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPasswordAuthenticator_UpdateProfile(t *testing.T) {
	a := newTestAuthenticator(t)
	ctx := context.Background()

	dave, err := a.Register(ctx, "dave@example.com", "Dave", "password123")
	require.NoError(t, err)
	_, err = a.Register(ctx, "erin@example.com", "Erin", "password123")
	require.NoError(t, err)

	ptr := func(s string) *string { return &s }

	t.Run("renames and moves email", func(t *testing.T) {
		user, err := a.UpdateProfile(ctx, dave.ID, ProfileUpdate{
			DisplayName: ptr("  David "),
			Email:       ptr("David@Example.com"),
		})
		require.NoError(t, err)
		assert.Equal(t, "David", user.DisplayName)
		assert.Equal(t, "david@example.com", user.Email)

		_, err = a.Authenticate(ctx, "dave@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = a.Authenticate(ctx, "david@example.com", "password123")
		assert.NoError(t, err)
	})

	t.Run("changes password", func(t *testing.T) {
		_, err := a.UpdateProfile(ctx, dave.ID, ProfileUpdate{Password: ptr("new password")})
		require.NoError(t, err)

		_, err = a.Authenticate(ctx, "david@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = a.Authenticate(ctx, "david@example.com", "new password")
		assert.NoError(t, err)
	})

	t.Run("keeping the same email is allowed", func(t *testing.T) {
		_, err := a.UpdateProfile(ctx, dave.ID, ProfileUpdate{Email: ptr("david@example.com")})
		assert.NoError(t, err)
	})

	tests := []struct {
		name   string
		userID string
		update ProfileUpdate
		want   error
	}{
		{"no fields", dave.ID, ProfileUpdate{}, ErrNothingToUpdate},
		{"email taken", dave.ID, ProfileUpdate{Email: ptr("erin@example.com")}, ErrEmailExists},
		{"malformed email", dave.ID, ProfileUpdate{Email: ptr("nope")}, ErrInvalidEmail},
		{"blank name", dave.ID, ProfileUpdate{DisplayName: ptr(" ")}, ErrMissingName},
		{"short password", dave.ID, ProfileUpdate{Password: ptr("short")}, ErrWeakPassword},
		{"unknown user", "missing", ProfileUpdate{DisplayName: ptr("Ghost")}, ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.UpdateProfile(ctx, tt.userID, tt.update)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	found, err := a.Lookup(ctx, dave.ID)
	require.NoError(t, err)
	assert.Equal(t, "David", found.DisplayName, "failed updates leave the profile untouched")
}

func TestJWTManager(t *testing.T) {
	user := &models.User{ID: "u1", Email: "u1@example.com"}
	m := NewJWTManager("secret", time.Hour)

	token, err := m.Generate(user)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.Equal(t, "u1", claims.Subject)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewJWTManager("other", time.Hour).Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewJWTManager("secret", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned token", func(t *testing.T) {
		none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u1"})
		s, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Validate(s)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
