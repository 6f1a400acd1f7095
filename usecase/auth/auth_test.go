package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/priority/domain"
	"github.com/fastygo/priority/repository/memory"
)

func newAuth(t *testing.T) (*UseCase, *memory.SessionRepository, *TokenIssuer) {
	t.Helper()
	hasher := NewPasswordHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("secret-pass")
	require.NoError(t, err)

	users := memory.NewUserRepository()
	_, err = users.Create(context.Background(), &domain.User{
		ID:           "alice",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
	})
	require.NoError(t, err)

	sessions := memory.NewSessionRepository()
	tokens := NewTokenIssuer(TokenConfig{Secret: "test-secret", Issuer: "priority", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	return New(users, sessions, tokens, hasher, nil), sessions, tokens
}

func TestPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("secret-pass")
	require.NoError(t, err)

	assert.True(t, hasher.Verify("secret-pass", hash))
	assert.False(t, hasher.Verify("wrong", hash))
	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(0).cost)
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(TokenConfig{Secret: "s", Issuer: "priority"})

	token, expires, err := issuer.Issue("alice", TokenTypeAccess, "jti-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expires, 5*time.Second)

	claims, err := issuer.Parse(token, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID)
	assert.Equal(t, "jti-1", claims.ID)

	_, err = issuer.Parse(token, TokenTypeRefresh)
	assert.Error(t, err)

	other := NewTokenIssuer(TokenConfig{Secret: "different"})
	_, err = other.Parse(token, TokenTypeAccess)
	assert.Error(t, err)
}

func TestTokenIssuerRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer(TokenConfig{Secret: "s", AccessTTL: time.Minute})
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := issuer.Issue("alice", TokenTypeAccess, "jti")
	require.NoError(t, err)

	_, err = issuer.Parse(token, TokenTypeAccess)
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	uc, sessions, tokens := newAuth(t)
	ctx := context.Background()

	pair, err := uc.Login(ctx, " alice@example.com ", "secret-pass")
	require.NoError(t, err)

	claims, err := tokens.Parse(pair.RefreshToken, TokenTypeRefresh)
	require.NoError(t, err)
	session, err := sessions.Get(ctx, claims.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", session.UserID)

	_, err = uc.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = uc.Login(ctx, "ghost@example.com", "secret-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRefreshRotatesSession(t *testing.T) {
	uc, _, _ := newAuth(t)
	ctx := context.Background()

	pair, err := uc.Login(ctx, "alice@example.com", "secret-pass")
	require.NoError(t, err)

	rotated, err := uc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	_, err = uc.Refresh(ctx, pair.RefreshToken)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized), "old refresh token is revoked")

	_, err = uc.Refresh(ctx, rotated.AccessToken)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized), "access tokens cannot refresh")
}

func TestLogout(t *testing.T) {
	uc, _, _ := newAuth(t)
	ctx := context.Background()

	pair, err := uc.Login(ctx, "alice@example.com", "secret-pass")
	require.NoError(t, err)

	require.NoError(t, uc.Logout(ctx, pair.RefreshToken))
	assert.ErrorIs(t, uc.Logout(ctx, pair.RefreshToken), domain.ErrUnauthorized)
}
