package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/priority/domain"
	"github.com/fastygo/priority/repository"
)

// TokenPair is returned by Login and Refresh.
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *TokenIssuer
	hasher   *PasswordHasher
	logger   *zap.Logger
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *TokenIssuer,
	hasher *PasswordHasher,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hasher == nil {
		hasher = NewPasswordHasher(DefaultBcryptCost)
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		logger:   logger,
	}
}

// Login verifies credentials and issues a new token pair.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := uc.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !uc.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return uc.issue(ctx, user.ID)
}

// Refresh rotates a refresh token: its session is revoked and a new pair issued.
func (uc *UseCase) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	session, err := uc.session(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Delete(ctx, session.ID); err != nil {
		return nil, err
	}
	return uc.issue(ctx, session.UserID)
}

// Logout revokes the session behind refreshToken.
func (uc *UseCase) Logout(ctx context.Context, refreshToken string) error {
	session, err := uc.session(ctx, refreshToken)
	if err != nil {
		return err
	}
	return uc.sessions.Delete(ctx, session.ID)
}

func (uc *UseCase) session(ctx context.Context, refreshToken string) (*domain.Session, error) {
	claims, err := uc.tokens.Parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		uc.logger.Debug("refresh token rejected", zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "invalid refresh token", err)
	}

	session, err := uc.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if session.IsExpired(time.Now()) || session.UserID != claims.UserID {
		_ = uc.sessions.Delete(ctx, session.ID)
		return nil, domain.ErrUnauthorized
	}
	return session, nil
}

func (uc *UseCase) issue(ctx context.Context, userID string) (*TokenPair, error) {
	sessionID := uuid.NewString()

	access, accessExp, err := uc.tokens.Issue(userID, TokenTypeAccess, uuid.NewString())
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := uc.tokens.Issue(userID, TokenTypeRefresh, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: refreshExp,
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	uc.logger.Info("session issued", zap.String("user_id", userID), zap.String("session_id", sessionID))
	return &TokenPair{
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}
