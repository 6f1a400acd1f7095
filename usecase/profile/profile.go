package profile

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/priority/domain"
	"github.com/fastygo/priority/repository"
)

const minPasswordLength = 8

// Hasher hashes passwords before they reach storage.
type Hasher interface {
	Hash(password string) (string, error)
}

// RegisterInput carries a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UpdateInput carries a partial profile change; nil fields are left untouched.
type UpdateInput struct {
	Username *string
	Email    *string
	Password *string
}

type UseCase struct {
	users  repository.UserRepository
	hasher Hasher
	logger *zap.Logger
}

func New(users repository.UserRepository, hasher Hasher, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

// Register creates an account after checking username and email are free.
func (uc *UseCase) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}
	if err := uc.ensureAvailable(ctx, "", username, email); err != nil {
		return nil, err
	}

	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to hash password", err)
	}

	now := time.Now().UTC()
	user, err := uc.users.Create(ctx, &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

func (uc *UseCase) UpdateProfile(ctx context.Context, userID string, input UpdateInput) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	username, email := user.Username, user.Email
	if input.Username != nil {
		username = strings.TrimSpace(*input.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
	}
	if input.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*input.Email))
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}

	checkUsername, checkEmail := "", ""
	if username != user.Username {
		checkUsername = username
	}
	if email != user.Email {
		checkEmail = email
	}
	if err := uc.ensureAvailable(ctx, user.ID, checkUsername, checkEmail); err != nil {
		return nil, err
	}
	user.Username = username
	user.Email = email

	if input.Password != nil {
		if err := validatePassword(*input.Password); err != nil {
			return nil, err
		}
		hash, err := uc.hasher.Hash(*input.Password)
		if err != nil {
			return nil, domain.WrapError(domain.ErrCodeInternal, "failed to hash password", err)
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = time.Now().UTC()
	if err := uc.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ensureAvailable checks that username and email are not used by another
// account. Empty values are skipped.
func (uc *UseCase) ensureAvailable(ctx context.Context, selfID, username, email string) error {
	if username != "" {
		existing, err := uc.users.GetByUsername(ctx, username)
		switch {
		case err == nil && existing.ID != selfID:
			return domain.ErrUsernameTaken
		case err != nil && !errors.Is(err, domain.ErrUserNotFound):
			return err
		}
	}
	if email != "" {
		existing, err := uc.users.GetByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != selfID:
			return domain.ErrEmailTaken
		case err != nil && !errors.Is(err, domain.ErrUserNotFound):
			return err
		}
	}
	return nil
}

func validateUsername(username string) error {
	if username == "" {
		return domain.NewError(domain.ErrCodeInvalid, "username is required")
	}
	if len(username) > 50 {
		return domain.NewError(domain.ErrCodeInvalid, "username must be at most 50 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return domain.NewError(domain.ErrCodeInvalid, "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.WrapError(domain.ErrCodeInvalid, "email is invalid", err)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return domain.NewError(domain.ErrCodeInvalid, "password must be at least 8 characters")
	}
	return nil
}
