package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/priority/domain"
	"github.com/fastygo/priority/repository/memory"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func register(t *testing.T, uc *UseCase, username, email string) *domain.User {
	t.Helper()
	user, err := uc.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: "secret-pass"})
	require.NoError(t, err)
	return user
}

func TestRegister(t *testing.T) {
	uc := New(memory.NewUserRepository(), plainHasher{}, nil)

	user := register(t, uc, " alice ", " Alice@Example.com ")
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "hashed:secret-pass", user.PasswordHash)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	uc := New(memory.NewUserRepository(), plainHasher{}, nil)
	register(t, uc, "alice", "alice@example.com")

	_, err := uc.Register(context.Background(), RegisterInput{Username: "alice", Email: "new@example.com", Password: "secret-pass"})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	_, err = uc.Register(context.Background(), RegisterInput{Username: "other", Email: "ALICE@example.com", Password: "secret-pass"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	uc := New(memory.NewUserRepository(), plainHasher{}, nil)

	cases := map[string]RegisterInput{
		"missing username": {Email: "a@example.com", Password: "secret-pass"},
		"bad email":        {Username: "a", Email: "not-an-email", Password: "secret-pass"},
		"short password":   {Username: "a", Email: "a@example.com", Password: "short"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Register(context.Background(), input)
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	uc := New(memory.NewUserRepository(), plainHasher{}, nil)
	ctx := context.Background()
	alice := register(t, uc, "alice", "alice@example.com")
	register(t, uc, "bob", "bob@example.com")

	sameEmail := "alice@example.com"
	renamed := "alicia"
	updated, err := uc.UpdateProfile(ctx, alice.ID, UpdateInput{Username: &renamed, Email: &sameEmail})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)

	taken := "bob@example.com"
	_, err = uc.UpdateProfile(ctx, alice.ID, UpdateInput{Email: &taken})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	password := "another-secret"
	updated, err = uc.UpdateProfile(ctx, alice.ID, UpdateInput{Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "hashed:another-secret", updated.PasswordHash)

	got, err := uc.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alicia", got.Username)

	_, err = uc.GetProfile(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
