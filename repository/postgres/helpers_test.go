package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/priority/domain"
)

func TestNullableArguments(t *testing.T) {
	assert.Nil(t, nullTime(time.Time{}))
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now, nullTime(now))

	assert.Nil(t, nullTimePtr(nil))
	assert.Equal(t, now, nullTimePtr(&now))

	assert.Nil(t, nullInt(nil))
	minutes := 90
	assert.Equal(t, 90, nullInt(&minutes))
}

func TestLimitArg(t *testing.T) {
	assert.Nil(t, limitArg(0))
	assert.Nil(t, limitArg(-5))
	assert.Equal(t, 25, limitArg(25))
	assert.Equal(t, maxListLimit, limitArg(maxListLimit+1))
}

func TestMapUserConflict(t *testing.T) {
	emailErr := fmt.Errorf("insert: %w", &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_email_key"})
	assert.ErrorIs(t, mapUserConflict(emailErr), domain.ErrEmailTaken)

	usernameErr := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_username_key"}
	assert.ErrorIs(t, mapUserConflict(usernameErr), domain.ErrUsernameTaken)

	other := &pgconn.PgError{Code: "23503", ConstraintName: "users_email_key"}
	assert.Same(t, other, mapUserConflict(other))

	plain := errors.New("connection refused")
	assert.Equal(t, plain, mapUserConflict(plain))
}

func TestConditionsFor(t *testing.T) {
	all := []domain.Condition{
		{ID: "c1", RuleID: "r1"},
		{ID: "c2", RuleID: "r2"},
		{ID: "c3", RuleID: "r1"},
	}

	got := conditionsFor(all, "r1")
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, "c3", got[1].ID)

	assert.NotNil(t, conditionsFor(all, "missing"))
	assert.Empty(t, conditionsFor(all, "missing"))
}
