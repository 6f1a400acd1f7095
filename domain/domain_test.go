package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/priority/pkg/isoduration"
)

func TestIsDomainError(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", ErrTaskNotFound)

	assert.True(t, IsDomainError(wrapped, ErrCodeNotFound))
	assert.False(t, IsDomainError(wrapped, ErrCodeInvalid))
	assert.False(t, IsDomainError(errors.New("plain"), ErrCodeNotFound))

	cause := errors.New("boom")
	err := WrapError(ErrCodeInternal, "failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed: boom", err.Error())
}

func TestTaskHelpers(t *testing.T) {
	var missing *Task
	assert.False(t, missing.IsCompleted())
	assert.Equal(t, []string{}, missing.TagNames())

	minutes := 45
	task := &Task{
		Duration: &minutes,
		Category: &Category{Name: "work"},
		Tags:     []Tag{{Name: "a"}, {Name: "b"}},
	}

	name, ok := task.CategoryName()
	assert.True(t, ok)
	assert.Equal(t, "work", name)
	assert.Equal(t, []string{"a", "b"}, task.TagNames())

	d, ok := task.DurationValue()
	assert.True(t, ok)
	assert.Equal(t, 45*time.Minute, d)

	_, ok = (&Task{}).DurationValue()
	assert.False(t, ok)
	assert.Equal(t, "deep work", NormalizeName("  Deep Work "))
}

func TestRuleValidate(t *testing.T) {
	valid := Rule{
		Name:  "soon",
		Boost: 3,
		Conditions: []Condition{
			{Field: FieldDeadline, Operator: OperatorLessThan, Value: "P1D"},
			{Field: FieldCategory, Operator: OperatorEquals, Value: "work"},
		},
	}
	require.NoError(t, valid.Validate())

	noName := valid
	noName.Name = " "
	assert.True(t, IsDomainError(noName.Validate(), ErrCodeInvalid))

	empty := valid
	empty.Conditions = nil
	assert.True(t, IsDomainError(empty.Validate(), ErrCodeInvalid))

	badDuration := valid
	badDuration.Conditions = []Condition{{Field: FieldCreatedAt, Operator: OperatorGreaterThan, Value: "yesterday"}}
	err := badDuration.Validate()
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
	assert.True(t, isoduration.IsMalformed(err))

	var nilRule *Rule
	assert.ErrorIs(t, nilRule.Validate(), ErrInvalidPayload)
}

func TestConditionValidate(t *testing.T) {
	assert.Error(t, Condition{Field: "priority", Operator: OperatorEquals}.Validate())
	assert.Error(t, Condition{Field: FieldTag, Operator: "contains"}.Validate())
	assert.NoError(t, Condition{Field: FieldTag, Operator: OperatorEquals, Value: "anything"}.Validate())
	assert.NoError(t, Condition{Field: FieldDeadline, Operator: OperatorEquals, Value: "P1D"}.Validate())

	assert.True(t, FieldDuration.RequiresDuration())
	assert.False(t, FieldCategory.RequiresDuration())
	assert.Len(t, Fields, 5)
	assert.Len(t, Operators, 3)
}

func TestSessionIsExpired(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	session := &Session{ExpiresAt: now}

	assert.True(t, session.IsExpired(now))
	assert.False(t, session.IsExpired(now.Add(-time.Second)))

	var missing *Session
	assert.True(t, missing.IsExpired(now))
}
