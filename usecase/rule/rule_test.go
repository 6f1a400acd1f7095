package rule

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/priority/domain"
	"github.com/fastygo/priority/pkg/isoduration"
	"github.com/fastygo/priority/repository/memory"
)

type recordingBuffer struct {
	operations []string
}

func (b *recordingBuffer) BufferTask(context.Context, string, *domain.Task) error {
	return nil
}

func (b *recordingBuffer) BufferRule(_ context.Context, operation string, _ *domain.Rule) error {
	b.operations = append(b.operations, operation)
	return nil
}

type offlineRules struct {
	*memory.RuleRepository
}

func (offlineRules) Create(context.Context, *domain.Rule) (*domain.Rule, error) {
	return nil, errors.New("connection refused")
}

func newUseCase(t *testing.T) (*UseCase, *memory.RuleRepository, *memory.UserRepository) {
	t.Helper()
	users := memory.NewUserRepository()
	for _, name := range []string{"alice", "bob"} {
		_, err := users.Create(context.Background(), &domain.User{ID: name, Username: name, Email: name + "@example.com"})
		require.NoError(t, err)
	}
	rules := memory.NewRuleRepository()
	return New(rules, users, nil, nil), rules, users
}

func validInput() CreateInput {
	return CreateInput{
		Name:  " due soon ",
		Boost: 8,
		Conditions: []domain.Condition{
			{Field: " deadline ", Operator: "less_than", Value: " P2D "},
			{Field: domain.FieldTag, Operator: domain.OperatorEquals, Value: "urgent"},
		},
	}
}

func TestCreateRule(t *testing.T) {
	uc, _, _ := newUseCase(t)

	rule, err := uc.CreateRule(context.Background(), "alice", validInput())
	require.NoError(t, err)

	assert.Equal(t, "due soon", rule.Name)
	assert.Equal(t, 8, rule.Boost)
	require.Len(t, rule.Conditions, 2)
	assert.Equal(t, domain.FieldDeadline, rule.Conditions[0].Field)
	assert.Equal(t, "P2D", rule.Conditions[0].Value)
	assert.NotEmpty(t, rule.Conditions[0].ID)
}

func TestCreateRuleValidation(t *testing.T) {
	cases := map[string]func(*CreateInput){
		"missing name":     func(in *CreateInput) { in.Name = "  " },
		"no conditions":    func(in *CreateInput) { in.Conditions = nil },
		"unknown field":    func(in *CreateInput) { in.Conditions[1].Field = "priority" },
		"unknown operator": func(in *CreateInput) { in.Conditions[1].Operator = "contains" },
		"bad duration":     func(in *CreateInput) { in.Conditions[0].Value = "two days" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			uc, _, _ := newUseCase(t)
			input := validInput()
			mutate(&input)

			_, err := uc.CreateRule(context.Background(), "alice", input)
			require.Error(t, err)
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid), err.Error())
		})
	}
}

func TestCreateRuleMalformedDurationIsInspectable(t *testing.T) {
	uc, _, _ := newUseCase(t)
	input := validInput()
	input.Conditions[0].Value = "PT"

	_, err := uc.CreateRule(context.Background(), "alice", input)
	assert.True(t, isoduration.IsMalformed(err))
}

func TestCreateRuleAcceptsUnsupportedPair(t *testing.T) {
	uc, _, _ := newUseCase(t)

	_, err := uc.CreateRule(context.Background(), "alice", CreateInput{
		Name:  "never matches",
		Boost: 1,
		Conditions: []domain.Condition{
			{Field: domain.FieldDeadline, Operator: domain.OperatorEquals, Value: "P1D"},
		},
	})
	assert.NoError(t, err)
}

func TestListRules(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	_, err := uc.CreateRule(ctx, "alice", validInput())
	require.NoError(t, err)
	_, err = uc.CreateRule(ctx, "bob", validInput())
	require.NoError(t, err)

	rules, err := uc.ListRules(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	_, err = uc.ListRules(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateRule(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	rule, err := uc.CreateRule(ctx, "alice", validInput())
	require.NoError(t, err)

	boost := -4
	conditions := []domain.Condition{{Field: domain.FieldCategory, Operator: domain.OperatorEquals, Value: "home"}}
	updated, err := uc.UpdateRule(ctx, "alice", rule.ID, UpdateInput{Boost: &boost, Conditions: &conditions})
	require.NoError(t, err)
	assert.Equal(t, -4, updated.Boost)
	assert.Equal(t, "due soon", updated.Name)
	require.Len(t, updated.Conditions, 1)
	assert.Equal(t, "home", updated.Conditions[0].Value)

	empty := []domain.Condition{}
	_, err = uc.UpdateRule(ctx, "alice", rule.ID, UpdateInput{Conditions: &empty})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.UpdateRule(ctx, "bob", rule.ID, UpdateInput{Boost: &boost})
	assert.ErrorIs(t, err, domain.ErrRuleForbidden)
}

func TestDeleteRule(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	rule, err := uc.CreateRule(ctx, "alice", validInput())
	require.NoError(t, err)

	assert.ErrorIs(t, uc.DeleteRule(ctx, "bob", rule.ID), domain.ErrRuleForbidden)
	require.NoError(t, uc.DeleteRule(ctx, "alice", rule.ID))
	assert.ErrorIs(t, uc.DeleteRule(ctx, "alice", rule.ID), domain.ErrRuleNotFound)
}

func TestCreateRuleBufferedWhenOffline(t *testing.T) {
	_, rules, users := newUseCase(t)
	buffer := &recordingBuffer{}
	uc := New(offlineRules{RuleRepository: rules}, users, buffer, nil)

	rule, err := uc.CreateRule(context.Background(), "alice", validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, rule.ID)
	assert.Equal(t, []string{"create"}, buffer.operations)
}
