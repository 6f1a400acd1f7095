package rule

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/priority/domain"
	"github.com/fastygo/priority/repository"
	"github.com/fastygo/priority/usecase"
)

// CreateInput carries a new rule. Conditions must not be empty.
type CreateInput struct {
	Name       string
	Boost      int
	Conditions []domain.Condition
}

// UpdateInput carries a partial update; a non-nil Conditions replaces the
// whole condition list.
type UpdateInput struct {
	Name       *string
	Boost      *int
	Conditions *[]domain.Condition
}

type UseCase struct {
	rules  repository.RuleRepository
	users  repository.UserRepository
	buffer usecase.OperationBuffer
	logger *zap.Logger
}

func New(rules repository.RuleRepository, users repository.UserRepository, buffer usecase.OperationBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		rules:  rules,
		users:  users,
		buffer: buffer,
		logger: logger,
	}
}

func (uc *UseCase) ListRules(ctx context.Context, userID string) ([]domain.Rule, error) {
	if _, err := uc.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return uc.rules.ListByUser(ctx, userID)
}

func (uc *UseCase) GetRule(ctx context.Context, userID, id string) (*domain.Rule, error) {
	return uc.ownedRule(ctx, userID, id)
}

func (uc *UseCase) CreateRule(ctx context.Context, userID string, input CreateInput) (*domain.Rule, error) {
	rule := &domain.Rule{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       strings.TrimSpace(input.Name),
		Boost:      input.Boost,
		Conditions: normalizeConditions(input.Conditions),
		CreatedAt:  time.Now().UTC(),
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	created, err := uc.rules.Create(ctx, rule)
	if err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationCreate, rule, err) {
			return rule, nil
		}
		return nil, err
	}
	uc.logger.Info("rule created", zap.String("rule_id", created.ID), zap.Int("conditions", len(created.Conditions)))
	return created, nil
}

func (uc *UseCase) UpdateRule(ctx context.Context, userID, id string, input UpdateInput) (*domain.Rule, error) {
	rule, err := uc.ownedRule(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		rule.Name = strings.TrimSpace(*input.Name)
	}
	if input.Boost != nil {
		rule.Boost = *input.Boost
	}
	if input.Conditions != nil {
		rule.Conditions = normalizeConditions(*input.Conditions)
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	if err := uc.rules.Update(ctx, rule); err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationUpdate, rule, err) {
			return rule, nil
		}
		return nil, err
	}
	return rule, nil
}

func (uc *UseCase) DeleteRule(ctx context.Context, userID, id string) error {
	rule, err := uc.ownedRule(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := uc.rules.Delete(ctx, rule.ID); err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return err
		}
		if uc.shouldBuffer(ctx, usecase.OperationDelete, rule, err) {
			return nil
		}
		return err
	}
	return nil
}

func (uc *UseCase) ownedRule(ctx context.Context, userID, id string) (*domain.Rule, error) {
	rule, err := uc.rules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rule.UserID != userID {
		return nil, domain.ErrRuleForbidden
	}
	return rule, nil
}

func (uc *UseCase) shouldBuffer(ctx context.Context, operation string, rule *domain.Rule, cause error) bool {
	if uc.buffer == nil {
		return false
	}
	var dErr *domain.Error
	if errors.As(cause, &dErr) {
		return false
	}
	if err := uc.buffer.BufferRule(ctx, operation, rule); err != nil {
		uc.logger.Error("failed to buffer rule operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	uc.logger.Warn("rule operation buffered", zap.String("operation", operation), zap.Error(cause))
	return true
}

// normalizeConditions trims values; field and operator spelling is left to validation.
func normalizeConditions(conditions []domain.Condition) []domain.Condition {
	out := make([]domain.Condition, 0, len(conditions))
	for _, c := range conditions {
		out = append(out, domain.Condition{
			Field:    domain.Field(strings.TrimSpace(string(c.Field))),
			Operator: domain.Operator(strings.TrimSpace(string(c.Operator))),
			Value:    strings.TrimSpace(c.Value),
		})
	}
	return out
}
