package repository

import (
	"context"

	"github.com/fastygo/priority/domain"
)

// RuleRepository persists rules with their conditions. Update replaces the
// stored condition list with rule.Conditions.
type RuleRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Rule, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Rule, error)
	Create(ctx context.Context, rule *domain.Rule) (*domain.Rule, error)
	Update(ctx context.Context, rule *domain.Rule) error
	Delete(ctx context.Context, id string) error
}
