package repository

import (
	"context"

	"github.com/fastygo/priority/domain"
)

// TaskFilter selects tasks for List. Results are newest first; a
// non-positive Limit returns every match.
type TaskFilter struct {
	UserID    string
	Completed *bool
	Limit     int
	Offset    int
}

// TaskRepository persists tasks together with their category and tags.
// Implementations resolve Category and Tags by (user, name), creating missing
// ones, so callers only need to set names.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
}
