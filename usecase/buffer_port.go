package usecase

import (
	"context"

	"github.com/fastygo/priority/domain"
)

const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// OperationBuffer abstracts the buffer processor so use cases stay storage-agnostic.
type OperationBuffer interface {
	BufferTask(ctx context.Context, operation string, task *domain.Task) error
	BufferRule(ctx context.Context, operation string, rule *domain.Rule) error
}
