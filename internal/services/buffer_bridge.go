package services

import (
	"context"
	"encoding/json"

	"github.com/fastygo/priority/domain"
	"github.com/fastygo/priority/internal/infrastructure/buffer"
	"github.com/fastygo/priority/usecase"
)

// BufferBridge turns use case writes into buffer items.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferTask(ctx context.Context, operation string, task *domain.Task) error {
	if b.processor == nil || task == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, buffer.Item{
		UserID:    task.UserID,
		Entity:    buffer.EntityTask,
		EntityID:  task.ID,
		Operation: operation,
		Data:      payload,
	})
}

func (b *BufferBridge) BufferRule(ctx context.Context, operation string, rule *domain.Rule) error {
	if b.processor == nil || rule == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(rule)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, buffer.Item{
		UserID:    rule.UserID,
		Entity:    buffer.EntityRule,
		EntityID:  rule.ID,
		Operation: operation,
		Data:      payload,
	})
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
