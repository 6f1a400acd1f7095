package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/priority/domain"
	"github.com/fastygo/priority/internal/infrastructure/buffer"
	"github.com/fastygo/priority/repository"
)

var errProcessorNotConfigured = errors.New("buffer processor not configured")

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the buffer is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// Retention drops items older than this on each drain; zero keeps them.
	Retention time.Duration
}

// BufferProcessor replays buffered task and rule writes against PostgreSQL.
type BufferProcessor struct {
	store    *buffer.Store
	monitor  ConnectionHealth
	taskRepo repository.TaskRepository
	ruleRepo repository.RuleRepository
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      ProcessorConfig
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	taskRepo repository.TaskRepository,
	ruleRepo repository.RuleRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:    store,
		monitor:  monitor,
		taskRepo: taskRepo,
		ruleRepo: ruleRepo,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", max(int(cfg.Interval.Seconds()), 1))
	_, _ = bp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := bp.Drain(ctx); err != nil {
			bp.logger.Error("buffer drain failed", zap.Error(err))
		}
	})

	return bp
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started", zap.Duration("interval", bp.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	bp.logger.Info("buffer processor stopped")
}

// Drain replays one batch in enqueue order. It stops at the first item that
// fails with a transient error so later writes never overtake it.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return nil
	}

	if bp.cfg.Retention > 0 {
		if removed, err := bp.store.Cleanup(time.Now().Add(-bp.cfg.Retention)); err != nil {
			bp.logger.Warn("buffer cleanup failed", zap.Error(err))
		} else if removed > 0 {
			bp.logger.Warn("expired buffer items dropped", zap.Int("count", removed))
		}
	}

	items, err := bp.store.Peek(bp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := bp.processItem(ctx, item)
		switch {
		case err == nil:
			if err := bp.store.Remove(item); err != nil {
				bp.logger.Warn("failed to purge processed buffer item", zap.Error(err))
			}
			continue

		case isPermanent(err):
			bp.logger.Warn("dropping buffer item rejected by storage",
				zap.String("item_id", item.ID),
				zap.String("entity", item.Entity),
				zap.String("operation", item.Operation),
				zap.Error(err))
			_ = bp.store.Remove(item)
			continue
		}

		bp.logger.Error("failed to process buffer item",
			zap.String("item_id", item.ID),
			zap.String("entity", item.Entity),
			zap.Error(err))

		failed, markErr := bp.store.MarkFailed(item, err)
		if markErr != nil {
			bp.logger.Error("failed to record buffer retry", zap.Error(markErr))
			return nil
		}
		if failed.Attempts >= bp.cfg.MaxRetries {
			bp.logger.Warn("dropping buffer item (max retries reached)", zap.String("item_id", item.ID))
			_ = bp.store.Remove(failed)
			continue
		}
		return nil
	}
	return nil
}

// BufferOperation persists the item for replay. When the database looks
// reachable the write is first retried immediately.
func (bp *BufferProcessor) BufferOperation(ctx context.Context, item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return errProcessorNotConfigured
	}

	if bp.monitor == nil || bp.monitor.IsOnline() {
		err := bp.processItem(ctx, item)
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return err
		}
		bp.logger.Warn("immediate processing failed, buffering", zap.Error(err))
	}

	_, err := bp.store.Enqueue(item)
	return err
}

// Size returns the number of buffered items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) processItem(ctx context.Context, item buffer.Item) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch item.Entity {
	case buffer.EntityTask:
		var task domain.Task
		if err := json.Unmarshal(item.Data, &task); err != nil {
			return domain.WrapError(domain.ErrCodeInvalid, "corrupt task payload", err)
		}
		task.UserID = item.UserID
		switch item.Operation {
		case buffer.OperationCreate:
			_, err := bp.taskRepo.Create(ctx, &task)
			return err
		case buffer.OperationUpdate:
			return bp.taskRepo.Update(ctx, &task)
		case buffer.OperationDelete:
			return bp.taskRepo.Delete(ctx, item.EntityID)
		}

	case buffer.EntityRule:
		var rule domain.Rule
		if err := json.Unmarshal(item.Data, &rule); err != nil {
			return domain.WrapError(domain.ErrCodeInvalid, "corrupt rule payload", err)
		}
		rule.UserID = item.UserID
		switch item.Operation {
		case buffer.OperationCreate:
			_, err := bp.ruleRepo.Create(ctx, &rule)
			return err
		case buffer.OperationUpdate:
			return bp.ruleRepo.Update(ctx, &rule)
		case buffer.OperationDelete:
			return bp.ruleRepo.Delete(ctx, item.EntityID)
		}

	default:
		return domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("unsupported entity %s", item.Entity))
	}
	return domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("unsupported operation %s", item.Operation))
}

// isPermanent reports errors that replaying again cannot fix.
func isPermanent(err error) bool {
	var dErr *domain.Error
	return errors.As(err, &dErr)
}
