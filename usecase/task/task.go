package task

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/priority/domain"
	"github.com/fastygo/priority/domain/priority"
	"github.com/fastygo/priority/repository"
	"github.com/fastygo/priority/usecase"
)

const (
	SortCreatedAt = "created_at"
	SortPriority  = "priority"
	SortDeadline  = "deadline"
)

// ListOptions narrows and orders a task listing. MinScore and the priority
// sort apply after scoring.
type ListOptions struct {
	Completed *bool
	MinScore  *int
	Sort      string
	Limit     int
	Offset    int
}

// CreateInput carries the fields of a new task.
type CreateInput struct {
	Title     string
	Completed bool
	Duration  *time.Duration
	Deadline  *time.Time
	Category  string
	Tags      []string
}

// UpdateInput carries a partial update; nil fields are left untouched. An
// empty Category clears the category, a non-nil Tags replaces all tags.
type UpdateInput struct {
	Title     *string
	Completed *bool
	Duration  *time.Duration
	Deadline  *time.Time
	Category  *string
	Tags      *[]string
}

type UseCase struct {
	tasks      repository.TaskRepository
	rules      repository.RuleRepository
	users      repository.UserRepository
	calculator *priority.Calculator
	buffer     usecase.OperationBuffer
	logger     *zap.Logger
}

func New(
	tasks repository.TaskRepository,
	rules repository.RuleRepository,
	users repository.UserRepository,
	calculator *priority.Calculator,
	buffer usecase.OperationBuffer,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if calculator == nil {
		calculator = priority.NewCalculator(priority.NewEvaluator(), logger)
	}
	return &UseCase{
		tasks:      tasks,
		rules:      rules,
		users:      users,
		calculator: calculator,
		buffer:     buffer,
		logger:     logger,
	}
}

// ListTasks returns the user's tasks with their priority scores. Score
// filters and non-default sorts need every task scored, so those listings are
// paginated here instead of in the repository.
func (uc *UseCase) ListTasks(ctx context.Context, userID string, opts ListOptions) ([]domain.Task, error) {
	owner, err := uc.loadOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, domain.ErrUserNotFound
	}

	filter := repository.TaskFilter{UserID: userID, Completed: opts.Completed}
	pageInMemory := opts.needsAllTasks()
	if !pageInMemory {
		filter.Limit = opts.Limit
		filter.Offset = opts.Offset
	}

	tasks, err := uc.tasks.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	scored := make([]domain.Task, 0, len(tasks))
	for i := range tasks {
		if err := uc.score(&tasks[i], owner); err != nil {
			return nil, err
		}
		if opts.MinScore != nil && tasks[i].PriorityScore < *opts.MinScore {
			continue
		}
		scored = append(scored, tasks[i])
	}

	sortTasks(scored, opts.Sort)
	if pageInMemory {
		scored = paginate(scored, opts.Limit, opts.Offset)
	}
	return scored, nil
}

func (o ListOptions) needsAllTasks() bool {
	return o.MinScore != nil || o.Sort == SortPriority || o.Sort == SortDeadline
}

func paginate(tasks []domain.Task, limit, offset int) []domain.Task {
	if offset > 0 {
		if offset >= len(tasks) {
			return []domain.Task{}
		}
		tasks = tasks[offset:]
	}
	if limit > 0 && limit < len(tasks) {
		tasks = tasks[:limit]
	}
	return tasks
}

// GetTask returns one of the user's tasks with its priority score.
func (uc *UseCase) GetTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	task, err := uc.ownedTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := uc.scoreFor(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ExplainTask reports which of the owner's rules match the task.
func (uc *UseCase) ExplainTask(ctx context.Context, userID, id string) (priority.Breakdown, error) {
	task, err := uc.ownedTask(ctx, userID, id)
	if err != nil {
		return priority.Breakdown{}, err
	}
	owner, err := uc.loadOwner(ctx, task.UserID)
	if err != nil {
		return priority.Breakdown{}, err
	}
	breakdown, err := uc.calculator.Explain(task, owner)
	if err != nil {
		return priority.Breakdown{}, domain.WrapError(domain.ErrCodeInternal, "priority calculation failed", err)
	}
	return breakdown, nil
}

func (uc *UseCase) CreateTask(ctx context.Context, userID string, input CreateInput) (*domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "title is required")
	}

	task := &domain.Task{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Completed: input.Completed,
		Duration:  minutes(input.Duration),
		Deadline:  input.Deadline,
		Category:  category(userID, input.Category),
		Tags:      tags(userID, input.Tags),
		CreatedAt: time.Now().UTC(),
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationCreate, task, err) {
			uc.bestEffortScore(ctx, task)
			return task, nil
		}
		return nil, err
	}

	if err := uc.scoreFor(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (uc *UseCase) UpdateTask(ctx context.Context, userID, id string, input UpdateInput) (*domain.Task, error) {
	task, err := uc.ownedTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, domain.NewError(domain.ErrCodeInvalid, "title is required")
		}
		task.Title = title
	}
	if input.Completed != nil {
		task.Completed = *input.Completed
	}
	if input.Duration != nil {
		task.Duration = minutes(input.Duration)
	}
	if input.Deadline != nil {
		task.Deadline = input.Deadline
	}
	if input.Category != nil {
		task.Category = category(userID, *input.Category)
	}
	if input.Tags != nil {
		task.Tags = tags(userID, *input.Tags)
	}

	return uc.save(ctx, task)
}

// CompleteTask marks the task as completed.
func (uc *UseCase) CompleteTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	task, err := uc.ownedTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	task.Completed = true
	return uc.save(ctx, task)
}

func (uc *UseCase) DeleteTask(ctx context.Context, userID, id string) error {
	task, err := uc.ownedTask(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := uc.tasks.Delete(ctx, task.ID); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return err
		}
		if uc.shouldBuffer(ctx, usecase.OperationDelete, task, err) {
			return nil
		}
		return err
	}
	return nil
}

func (uc *UseCase) save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := uc.tasks.Update(ctx, task); err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationUpdate, task, err) {
			uc.bestEffortScore(ctx, task)
			return task, nil
		}
		return nil, err
	}
	if err := uc.scoreFor(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (uc *UseCase) ownedTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, domain.ErrTaskForbidden
	}
	return task, nil
}

// loadOwner returns the task owner with rules attached, or nil when the user
// no longer exists.
func (uc *UseCase) loadOwner(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, nil
	}
	owner, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	rules, err := uc.rules.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	owner.Rules = rules
	return owner, nil
}

func (uc *UseCase) scoreFor(ctx context.Context, task *domain.Task) error {
	owner, err := uc.loadOwner(ctx, task.UserID)
	if err != nil {
		return err
	}
	return uc.score(task, owner)
}

func (uc *UseCase) score(task *domain.Task, owner *domain.User) error {
	score, err := uc.calculator.CalculateTaskScore(task, owner)
	if err != nil {
		uc.logger.Error("priority calculation failed", zap.String("task_id", task.ID), zap.Error(err))
		return domain.WrapError(domain.ErrCodeInternal, "priority calculation failed", err)
	}
	task.PriorityScore = score
	return nil
}

func (uc *UseCase) bestEffortScore(ctx context.Context, task *domain.Task) {
	if err := uc.scoreFor(ctx, task); err != nil {
		uc.logger.Warn("score unavailable for buffered task", zap.String("task_id", task.ID), zap.Error(err))
	}
}

// shouldBuffer queues the operation when the failure is not a domain error.
func (uc *UseCase) shouldBuffer(ctx context.Context, operation string, task *domain.Task, cause error) bool {
	if uc.buffer == nil {
		return false
	}
	var dErr *domain.Error
	if errors.As(cause, &dErr) {
		return false
	}
	if err := uc.buffer.BufferTask(ctx, operation, task); err != nil {
		uc.logger.Error("failed to buffer task operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	uc.logger.Warn("task operation buffered", zap.String("operation", operation), zap.Error(cause))
	return true
}

func minutes(d *time.Duration) *int {
	if d == nil {
		return nil
	}
	m := int(*d / time.Minute)
	return &m
}

func category(userID, name string) *domain.Category {
	name = domain.NormalizeName(name)
	if name == "" {
		return nil
	}
	return &domain.Category{UserID: userID, Name: name}
}

func tags(userID string, names []string) []domain.Tag {
	seen := make(map[string]struct{}, len(names))
	out := make([]domain.Tag, 0, len(names))
	for _, name := range names {
		name = domain.NormalizeName(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, domain.Tag{UserID: userID, Name: name})
	}
	return out
}

func sortTasks(tasks []domain.Task, by string) {
	switch by {
	case SortPriority:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].PriorityScore > tasks[j].PriorityScore
		})
	case SortDeadline:
		sort.SliceStable(tasks, func(i, j int) bool {
			a, b := tasks[i].Deadline, tasks[j].Deadline
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		})
	}
}
