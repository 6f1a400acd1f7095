package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/priority/domain"
	"github.com/fastygo/priority/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

const taskSelect = `
	SELECT t.id, t.user_id, t.title, t.completed, t.duration_minutes, t.deadline,
		c.id, c.name, t.created_at, t.updated_at
	FROM tasks t
	LEFT JOIN categories c ON c.id = t.category_id
	`

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, taskSelect+`WHERE t.id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		return nil, err
	}

	tags, err := loadTags(ctx, r.pool, []string{task.ID})
	if err != nil {
		return nil, err
	}
	if found, ok := tags[task.ID]; ok {
		task.Tags = found
	}
	return task, nil
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	const where = `
	WHERE ($1 = '' OR t.user_id = $1)
	  AND ($2::boolean IS NULL OR t.completed = $2)
	ORDER BY t.created_at DESC, t.id DESC
	LIMIT $3::int OFFSET $4
	`
	rows, err := r.pool.Query(ctx, taskSelect+where, filter.UserID, filter.Completed, limitArg(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		tasks []domain.Task
		ids   []string
	)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
		ids = append(ids, task.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return tasks, nil
	}

	tags, err := loadTags(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if found, ok := tags[tasks[i].ID]; ok {
			tasks[i].Tags = found
		}
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, user_id, title, completed, duration_minutes, deadline, category_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()), NOW())
	RETURNING created_at, updated_at
	`

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		categoryID, err := resolveCategory(ctx, tx, task)
		if err != nil {
			return err
		}

		if err := tx.QueryRow(ctx, query,
			task.ID,
			task.UserID,
			task.Title,
			task.Completed,
			nullInt(task.Duration),
			nullTimePtr(task.Deadline),
			categoryID,
			nullTime(task.CreatedAt),
		).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
			return err
		}

		return replaceTags(ctx, tx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		completed = $3,
		duration_minutes = $4,
		deadline = $5,
		category_id = $6,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		categoryID, err := resolveCategory(ctx, tx, task)
		if err != nil {
			return err
		}

		if err := tx.QueryRow(ctx, query,
			task.ID,
			task.Title,
			task.Completed,
			nullInt(task.Duration),
			nullTimePtr(task.Deadline),
			categoryID,
		).Scan(&task.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrTaskNotFound
			}
			return err
		}

		return replaceTags(ctx, tx, task)
	})
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func resolveCategory(ctx context.Context, q querier, task *domain.Task) (interface{}, error) {
	if task.Category == nil || task.Category.Name == "" {
		task.Category = nil
		return nil, nil
	}
	category, err := upsertCategory(ctx, q, task.UserID, task.Category.Name)
	if err != nil {
		return nil, err
	}
	task.Category = category
	return category.ID, nil
}

func replaceTags(ctx context.Context, q querier, task *domain.Task) error {
	if _, err := q.Exec(ctx, `DELETE FROM task_tags WHERE task_id = $1`, task.ID); err != nil {
		return err
	}

	resolved := make([]domain.Tag, 0, len(task.Tags))
	for _, tag := range task.Tags {
		stored, err := upsertTag(ctx, q, task.UserID, tag.Name)
		if err != nil {
			return err
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO task_tags (task_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			task.ID, stored.ID,
		); err != nil {
			return err
		}
		resolved = append(resolved, stored)
	}
	task.Tags = resolved
	return nil
}

func loadTags(ctx context.Context, q querier, taskIDs []string) (map[string][]domain.Tag, error) {
	const query = `
	SELECT tt.task_id, g.id, g.user_id, g.name
	FROM task_tags tt
	JOIN tags g ON g.id = tt.tag_id
	WHERE tt.task_id = ANY($1)
	ORDER BY g.name
	`
	rows, err := q.Query(ctx, query, taskIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make(map[string][]domain.Tag, len(taskIDs))
	for rows.Next() {
		var (
			taskID string
			tag    domain.Tag
		)
		if err := rows.Scan(&taskID, &tag.ID, &tag.UserID, &tag.Name); err != nil {
			return nil, err
		}
		tags[taskID] = append(tags[taskID], tag)
	}
	return tags, rows.Err()
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var (
		categoryID   *string
		categoryName *string
	)

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Completed,
		&task.Duration,
		&task.Deadline,
		&categoryID,
		&categoryName,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	if categoryID != nil && categoryName != nil {
		task.Category = &domain.Category{ID: *categoryID, UserID: task.UserID, Name: *categoryName}
	}
	task.Tags = []domain.Tag{}

	return &task, nil
}
