package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastygo/priority/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// upsertCategory returns the user's category with the given name, creating it if needed.
func upsertCategory(ctx context.Context, q querier, userID, name string) (*domain.Category, error) {
	const query = `
	INSERT INTO categories (id, user_id, name)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
	RETURNING id
	`
	category := &domain.Category{UserID: userID, Name: name}
	if err := q.QueryRow(ctx, query, uuid.NewString(), userID, name).Scan(&category.ID); err != nil {
		return nil, err
	}
	return category, nil
}

func upsertTag(ctx context.Context, q querier, userID, name string) (domain.Tag, error) {
	const query = `
	INSERT INTO tags (id, user_id, name)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
	RETURNING id
	`
	tag := domain.Tag{UserID: userID, Name: name}
	if err := q.QueryRow(ctx, query, uuid.NewString(), userID, name).Scan(&tag.ID); err != nil {
		return domain.Tag{}, err
	}
	return tag, nil
}
