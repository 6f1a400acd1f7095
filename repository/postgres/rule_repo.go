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

type ruleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository returns a Postgres-backed RuleRepository.
func NewRuleRepository(pool *pgxpool.Pool) repository.RuleRepository {
	return &ruleRepository{pool: pool}
}

func (r *ruleRepository) GetByID(ctx context.Context, id string) (*domain.Rule, error) {
	const query = `
	SELECT id, user_id, name, boost, created_at, updated_at
	FROM rules
	WHERE id = $1
	`
	rule, err := scanRule(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	conditions, err := loadConditions(ctx, r.pool, []string{rule.ID})
	if err != nil {
		return nil, err
	}
	rule.Conditions = conditionsFor(conditions, rule.ID)
	return rule, nil
}

func (r *ruleRepository) ListByUser(ctx context.Context, userID string) ([]domain.Rule, error) {
	const query = `
	SELECT id, user_id, name, boost, created_at, updated_at
	FROM rules
	WHERE user_id = $1
	ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		rules []domain.Rule
		ids   []string
	)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
		ids = append(ids, rule.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Rule{}, nil
	}

	conditions, err := loadConditions(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		rules[i].Conditions = conditionsFor(conditions, rules[i].ID)
	}
	return rules, nil
}

func (r *ruleRepository) Create(ctx context.Context, rule *domain.Rule) (*domain.Rule, error) {
	if rule == nil {
		return nil, domain.ErrInvalidPayload
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO rules (id, user_id, name, boost, created_at, updated_at)
	VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), NOW())
	RETURNING created_at, updated_at
	`

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query,
			rule.ID,
			rule.UserID,
			rule.Name,
			rule.Boost,
			nullTime(rule.CreatedAt),
		).Scan(&rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return err
		}
		return replaceConditions(ctx, tx, rule)
	})
	if err != nil {
		return nil, err
	}
	return rule, nil
}

func (r *ruleRepository) Update(ctx context.Context, rule *domain.Rule) error {
	if rule == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE rules
	SET name = $2,
		boost = $3,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query, rule.ID, rule.Name, rule.Boost).Scan(&rule.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRuleNotFound
			}
			return err
		}
		return replaceConditions(ctx, tx, rule)
	})
}

func (r *ruleRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRuleNotFound
	}
	return nil
}

func replaceConditions(ctx context.Context, q querier, rule *domain.Rule) error {
	if _, err := q.Exec(ctx, `DELETE FROM conditions WHERE rule_id = $1`, rule.ID); err != nil {
		return err
	}

	const query = `
	INSERT INTO conditions (id, rule_id, position, field, operator, value)
	VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range rule.Conditions {
		c := &rule.Conditions[i]
		c.ID = uuid.NewString()
		c.RuleID = rule.ID
		if _, err := q.Exec(ctx, query, c.ID, c.RuleID, i, string(c.Field), string(c.Operator), c.Value); err != nil {
			return err
		}
	}
	return nil
}

func loadConditions(ctx context.Context, q querier, ruleIDs []string) ([]domain.Condition, error) {
	const query = `
	SELECT id, rule_id, field, operator, value
	FROM conditions
	WHERE rule_id = ANY($1)
	ORDER BY rule_id, position
	`
	rows, err := q.Query(ctx, query, ruleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conditions []domain.Condition
	for rows.Next() {
		var (
			c        domain.Condition
			field    string
			operator string
		)
		if err := rows.Scan(&c.ID, &c.RuleID, &field, &operator, &c.Value); err != nil {
			return nil, err
		}
		c.Field = domain.Field(field)
		c.Operator = domain.Operator(operator)
		conditions = append(conditions, c)
	}
	return conditions, rows.Err()
}

func conditionsFor(all []domain.Condition, ruleID string) []domain.Condition {
	out := []domain.Condition{}
	for _, c := range all {
		if c.RuleID == ruleID {
			out = append(out, c)
		}
	}
	return out
}

func scanRule(row rowScanner) (*domain.Rule, error) {
	var rule domain.Rule
	if err := row.Scan(&rule.ID, &rule.UserID, &rule.Name, &rule.Boost, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRuleNotFound
		}
		return nil, err
	}
	return &rule, nil
}
