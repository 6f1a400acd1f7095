package priority

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/priority/domain"
)

// RuleResult records whether a single rule contributed to a score.
type RuleResult struct {
	RuleID  string `json:"rule_id"`
	Name    string `json:"name"`
	Boost   int    `json:"boost"`
	Matched bool   `json:"matched"`
}

// Breakdown is a score together with the per-rule outcome that produced it.
type Breakdown struct {
	TaskID string       `json:"task_id"`
	Score  int          `json:"score"`
	Rules  []RuleResult `json:"rules"`
}

// Calculator sums rule boosts for tasks.
type Calculator struct {
	evaluator *Evaluator
	logger    *zap.Logger
}

func NewCalculator(evaluator *Evaluator, logger *zap.Logger) *Calculator {
	if evaluator == nil {
		evaluator = NewEvaluator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		evaluator: evaluator,
		logger:    logger,
	}
}

// CalculateTaskScore returns the sum of the boosts of owner's rules that
// apply to task. A task without an owner scores 0.
func (c *Calculator) CalculateTaskScore(task *domain.Task, owner *domain.User) (int, error) {
	breakdown, err := c.Explain(task, owner)
	if err != nil {
		return 0, err
	}
	return breakdown.Score, nil
}

// Explain computes the score and reports every rule's outcome in owner.Rules order.
func (c *Calculator) Explain(task *domain.Task, owner *domain.User) (Breakdown, error) {
	breakdown := Breakdown{Rules: []RuleResult{}}
	if task == nil || owner == nil {
		return breakdown, nil
	}
	breakdown.TaskID = task.ID

	for i := range owner.Rules {
		rule := &owner.Rules[i]
		matched, err := c.RuleApplies(task, rule)
		if err != nil {
			return Breakdown{}, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		breakdown.Rules = append(breakdown.Rules, RuleResult{
			RuleID:  rule.ID,
			Name:    rule.Name,
			Boost:   rule.Boost,
			Matched: matched,
		})
		if matched {
			breakdown.Score += rule.Boost
			c.logger.Debug("rule matched",
				zap.String("task_id", task.ID),
				zap.String("rule_id", rule.ID),
				zap.Int("boost", rule.Boost))
		}
	}
	return breakdown, nil
}

// RuleApplies reports whether every condition of rule holds for task. A rule
// without conditions never applies.
func (c *Calculator) RuleApplies(task *domain.Task, rule *domain.Rule) (bool, error) {
	if rule == nil || len(rule.Conditions) == 0 {
		return false, nil
	}
	for _, condition := range rule.Conditions {
		ok, err := c.ConditionApplies(task, condition)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// ConditionApplies resolves condition.Field on task and evaluates it. An
// absent field value never matches.
func (c *Calculator) ConditionApplies(task *domain.Task, condition domain.Condition) (bool, error) {
	value, ok := resolveField(task, condition.Field)
	if !ok {
		return false, nil
	}
	return c.evaluator.Evaluate(condition.Field, value, condition.Operator, condition.Value)
}

func resolveField(task *domain.Task, field domain.Field) (any, bool) {
	if task == nil {
		return nil, false
	}
	switch field {
	case domain.FieldCategory:
		return task.CategoryName()
	case domain.FieldTag:
		return task.TagNames(), true
	case domain.FieldDuration:
		return task.DurationValue()
	case domain.FieldDeadline:
		if task.Deadline == nil {
			return nil, false
		}
		return *task.Deadline, true
	case domain.FieldCreatedAt:
		return task.CreatedAt, true
	default:
		return nil, false
	}
}
