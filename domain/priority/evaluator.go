// Package priority scores tasks against their owner's prioritization rules.
//
// An Evaluator decides whether one task attribute satisfies one condition; a
// Calculator sums the boosts of every rule whose conditions all hold. Both are
// stateless apart from the clock and safe for concurrent use.
package priority

import (
	"strings"
	"time"

	"github.com/fastygo/priority/domain"
	"github.com/fastygo/priority/pkg/isoduration"
)

// Clock returns the current instant.
type Clock func() time.Time

type handlerKey struct {
	field    domain.Field
	operator domain.Operator
}

type handler func(fieldValue any, conditionValue string, now Clock) (bool, error)

// handlers is the closed set of supported comparisons. Pairs outside of it
// never match.
var handlers = map[handlerKey]handler{
	{domain.FieldCategory, domain.OperatorEquals}:       categoryEquals,
	{domain.FieldTag, domain.OperatorEquals}:            tagEquals,
	{domain.FieldDuration, domain.OperatorLessThan}:     durationLessThan,
	{domain.FieldDuration, domain.OperatorGreaterThan}:  durationGreaterThan,
	{domain.FieldDeadline, domain.OperatorLessThan}:     deadlineLessThan,
	{domain.FieldDeadline, domain.OperatorGreaterThan}:  deadlineGreaterThan,
	{domain.FieldCreatedAt, domain.OperatorLessThan}:    createdAtLessThan,
	{domain.FieldCreatedAt, domain.OperatorGreaterThan}: createdAtGreaterThan,
}

// Supported reports whether field and operator form an evaluable pair.
func Supported(field domain.Field, operator domain.Operator) bool {
	_, ok := handlers[handlerKey{field, operator}]
	return ok
}

// Evaluator compares resolved task field values with condition values.
type Evaluator struct {
	clock Clock
}

// EvaluatorOption customizes an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithClock overrides time.Now.
func WithClock(clock Clock) EvaluatorOption {
	return func(e *Evaluator) {
		if clock != nil {
			e.clock = clock
		}
	}
}

func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{clock: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate reports whether fieldValue satisfies operator/conditionValue for
// field. Unsupported pairs and field values of an unexpected type yield false
// without an error. A condition value that is not a valid ISO-8601 duration
// yields an *isoduration.MalformedDurationError.
//
// The clock is read on every call that needs it, so two conditions of the
// same rule may observe slightly different instants.
func (e *Evaluator) Evaluate(field domain.Field, fieldValue any, operator domain.Operator, conditionValue string) (bool, error) {
	h, ok := handlers[handlerKey{field, operator}]
	if !ok {
		return false, nil
	}
	return h(fieldValue, conditionValue, e.clock)
}

func categoryEquals(fieldValue any, conditionValue string, _ Clock) (bool, error) {
	name, ok := fieldValue.(string)
	if !ok {
		return false, nil
	}
	return name == strings.ToLower(conditionValue), nil
}

// tagEquals folds both sides so membership does not depend on how the tag
// list was normalized upstream.
func tagEquals(fieldValue any, conditionValue string, _ Clock) (bool, error) {
	names, ok := fieldValue.([]string)
	if !ok {
		return false, nil
	}
	needle := strings.ToLower(conditionValue)
	for _, name := range names {
		if strings.ToLower(name) == needle {
			return true, nil
		}
	}
	return false, nil
}

func durationLessThan(fieldValue any, conditionValue string, _ Clock) (bool, error) {
	limit, err := isoduration.Parse(conditionValue)
	if err != nil {
		return false, err
	}
	d, ok := fieldValue.(time.Duration)
	if !ok {
		return false, nil
	}
	return d <= limit, nil
}

func durationGreaterThan(fieldValue any, conditionValue string, _ Clock) (bool, error) {
	limit, err := isoduration.Parse(conditionValue)
	if err != nil {
		return false, err
	}
	d, ok := fieldValue.(time.Duration)
	if !ok {
		return false, nil
	}
	return d > limit, nil
}

// deadlineLessThan: the deadline falls within the window from now.
func deadlineLessThan(fieldValue any, conditionValue string, now Clock) (bool, error) {
	window, err := isoduration.Parse(conditionValue)
	if err != nil {
		return false, err
	}
	deadline, ok := fieldValue.(time.Time)
	if !ok {
		return false, nil
	}
	return !deadline.After(now().Add(window)), nil
}

// deadlineGreaterThan: the deadline lies beyond the window from now.
func deadlineGreaterThan(fieldValue any, conditionValue string, now Clock) (bool, error) {
	window, err := isoduration.Parse(conditionValue)
	if err != nil {
		return false, err
	}
	deadline, ok := fieldValue.(time.Time)
	if !ok {
		return false, nil
	}
	return deadline.After(now().Add(window)), nil
}

// createdAtLessThan: the task was created within the window before now.
func createdAtLessThan(fieldValue any, conditionValue string, now Clock) (bool, error) {
	window, err := isoduration.Parse(conditionValue)
	if err != nil {
		return false, err
	}
	createdAt, ok := fieldValue.(time.Time)
	if !ok {
		return false, nil
	}
	return createdAt.After(now().Add(-window)), nil
}

// createdAtGreaterThan: the task was created at or before the window's start.
func createdAtGreaterThan(fieldValue any, conditionValue string, now Clock) (bool, error) {
	window, err := isoduration.Parse(conditionValue)
	if err != nil {
		return false, err
	}
	createdAt, ok := fieldValue.(time.Time)
	if !ok {
		return false, nil
	}
	return !createdAt.After(now().Add(-window)), nil
}
