package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/fastygo/priority/pkg/isoduration"
)

// Field names a task attribute a condition compares against.
type Field string

const (
	FieldCategory  Field = "category"
	FieldTag       Field = "tag"
	FieldDuration  Field = "duration"
	FieldDeadline  Field = "deadline"
	FieldCreatedAt Field = "created_at"
)

// Operator names the comparison a condition performs.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorLessThan    Operator = "less_than"
	OperatorGreaterThan Operator = "greater_than"
)

// Fields lists every supported field.
var Fields = []Field{FieldCategory, FieldTag, FieldDuration, FieldDeadline, FieldCreatedAt}

// Operators lists every supported operator.
var Operators = []Operator{OperatorEquals, OperatorLessThan, OperatorGreaterThan}

func (f Field) Valid() bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

// RequiresDuration reports whether condition values for f are ISO-8601 durations.
func (f Field) RequiresDuration() bool {
	return f == FieldDuration || f == FieldDeadline || f == FieldCreatedAt
}

func (o Operator) Valid() bool {
	for _, known := range Operators {
		if o == known {
			return true
		}
	}
	return false
}

// Rule adds Boost to the score of every task matching all of its Conditions.
type Rule struct {
	ID         string      `json:"id"`
	UserID     string      `json:"-"`
	Name       string      `json:"name"`
	Boost      int         `json:"boost"`
	Conditions []Condition `json:"conditions"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Condition is a single comparison against one task attribute. Value is
// always text; its shape depends on Field.
type Condition struct {
	ID       string   `json:"id"`
	RuleID   string   `json:"-"`
	Field    Field    `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// Validate checks the rule's shape: a name and at least one valid condition.
// Pairs such as deadline/equals pass validation; they simply never match.
func (r *Rule) Validate() error {
	if r == nil {
		return ErrInvalidPayload
	}
	if strings.TrimSpace(r.Name) == "" {
		return NewError(ErrCodeInvalid, "rule name is required")
	}
	if len(r.Conditions) == 0 {
		return NewError(ErrCodeInvalid, "rule requires at least one condition")
	}
	for i, c := range r.Conditions {
		if err := c.Validate(); err != nil {
			return WrapError(ErrCodeInvalid, fmt.Sprintf("condition %d", i), err)
		}
	}
	return nil
}

// Validate checks field and operator membership and, for time-based fields,
// that Value is an ISO-8601 duration.
func (c Condition) Validate() error {
	if !c.Field.Valid() {
		return fmt.Errorf("unsupported field %q", c.Field)
	}
	if !c.Operator.Valid() {
		return fmt.Errorf("unsupported operator %q", c.Operator)
	}
	if c.Field.RequiresDuration() {
		return isoduration.Validate(c.Value)
	}
	return nil
}
