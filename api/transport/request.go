package transport

import (
	"strings"
	"time"

	"github.com/fastygo/priority/domain"
	"github.com/fastygo/priority/pkg/isoduration"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileUpdateRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TaskRequest is shared by create and update; absent fields stay nil.
// Duration is ISO-8601 ("PT90M"), Deadline RFC 3339.
type TaskRequest struct {
	Title     *string   `json:"title"`
	Completed *bool     `json:"completed"`
	Duration  *string   `json:"duration"`
	Deadline  *string   `json:"deadline"`
	Category  *string   `json:"category"`
	Tags      *[]string `json:"tags"`
}

// ParsedDuration returns the task duration, or nil when absent or blank.
func (r TaskRequest) ParsedDuration() (*time.Duration, error) {
	if r.Duration == nil || strings.TrimSpace(*r.Duration) == "" {
		return nil, nil
	}
	d, err := isoduration.Parse(*r.Duration)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "duration must be an ISO-8601 duration", err)
	}
	if d < 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "duration must not be negative")
	}
	return &d, nil
}

// ParsedDeadline returns the deadline in UTC, or nil when absent or blank.
func (r TaskRequest) ParsedDeadline() (*time.Time, error) {
	if r.Deadline == nil || strings.TrimSpace(*r.Deadline) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(*r.Deadline))
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "deadline must be RFC 3339", err)
	}
	t = t.UTC()
	return &t, nil
}

type ConditionRequest struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// RuleRequest is shared by create and update. On update a present Conditions
// list replaces the stored one.
type RuleRequest struct {
	Name       *string             `json:"name"`
	Boost      *int                `json:"boost"`
	Conditions *[]ConditionRequest `json:"conditions"`
}

// DomainConditions converts the request conditions; nil when absent.
func (r RuleRequest) DomainConditions() *[]domain.Condition {
	if r.Conditions == nil {
		return nil
	}
	out := make([]domain.Condition, 0, len(*r.Conditions))
	for _, c := range *r.Conditions {
		out = append(out, domain.Condition{
			Field:    domain.Field(strings.ToLower(strings.TrimSpace(c.Field))),
			Operator: domain.Operator(strings.ToLower(strings.TrimSpace(c.Operator))),
			Value:    c.Value,
		})
	}
	return &out
}
