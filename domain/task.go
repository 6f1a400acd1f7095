package domain

import (
	"strings"
	"time"
)

// Task represents a user-owned activity item.
//
// Duration is expressed in whole minutes. PriorityScore is never persisted; it
// is filled in by the task use case on every read.
type Task struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Title         string     `json:"title"`
	Completed     bool       `json:"completed"`
	Duration      *int       `json:"duration_minutes,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Category      *Category  `json:"category,omitempty"`
	Tags          []Tag      `json:"tags"`
	PriorityScore int        `json:"priority_score"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Category groups tasks. Names are stored lower-cased.
type Category struct {
	ID     string `json:"id"`
	UserID string `json:"-"`
	Name   string `json:"name"`
}

// Tag labels tasks. Names are stored lower-cased.
type Tag struct {
	ID     string `json:"id"`
	UserID string `json:"-"`
	Name   string `json:"name"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Completed
}

// CategoryName returns the resolved category name, if any.
func (t *Task) CategoryName() (string, bool) {
	if t == nil || t.Category == nil {
		return "", false
	}
	return t.Category.Name, true
}

// TagNames returns the names of the task's tags; never nil.
func (t *Task) TagNames() []string {
	if t == nil {
		return []string{}
	}
	names := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// DurationValue converts the minute count to a time.Duration.
func (t *Task) DurationValue() (time.Duration, bool) {
	if t == nil || t.Duration == nil {
		return 0, false
	}
	return time.Duration(*t.Duration) * time.Minute, true
}

// NormalizeName is the canonical form of category and tag names.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
