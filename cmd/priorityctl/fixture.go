package main

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/fastygo/priority/domain"
	"github.com/fastygo/priority/pkg/isoduration"
)

// fixture is a user's rule set and tasks described in TOML:
//
//	now = 2024-03-10T12:00:00Z
//
//	[[rules]]
//	name = "work"
//	boost = 5
//	  [[rules.conditions]]
//	  field = "category"
//	  operator = "equals"
//	  value = "work"
//
//	[[tasks]]
//	title = "Write report"
//	category = "Work"
//	duration = "PT90M"
type fixture struct {
	Now   *time.Time    `toml:"now"`
	Rules []fixtureRule `toml:"rules"`
	Tasks []fixtureTask `toml:"tasks"`
}

type fixtureRule struct {
	Name       string             `toml:"name"`
	Boost      int                `toml:"boost"`
	Conditions []fixtureCondition `toml:"conditions"`
}

type fixtureCondition struct {
	Field    string `toml:"field"`
	Operator string `toml:"operator"`
	Value    string `toml:"value"`
}

type fixtureTask struct {
	Title     string     `toml:"title"`
	Completed bool       `toml:"completed"`
	Category  string     `toml:"category"`
	Tags      []string   `toml:"tags"`
	Duration  string     `toml:"duration"`
	Deadline  *time.Time `toml:"deadline"`
	CreatedAt *time.Time `toml:"created_at"`
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f fixture
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// owner builds the user whose rules score the fixture's tasks.
func (f *fixture) owner() (*domain.User, error) {
	user := &domain.User{ID: "fixture", Username: "fixture"}
	for i, r := range f.Rules {
		rule := domain.Rule{
			ID:    fmt.Sprintf("rule-%d", i+1),
			Name:  r.Name,
			Boost: r.Boost,
		}
		for _, c := range r.Conditions {
			rule.Conditions = append(rule.Conditions, domain.Condition{
				Field:    domain.Field(c.Field),
				Operator: domain.Operator(c.Operator),
				Value:    c.Value,
			})
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		user.Rules = append(user.Rules, rule)
	}
	return user, nil
}

func (f *fixture) tasks(now time.Time) ([]domain.Task, error) {
	out := make([]domain.Task, 0, len(f.Tasks))
	for i, t := range f.Tasks {
		task := domain.Task{
			ID:        fmt.Sprintf("task-%d", i+1),
			UserID:    "fixture",
			Title:     t.Title,
			Completed: t.Completed,
			Deadline:  t.Deadline,
			CreatedAt: now,
		}
		if t.CreatedAt != nil {
			task.CreatedAt = *t.CreatedAt
		}
		if name := domain.NormalizeName(t.Category); name != "" {
			task.Category = &domain.Category{Name: name}
		}
		for _, tag := range t.Tags {
			if name := domain.NormalizeName(tag); name != "" {
				task.Tags = append(task.Tags, domain.Tag{Name: name})
			}
		}
		if t.Duration != "" {
			d, err := isoduration.Parse(t.Duration)
			if err != nil {
				return nil, fmt.Errorf("task %q: %w", t.Title, err)
			}
			minutes := int(d / time.Minute)
			task.Duration = &minutes
		}
		out = append(out, task)
	}
	return out, nil
}
