// Package memory implements the repository ports in process memory. It backs
// use case and handler tests and keeps the same not-found and conflict
// semantics as the PostgreSQL implementations.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/priority/domain"
	"github.com/fastygo/priority/repository"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conflict(user); err != nil {
		return nil, err
	}
	stored := *user
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.UpdatedAt = stored.CreatedAt
	stored.Rules = nil
	r.users[stored.ID] = stored
	out := stored
	return &out, nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	if err := r.conflict(user); err != nil {
		return err
	}
	stored := *user
	stored.Rules = nil
	r.users[user.ID] = stored
	return nil
}

func (r *UserRepository) find(match func(domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if match(user) {
			out := user
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) conflict(user *domain.User) error {
	for _, existing := range r.users {
		if existing.ID == user.ID {
			continue
		}
		if existing.Username == user.Username {
			return domain.ErrUsernameTaken
		}
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.ErrEmailTaken
		}
	}
	return nil
}

type TaskRepository struct {
	mu         sync.RWMutex
	tasks      map[string]domain.Task
	categories map[string]domain.Category
	tags       map[string]domain.Tag
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{
		tasks:      make(map[string]domain.Task),
		categories: make(map[string]domain.Category),
		tags:       make(map[string]domain.Tag),
	}
}

func (r *TaskRepository) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	out := cloneTask(task)
	return &out, nil
}

func (r *TaskRepository) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Task, 0)
	for _, task := range r.tasks {
		if task.UserID != filter.UserID {
			continue
		}
		if filter.Completed != nil && task.Completed != *filter.Completed {
			continue
		}
		out = append(out, cloneTask(task))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []domain.Task{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *TaskRepository) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneTask(*task)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.UpdatedAt = stored.CreatedAt
	r.resolve(&stored)
	r.tasks[stored.ID] = stored

	out := cloneTask(stored)
	return &out, nil
}

func (r *TaskRepository) Update(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	stored := cloneTask(*task)
	stored.UpdatedAt = time.Now().UTC()
	r.resolve(&stored)
	r.tasks[task.ID] = stored
	*task = cloneTask(stored)
	return nil
}

func (r *TaskRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

// resolve gets or creates the task's category and tags by (user, name).
func (r *TaskRepository) resolve(task *domain.Task) {
	if task.Category != nil {
		key := task.UserID + "/" + task.Category.Name
		category, ok := r.categories[key]
		if !ok {
			category = domain.Category{ID: uuid.NewString(), UserID: task.UserID, Name: task.Category.Name}
			r.categories[key] = category
		}
		task.Category = &category
	}
	for i, tag := range task.Tags {
		key := task.UserID + "/" + tag.Name
		stored, ok := r.tags[key]
		if !ok {
			stored = domain.Tag{ID: uuid.NewString(), UserID: task.UserID, Name: tag.Name}
			r.tags[key] = stored
		}
		task.Tags[i] = stored
	}
}

func cloneTask(task domain.Task) domain.Task {
	out := task
	if task.Category != nil {
		category := *task.Category
		out.Category = &category
	}
	if task.Tags != nil {
		out.Tags = append([]domain.Tag(nil), task.Tags...)
	}
	if task.Duration != nil {
		minutes := *task.Duration
		out.Duration = &minutes
	}
	if task.Deadline != nil {
		deadline := *task.Deadline
		out.Deadline = &deadline
	}
	return out
}

type RuleRepository struct {
	mu    sync.RWMutex
	rules map[string]domain.Rule
}

func NewRuleRepository() *RuleRepository {
	return &RuleRepository{rules: make(map[string]domain.Rule)}
}

func (r *RuleRepository) GetByID(_ context.Context, id string) (*domain.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, domain.ErrRuleNotFound
	}
	out := cloneRule(rule)
	return &out, nil
}

func (r *RuleRepository) ListByUser(_ context.Context, userID string) ([]domain.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Rule, 0)
	for _, rule := range r.rules {
		if rule.UserID == userID {
			out = append(out, cloneRule(rule))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *RuleRepository) Create(_ context.Context, rule *domain.Rule) (*domain.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneRule(*rule)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.UpdatedAt = stored.CreatedAt
	assignConditionIDs(&stored)
	r.rules[stored.ID] = stored

	out := cloneRule(stored)
	return &out, nil
}

func (r *RuleRepository) Update(_ context.Context, rule *domain.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rules[rule.ID]; !ok {
		return domain.ErrRuleNotFound
	}
	stored := cloneRule(*rule)
	stored.UpdatedAt = time.Now().UTC()
	assignConditionIDs(&stored)
	r.rules[rule.ID] = stored
	*rule = cloneRule(stored)
	return nil
}

func (r *RuleRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[id]; !ok {
		return domain.ErrRuleNotFound
	}
	delete(r.rules, id)
	return nil
}

func assignConditionIDs(rule *domain.Rule) {
	for i := range rule.Conditions {
		rule.Conditions[i].ID = uuid.NewString()
		rule.Conditions[i].RuleID = rule.ID
	}
}

func cloneRule(rule domain.Rule) domain.Rule {
	out := rule
	out.Conditions = append([]domain.Condition(nil), rule.Conditions...)
	return out
}

type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]domain.Session)}
}

func (r *SessionRepository) Get(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || session.IsExpired(time.Now()) {
		delete(r.sessions, id)
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (r *SessionRepository) Save(_ context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

var (
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.TaskRepository    = (*TaskRepository)(nil)
	_ repository.RuleRepository    = (*RuleRepository)(nil)
	_ repository.SessionRepository = (*SessionRepository)(nil)
)
