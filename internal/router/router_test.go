package router

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"

	apiHandler "github.com/fastygo/priority/api/handler"
	"github.com/fastygo/priority/internal/infrastructure/monitor"
	"github.com/fastygo/priority/internal/middleware"
	"github.com/fastygo/priority/pkg/httpcontext"
	"github.com/fastygo/priority/repository/memory"
	authUC "github.com/fastygo/priority/usecase/auth"
	profileUC "github.com/fastygo/priority/usecase/profile"
	ruleUC "github.com/fastygo/priority/usecase/rule"
	taskUC "github.com/fastygo/priority/usecase/task"
)

type staticStatus monitor.Status

func (s staticStatus) GetStatus() monitor.Status {
	return monitor.Status(s)
}

type response struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Meta   json.RawMessage `json:"meta"`
}

type api struct {
	t       *testing.T
	handler fasthttp.RequestHandler
}

func newAPI(t *testing.T) *api {
	t.Helper()
	users := memory.NewUserRepository()
	tasks := memory.NewTaskRepository()
	rules := memory.NewRuleRepository()
	sessions := memory.NewSessionRepository()

	hasher := authUC.NewPasswordHasher(bcrypt.MinCost)
	tokens := authUC.NewTokenIssuer(authUC.TokenConfig{Secret: "router-test", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	adapter := httpcontext.NewAdapter(time.Second)

	handlers := Handlers{
		Auth:    apiHandler.NewAuthHandler(authUC.New(users, sessions, tokens, hasher, nil), adapter, nil),
		Profile: apiHandler.NewProfileHandler(profileUC.New(users, hasher, nil), adapter, nil),
		Task:    apiHandler.NewTaskHandler(taskUC.New(tasks, rules, users, nil, nil, nil), adapter, nil),
		Rule:    apiHandler.NewRuleHandler(ruleUC.New(rules, users, nil, nil), adapter, nil),
		Health:  apiHandler.NewHealthHandler(staticStatus{PostgreSQL: true, Redis: true, Buffer: true}, adapter, nil),
	}
	r := New(handlers, middleware.JWTAuth(tokens, nil))
	return &api{t: t, handler: r.Handler}
}

func (a *api) do(method, path, token string, body interface{}) (int, response) {
	a.t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if token != "" {
		ctx.Request.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(a.t, err)
		ctx.Request.SetBody(payload)
		ctx.Request.Header.SetContentType("application/json")
	}

	a.handler(ctx)

	var resp response
	if len(ctx.Response.Body()) > 0 {
		require.NoError(a.t, json.Unmarshal(ctx.Response.Body(), &resp), string(ctx.Response.Body()))
	}
	return ctx.Response.StatusCode(), resp
}

// signup registers a user and returns an access token.
func (a *api) signup(username string) string {
	a.t.Helper()
	status, _ := a.do(http.MethodPost, "/api/v1/users", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret-pass",
	})
	require.Equal(a.t, http.StatusCreated, status)

	status, resp := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    username + "@example.com",
		"password": "secret-pass",
	})
	require.Equal(a.t, http.StatusOK, status)

	var pair authUC.TokenPair
	require.NoError(a.t, json.Unmarshal(resp.Data, &pair))
	return pair.AccessToken
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

type taskView struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Completed       bool   `json:"completed"`
	DurationMinutes *int   `json:"duration_minutes"`
	PriorityScore   int    `json:"priority_score"`
}

func TestPriorityFlow(t *testing.T) {
	a := newAPI(t)
	token := a.signup("alice")

	status, resp := a.do(http.MethodPost, "/api/v1/rules", token, map[string]interface{}{
		"name":  "work",
		"boost": 5,
		"conditions": []map[string]string{
			{"field": "category", "operator": "equals", "value": "Work"},
		},
	})
	require.Equal(t, http.StatusCreated, status, resp.Code)

	status, _ = a.do(http.MethodPost, "/api/v1/rules", token, map[string]interface{}{
		"name":  "quick wins",
		"boost": 10,
		"conditions": []map[string]string{
			{"field": "duration", "operator": "less_than", "value": "PT30M"},
			{"field": "tag", "operator": "equals", "value": "easy"},
		},
	})
	require.Equal(t, http.StatusCreated, status)

	status, resp = a.do(http.MethodPost, "/api/v1/tasks", token, map[string]interface{}{
		"title":    "Fix typo",
		"category": "work",
		"tags":     []string{"Easy"},
		"duration": "PT30M",
	})
	require.Equal(t, http.StatusCreated, status)
	quick := decode[taskView](t, resp.Data)
	assert.Equal(t, 15, quick.PriorityScore)
	require.NotNil(t, quick.DurationMinutes)
	assert.Equal(t, 30, *quick.DurationMinutes)

	status, resp = a.do(http.MethodPost, "/api/v1/tasks", token, map[string]interface{}{
		"title":    "Quarterly report",
		"category": "work",
		"duration": "PT4H",
	})
	require.Equal(t, http.StatusCreated, status)
	report := decode[taskView](t, resp.Data)
	assert.Equal(t, 5, report.PriorityScore)

	status, resp = a.do(http.MethodGet, "/api/v1/tasks?sort=priority&min_score=5", token, nil)
	require.Equal(t, http.StatusOK, status)
	listed := decode[[]taskView](t, resp.Data)
	require.Len(t, listed, 2)
	assert.Equal(t, quick.ID, listed[0].ID)

	status, resp = a.do(http.MethodGet, "/api/v1/tasks/"+report.ID+"/score", token, nil)
	require.Equal(t, http.StatusOK, status)
	breakdown := decode[struct {
		Score int `json:"score"`
	}](t, resp.Data)
	assert.Equal(t, 5, breakdown.Score)

	status, resp = a.do(http.MethodPost, "/api/v1/tasks/"+report.ID+"/complete", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[taskView](t, resp.Data).Completed)

	status, resp = a.do(http.MethodGet, "/api/v1/tasks?completed=false", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]taskView](t, resp.Data), 1)

	status, _ = a.do(http.MethodDelete, "/api/v1/tasks/"+report.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = a.do(http.MethodGet, "/api/v1/tasks/"+report.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestErrorStatuses(t *testing.T) {
	a := newAPI(t)
	alice := a.signup("alice")
	bob := a.signup("bob")

	status, _ := a.do(http.MethodGet, "/api/v1/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, resp := a.do(http.MethodPost, "/api/v1/users", "", map[string]string{
		"username": "alice", "email": "new@example.com", "password": "secret-pass",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", resp.Code)

	status, resp = a.do(http.MethodPost, "/api/v1/rules", alice, map[string]interface{}{
		"name":  "bad",
		"boost": 1,
		"conditions": []map[string]string{
			{"field": "deadline", "operator": "less_than", "value": "soon"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID", resp.Code)

	status, _ = a.do(http.MethodPost, "/api/v1/rules", alice, map[string]interface{}{"name": "no boost"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(http.MethodPost, "/api/v1/tasks", alice, map[string]interface{}{"title": "x", "duration": "90 minutes"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(http.MethodGet, "/api/v1/tasks?sort=random", alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = a.do(http.MethodPost, "/api/v1/tasks", alice, map[string]interface{}{"title": "private"})
	require.Equal(t, http.StatusCreated, status)
	private := decode[taskView](t, resp.Data)

	status, _ = a.do(http.MethodGet, "/api/v1/tasks/"+private.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAuthSessionFlow(t *testing.T) {
	a := newAPI(t)
	a.signup("alice")

	status, _ := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, resp := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "secret-pass",
	})
	require.Equal(t, http.StatusOK, status)
	pair := decode[authUC.TokenPair](t, resp.Data)

	status, resp = a.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": pair.RefreshToken})
	require.Equal(t, http.StatusOK, status)
	rotated := decode[authUC.TokenPair](t, resp.Data)

	status, _ = a.do(http.MethodGet, "/api/v1/me", pair.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status, "refresh tokens are not access tokens")

	status, resp = a.do(http.MethodPut, "/api/v1/me", rotated.AccessToken, map[string]string{"username": "alicia"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"alicia"`)
	assert.NotContains(t, string(resp.Data), "password")

	status, _ = a.do(http.MethodPost, "/api/v1/auth/logout", "", map[string]string{"refresh_token": rotated.RefreshToken})
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = a.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": rotated.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHealth(t *testing.T) {
	a := newAPI(t)

	status, resp := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", resp.Status)
}
