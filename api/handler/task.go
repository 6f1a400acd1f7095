package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/priority/api/transport"
	"github.com/fastygo/priority/pkg/httpcontext"
	taskUC "github.com/fastygo/priority/usecase/task"
)

const (
	defaultTaskLimit = 50
	maxTaskLimit     = 200
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks with their priority scores
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) ListTasks(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	opts, ok := h.listOptions(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.ListTasks(stdCtx, userID, opts)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondList(ctx, tasks, transport.ListMeta{Count: len(tasks), Limit: opts.Limit, Offset: opts.Offset})
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.TaskRequest
	if !h.decode(ctx, &req) {
		return
	}
	input := taskUC.CreateInput{}
	if req.Title != nil {
		input.Title = *req.Title
	}
	if req.Completed != nil {
		input.Completed = *req.Completed
	}
	if req.Category != nil {
		input.Category = *req.Category
	}
	if req.Tags != nil {
		input.Tags = *req.Tags
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var err error
	if input.Duration, err = req.ParsedDuration(); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	if input.Deadline, err = req.ParsedDeadline(); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	created, err := h.uc.CreateTask(stdCtx, userID, input)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	userID, id, ok := h.target(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.GetTask(stdCtx, userID, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Update task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	userID, id, ok := h.target(ctx)
	if !ok {
		return
	}

	var req transport.TaskRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	input := taskUC.UpdateInput{
		Title:     req.Title,
		Completed: req.Completed,
		Category:  req.Category,
		Tags:      req.Tags,
	}
	var err error
	if input.Duration, err = req.ParsedDuration(); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	if input.Deadline, err = req.ParsedDeadline(); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	updated, err := h.uc.UpdateTask(stdCtx, userID, id, input)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Mark task completed
// @Tags tasks
// @Router /api/v1/tasks/{id}/complete [post]
func (h *TaskHandler) CompleteTask(ctx *fasthttp.RequestCtx) {
	userID, id, ok := h.target(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.CompleteTask(stdCtx, userID, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	userID, id, ok := h.target(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteTask(stdCtx, userID, id); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondNoContent(ctx)
}

// @Summary Explain a task's priority score
// @Tags tasks
// @Router /api/v1/tasks/{id}/score [get]
func (h *TaskHandler) ScoreTask(ctx *fasthttp.RequestCtx) {
	userID, id, ok := h.target(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	breakdown, err := h.uc.ExplainTask(stdCtx, userID, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, breakdown)
}

func (h *TaskHandler) target(ctx *fasthttp.RequestCtx) (string, string, bool) {
	userID := h.userID(ctx)
	if userID == "" {
		return "", "", false
	}
	id := h.pathID(ctx)
	if id == "" {
		return "", "", false
	}
	return userID, id, true
}

func (h *TaskHandler) listOptions(ctx *fasthttp.RequestCtx) (taskUC.ListOptions, bool) {
	args := ctx.QueryArgs()
	opts := taskUC.ListOptions{
		Sort:   string(args.Peek("sort")),
		Limit:  parseInt(args.Peek("limit"), defaultTaskLimit),
		Offset: parseInt(args.Peek("offset"), 0),
	}

	switch opts.Sort {
	case "", taskUC.SortCreatedAt, taskUC.SortPriority, taskUC.SortDeadline:
	default:
		h.respondInvalid(ctx, "sort must be one of priority, created_at, deadline")
		return opts, false
	}
	if opts.Limit <= 0 || opts.Limit > maxTaskLimit {
		opts.Limit = defaultTaskLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	if raw := args.Peek("completed"); len(raw) > 0 {
		completed, err := strconv.ParseBool(string(raw))
		if err != nil {
			h.respondInvalid(ctx, "completed must be a boolean")
			return opts, false
		}
		opts.Completed = &completed
	}
	if raw := args.Peek("min_score"); len(raw) > 0 {
		minScore, err := strconv.Atoi(string(raw))
		if err != nil {
			h.respondInvalid(ctx, "min_score must be an integer")
			return opts, false
		}
		opts.MinScore = &minScore
	}
	return opts, true
}
