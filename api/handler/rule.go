package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/priority/api/transport"
	"github.com/fastygo/priority/pkg/httpcontext"
	ruleUC "github.com/fastygo/priority/usecase/rule"
)

type RuleHandler struct {
	baseHandler
	uc *ruleUC.UseCase
}

func NewRuleHandler(uc *ruleUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *RuleHandler {
	return &RuleHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List priority rules
// @Tags rules
// @Router /api/v1/rules [get]
func (h *RuleHandler) ListRules(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	rules, err := h.uc.ListRules(stdCtx, userID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondList(ctx, rules, transport.ListMeta{Count: len(rules)})
}

// @Summary Create priority rule
// @Tags rules
// @Router /api/v1/rules [post]
func (h *RuleHandler) CreateRule(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.RuleRequest
	if !h.decode(ctx, &req) {
		return
	}
	if req.Boost == nil {
		h.respondInvalid(ctx, "boost is required")
		return
	}

	input := ruleUC.CreateInput{Boost: *req.Boost}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if conditions := req.DomainConditions(); conditions != nil {
		input.Conditions = *conditions
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	rule, err := h.uc.CreateRule(stdCtx, userID, input)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, rule)
}

// @Summary Get priority rule
// @Tags rules
// @Router /api/v1/rules/{id} [get]
func (h *RuleHandler) GetRule(ctx *fasthttp.RequestCtx) {
	userID, id, ok := h.target(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	rule, err := h.uc.GetRule(stdCtx, userID, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, rule)
}

// @Summary Update priority rule
// @Tags rules
// @Router /api/v1/rules/{id} [put]
func (h *RuleHandler) UpdateRule(ctx *fasthttp.RequestCtx) {
	userID, id, ok := h.target(ctx)
	if !ok {
		return
	}

	var req transport.RuleRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	rule, err := h.uc.UpdateRule(stdCtx, userID, id, ruleUC.UpdateInput{
		Name:       req.Name,
		Boost:      req.Boost,
		Conditions: req.DomainConditions(),
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, rule)
}

// @Summary Delete priority rule
// @Tags rules
// @Router /api/v1/rules/{id} [delete]
func (h *RuleHandler) DeleteRule(ctx *fasthttp.RequestCtx) {
	userID, id, ok := h.target(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteRule(stdCtx, userID, id); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondNoContent(ctx)
}

func (h *RuleHandler) target(ctx *fasthttp.RequestCtx) (string, string, bool) {
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
