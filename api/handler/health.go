package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/priority/api/transport"
	"github.com/fastygo/priority/internal/infrastructure/monitor"
	"github.com/fastygo/priority/pkg/httpcontext"
)

// StatusProvider exposes the latest dependency snapshot.
type StatusProvider interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusProvider
}

func NewHealthHandler(mon StatusProvider, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := transport.HealthPayload{
		Timestamp: time.Now().UTC(),
		Services: transport.HealthServices{
			PostgreSQL: status.PostgreSQL,
			Redis:      status.Redis,
			Buffer: transport.BufferHealth{
				Online: status.Buffer,
				Size:   status.BufferSize,
			},
		},
	}

	if status.PostgreSQL && status.Redis {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "dependencies unhealthy", payload))
}
