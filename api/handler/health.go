package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/cheliu754/CS409-MP3/api/transport"
	"github.com/cheliu754/CS409-MP3/internal/infrastructure/monitor"
	"github.com/cheliu754/CS409-MP3/pkg/httpcontext"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
}

func NewHealthHandler(mon *monitor.Monitor, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// Check reports store reachability and collection counts.
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"store":     status.Store,
		"counts": map[string]int{
			"users": status.Users,
			"tasks": status.Tasks,
		},
	}
	if status.RedisEnabled {
		payload["redis"] = status.Redis
	}

	if h.monitor.IsOnline() {
		h.respondData(ctx, http.StatusOK, transport.MsgOK, payload)
		return
	}
	h.respondJSON(ctx, fasthttp.StatusServiceUnavailable, transport.NewEnvelope("store unavailable", payload))
}
