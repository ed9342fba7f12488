package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/http/v1/dto"
)

// Pinger is implemented by the database pool and the Redis client wrapper.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LedgerHealth reports the outcome of the last stored full check.
type LedgerHealth interface {
	Healthy(ctx context.Context) (healthy, known bool, err error)
}

// HealthHandler reports whether the backing stores answer.
type HealthHandler struct {
	checks map[string]Pinger
	ledger LedgerHealth
}

// NewHealthHandler creates a health handler. Nil pingers are skipped.
// ledger is optional.
func NewHealthHandler(checks map[string]Pinger, ledger LedgerHealth) *HealthHandler {
	filtered := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			filtered[name] = p
		}
	}
	return &HealthHandler{checks: filtered, ledger: ledger}
}

// Health pings every dependency. The ledger field mirrors the last full
// check and does not affect the status code.
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for name, p := range h.checks {
		if err := p.Ping(c.Request.Context()); err != nil {
			resp.Status = "error"
			resp.Checks[name] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "healthy"
	}
	if h.ledger != nil {
		resp.Ledger = ledgerStatus(c.Request.Context(), h.ledger)
	}
	c.JSON(status, resp)
}

func ledgerStatus(ctx context.Context, l LedgerHealth) string {
	healthy, known, err := l.Healthy(ctx)
	switch {
	case err != nil, !known:
		return "unknown"
	case healthy:
		return "healthy"
	default:
		return "unhealthy"
	}
}
