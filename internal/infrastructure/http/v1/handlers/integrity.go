package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/integrity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

// Checker runs integrity checks.
type Checker interface {
	CheckTrialBalance(ctx context.Context) (*integrity.TrialBalanceReport, error)
	CheckJournalBalance(ctx context.Context) (*integrity.JournalBalanceReport, error)
	CheckInventory(ctx context.Context) (*integrity.InventoryReport, error)
	RunFullCheck(ctx context.Context) (*integrity.FullReport, error)
}

// ReportStore keeps the most recent full report.
type ReportStore interface {
	Save(ctx context.Context, report *integrity.FullReport) error
	Last(ctx context.Context) (*integrity.FullReport, error)
}

// IntegrityHandler exposes the integrity checks. An unhealthy ledger is a
// successful response with healthy=false; only failures to run a check are
// reported as errors.
type IntegrityHandler struct {
	*BaseHandler
	checker Checker
	reports ReportStore
}

// NewIntegrityHandler creates the handler. reports may be nil.
func NewIntegrityHandler(base *BaseHandler, checker Checker, reports ReportStore) *IntegrityHandler {
	return &IntegrityHandler{BaseHandler: base, checker: checker, reports: reports}
}

// Full runs every check and stores the result.
// GET /integrity/full
func (h *IntegrityHandler) Full(c *gin.Context) {
	ctx := c.Request.Context()
	report, err := h.checker.RunFullCheck(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	if h.reports != nil {
		if err := h.reports.Save(ctx, report); err != nil {
			logger.Warn(ctx, "integrity report not cached", "error", err)
		}
	}
	h.OK(c, report)
}

// TrialBalance runs the trial balance check.
// GET /integrity/trial-balance
func (h *IntegrityHandler) TrialBalance(c *gin.Context) {
	respond(h, c, h.checker.CheckTrialBalance)
}

// JournalBalance runs the per-entry balance check.
// GET /integrity/journal-balance
func (h *IntegrityHandler) JournalBalance(c *gin.Context) {
	respond(h, c, h.checker.CheckJournalBalance)
}

// Inventory runs the stock reconciliation.
// GET /integrity/inventory
func (h *IntegrityHandler) Inventory(c *gin.Context) {
	respond(h, c, h.checker.CheckInventory)
}

// Last returns the most recent stored full report.
// GET /integrity/last
func (h *IntegrityHandler) Last(c *gin.Context) {
	if h.reports == nil {
		h.Error(c, apperror.NewNotFound("IntegrityReport", "last"))
		return
	}
	report, err := h.reports.Last(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

func respond[T any](h *IntegrityHandler, c *gin.Context, check func(context.Context) (T, error)) {
	report, err := check(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
