package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/audit"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/http/v1/dto"
)

// AuditQuerier reads the audit trail.
type AuditQuerier interface {
	Query(ctx context.Context, filter audit.Filter) ([]entity.AuditRecord, error)
}

// AuditHandler serves the audit trail.
type AuditHandler struct {
	*BaseHandler
	audit AuditQuerier
}

// NewAuditHandler creates the handler.
func NewAuditHandler(base *BaseHandler, q AuditQuerier) *AuditHandler {
	return &AuditHandler{BaseHandler: base, audit: q}
}

// List returns audit records, newest first.
// GET /audit?entity_type=&entity_id=&performed_by=&from=&to=&limit=
func (h *AuditHandler) List(c *gin.Context) {
	var q dto.AuditQuery
	if !h.BindQuery(c, &q) {
		return
	}
	if q.From != nil && q.To != nil && !q.From.Before(*q.To) {
		h.Error(c, apperror.NewValidation("from must be before to"))
		return
	}

	records, err := h.audit.Query(c.Request.Context(), audit.Filter{
		EntityType:  q.EntityType,
		EntityID:    q.EntityID,
		PerformedBy: q.PerformedBy,
		From:        q.From,
		To:          q.To,
		Limit:       q.Limit,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	if records == nil {
		records = []entity.AuditRecord{}
	}
	h.OK(c, dto.AuditListResponse{Items: records, Count: len(records)})
}
