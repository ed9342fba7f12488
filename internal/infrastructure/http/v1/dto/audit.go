package dto

import (
	"time"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
)

// AuditQuery is bound from the query string of GET /audit.
// From is inclusive and To exclusive, both RFC 3339.
type AuditQuery struct {
	EntityType  string     `form:"entity_type"`
	EntityID    string     `form:"entity_id"`
	PerformedBy string     `form:"performed_by"`
	From        *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To          *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit       int        `form:"limit" binding:"omitempty,min=1,max=200"`
}

// AuditListResponse wraps audit records.
type AuditListResponse struct {
	Items []entity.AuditRecord `json:"items"`
	Count int                  `json:"count"`
}
