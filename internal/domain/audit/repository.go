// Package audit records and queries the append-only audit trail.
package audit

import (
	"context"
	"time"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
)

// Repository stores audit records. Append must write through the
// transaction carried by ctx and never commit on its own.
type Repository interface {
	// Append stages one record in the current transaction.
	Append(ctx context.Context, rec *entity.AuditRecord) error

	// Query returns matching records, newest first.
	Query(ctx context.Context, filter Filter) ([]entity.AuditRecord, error)
}

// Filter narrows an audit query. Zero fields are ignored.
type Filter struct {
	EntityType  string
	EntityID    string
	PerformedBy string
	From        *time.Time // inclusive
	To          *time.Time // exclusive
	Limit       int
}

// DefaultLimit caps queries that do not set one.
const DefaultLimit = 200

// Matches applies the filter to a single record.
// Stores that cannot push the filter down use it to post-filter.
func (f Filter) Matches(rec *entity.AuditRecord) bool {
	if f.EntityType != "" && rec.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && rec.EntityID != f.EntityID {
		return false
	}
	if f.PerformedBy != "" && rec.PerformedBy != f.PerformedBy {
		return false
	}
	if f.From != nil && rec.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && !rec.Timestamp.Before(*f.To) {
		return false
	}
	return true
}

// EffectiveLimit returns Limit or DefaultLimit.
func (f Filter) EffectiveLimit() int {
	if f.Limit <= 0 || f.Limit > DefaultLimit {
		return DefaultLimit
	}
	return f.Limit
}
