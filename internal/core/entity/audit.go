package entity

import (
	"time"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/id"
)

// Audit actions written by the ledger core.
const (
	AuditActionCreated  = "Created"
	AuditActionPosted   = "Posted"
	AuditActionReversed = "Reversed"
	AuditActionSeeded   = "Seeded"
)

// AuditRecord is append-only: never updated, never deleted.
type AuditRecord struct {
	ID          id.ID     `db:"id" json:"id"`
	EntityType  string    `db:"entity_type" json:"entityType"`
	EntityID    string    `db:"entity_id" json:"entityId"`
	Action      string    `db:"action" json:"action"`
	PerformedBy string    `db:"performed_by" json:"performedBy"`
	Timestamp   time.Time `db:"performed_at" json:"timestamp"`
	Details     *string   `db:"details" json:"details,omitempty"`
}
