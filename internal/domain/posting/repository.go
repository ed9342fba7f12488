package posting

import (
	"context"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/id"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/numerator"
)

// Repository persists ledger entries through the transaction carried by ctx.
type Repository interface {
	numerator.FiscalYearReader

	// CreateEntry inserts the entry header and all of its lines.
	CreateEntry(ctx context.Context, e *entity.LedgerEntry) error

	// GetEntry loads an entry with its lines ordered by LineNo.
	// Returns apperror NotFound when absent.
	GetEntry(ctx context.Context, entryID id.ID) (*entity.LedgerEntry, error)

	// UpdateEntry rewrites the header when the stored version equals
	// e.Version, then increments e.Version. Lines are never rewritten.
	// A version mismatch returns tx.StaleWriteError.
	UpdateEntry(ctx context.Context, e *entity.LedgerEntry) error
}

// AuditAppender stages audit records into the current transaction.
type AuditAppender interface {
	AppendChange(ctx context.Context, entityType, entityID, action string, details map[string]any) error
}
