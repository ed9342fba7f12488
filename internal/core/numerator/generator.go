package numerator

import (
	"context"
	"time"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
)

// Generator allocates document numbers. Every method must run inside the
// caller's serializable transaction; the generator never commits.
type Generator interface {
	// NextNumber allocates the next number dated today.
	NextNumber(ctx context.Context, documentType string, fiscalYearID int64) (string, error)

	// NextNumberAt allocates the next number for a document dated date.
	// date selects the counter for month and day scoped types.
	NextNumberAt(ctx context.Context, documentType string, fiscalYearID int64, date time.Time) (string, error)

	// SetNextNumber seeds a counter so the next allocation returns value
	// (used when migrating existing numbering).
	SetNextNumber(ctx context.Context, documentType string, fiscalYearID int64, date time.Time, value int64) error
}

// FiscalYearReader resolves fiscal years. Returns apperror NotFound when absent.
type FiscalYearReader interface {
	GetFiscalYear(ctx context.Context, id int64) (*entity.FiscalYear, error)
}

// Store persists SequenceCounter rows inside the transaction carried by ctx.
type Store interface {
	FiscalYearReader

	// Increment creates the counter with LastValue=0 if absent, adds one
	// and returns the new LastValue.
	Increment(ctx context.Context, key entity.SequenceKey, prefix string) (int64, error)

	// SetLastValue upserts the counter with an explicit LastValue.
	SetLastValue(ctx context.Context, key entity.SequenceKey, prefix string, value int64) error

	// GetCounter returns the counter or apperror NotFound.
	GetCounter(ctx context.Context, key entity.SequenceKey) (*entity.SequenceCounter, error)
}
