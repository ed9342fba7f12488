package tx

import (
	"context"
	"errors"
	"fmt"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
)

// StaleWriteError is raised by storage when a versioned update matched no row:
// the row was changed by another transaction since it was read.
type StaleWriteError struct {
	Entity string
	ID     any
}

func (e *StaleWriteError) Error() string {
	return fmt.Sprintf("stale write on %s %v", e.Entity, e.ID)
}

// NewStaleWrite creates a StaleWriteError.
func NewStaleWrite(entity string, id any) error {
	return &StaleWriteError{Entity: entity, ID: id}
}

// TranslateStaleWrite converts a StaleWriteError anywhere in the chain into
// a ConcurrencyConflict carrying the entity name. Other errors pass through.
func TranslateStaleWrite(err error) error {
	var stale *StaleWriteError
	if errors.As(err, &stale) {
		return apperror.NewConcurrentModification(stale.Entity, stale.ID).WithCause(err)
	}
	return err
}

// RequireIsolation fails when ctx does not carry a transaction at least as
// strict as level. Used by operations that must join the caller's transaction.
func RequireIsolation(ctx context.Context, operation string, level IsolationLevel) error {
	info, ok := InfoFromContext(ctx)
	if !ok {
		return apperror.NewTxRequired(operation, "an active transaction")
	}
	if !info.Isolation.AtLeast(level) {
		return apperror.NewTxRequired(operation, string(level)+" isolation").
			WithDetail("actual", string(info.Isolation))
	}
	if info.ReadOnly {
		return apperror.NewTxRequired(operation, "a read-write transaction")
	}
	return nil
}
