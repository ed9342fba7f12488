// Package tx defines the transaction coordination contract of the ledger core.
// Domain services depend on these interfaces; implementations live in
// infrastructure/storage (postgres and memory).
package tx

import (
	"context"
)

// Manager opens exactly one transaction per use case.
//
// If fn returns an error the transaction is rolled back in full before the
// error propagates. Storage specific failures are translated into apperror
// kinds (ConcurrencyConflict, SerializationConflict, InfrastructureFailure)
// so callers never see driver errors.
//
// Nested calls reuse the transaction already carried by ctx. A nested call
// that asks for a stricter isolation level than the outer one fails with
// apperror.CodeTxRequired instead of silently running weaker.
type Manager interface {
	// RunInTransaction executes fn at the default (read committed) level.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// RunInTransactionWithOptions executes fn at a caller selected level.
	RunInTransactionWithOptions(ctx context.Context, opts Options, fn func(ctx context.Context) error) error

	// ReadOnly executes fn in a read-only transaction.
	// Attempts to modify data will fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Operation is one staged unit of work.
type Operation func(ctx context.Context) error

// Commit runs the staged operations in order inside a single transaction and
// commits once. It is the short path for callers that already know every write.
func Commit(ctx context.Context, m Manager, ops ...Operation) error {
	return m.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, op := range ops {
			if err := op(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
