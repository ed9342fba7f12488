package memory

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/id"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/tx"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/types"
	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

var tracer = otel.Tracer("ledger/memory/tx")

var _ tx.Manager = (*TxManager)(nil)

// memTx is an open transaction: its buffered writes and its read set.
type memTx struct {
	opts tx.Options

	reads         map[rowRef]int64
	versionChecks map[id.ID]int64
	inserted      map[id.ID]bool

	fiscalYears map[int64]entity.FiscalYear
	counters    map[entity.SequenceKey]entity.SequenceCounter
	entries     map[id.ID]*entity.LedgerEntry
	audit       []entity.AuditRecord
	movements   []entity.InventoryMovement
	snapshots   map[entity.StockKey]types.Quantity
}

func newMemTx(opts tx.Options) *memTx {
	return &memTx{
		opts:          opts,
		reads:         make(map[rowRef]int64),
		versionChecks: make(map[id.ID]int64),
		inserted:      make(map[id.ID]bool),
		fiscalYears:   make(map[int64]entity.FiscalYear),
		counters:      make(map[entity.SequenceKey]entity.SequenceCounter),
		entries:       make(map[id.ID]*entity.LedgerEntry),
		snapshots:     make(map[entity.StockKey]types.Quantity),
	}
}

func (t *memTx) validatesReads() bool {
	return t.opts.Isolation.AtLeast(tx.RepeatableRead)
}

// observe records the first stamp seen for ref; callers hold the store lock.
func (t *memTx) observe(ref rowRef, stamp int64) {
	if _, seen := t.reads[ref]; !seen {
		t.reads[ref] = stamp
	}
}

type txKey struct{}

func txFrom(ctx context.Context) *memTx {
	if t, ok := ctx.Value(txKey{}).(*memTx); ok {
		return t
	}
	return nil
}

// TxManager implements tx.Manager over a Store.
type TxManager struct {
	store *Store
}

// NewTxManager creates a transaction manager for store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// RunInTransaction executes fn at read committed.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransactionWithOptions(ctx, tx.DefaultOptions(), fn)
}

// ReadOnly executes fn in a read-only transaction.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransactionWithOptions(ctx, tx.ReadOnlyOptions(), fn)
}

// RunInTransactionWithOptions executes fn in a transaction at opts.
func (m *TxManager) RunInTransactionWithOptions(ctx context.Context, opts tx.Options, fn func(ctx context.Context) error) error {
	if err := opts.Isolation.Validate(); err != nil {
		return apperror.NewValidation(err.Error())
	}

	if existing := txFrom(ctx); existing != nil {
		if err := tx.CheckNested(tx.Info{Isolation: existing.opts.Isolation, ReadOnly: existing.opts.ReadOnly}, opts); err != nil {
			return apperror.NewTxRequired("nested transaction", "a compatible outer transaction").WithCause(err)
		}
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(
			attribute.String("tx.isolation", string(opts.Isolation)),
			attribute.Bool("tx.read_only", opts.ReadOnly),
		))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return translate(err)
	}

	t := newMemTx(opts)
	txCtx := context.WithValue(ctx, txKey{}, t)
	txCtx = tx.WithInfo(txCtx, tx.Info{Isolation: opts.Isolation, ReadOnly: opts.ReadOnly})

	if err := fn(txCtx); err != nil {
		// Buffered writes are dropped with t.
		return translate(err)
	}
	if err := ctx.Err(); err != nil {
		logger.Warn(ctx, "transaction cancelled before commit", "error", err)
		return translate(err)
	}
	if opts.ReadOnly {
		return nil
	}
	if err := m.store.commit(t); err != nil {
		span.RecordError(err)
		return translate(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// translate maps store failures onto the apperror taxonomy.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}
	var stale *tx.StaleWriteError
	switch {
	case errors.As(err, &stale):
		return tx.TranslateStaleWrite(err)
	case errors.Is(err, ErrSerializationFailure):
		return apperror.NewSerializationConflict(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperror.NewInfrastructure("transaction", err)
	default:
		return err
	}
}

// write runs fn against the transaction in ctx, or in a short
// autocommit transaction when ctx carries none.
func (s *Store) write(ctx context.Context, op string, fn func(t *memTx) error) error {
	if t := txFrom(ctx); t != nil {
		if t.opts.ReadOnly {
			return apperror.NewTxRequired(op, "a read-write transaction")
		}
		return fn(t)
	}
	t := newMemTx(tx.DefaultOptions())
	if err := fn(t); err != nil {
		return err
	}
	return translate(s.commit(t))
}

func staleEntry(entryID id.ID) error {
	return tx.NewStaleWrite(entity.EntityLedgerEntry, entryID)
}
