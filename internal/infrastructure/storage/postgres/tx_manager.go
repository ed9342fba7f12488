package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/tx"
	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

var tracer = otel.Tracer("ledger/postgres/tx")

var _ tx.Manager = (*TxManager)(nil)

// DefaultStatementTimeout protects against runaway queries.
const DefaultStatementTimeout = 30 * time.Second

// TxManager runs units of work in PostgreSQL transactions. The active
// transaction travels in the context; a nested call joins it when the
// requested options are compatible.
type TxManager struct {
	pool             *pgxpool.Pool
	statementTimeout time.Duration
}

// NewTxManager creates a transaction manager. A zero timeout uses
// DefaultStatementTimeout; a negative one disables it.
func NewTxManager(pool *Pool, statementTimeout time.Duration) *TxManager {
	if statementTimeout == 0 {
		statementTimeout = DefaultStatementTimeout
	}
	return &TxManager{pool: pool.Pool, statementTimeout: statementTimeout}
}

type txKey struct{}

// Tx wraps pgx.Tx with the options it was opened with.
type Tx struct {
	pgx.Tx
	opts tx.Options
}

// RunInTransaction runs fn at read committed.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransactionWithOptions(ctx, tx.DefaultOptions(), fn)
}

// ReadOnly runs fn in a read-only transaction.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransactionWithOptions(ctx, tx.ReadOnlyOptions(), fn)
}

// RunInTransactionWithOptions runs fn in a transaction with opts. Errors are
// translated once, at the outermost level.
func (m *TxManager) RunInTransactionWithOptions(ctx context.Context, opts tx.Options, fn func(ctx context.Context) error) error {
	if err := opts.Isolation.Validate(); err != nil {
		return apperror.NewValidation(err.Error())
	}

	if existing := m.GetTx(ctx); existing != nil {
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

	err := Translate("transaction", m.run(ctx, opts, fn))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperror.KindOf(err).String())
	}
	return err
}

func (m *TxManager) run(ctx context.Context, opts tx.Options, fn func(ctx context.Context) error) error {
	pgTx, err := m.pool.BeginTx(ctx, pgxOptions(opts))
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if m.statementTimeout > 0 {
		_, err = pgTx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", m.statementTimeout.Milliseconds()))
		if err != nil {
			rollback(ctx, pgTx, err)
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	txCtx := context.WithValue(ctx, txKey{}, &Tx{Tx: pgTx, opts: opts})
	txCtx = tx.WithInfo(txCtx, tx.Info{Isolation: opts.Isolation, ReadOnly: opts.ReadOnly})

	if err := fn(txCtx); err != nil {
		rollback(ctx, pgTx, err)
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// rollback uses a background context so it completes even when ctx was cancelled.
func rollback(ctx context.Context, pgTx pgx.Tx, cause error) {
	if rbErr := pgTx.Rollback(context.Background()); rbErr != nil {
		logger.Error(ctx, "rollback failed", "error", rbErr, "original_error", cause)
	}
}

func pgxOptions(opts tx.Options) pgx.TxOptions {
	out := pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	}
	switch opts.Isolation {
	case tx.RepeatableRead:
		out.IsoLevel = pgx.RepeatableRead
	case tx.Serializable:
		out.IsoLevel = pgx.Serializable
	}
	if opts.ReadOnly {
		out.AccessMode = pgx.ReadOnly
	}
	return out
}

// GetTx returns the transaction carried by ctx, or nil.
func (m *TxManager) GetTx(ctx context.Context) *Tx {
	if t, ok := ctx.Value(txKey{}).(*Tx); ok {
		return t
	}
	return nil
}

// Querier is satisfied by both pgx.Tx and the pool, so repositories work
// inside and outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetQuerier returns the transaction in ctx or the pool.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := m.GetTx(ctx); t != nil {
		return t.Tx
	}
	return m.pool
}
