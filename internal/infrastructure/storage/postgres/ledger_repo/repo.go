// Package ledger_repo provides the PostgreSQL repositories of the ledger core.
package ledger_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/numerator"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/audit"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/integrity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/posting"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/storage/postgres"
)

const (
	fiscalYearsTable = "fiscal_years"
	sequencesTable   = "sys_sequences"
	entriesTable     = "ledger_entries"
	linesTable       = "ledger_lines"
	auditTable       = "sys_audit"
	movementsTable   = "inventory_movements"
	snapshotsTable   = "stock_snapshots"
)

var (
	_ numerator.Store      = (*Repo)(nil)
	_ posting.Repository   = (*Repo)(nil)
	_ audit.Repository     = (*Repo)(nil)
	_ integrity.Repository = (*Repo)(nil)
)

// Repo implements every ledger repository on one TxManager. Each method
// runs on the transaction carried by ctx, or on the pool when there is none.
type Repo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
	details *detailsCodec
}

// Option configures a Repo.
type Option func(*options)

type options struct {
	compressThreshold int
}

// WithCompressThreshold sets the size in bytes above which audit details
// are stored zstd-compressed. Zero or less keeps the default.
func WithCompressThreshold(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.compressThreshold = n
		}
	}
}

// New creates the repository.
func New(txm *postgres.TxManager, opts ...Option) (*Repo, error) {
	o := options{compressThreshold: DefaultCompressThreshold}
	for _, opt := range opts {
		opt(&o)
	}
	codec, err := newDetailsCodec(o.compressThreshold)
	if err != nil {
		return nil, err
	}
	return &Repo{
		txm:     txm,
		builder: newBuilder(),
		details: codec,
	}, nil
}

func newBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *Repo) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}
