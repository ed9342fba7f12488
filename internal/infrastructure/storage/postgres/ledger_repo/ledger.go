package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/id"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/tx"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/storage/postgres"
)

// CreateEntry inserts the entry row and its lines.
func (r *Repo) CreateEntry(ctx context.Context, e *entity.LedgerEntry) error {
	sql, args, err := r.builder.Insert(entriesTable).SetMap(postgres.StructToMap(e)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.Translate("insert ledger entry", err)
	}
	return r.insertLines(ctx, e.Lines)
}

// insertLines uses COPY inside a transaction and a multi-row INSERT otherwise.
func (r *Repo) insertLines(ctx context.Context, lines []entity.LedgerLine) error {
	if len(lines) == 0 {
		return nil
	}
	columns := postgres.DBColumns[entity.LedgerLine]()

	if r.txm.GetTx(ctx) != nil {
		rows := make([][]any, len(lines))
		for i := range lines {
			rows[i] = postgres.DBValues(&lines[i])
		}
		if _, err := postgres.NewBatchInserter(r.txm).CopyFromSlice(ctx, linesTable, columns, rows); err != nil {
			return postgres.Translate("copy ledger lines", err)
		}
		return nil
	}

	q := r.builder.Insert(linesTable).Columns(columns...)
	for i := range lines {
		q = q.Values(postgres.DBValues(&lines[i])...)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.Translate("insert ledger lines", err)
	}
	return nil
}

// GetEntry loads an entry with its lines ordered by line number.
func (r *Repo) GetEntry(ctx context.Context, entryID id.ID) (*entity.LedgerEntry, error) {
	sql, args, err := r.builder.
		Select(postgres.DBColumns[entity.LedgerEntry]()...).
		From(entriesTable).
		Where(squirrel.Eq{"id": entryID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	q := r.querier(ctx)
	var e entity.LedgerEntry
	if err := pgxscan.Get(ctx, q, &e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(entity.EntityLedgerEntry, entryID)
		}
		return nil, postgres.Translate("get ledger entry", err)
	}

	sql, args, err = r.builder.
		Select(postgres.DBColumns[entity.LedgerLine]()...).
		From(linesTable).
		Where(squirrel.Eq{"entry_id": entryID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, q, &e.Lines, sql, args...); err != nil {
		return nil, postgres.Translate("get ledger lines", err)
	}
	return &e, nil
}

func (r *Repo) updateEntryQuery(e *entity.LedgerEntry) squirrel.UpdateBuilder {
	return r.builder.Update(entriesTable).
		Set("number", e.Number).
		Set("status", e.Status).
		Set("description", e.Description).
		Set("reversed_by", e.ReversedBy).
		Set("posted_at", e.PostedAt).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": e.ID}).
		Where(squirrel.Eq{"version": e.Version})
}

// UpdateEntry writes the mutable header fields when the stored version
// still equals e.Version, then bumps e.Version. Lines are immutable.
func (r *Repo) UpdateEntry(ctx context.Context, e *entity.LedgerEntry) error {
	sql, args, err := r.updateEntryQuery(e).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.Translate("update ledger entry", err)
	}
	if result.RowsAffected() == 0 {
		return tx.TranslateStaleWrite(tx.NewStaleWrite(entity.EntityLedgerEntry, e.ID))
	}
	e.Version++
	return nil
}
