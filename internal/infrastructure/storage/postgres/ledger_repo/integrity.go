package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/integrity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/storage/postgres"
)

// countedStatuses are the entry statuses that take part in the ledger.
var countedStatuses = []string{string(entity.EntryPosted), string(entity.EntryReversed)}

func (r *Repo) accountTotalsQuery() squirrel.SelectBuilder {
	return r.builder.
		Select("l.account_id", "SUM(l.debit) AS debit", "SUM(l.credit) AS credit").
		From(linesTable + " l").
		Join(entriesTable + " e ON e.id = l.entry_id").
		Where(squirrel.Eq{"e.status": countedStatuses}).
		GroupBy("l.account_id").
		OrderBy("l.account_id")
}

func (r *Repo) entryTotalsQuery() squirrel.SelectBuilder {
	return r.builder.
		Select("e.id AS entry_id", "e.number",
			"COALESCE(SUM(l.debit), 0) AS debit", "COALESCE(SUM(l.credit), 0) AS credit").
		From(entriesTable + " e").
		LeftJoin(linesTable + " l ON l.entry_id = e.id").
		Where(squirrel.Eq{"e.status": countedStatuses}).
		GroupBy("e.id", "e.number")
}

func (r *Repo) movementTotalsQuery() squirrel.SelectBuilder {
	return r.builder.
		Select("product_id", "warehouse_id", "movement_type", "SUM(quantity_base) AS quantity").
		From(movementsTable).
		GroupBy("product_id", "warehouse_id", "movement_type")
}

// AccountTotals sums posted lines per account.
func (r *Repo) AccountTotals(ctx context.Context) ([]integrity.AccountTotal, error) {
	var rows []integrity.AccountTotal
	if err := r.selectAll(ctx, "account totals", r.accountTotalsQuery(), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// EntryTotals sums lines per posted entry.
func (r *Repo) EntryTotals(ctx context.Context) ([]integrity.EntryTotal, error) {
	var rows []integrity.EntryTotal
	if err := r.selectAll(ctx, "entry totals", r.entryTotalsQuery(), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// MovementTotals sums movement quantities per key and movement type.
func (r *Repo) MovementTotals(ctx context.Context) ([]integrity.MovementTotal, error) {
	var rows []integrity.MovementTotal
	if err := r.selectAll(ctx, "movement totals", r.movementTotalsQuery(), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// StockSnapshots returns every stored running quantity.
func (r *Repo) StockSnapshots(ctx context.Context) ([]entity.StockSnapshot, error) {
	var rows []entity.StockSnapshot
	q := r.builder.Select(postgres.DBColumns[entity.StockSnapshot]()...).From(snapshotsTable)
	if err := r.selectAll(ctx, "stock snapshots", q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repo) selectAll(ctx context.Context, what string, q squirrel.SelectBuilder, dst any) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build %s query: %w", what, err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), dst, sql, args...); err != nil {
		return postgres.Translate("load "+what, err)
	}
	return nil
}
