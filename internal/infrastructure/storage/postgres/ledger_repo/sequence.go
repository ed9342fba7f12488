package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/storage/postgres"
)

const counterConflict = "ON CONFLICT (document_type, fiscal_year_id, period) DO UPDATE SET "

// GetFiscalYear loads a fiscal year.
func (r *Repo) GetFiscalYear(ctx context.Context, fiscalYearID int64) (*entity.FiscalYear, error) {
	sql, args, err := r.builder.
		Select(postgres.DBColumns[entity.FiscalYear]()...).
		From(fiscalYearsTable).
		Where(squirrel.Eq{"id": fiscalYearID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var fy entity.FiscalYear
	if err := pgxscan.Get(ctx, r.querier(ctx), &fy, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("FiscalYear", fiscalYearID)
		}
		return nil, postgres.Translate("get fiscal year", err)
	}
	return &fy, nil
}

// incrementQuery creates the counter at 1 or adds one to it, in a single
// statement that takes the row lock, and returns the new value.
func (r *Repo) incrementQuery(key entity.SequenceKey, prefix string) squirrel.InsertBuilder {
	return r.builder.Insert(sequencesTable).
		Columns("document_type", "fiscal_year_id", "period", "prefix", "last_value", "version").
		Values(key.DocumentType, key.FiscalYearID, key.Period, prefix, 1, 1).
		Suffix(counterConflict +
			"last_value = " + sequencesTable + ".last_value + 1, " +
			"version = " + sequencesTable + ".version + 1 " +
			"RETURNING last_value")
}

// Increment allocates the next value of key.
func (r *Repo) Increment(ctx context.Context, key entity.SequenceKey, prefix string) (int64, error) {
	sql, args, err := r.incrementQuery(key, prefix).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build upsert: %w", err)
	}

	var value int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&value); err != nil {
		return 0, postgres.Translate("increment sequence", err)
	}
	return value, nil
}

func (r *Repo) setLastValueQuery(key entity.SequenceKey, prefix string, value int64) squirrel.InsertBuilder {
	return r.builder.Insert(sequencesTable).
		Columns("document_type", "fiscal_year_id", "period", "prefix", "last_value", "version").
		Values(key.DocumentType, key.FiscalYearID, key.Period, prefix, value, 1).
		Suffix(counterConflict +
			"last_value = EXCLUDED.last_value, " +
			"prefix = EXCLUDED.prefix, " +
			"version = " + sequencesTable + ".version + 1")
}

// SetLastValue upserts the counter with an explicit value.
func (r *Repo) SetLastValue(ctx context.Context, key entity.SequenceKey, prefix string, value int64) error {
	sql, args, err := r.setLastValueQuery(key, prefix, value).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.Translate("set sequence value", err)
	}
	return nil
}

// GetCounter returns the stored counter for key.
func (r *Repo) GetCounter(ctx context.Context, key entity.SequenceKey) (*entity.SequenceCounter, error) {
	sql, args, err := r.builder.
		Select(postgres.DBColumns[entity.SequenceCounter]()...).
		From(sequencesTable).
		Where(squirrel.Eq{
			"document_type":  key.DocumentType,
			"fiscal_year_id": key.FiscalYearID,
			"period":         key.Period,
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var counter entity.SequenceCounter
	if err := pgxscan.Get(ctx, r.querier(ctx), &counter, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("SequenceCounter", key)
		}
		return nil, postgres.Translate("get sequence", err)
	}
	return &counter, nil
}
