// Package numerator allocates document numbers from persisted counters.
// It implements core/numerator.Generator.
package numerator

import (
	"context"
	"fmt"
	"time"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	corenumerator "github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/numerator"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/tx"
	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

// Service is the document number sequencer.
//
// Counter values are never cached in process memory: every allocation is a
// read-modify-write of the counter row inside the caller's serializable
// transaction, so two concurrent callers cannot both commit the same value.
type Service struct {
	store corenumerator.Store
	table corenumerator.Table
	now   func() time.Time
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a sequencer over store using the given numbering table.
func New(store corenumerator.Store, table corenumerator.Table) *Service {
	if table == nil {
		table = corenumerator.DefaultTable()
	}
	return &Service{
		store: store,
		table: table,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// NextNumber allocates a number dated now.
func (s *Service) NextNumber(ctx context.Context, documentType string, fiscalYearID int64) (string, error) {
	return s.NextNumberAt(ctx, documentType, fiscalYearID, s.now())
}

// NextNumberAt allocates the next number for (documentType, fiscalYearID)
// and the period of date.
func (s *Service) NextNumberAt(ctx context.Context, documentType string, fiscalYearID int64, date time.Time) (string, error) {
	if err := tx.RequireIsolation(ctx, "NextNumber", tx.Serializable); err != nil {
		return "", err
	}
	cfg, prefix, key, err := s.resolve(ctx, documentType, fiscalYearID, date)
	if err != nil {
		return "", err
	}

	value, err := s.store.Increment(ctx, key, prefix)
	if err != nil {
		return "", fmt.Errorf("increment %s counter: %w", documentType, err)
	}
	number := corenumerator.Format(prefix, cfg.Width, value)
	logger.Debug(ctx, "document number allocated", "document_type", documentType, "number", number)
	return number, nil
}

// SetNextNumber seeds a counter so the next allocation returns value.
func (s *Service) SetNextNumber(ctx context.Context, documentType string, fiscalYearID int64, date time.Time, value int64) error {
	if err := tx.RequireIsolation(ctx, "SetNextNumber", tx.Serializable); err != nil {
		return err
	}
	if value < 1 {
		return apperror.NewValidation("next number must be positive").WithDetail("value", value)
	}
	_, prefix, key, err := s.resolve(ctx, documentType, fiscalYearID, date)
	if err != nil {
		return err
	}
	if current, err := s.store.GetCounter(ctx, key); err == nil && current.LastValue >= value {
		return apperror.NewValidation("sequence cannot move backwards").
			WithDetail("last_value", current.LastValue).
			WithDetail("value", value)
	} else if err != nil && !apperror.IsNotFound(err) {
		return err
	}
	if err := s.store.SetLastValue(ctx, key, prefix, value-1); err != nil {
		return fmt.Errorf("seed %s counter: %w", documentType, err)
	}
	logger.Info(ctx, "sequence seeded", "document_type", documentType, "fiscal_year_id", fiscalYearID, "next", value)
	return nil
}

// resolve looks up the format and fiscal year and builds the counter key.
func (s *Service) resolve(ctx context.Context, documentType string, fiscalYearID int64, date time.Time) (corenumerator.Config, string, entity.SequenceKey, error) {
	cfg, err := s.table.Lookup(documentType)
	if err != nil {
		return corenumerator.Config{}, "", entity.SequenceKey{}, err
	}
	fy, err := s.store.GetFiscalYear(ctx, fiscalYearID)
	if err != nil {
		return corenumerator.Config{}, "", entity.SequenceKey{}, err
	}
	key := entity.SequenceKey{
		DocumentType: documentType,
		FiscalYearID: fy.ID,
		Period:       cfg.Period(date),
	}
	return cfg, cfg.Prefix(fy.Label, date), key, nil
}
