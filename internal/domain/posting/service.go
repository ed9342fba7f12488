package posting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	appctx "github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/context"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/id"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/numerator"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/tx"
	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

// Service posts, drafts and reverses ledger entries.
//
// Every write path runs in exactly one transaction. Postings use
// serializable isolation so that number allocation, the entry insert and
// the audit append commit together or not at all.
type Service struct {
	repo     Repository
	txm      tx.Manager
	numbers  numerator.Generator
	audit    AuditAppender
	validate *validator.Validate
	now      func() time.Time
}

// NewService creates a posting service.
func NewService(repo Repository, txm tx.Manager, numbers numerator.Generator, audit AuditAppender) *Service {
	return &Service{
		repo:     repo,
		txm:      txm,
		numbers:  numbers,
		audit:    audit,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PostEntry validates and posts a new entry in one serializable transaction.
func (s *Service) PostEntry(ctx context.Context, in Input) (*entity.LedgerEntry, error) {
	if err := s.checkInput(in); err != nil {
		return nil, err
	}
	lines := in.toLines()
	totals, err := Validate(lines)
	if err != nil {
		logger.Warn(ctx, "posting rejected", "error", err)
		return nil, err
	}

	var posted *entity.LedgerEntry
	err = s.txm.RunInTransactionWithOptions(ctx, tx.SerializableOptions(), func(ctx context.Context) error {
		fy, err := s.openFiscalYear(ctx, in.FiscalYearID, in.Date)
		if err != nil {
			return err
		}
		number, err := s.numbers.NextNumberAt(ctx, in.documentType(), fy.ID, in.Date)
		if err != nil {
			return err
		}

		now := s.now()
		entry := &entity.LedgerEntry{
			ID:           id.New(),
			Number:       number,
			DocumentType: in.documentType(),
			FiscalYearID: fy.ID,
			Date:         in.Date,
			Description:  in.Description,
			Status:       entity.EntryPosted,
			Version:      1,
			CreatedBy:    appctx.Actor(ctx),
			CreatedAt:    now,
			PostedAt:     &now,
		}
		attachLines(entry, lines)

		if err := s.repo.CreateEntry(ctx, entry); err != nil {
			return fmt.Errorf("create ledger entry: %w", err)
		}
		if err := s.audit.AppendChange(ctx, entity.EntityLedgerEntry, entry.ID.String(),
			entity.AuditActionPosted, postedDetails(entry, totals)); err != nil {
			return err
		}
		posted = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "ledger entry posted",
		"entry_id", posted.ID,
		"number", posted.Number,
		"debit", totals.Debit.String(),
		"lines", len(posted.Lines),
	)
	return posted, nil
}

// CreateDraft stores an unnumbered draft. Drafts may be unbalanced.
func (s *Service) CreateDraft(ctx context.Context, in Input) (*entity.LedgerEntry, error) {
	if err := s.checkInput(in); err != nil {
		return nil, err
	}
	lines := in.toLines()
	if err := checkAmounts(lines); err != nil {
		return nil, err
	}

	var draft *entity.LedgerEntry
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.openFiscalYear(ctx, in.FiscalYearID, in.Date); err != nil {
			return err
		}
		entry := &entity.LedgerEntry{
			ID:           id.New(),
			DocumentType: in.documentType(),
			FiscalYearID: in.FiscalYearID,
			Date:         in.Date,
			Description:  in.Description,
			Status:       entity.EntryDraft,
			Version:      1,
			CreatedBy:    appctx.Actor(ctx),
			CreatedAt:    s.now(),
		}
		attachLines(entry, lines)

		if err := s.repo.CreateEntry(ctx, entry); err != nil {
			return fmt.Errorf("create draft: %w", err)
		}
		if err := s.audit.AppendChange(ctx, entity.EntityLedgerEntry, entry.ID.String(),
			entity.AuditActionCreated, map[string]any{"lines": len(entry.Lines)}); err != nil {
			return err
		}
		draft = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return draft, nil
}

// PostDraft numbers and posts a draft. expectedVersion is the version the
// caller last saw; a mismatch is a ConcurrencyConflict.
func (s *Service) PostDraft(ctx context.Context, entryID id.ID, expectedVersion int64) (*entity.LedgerEntry, error) {
	// The invariant is checked against a committed read before any write.
	draft, err := s.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := checkDraft(draft, expectedVersion); err != nil {
		return nil, err
	}
	totals, err := Validate(draft.Lines)
	if err != nil {
		logger.Warn(ctx, "draft posting rejected", "entry_id", entryID, "error", err)
		return nil, err
	}

	var posted *entity.LedgerEntry
	err = s.txm.RunInTransactionWithOptions(ctx, tx.SerializableOptions(), func(ctx context.Context) error {
		entry, err := s.repo.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if err := checkDraft(entry, expectedVersion); err != nil {
			return err
		}
		if current := sum(entry.Lines); !current.Debit.Equal(totals.Debit) || !current.Credit.Equal(totals.Credit) {
			return apperror.NewConcurrentModification(entity.EntityLedgerEntry, entryID)
		}
		fy, err := s.openFiscalYear(ctx, entry.FiscalYearID, entry.Date)
		if err != nil {
			return err
		}
		number, err := s.numbers.NextNumberAt(ctx, entry.DocumentType, fy.ID, entry.Date)
		if err != nil {
			return err
		}

		now := s.now()
		entry.Number = number
		entry.Status = entity.EntryPosted
		entry.PostedAt = &now
		if err := s.repo.UpdateEntry(ctx, entry); err != nil {
			return fmt.Errorf("post draft: %w", err)
		}
		if err := s.audit.AppendChange(ctx, entity.EntityLedgerEntry, entry.ID.String(),
			entity.AuditActionPosted, postedDetails(entry, totals)); err != nil {
			return err
		}
		posted = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "draft posted", "entry_id", posted.ID, "number", posted.Number)
	return posted, nil
}

// ReverseEntry cancels a posted entry with a mirror entry (debits and
// credits swapped) and marks the original Reversed, in one transaction.
func (s *Service) ReverseEntry(ctx context.Context, in ReverseInput) (*entity.LedgerEntry, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	var reversal *entity.LedgerEntry
	err := s.txm.RunInTransactionWithOptions(ctx, tx.SerializableOptions(), func(ctx context.Context) error {
		original, err := s.repo.GetEntry(ctx, in.EntryID)
		if err != nil {
			return err
		}
		if !original.Status.CanTransition(entity.EntryReversed) {
			return apperror.NewInvalidStatus(entity.EntityLedgerEntry, string(original.Status), string(entity.EntryReversed))
		}
		if in.ExpectedVersion != 0 && original.Version != in.ExpectedVersion {
			return apperror.NewConcurrentModification(entity.EntityLedgerEntry, original.ID)
		}

		lines := reversalLines(original.Lines)
		totals, err := Validate(lines)
		if err != nil {
			return err
		}

		fyID := in.FiscalYearID
		if fyID == 0 {
			fyID = original.FiscalYearID
		}
		fy, err := s.openFiscalYear(ctx, fyID, in.Date)
		if err != nil {
			return err
		}
		number, err := s.numbers.NextNumberAt(ctx, ReversalDocumentType, fy.ID, in.Date)
		if err != nil {
			return err
		}

		now := s.now()
		rev := &entity.LedgerEntry{
			ID:           id.New(),
			Number:       number,
			DocumentType: ReversalDocumentType,
			FiscalYearID: fy.ID,
			Date:         in.Date,
			Description:  fmt.Sprintf("Reversal of %s: %s", original.Number, in.Reason),
			Status:       entity.EntryPosted,
			ReversalOf:   &original.ID,
			Version:      1,
			CreatedBy:    appctx.Actor(ctx),
			CreatedAt:    now,
			PostedAt:     &now,
		}
		attachLines(rev, lines)
		if err := s.repo.CreateEntry(ctx, rev); err != nil {
			return fmt.Errorf("create reversal: %w", err)
		}

		original.Status = entity.EntryReversed
		original.ReversedBy = &rev.ID
		if err := s.repo.UpdateEntry(ctx, original); err != nil {
			return fmt.Errorf("mark reversed: %w", err)
		}

		if err := s.audit.AppendChange(ctx, entity.EntityLedgerEntry, rev.ID.String(),
			entity.AuditActionPosted, postedDetails(rev, totals)); err != nil {
			return err
		}
		if err := s.audit.AppendChange(ctx, entity.EntityLedgerEntry, original.ID.String(),
			entity.AuditActionReversed, map[string]any{
				"reversed_by": rev.Number,
				"reason":      in.Reason,
			}); err != nil {
			return err
		}
		reversal = rev
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "ledger entry reversed", "entry_id", in.EntryID, "reversal", reversal.Number)
	return reversal, nil
}

// GetEntry loads an entry in a read-only transaction.
func (s *Service) GetEntry(ctx context.Context, entryID id.ID) (*entity.LedgerEntry, error) {
	var out *entity.LedgerEntry
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.GetEntry(ctx, entryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) checkInput(in Input) error {
	if err := s.validate.Struct(in); err != nil {
		return validationError(err)
	}
	return nil
}

// openFiscalYear resolves the year and checks that date may be posted into it.
func (s *Service) openFiscalYear(ctx context.Context, fiscalYearID int64, date time.Time) (*entity.FiscalYear, error) {
	fy, err := s.repo.GetFiscalYear(ctx, fiscalYearID)
	if err != nil {
		return nil, err
	}
	if !fy.IsOpen() {
		return nil, apperror.NewPeriodClosed(fy.Label)
	}
	if !fy.Contains(date) {
		return nil, apperror.NewValidation("entry date is outside the fiscal year").
			WithDetail("fiscal_year", fy.Label).
			WithDetail("date", date.Format(time.DateOnly))
	}
	return fy, nil
}

func checkDraft(e *entity.LedgerEntry, expectedVersion int64) error {
	if e.Status != entity.EntryDraft {
		return apperror.NewInvalidStatus(entity.EntityLedgerEntry, string(e.Status), string(entity.EntryPosted))
	}
	if expectedVersion != 0 && e.Version != expectedVersion {
		return apperror.NewConcurrentModification(entity.EntityLedgerEntry, e.ID)
	}
	return nil
}

func attachLines(e *entity.LedgerEntry, lines []entity.LedgerLine) {
	for i := range lines {
		lines[i].ID = id.New()
		lines[i].EntryID = e.ID
		lines[i].LineNo = i + 1
	}
	e.Lines = lines
}

func postedDetails(e *entity.LedgerEntry, totals Totals) map[string]any {
	return map[string]any{
		"number": e.Number,
		"date":   e.Date.Format(time.DateOnly),
		"debit":  totals.Debit.String(),
		"credit": totals.Credit.String(),
		"lines":  len(e.Lines),
	}
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		appErr := apperror.NewValidation("invalid input")
		for _, fe := range verrs {
			appErr.WithDetail(fe.Namespace(), fe.Tag())
		}
		return appErr
	}
	return apperror.NewValidation(err.Error())
}
