package posting

import (
	"time"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/id"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/types"
)

// DefaultDocumentType numbers plain journal vouchers.
const DefaultDocumentType = "JV"

// ReversalDocumentType numbers reversal entries.
const ReversalDocumentType = "RJV"

// LineInput is one proposed debit or credit.
type LineInput struct {
	AccountID int64       `json:"accountId" validate:"required,gt=0"`
	Debit     types.Money `json:"debit"`
	Credit    types.Money `json:"credit"`
	Memo      string      `json:"memo" validate:"max=250"`
}

// Input describes an entry to post or to save as draft.
type Input struct {
	DocumentType string      `json:"documentType" validate:"omitempty,uppercase,max=10"`
	FiscalYearID int64       `json:"fiscalYearId" validate:"required,gt=0"`
	Date         time.Time   `json:"date" validate:"required"`
	Description  string      `json:"description" validate:"max=500"`
	Lines        []LineInput `json:"lines" validate:"dive"`
}

func (in Input) documentType() string {
	if in.DocumentType == "" {
		return DefaultDocumentType
	}
	return in.DocumentType
}

// toLines builds unsaved lines; ids are assigned when the entry is created.
func (in Input) toLines() []entity.LedgerLine {
	lines := make([]entity.LedgerLine, len(in.Lines))
	for i, l := range in.Lines {
		lines[i] = entity.LedgerLine{
			LineNo:    i + 1,
			AccountID: l.AccountID,
			Debit:     l.Debit,
			Credit:    l.Credit,
			Memo:      l.Memo,
		}
	}
	return lines
}

// ReverseInput asks for a posted entry to be cancelled by a mirror entry.
type ReverseInput struct {
	EntryID         id.ID     `json:"entryId" validate:"required"`
	ExpectedVersion int64     `json:"expectedVersion" validate:"gte=0"`
	Date            time.Time `json:"date" validate:"required"`
	// FiscalYearID of the reversal; zero reuses the original entry's year.
	FiscalYearID int64  `json:"fiscalYearId" validate:"gte=0"`
	Reason       string `json:"reason" validate:"required,max=500"`
}

// reversalLines swaps debit and credit on every line.
func reversalLines(original []entity.LedgerLine) []entity.LedgerLine {
	lines := make([]entity.LedgerLine, len(original))
	for i, l := range original {
		lines[i] = entity.LedgerLine{
			LineNo:    i + 1,
			AccountID: l.AccountID,
			Debit:     l.Credit,
			Credit:    l.Debit,
			Memo:      l.Memo,
		}
	}
	return lines
}
