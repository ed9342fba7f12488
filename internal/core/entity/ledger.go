package entity

import (
	"time"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/id"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/types"
)

// EntityLedgerEntry is the entity name used in audit records and conflicts.
const EntityLedgerEntry = "LedgerEntry"

// EntryStatus is the lifecycle of a ledger entry.
type EntryStatus string

const (
	EntryDraft    EntryStatus = "draft"
	EntryPosted   EntryStatus = "posted"
	EntryReversed EntryStatus = "reversed"
)

// CanTransition lists the only legal moves: Draft to Posted, Posted to Reversed.
func (s EntryStatus) CanTransition(to EntryStatus) bool {
	switch s {
	case EntryDraft:
		return to == EntryPosted
	case EntryPosted:
		return to == EntryReversed
	default:
		return false
	}
}

// IsPosted is true for entries that count in the ledger. A reversed entry
// stays in the ledger; its reversal cancels it out.
func (s EntryStatus) IsPosted() bool {
	return s == EntryPosted || s == EntryReversed
}

// LedgerEntry is one double-entry transaction.
type LedgerEntry struct {
	ID           id.ID       `db:"id" json:"id"`
	Number       string      `db:"number" json:"number"`
	DocumentType string      `db:"document_type" json:"documentType"`
	FiscalYearID int64       `db:"fiscal_year_id" json:"fiscalYearId"`
	Date         time.Time   `db:"entry_date" json:"date"`
	Description  string      `db:"description" json:"description"`
	Status       EntryStatus `db:"status" json:"status"`
	ReversalOf   *id.ID      `db:"reversal_of" json:"reversalOf,omitempty"`
	ReversedBy   *id.ID      `db:"reversed_by" json:"reversedBy,omitempty"`
	Version      int64       `db:"version" json:"version"`
	CreatedBy    string      `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	PostedAt     *time.Time  `db:"posted_at" json:"postedAt,omitempty"`

	Lines []LedgerLine `db:"-" json:"lines"`
}

// Totals sums debit and credit across the entry's lines.
func (e *LedgerEntry) Totals() (debit, credit types.Money) {
	debit, credit = types.Zero(), types.Zero()
	for _, l := range e.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// LedgerLine belongs to exactly one entry.
type LedgerLine struct {
	ID        id.ID       `db:"id" json:"id"`
	EntryID   id.ID       `db:"entry_id" json:"entryId"`
	LineNo    int         `db:"line_no" json:"lineNo"`
	AccountID int64       `db:"account_id" json:"accountId"`
	Debit     types.Money `db:"debit" json:"debit"`
	Credit    types.Money `db:"credit" json:"credit"`
	Memo      string      `db:"memo" json:"memo,omitempty"`
}
