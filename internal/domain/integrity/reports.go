package integrity

import (
	"time"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/id"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/types"
)

// AccountImbalance is an account whose own debit and credit sums differ.
type AccountImbalance struct {
	AccountID  int64       `json:"accountId"`
	Debit      types.Money `json:"debit"`
	Credit     types.Money `json:"credit"`
	Difference types.Money `json:"difference"`
}

// TrialBalanceReport is the global debit versus credit comparison.
type TrialBalanceReport struct {
	Healthy         bool               `json:"healthy"`
	TotalDebit      types.Money        `json:"totalDebit"`
	TotalCredit     types.Money        `json:"totalCredit"`
	Difference      types.Money        `json:"difference"`
	AccountsChecked int                `json:"accountsChecked"`
	Unbalanced      []AccountImbalance `json:"unbalancedAccounts"`
	CheckedAt       time.Time          `json:"checkedAt"`
}

// EntryImbalance is a posted entry whose lines do not balance.
type EntryImbalance struct {
	EntryID    id.ID       `json:"entryId"`
	Number     string      `json:"number"`
	Debit      types.Money `json:"debit"`
	Credit     types.Money `json:"credit"`
	Difference types.Money `json:"difference"`
}

// JournalBalanceReport is the per-entry balance check.
type JournalBalanceReport struct {
	Healthy         bool             `json:"healthy"`
	TotalChecked    int              `json:"totalChecked"`
	UnbalancedCount int              `json:"unbalancedCount"`
	Unbalanced      []EntryImbalance `json:"unbalancedEntries"`
	CheckedAt       time.Time        `json:"checkedAt"`
}

// StockDiscrepancy is a key whose stored quantity differs from its movements.
// Difference is Expected - Actual.
type StockDiscrepancy struct {
	ProductID   int64          `json:"productId"`
	WarehouseID int64          `json:"warehouseId"`
	Expected    types.Quantity `json:"expected"`
	Actual      types.Quantity `json:"actual"`
	Difference  types.Quantity `json:"difference"`
}

// InventoryReport is the stock reconciliation check.
type InventoryReport struct {
	Healthy           bool               `json:"healthy"`
	TotalChecked      int                `json:"totalChecked"`
	InconsistentCount int                `json:"inconsistentCount"`
	Discrepancies     []StockDiscrepancy `json:"discrepancies"`
	CheckedAt         time.Time          `json:"checkedAt"`
}

// FullReport aggregates the three checks.
type FullReport struct {
	Healthy        bool                  `json:"healthy"`
	TrialBalance   *TrialBalanceReport   `json:"trialBalance"`
	JournalBalance *JournalBalanceReport `json:"journalBalance"`
	Inventory      *InventoryReport      `json:"inventory"`
	CheckedAt      time.Time             `json:"checkedAt"`
}
