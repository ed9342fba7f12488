// Package integrity re-derives ledger and inventory invariants from source
// records and reports drift. Checks are read-only and never correct data.
package integrity

import (
	"context"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/id"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/types"
)

// AccountTotal is the debit and credit sum of one account over posted entries.
type AccountTotal struct {
	AccountID int64       `db:"account_id"`
	Debit     types.Money `db:"debit"`
	Credit    types.Money `db:"credit"`
}

// EntryTotal is the debit and credit sum of one posted entry.
type EntryTotal struct {
	EntryID id.ID       `db:"entry_id"`
	Number  string      `db:"number"`
	Debit   types.Money `db:"debit"`
	Credit  types.Money `db:"credit"`
}

// MovementTotal is the summed quantity of one movement type for a key.
type MovementTotal struct {
	entity.StockKey
	MovementType entity.MovementType `db:"movement_type"`
	Quantity     types.Quantity      `db:"quantity"`
}

// Repository exposes the aggregates the checks compare. Only entries whose
// status counts in the ledger (posted or reversed) are included.
type Repository interface {
	AccountTotals(ctx context.Context) ([]AccountTotal, error)
	EntryTotals(ctx context.Context) ([]EntryTotal, error)
	MovementTotals(ctx context.Context) ([]MovementTotal, error)
	StockSnapshots(ctx context.Context) ([]entity.StockSnapshot, error)
}
