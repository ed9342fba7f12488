package entity

import (
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/types"
)

// MovementType categorises an inventory movement.
type MovementType string

const (
	MovementPurchaseIn     MovementType = "PurchaseIn"
	MovementSalesReturn    MovementType = "SalesReturn"
	MovementAdjustmentIn   MovementType = "AdjustmentIn"
	MovementTransferIn     MovementType = "TransferIn"
	MovementOpeningBalance MovementType = "OpeningBalance"

	MovementSalesOut       MovementType = "SalesOut"
	MovementPurchaseReturn MovementType = "PurchaseReturn"
	MovementAdjustmentOut  MovementType = "AdjustmentOut"
	MovementTransferOut    MovementType = "TransferOut"
)

// IsIncoming reports whether the movement adds stock.
// Every type not listed here is outgoing.
func (t MovementType) IsIncoming() bool {
	switch t {
	case MovementPurchaseIn, MovementSalesReturn, MovementAdjustmentIn,
		MovementTransferIn, MovementOpeningBalance:
		return true
	default:
		return false
	}
}

// StockKey identifies a product in a warehouse.
type StockKey struct {
	ProductID   int64 `db:"product_id" json:"productId"`
	WarehouseID int64 `db:"warehouse_id" json:"warehouseId"`
}

// InventoryMovement is a source event for stock quantities.
type InventoryMovement struct {
	StockKey
	ID           int64          `db:"id" json:"id"`
	MovementType MovementType   `db:"movement_type" json:"movementType"`
	Quantity     types.Quantity `db:"quantity_base" json:"quantity"`
}

// StockSnapshot is the stored running quantity for a key.
type StockSnapshot struct {
	StockKey
	Quantity types.Quantity `db:"quantity" json:"quantity"`
}
