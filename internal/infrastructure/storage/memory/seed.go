package memory

import (
	"context"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/types"
)

// The methods below load state the ledger core only reads: fiscal years,
// inventory movements and stock snapshots are owned by other modules.
// SeedEntry writes an entry as-is, bypassing the posting invariant, which
// is how drift and corruption are reproduced.

// AddFiscalYear inserts or replaces a fiscal year.
func (s *Store) AddFiscalYear(ctx context.Context, fy entity.FiscalYear) error {
	return s.write(ctx, "add fiscal year", func(t *memTx) error {
		t.fiscalYears[fy.ID] = fy
		return nil
	})
}

// SeedEntry stores an entry exactly as given.
func (s *Store) SeedEntry(ctx context.Context, e *entity.LedgerEntry) error {
	return s.write(ctx, "seed ledger entry", func(t *memTx) error {
		t.entries[e.ID] = copyEntry(e)
		return nil
	})
}

// AddMovement appends an inventory movement.
func (s *Store) AddMovement(ctx context.Context, m entity.InventoryMovement) error {
	return s.write(ctx, "add movement", func(t *memTx) error {
		t.movements = append(t.movements, m)
		return nil
	})
}

// SetSnapshot stores the running quantity for a key.
func (s *Store) SetSnapshot(ctx context.Context, key entity.StockKey, quantity types.Quantity) error {
	return s.write(ctx, "set snapshot", func(t *memTx) error {
		t.snapshots[key] = quantity
		return nil
	})
}
