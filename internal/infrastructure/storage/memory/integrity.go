package memory

import (
	"context"
	"sort"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/id"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/types"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/integrity"
)

var _ integrity.Repository = (*Store)(nil)

// postedEntries returns copies of every entry that counts in the ledger,
// with the caller's own pending writes applied.
func (s *Store) postedEntries(ctx context.Context) []*entity.LedgerEntry {
	t := txFrom(ctx)

	s.mu.Lock()
	view := make(map[id.ID]*entity.LedgerEntry, len(s.entries))
	for k, e := range s.entries {
		view[k] = e
	}
	if t != nil {
		t.observe(rowRef{tableEntries, scanKey}, s.stamp(rowRef{tableEntries, scanKey}))
	}
	s.mu.Unlock()

	if t != nil {
		for k, e := range t.entries {
			view[k] = e
		}
	}

	out := make([]*entity.LedgerEntry, 0, len(view))
	for _, e := range view {
		if e.Status.IsPosted() {
			out = append(out, copyEntry(e))
		}
	}
	return out
}

// AccountTotals sums lines per account.
func (s *Store) AccountTotals(ctx context.Context) ([]integrity.AccountTotal, error) {
	byAccount := make(map[int64]*integrity.AccountTotal)
	for _, e := range s.postedEntries(ctx) {
		for _, l := range e.Lines {
			row, ok := byAccount[l.AccountID]
			if !ok {
				row = &integrity.AccountTotal{AccountID: l.AccountID, Debit: types.Zero(), Credit: types.Zero()}
				byAccount[l.AccountID] = row
			}
			row.Debit = row.Debit.Add(l.Debit)
			row.Credit = row.Credit.Add(l.Credit)
		}
	}
	out := make([]integrity.AccountTotal, 0, len(byAccount))
	for _, row := range byAccount {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

// EntryTotals sums lines per entry.
func (s *Store) EntryTotals(ctx context.Context) ([]integrity.EntryTotal, error) {
	entries := s.postedEntries(ctx)
	out := make([]integrity.EntryTotal, 0, len(entries))
	for _, e := range entries {
		debit, credit := e.Totals()
		out = append(out, integrity.EntryTotal{EntryID: e.ID, Number: e.Number, Debit: debit, Credit: credit})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// MovementTotals sums quantities per key and movement type.
func (s *Store) MovementTotals(ctx context.Context) ([]integrity.MovementTotal, error) {
	type groupKey struct {
		stock entity.StockKey
		mt    entity.MovementType
	}
	t := txFrom(ctx)

	s.mu.Lock()
	movements := append([]entity.InventoryMovement(nil), s.movements...)
	if t != nil {
		t.observe(rowRef{tableMovements, scanKey}, s.stamp(rowRef{tableMovements, scanKey}))
	}
	s.mu.Unlock()
	if t != nil {
		movements = append(movements, t.movements...)
	}

	groups := make(map[groupKey]types.Quantity)
	for _, m := range movements {
		k := groupKey{m.StockKey, m.MovementType}
		groups[k] = groups[k].Add(m.Quantity)
	}
	out := make([]integrity.MovementTotal, 0, len(groups))
	for k, q := range groups {
		out = append(out, integrity.MovementTotal{StockKey: k.stock, MovementType: k.mt, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		if a.WarehouseID != b.WarehouseID {
			return a.WarehouseID < b.WarehouseID
		}
		return a.MovementType < b.MovementType
	})
	return out, nil
}

// StockSnapshots returns every stored quantity.
func (s *Store) StockSnapshots(ctx context.Context) ([]entity.StockSnapshot, error) {
	t := txFrom(ctx)

	s.mu.Lock()
	view := make(map[entity.StockKey]types.Quantity, len(s.snapshots))
	for k, q := range s.snapshots {
		view[k] = q
	}
	if t != nil {
		t.observe(rowRef{tableSnapshots, scanKey}, s.stamp(rowRef{tableSnapshots, scanKey}))
	}
	s.mu.Unlock()
	if t != nil {
		for k, q := range t.snapshots {
			view[k] = q
		}
	}

	out := make([]entity.StockSnapshot, 0, len(view))
	for k, q := range view {
		out = append(out, entity.StockSnapshot{StockKey: k, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].WarehouseID < out[j].WarehouseID
	})
	return out, nil
}
