// Package memory is an in-process transactional store for the ledger core.
//
// Transactions buffer their writes and remember the commit stamp of every
// row they read. Commit validates under a single lock: a versioned update
// whose row moved fails with a stale write, and a serializable or repeatable
// read transaction whose read set changed fails with ErrSerializationFailure.
// This mirrors the conflict behaviour of PostgreSQL closely enough to test
// concurrent allocation and posting without a database.
package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/id"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/types"
)

// ErrSerializationFailure is returned by commit when a concurrent
// transaction changed something this transaction read.
var ErrSerializationFailure = errors.New("memory: could not serialize access due to concurrent update")

// ErrDuplicateKey is returned when an insert collides with a committed row.
var ErrDuplicateKey = errors.New("memory: duplicate key")

const (
	tableFiscalYears = "fiscal_years"
	tableCounters    = "sys_sequences"
	tableEntries     = "ledger_entries"
	tableAudit       = "sys_audit"
	tableMovements   = "inventory_movements"
	tableSnapshots   = "stock_snapshots"

	// scanKey is stamped on every commit that writes a table, so scans
	// can be validated like point reads.
	scanKey = "*"
)

type rowRef struct {
	table string
	key   string
}

func counterRef(k entity.SequenceKey) rowRef {
	return rowRef{tableCounters, fmt.Sprintf("%s|%d|%s", k.DocumentType, k.FiscalYearID, k.Period)}
}

func entryRef(v id.ID) rowRef {
	return rowRef{tableEntries, v.String()}
}

func fiscalYearRef(v int64) rowRef {
	return rowRef{tableFiscalYears, fmt.Sprint(v)}
}

func snapshotRef(k entity.StockKey) rowRef {
	return rowRef{tableSnapshots, fmt.Sprintf("%d|%d", k.ProductID, k.WarehouseID)}
}

// Store holds the committed state.
type Store struct {
	mu     sync.Mutex
	clock  int64
	stamps map[rowRef]int64

	fiscalYears map[int64]entity.FiscalYear
	counters    map[entity.SequenceKey]entity.SequenceCounter
	entries     map[id.ID]*entity.LedgerEntry
	audit       []entity.AuditRecord
	movements   []entity.InventoryMovement
	snapshots   map[entity.StockKey]types.Quantity
	movementSeq int64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		stamps:      make(map[rowRef]int64),
		fiscalYears: make(map[int64]entity.FiscalYear),
		counters:    make(map[entity.SequenceKey]entity.SequenceCounter),
		entries:     make(map[id.ID]*entity.LedgerEntry),
		snapshots:   make(map[entity.StockKey]types.Quantity),
	}
}

// stamp returns the commit stamp of a row; callers hold mu.
func (s *Store) stamp(ref rowRef) int64 {
	return s.stamps[ref]
}

// commit validates and applies t. It is the only place committed state changes.
func (s *Store) commit(t *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for entryID, expected := range t.versionChecks {
		if current, ok := s.entries[entryID]; !ok || current.Version != expected {
			return staleEntry(entryID)
		}
	}
	if t.validatesReads() {
		for ref, seen := range t.reads {
			if s.stamp(ref) != seen {
				return ErrSerializationFailure
			}
		}
	}
	for entryID := range t.inserted {
		if _, exists := s.entries[entryID]; exists {
			return fmt.Errorf("insert ledger entry %s: %w", entryID, ErrDuplicateKey)
		}
	}

	s.clock++
	touched := make(map[string]bool)
	touch := func(ref rowRef) {
		s.stamps[ref] = s.clock
		touched[ref.table] = true
	}

	for k, fy := range t.fiscalYears {
		s.fiscalYears[k] = fy
		touch(fiscalYearRef(k))
	}
	for k, c := range t.counters {
		s.counters[k] = c
		touch(counterRef(k))
	}
	for k, e := range t.entries {
		s.entries[k] = copyEntry(e)
		touch(entryRef(k))
	}
	if len(t.audit) > 0 {
		s.audit = append(s.audit, t.audit...)
		touched[tableAudit] = true
	}
	for _, m := range t.movements {
		s.movementSeq++
		m.ID = s.movementSeq
		s.movements = append(s.movements, m)
		touched[tableMovements] = true
	}
	for k, q := range t.snapshots {
		s.snapshots[k] = q
		touch(snapshotRef(k))
	}
	for table := range touched {
		s.stamps[rowRef{table, scanKey}] = s.clock
	}
	return nil
}

func copyEntry(e *entity.LedgerEntry) *entity.LedgerEntry {
	if e == nil {
		return nil
	}
	out := *e
	out.Lines = append([]entity.LedgerLine(nil), e.Lines...)
	if e.ReversalOf != nil {
		v := *e.ReversalOf
		out.ReversalOf = &v
	}
	if e.ReversedBy != nil {
		v := *e.ReversedBy
		out.ReversedBy = &v
	}
	if e.PostedAt != nil {
		v := *e.PostedAt
		out.PostedAt = &v
	}
	return &out
}
