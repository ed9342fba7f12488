package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/id"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/tx"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/posting"
)

var _ posting.Repository = (*Store)(nil)

var readCommitted = tx.DefaultOptions()

// CreateEntry buffers the entry and its lines.
func (s *Store) CreateEntry(ctx context.Context, e *entity.LedgerEntry) error {
	return s.write(ctx, "create ledger entry", func(t *memTx) error {
		if _, ok := t.entries[e.ID]; ok {
			return fmt.Errorf("insert ledger entry %s: %w", e.ID, ErrDuplicateKey)
		}
		s.mu.Lock()
		_, exists := s.entries[e.ID]
		t.observe(entryRef(e.ID), s.stamp(entryRef(e.ID)))
		s.mu.Unlock()
		if exists {
			return fmt.Errorf("insert ledger entry %s: %w", e.ID, ErrDuplicateKey)
		}
		t.entries[e.ID] = copyEntry(e)
		t.inserted[e.ID] = true
		return nil
	})
}

// GetEntry returns the entry visible to the caller.
func (s *Store) GetEntry(ctx context.Context, entryID id.ID) (*entity.LedgerEntry, error) {
	t := txFrom(ctx)
	if t == nil {
		t = newMemTx(readCommitted)
	}
	e, ok := s.readEntry(t, entryID)
	if !ok {
		return nil, apperror.NewNotFound(entity.EntityLedgerEntry, entryID)
	}
	out := copyEntry(e)
	sort.Slice(out.Lines, func(i, j int) bool { return out.Lines[i].LineNo < out.Lines[j].LineNo })
	return out, nil
}

func (s *Store) readEntry(t *memTx, entryID id.ID) (*entity.LedgerEntry, bool) {
	if e, ok := t.entries[entryID]; ok {
		return e, true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	t.observe(entryRef(entryID), s.stamp(entryRef(entryID)))
	return e, ok
}

// UpdateEntry applies an optimistic header update.
func (s *Store) UpdateEntry(ctx context.Context, e *entity.LedgerEntry) error {
	return s.write(ctx, "update ledger entry", func(t *memTx) error {
		current, ok := s.readEntry(t, e.ID)
		if !ok {
			return apperror.NewNotFound(entity.EntityLedgerEntry, e.ID)
		}
		if current.Version != e.Version {
			return staleEntry(e.ID)
		}
		if !t.inserted[e.ID] {
			if _, checked := t.versionChecks[e.ID]; !checked {
				t.versionChecks[e.ID] = e.Version
			}
		}

		updated := copyEntry(current)
		updated.Number = e.Number
		updated.Status = e.Status
		updated.Description = e.Description
		updated.PostedAt = e.PostedAt
		updated.ReversedBy = e.ReversedBy
		updated.Version = e.Version + 1
		t.entries[e.ID] = updated

		e.Version = updated.Version
		return nil
	})
}
