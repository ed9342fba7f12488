package memory

import (
	"context"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/numerator"
)

var _ numerator.Store = (*Store)(nil)

// GetFiscalYear returns the fiscal year or NotFound.
func (s *Store) GetFiscalYear(ctx context.Context, fiscalYearID int64) (*entity.FiscalYear, error) {
	t := txFrom(ctx)
	if t != nil {
		if fy, ok := t.fiscalYears[fiscalYearID]; ok {
			return &fy, nil
		}
	}

	s.mu.Lock()
	fy, ok := s.fiscalYears[fiscalYearID]
	if t != nil {
		t.observe(fiscalYearRef(fiscalYearID), s.stamp(fiscalYearRef(fiscalYearID)))
	}
	s.mu.Unlock()

	if !ok {
		return nil, apperror.NewNotFound("FiscalYear", fiscalYearID)
	}
	return &fy, nil
}

// readCounter returns the counter visible to t.
func (s *Store) readCounter(t *memTx, key entity.SequenceKey) (entity.SequenceCounter, bool) {
	if c, ok := t.counters[key]; ok {
		return c, true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[key]
	t.observe(counterRef(key), s.stamp(counterRef(key)))
	return c, ok
}

// Increment creates the counter lazily and returns the next value.
func (s *Store) Increment(ctx context.Context, key entity.SequenceKey, prefix string) (int64, error) {
	var next int64
	err := s.write(ctx, "sequence increment", func(t *memTx) error {
		c, ok := s.readCounter(t, key)
		if !ok {
			c = entity.SequenceCounter{SequenceKey: key, Prefix: prefix}
		}
		c.LastValue++
		t.counters[key] = c
		next = c.LastValue
		return nil
	})
	return next, err
}

// SetLastValue upserts the counter with an explicit value.
func (s *Store) SetLastValue(ctx context.Context, key entity.SequenceKey, prefix string, value int64) error {
	return s.write(ctx, "sequence set", func(t *memTx) error {
		c, ok := s.readCounter(t, key)
		if !ok {
			c = entity.SequenceCounter{SequenceKey: key, Prefix: prefix}
		}
		c.LastValue = value
		t.counters[key] = c
		return nil
	})
}

// GetCounter returns the counter or NotFound.
func (s *Store) GetCounter(ctx context.Context, key entity.SequenceKey) (*entity.SequenceCounter, error) {
	t := txFrom(ctx)
	if t == nil {
		t = newMemTx(readCommitted)
	}
	c, ok := s.readCounter(t, key)
	if !ok {
		return nil, apperror.NewNotFound("SequenceCounter", key)
	}
	return &c, nil
}
