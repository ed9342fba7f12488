package memory

import (
	"context"
	"sort"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/audit"
)

var _ audit.Repository = (*Store)(nil)

// Append buffers an audit record in the caller's transaction.
func (s *Store) Append(ctx context.Context, rec *entity.AuditRecord) error {
	return s.write(ctx, "audit append", func(t *memTx) error {
		t.audit = append(t.audit, *rec)
		return nil
	})
}

// Query returns matching records, newest first.
func (s *Store) Query(ctx context.Context, filter audit.Filter) ([]entity.AuditRecord, error) {
	t := txFrom(ctx)

	s.mu.Lock()
	all := append([]entity.AuditRecord(nil), s.audit...)
	if t != nil {
		t.observe(rowRef{tableAudit, scanKey}, s.stamp(rowRef{tableAudit, scanKey}))
	}
	s.mu.Unlock()
	if t != nil {
		all = append(all, t.audit...)
	}

	out := make([]entity.AuditRecord, 0)
	for i := range all {
		if filter.Matches(&all[i]) {
			out = append(out, all[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	if limit := filter.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
