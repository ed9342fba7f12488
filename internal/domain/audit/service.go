package audit

import (
	"context"
	"time"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/tx"
)

// QueryService reads the audit log in read-only transactions.
type QueryService struct {
	repo Repository
	txm  tx.Manager
}

// NewQueryService creates a QueryService.
func NewQueryService(repo Repository, txm tx.Manager) *QueryService {
	return &QueryService{repo: repo, txm: txm}
}

// ByEntity returns the history of one entity.
func (s *QueryService) ByEntity(ctx context.Context, entityType, entityID string, limit int) ([]entity.AuditRecord, error) {
	if entityType == "" || entityID == "" {
		return nil, apperror.NewValidation("entity type and entity id are required")
	}
	return s.Query(ctx, Filter{EntityType: entityType, EntityID: entityID, Limit: limit})
}

// ByDateRange returns records with from <= timestamp < to.
func (s *QueryService) ByDateRange(ctx context.Context, from, to time.Time, limit int) ([]entity.AuditRecord, error) {
	if !from.Before(to) {
		return nil, apperror.NewValidation("date range is empty").
			WithDetail("from", from).WithDetail("to", to)
	}
	return s.Query(ctx, Filter{From: &from, To: &to, Limit: limit})
}

// ByActor returns everything performed by one user.
func (s *QueryService) ByActor(ctx context.Context, performedBy string, limit int) ([]entity.AuditRecord, error) {
	if performedBy == "" {
		return nil, apperror.NewValidation("performed by is required")
	}
	return s.Query(ctx, Filter{PerformedBy: performedBy, Limit: limit})
}

// Query runs an arbitrary filter.
func (s *QueryService) Query(ctx context.Context, filter Filter) ([]entity.AuditRecord, error) {
	var out []entity.AuditRecord
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Query(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
