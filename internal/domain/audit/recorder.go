package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	appctx "github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/context"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/id"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/tx"
)

// Recorder appends audit records into the caller's open transaction.
// It never begins or commits a transaction and never retries: a failed
// append is returned so the enclosing transaction rolls back.
type Recorder struct {
	repo Repository
	now  func() time.Time
}

// NewRecorder creates a Recorder.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Append stages an AuditRecord. A zero timestamp is replaced by the current
// time and an empty performedBy by the actor attached to ctx.
func (r *Recorder) Append(
	ctx context.Context,
	entityType, entityID, action, performedBy string,
	timestamp time.Time,
	details *string,
) error {
	if _, ok := tx.InfoFromContext(ctx); !ok {
		return apperror.NewTxRequired("audit append", "an active transaction")
	}
	if entityType == "" || entityID == "" || action == "" {
		return apperror.NewValidation("audit record requires entity type, entity id and action")
	}
	if performedBy == "" {
		performedBy = appctx.Actor(ctx)
	}
	if timestamp.IsZero() {
		timestamp = r.now()
	}

	rec := &entity.AuditRecord{
		ID:          id.New(),
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		PerformedBy: performedBy,
		Timestamp:   timestamp.UTC(),
		Details:     details,
	}
	if err := r.repo.Append(ctx, rec); err != nil {
		return fmt.Errorf("append audit record %s/%s: %w", entityType, action, err)
	}
	return nil
}

// AppendChange marshals details to JSON and appends with the ctx actor.
func (r *Recorder) AppendChange(ctx context.Context, entityType, entityID, action string, details map[string]any) error {
	var text *string
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		s := string(raw)
		text = &s
	}
	return r.Append(ctx, entityType, entityID, action, "", time.Time{}, text)
}
