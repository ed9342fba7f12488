package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	appctx "github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/context"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/integrity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

// FullChecker runs the full integrity check.
type FullChecker interface {
	RunFullCheck(ctx context.Context) (*integrity.FullReport, error)
}

// ReportSaver stores a finished report.
type ReportSaver interface {
	Save(ctx context.Context, report *integrity.FullReport) error
}

// IntegrityCheckJob handles TaskIntegrityFullCheck.
type IntegrityCheckJob struct {
	checker FullChecker
	reports ReportSaver
}

// NewIntegrityCheckJob creates the handler.
func NewIntegrityCheckJob(checker FullChecker, reports ReportSaver) *IntegrityCheckJob {
	return &IntegrityCheckJob{checker: checker, reports: reports}
}

// Handle runs the check. An unhealthy ledger completes the task; only a
// failure to run the check or to store its result is retried.
func (j *IntegrityCheckJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload FullCheckPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode %s payload: %v: %w", TaskIntegrityFullCheck, err, asynq.SkipRetry)
		}
	}

	taskID, _ := asynq.GetTaskID(ctx)
	ctx = appctx.WithTrace(ctx, appctx.NewTraceContext(taskID))
	logger.Info(ctx, "integrity check started", "reason", payload.Reason)

	report, err := j.checker.RunFullCheck(ctx)
	if err != nil {
		if !apperror.IsRetryable(err) {
			return fmt.Errorf("integrity check: %v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	if err := j.reports.Save(ctx, report); err != nil {
		return err
	}

	if !report.Healthy {
		logger.Warn(ctx, "integrity check finished unhealthy",
			"trial_balance_healthy", report.TrialBalance.Healthy,
			"unbalanced_entries", report.JournalBalance.UnbalancedCount,
			"stock_discrepancies", report.Inventory.InconsistentCount,
		)
		return nil
	}
	logger.Info(ctx, "integrity check finished healthy")
	return nil
}

// IsSkipRetry reports whether err tells asynq to give up on the task.
func IsSkipRetry(err error) bool {
	return errors.Is(err, asynq.SkipRetry)
}
