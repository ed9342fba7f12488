// Package jobs runs the ledger's background work on asynq: the scheduled
// full integrity check whose result is kept in the report cache.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue the ledger worker consumes.
	QueueDefault = "ledger"

	// TaskIntegrityFullCheck runs every integrity check and stores the report.
	TaskIntegrityFullCheck = "integrity:full_check"
)

// FullCheckPayload describes one requested check.
type FullCheckPayload struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewFullCheckTask builds a full-check task. The task id is unique per
// minute so a burst of requests collapses into one run.
func NewFullCheckTask(reason string, at time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(FullCheckPayload{Reason: reason, RequestedAt: at.UTC()})
	if err != nil {
		return nil, fmt.Errorf("marshal full check payload: %w", err)
	}
	opts := append(fullCheckOptions(),
		asynq.TaskID(fmt.Sprintf("%s:%s", TaskIntegrityFullCheck, at.UTC().Format("200601021504"))))
	return asynq.NewTask(TaskIntegrityFullCheck, data, opts...), nil
}

// NewScheduledFullCheckTask builds the task registered with the scheduler.
// It carries no task id since the scheduler enqueues the same task on
// every tick.
func NewScheduledFullCheckTask() (*asynq.Task, error) {
	data, err := json.Marshal(FullCheckPayload{Reason: "scheduled"})
	if err != nil {
		return nil, fmt.Errorf("marshal full check payload: %w", err)
	}
	return asynq.NewTask(TaskIntegrityFullCheck, data, fullCheckOptions()...), nil
}

func fullCheckOptions() []asynq.Option {
	return []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(10 * time.Minute),
	}
}
