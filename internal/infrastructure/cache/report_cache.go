package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/integrity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

const (
	lastReportKey = "ledger:integrity:last"
	healthKey     = "ledger:integrity:healthy"
)

// DefaultReportTTL bounds how long a stored report is served.
const DefaultReportTTL = 24 * time.Hour

// ReportCache stores the last full integrity report.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates the cache. A non-positive ttl uses DefaultReportTTL.
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	return &ReportCache{client: client, ttl: ttl}
}

// Save replaces the stored report.
func (c *ReportCache) Save(ctx context.Context, report *integrity.FullReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal integrity report: %w", err)
	}

	healthy := "0"
	if report.Healthy {
		healthy = "1"
	}
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, lastReportKey, raw, c.ttl)
		pipe.Set(ctx, healthKey, healthy, c.ttl)
		return nil
	})
	if err != nil {
		return apperror.NewInfrastructure("save integrity report", err)
	}
	logger.Debug(ctx, "integrity report cached", "healthy", report.Healthy, "checked_at", report.CheckedAt)
	return nil
}

// Last returns the stored report, or NotFound when none is cached.
func (c *ReportCache) Last(ctx context.Context) (*integrity.FullReport, error) {
	raw, err := c.client.Get(ctx, lastReportKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.NewNotFound("IntegrityReport", "last")
	}
	if err != nil {
		return nil, apperror.NewInfrastructure("load integrity report", err)
	}

	var report integrity.FullReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("decode cached integrity report: %w", err))
	}
	return &report, nil
}

// Healthy returns the health flag of the stored report without decoding it.
func (c *ReportCache) Healthy(ctx context.Context) (healthy, known bool, err error) {
	v, err := c.client.Get(ctx, healthKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, apperror.NewInfrastructure("load integrity health", err)
	}
	return v == "1", true, nil
}

// Ping checks the Redis connection.
func (c *ReportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
