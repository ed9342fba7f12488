// Package cache keeps the most recent integrity report in Redis so that
// dashboards and the CLI can read it without re-running the checks.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
)

// NewClient connects to Redis and pings it.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, apperror.NewInfrastructure("redis ping", fmt.Errorf("ping %s: %w", addr, err))
	}
	return client, nil
}
