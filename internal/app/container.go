// Package app wires the ledger core for the binaries in cmd/.
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/config"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	corenumerator "github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/numerator"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/tx"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/audit"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/integrity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/posting"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/cache"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/numerator"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/storage/memory"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/storage/postgres"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/storage/postgres/ledger_repo"
	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

// Store is everything the services need from one storage backend.
type Store interface {
	corenumerator.Store
	posting.Repository
	audit.Repository
	integrity.Repository
}

// Container holds the wired services. Fields for optional components are
// nil when the component is not configured.
type Container struct {
	Config *config.Config
	Log    *logger.Logger

	Store     Store
	TxManager tx.Manager

	Numbers   *numerator.Service
	Recorder  *audit.Recorder
	AuditLog  *audit.QueryService
	Posting   *posting.Service
	Integrity *integrity.Verifier

	// Pool is set for postgres storage.
	Pool *postgres.Pool
	// Memory is set for memory storage.
	Memory *memory.Store

	Redis   *redis.Client
	Reports *cache.ReportCache

	closers []func()
}

// Options selects optional components.
type Options struct {
	// WithReportCache connects to Redis and builds the report cache.
	WithReportCache bool
}

// New builds the container described by cfg.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts Options) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if log == nil {
		log = logger.Default()
	}

	table, err := cfg.NumberingTable()
	if err != nil {
		return nil, err
	}

	c := &Container{Config: cfg, Log: log}

	switch cfg.Storage {
	case config.StorageMemory:
		c.Memory = memory.New()
		c.Store = c.Memory
		c.TxManager = memory.NewTxManager(c.Memory)
		if err := openCalendarYear(ctx, c.Memory, time.Now().UTC()); err != nil {
			return nil, err
		}
		log.Warn("using in-memory storage, data is lost on exit")
	default:
		if err := c.openPostgres(ctx); err != nil {
			c.Close()
			return nil, err
		}
	}

	c.Numbers = numerator.New(c.Store, table)
	c.Recorder = audit.NewRecorder(c.Store)
	c.AuditLog = audit.NewQueryService(c.Store, c.TxManager)
	c.Posting = posting.NewService(c.Store, c.TxManager, c.Numbers, c.Recorder)
	c.Integrity = integrity.NewVerifier(c.Store, c.TxManager)

	if opts.WithReportCache {
		client, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Redis = client
		c.Reports = cache.NewReportCache(client, cfg.ReportTTL)
		c.closers = append(c.closers, func() {
			if err := client.Close(); err != nil {
				log.Warnw("redis close", "error", err)
			}
		})
	}

	return c, nil
}

func (c *Container) openPostgres(ctx context.Context) error {
	poolCfg := postgres.DefaultPoolConfig(c.Config.PGDSN)
	poolCfg.MaxConns = c.Config.PGMaxConns
	poolCfg.MinConns = c.Config.PGMinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	c.Pool = pool
	c.closers = append(c.closers, pool.Close)

	if c.Config.PGMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
		c.Log.Info("schema migrated")
	}

	txm := postgres.NewTxManager(pool, c.Config.StatementTimeout)
	repo, err := ledger_repo.New(txm, ledger_repo.WithCompressThreshold(c.Config.AuditCompressSize))
	if err != nil {
		return err
	}
	c.Store = repo
	c.TxManager = txm
	return nil
}

// openCalendarYear registers the calendar year of now as an active fiscal
// year. Its id is the year number, so `--fiscal-year 2026` works out of the box.
func openCalendarYear(ctx context.Context, store *memory.Store, now time.Time) error {
	year := now.Year()
	return store.AddFiscalYear(ctx, entity.FiscalYear{
		ID:        int64(year),
		Label:     strconv.Itoa(year),
		StartDate: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		Status:    entity.FiscalYearActive,
	})
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
