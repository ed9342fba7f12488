// Package v1 provides the diagnostics HTTP API, version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/http/v1/handlers"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/http/v1/middleware"
	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

// RouterConfig holds the dependencies of the router.
type RouterConfig struct {
	Logger *logger.Logger

	// Checker runs integrity checks.
	Checker handlers.Checker

	// Reports stores the last full report; optional.
	Reports handlers.ReportStore

	// Audit reads the audit trail.
	Audit handlers.AuditQuerier

	// HealthChecks are pinged by GET /health, keyed by name.
	HealthChecks map[string]handlers.Pinger
}

// NewRouter creates and configures the gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// ErrorHandler wraps Recovery so a recovered panic is still rendered.
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())
	router.Use(middleware.UserContext())

	var ledger handlers.LedgerHealth
	if lh, ok := cfg.Reports.(handlers.LedgerHealth); ok {
		ledger = lh
	}
	health := handlers.NewHealthHandler(cfg.HealthChecks, ledger)
	router.GET("/health", health.Health)

	base := handlers.NewBaseHandler()

	v1 := router.Group("/api/v1")
	{
		integrityHandler := handlers.NewIntegrityHandler(base, cfg.Checker, cfg.Reports)
		checks := v1.Group("/integrity")
		checks.GET("/full", integrityHandler.Full)
		checks.GET("/trial-balance", integrityHandler.TrialBalance)
		checks.GET("/journal-balance", integrityHandler.JournalBalance)
		checks.GET("/inventory", integrityHandler.Inventory)
		checks.GET("/last", integrityHandler.Last)

		auditHandler := handlers.NewAuditHandler(base, cfg.Audit)
		v1.GET("/audit", auditHandler.List)
	}

	return router
}
