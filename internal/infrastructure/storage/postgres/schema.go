package postgres

import (
	"context"
	_ "embed"

	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL of the ledger tables.
func Schema() string {
	return schemaSQL
}

// Migrate creates the ledger tables when they do not exist.
func Migrate(ctx context.Context, pool *Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return Translate("migrate schema", err)
	}
	logger.Info(ctx, "ledger schema ensured")
	return nil
}
