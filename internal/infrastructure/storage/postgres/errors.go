package postgres

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/tx"
)

// SQLSTATE codes the ledger core reacts to.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"
)

// Translate maps a driver error onto the apperror taxonomy. Errors that are
// already classified pass through unchanged.
func Translate(operation string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}

	var stale *tx.StaleWriteError
	if errors.As(err, &stale) {
		return tx.TranslateStaleWrite(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == sqlStateSerializationFailure, pgErr.Code == sqlStateDeadlockDetected:
			return apperror.NewSerializationConflict(err)
		case isConnectionClass(pgErr.Code):
			return apperror.NewInfrastructure(operation, err)
		case pgErr.Code == sqlStateUniqueViolation:
			return apperror.NewInternal(err).WithDetail("constraint", pgErr.ConstraintName)
		default:
			return apperror.NewInternal(err)
		}
	}

	if isInfrastructure(err) {
		return apperror.NewInfrastructure(operation, err)
	}
	return apperror.NewInternal(err)
}

// isConnectionClass covers connection exceptions (08), insufficient
// resources (53) and operator intervention such as shutdown or
// statement timeout (57).
func isConnectionClass(code string) bool {
	if len(code) < 2 {
		return false
	}
	switch code[:2] {
	case "08", "53", "57":
		return true
	default:
		return false
	}
}

func isInfrastructure(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
