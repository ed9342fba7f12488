package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/id"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/tx"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/types"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/audit"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/integrity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/cache"
	v1 "github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/http/v1"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/http/v1/dto"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/http/v1/handlers"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/storage/memory"
	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

type env struct {
	store  *memory.Store
	router http.Handler
	mr     *miniredis.Miniredis
}

func newEnv(t *testing.T, checker handlers.Checker) *env {
	t.Helper()
	store := memory.New()
	txm := memory.NewTxManager(store)
	if checker == nil {
		checker = integrity.NewVerifier(store, txm)
	}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	reports := cache.NewReportCache(client, time.Hour)

	router := v1.NewRouter(v1.RouterConfig{
		Logger:       logger.NewNop(),
		Checker:      checker,
		Reports:      reports,
		Audit:        audit.NewQueryService(store, txm),
		HealthChecks: map[string]handlers.Pinger{"redis": reports},
	})
	return &env{store: store, router: router, mr: mr}
}

func (e *env) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (e *env) seedUnbalanced(t *testing.T) {
	t.Helper()
	entryID := id.New()
	require.NoError(t, e.store.SeedEntry(context.Background(), &entity.LedgerEntry{
		ID: entryID, Number: "JV-2026-00001", DocumentType: "JV", FiscalYearID: 1,
		Status: entity.EntryPosted, Version: 1,
		Lines: []entity.LedgerLine{
			{ID: id.New(), EntryID: entryID, LineNo: 1, AccountID: 1, Debit: types.MustMoney("300"), Credit: types.Zero()},
			{ID: id.New(), EntryID: entryID, LineNo: 2, AccountID: 2, Debit: types.Zero(), Credit: types.MustMoney("250")},
		},
	}))
}

func TestHealthyFullCheck(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.get(t, "/api/v1/integrity/full")

	require.Equal(t, http.StatusOK, rec.Code)
	var report integrity.FullReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Healthy)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestUnhealthyReportIsStillOK(t *testing.T) {
	e := newEnv(t, nil)
	e.seedUnbalanced(t)

	rec := e.get(t, "/api/v1/integrity/journal-balance")

	require.Equal(t, http.StatusOK, rec.Code)
	var report integrity.JournalBalanceReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.False(t, report.Healthy)
	require.Len(t, report.Unbalanced, 1)
	assert.True(t, report.Unbalanced[0].Difference.Equal(types.MustMoney("50")))
}

func TestLastReportServedFromCache(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.get(t, "/api/v1/integrity/last")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	e.seedUnbalanced(t)
	require.Equal(t, http.StatusOK, e.get(t, "/api/v1/integrity/full").Code)

	rec = e.get(t, "/api/v1/integrity/last")
	require.Equal(t, http.StatusOK, rec.Code)
	var report integrity.FullReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.False(t, report.Healthy)
	assert.False(t, report.TrialBalance.Healthy)
}

type brokenChecker struct{ handlers.Checker }

func (brokenChecker) CheckInventory(context.Context) (*integrity.InventoryReport, error) {
	return nil, apperror.NewInfrastructure("integrity inventory check", errors.New("connection refused"))
}

func TestInfrastructureFailureIs503(t *testing.T) {
	e := newEnv(t, brokenChecker{})

	rec := e.get(t, "/api/v1/integrity/inventory")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperror.CodeInfrastructure, body.Code)
	assert.Equal(t, "infrastructure_failure", body.Kind)
	assert.True(t, body.Retryable)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestAuditEndpoint(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	txm := memory.NewTxManager(e.store)
	recorder := audit.NewRecorder(e.store)
	require.NoError(t, txm.RunInTransactionWithOptions(ctx, tx.DefaultOptions(), func(ctx context.Context) error {
		if err := recorder.Append(ctx, entity.EntityLedgerEntry, "e-1", entity.AuditActionPosted, "alice", time.Time{}, nil); err != nil {
			return err
		}
		return recorder.Append(ctx, entity.EntityLedgerEntry, "e-2", entity.AuditActionPosted, "bob", time.Time{}, nil)
	}))

	rec := e.get(t, "/api/v1/audit?performed_by=alice")
	require.Equal(t, http.StatusOK, rec.Code)
	var list dto.AuditListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "e-1", list.Items[0].EntityID)

	rec = e.get(t, "/api/v1/audit?limit=0")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.get(t, "/api/v1/audit?limit=500")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.get(t, "/api/v1/audit?from=2026-02-01T00:00:00Z&to=2026-01-01T00:00:00Z")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.get(t, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unknown", resp.Ledger)

	e.seedUnbalanced(t)
	require.Equal(t, http.StatusOK, e.get(t, "/api/v1/integrity/full").Code)
	rec = e.get(t, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Ledger)

	e.mr.Close()
	rec = e.get(t, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis")
}
