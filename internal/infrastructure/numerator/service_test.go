package numerator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	corenumerator "github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/numerator"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/tx"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/storage/memory"
)

const fy2026 int64 = 1

func setup(t *testing.T) (*Service, *memory.Store, tx.Manager) {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.AddFiscalYear(context.Background(), entity.FiscalYear{
		ID:        fy2026,
		Label:     "2026",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		Status:    entity.FiscalYearActive,
	}))
	svc := New(store, corenumerator.DefaultTable())
	svc.now = func() time.Time { return time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC) }
	return svc, store, memory.NewTxManager(store)
}

func allocate(ctx context.Context, txm tx.Manager, svc *Service, docType string) (string, error) {
	var number string
	err := txm.RunInTransactionWithOptions(ctx, tx.SerializableOptions(), func(ctx context.Context) error {
		var err error
		number, err = svc.NextNumber(ctx, docType, fy2026)
		return err
	})
	return number, err
}

func TestSequentialAllocationsAreGapFree(t *testing.T) {
	svc, _, txm := setup(t)
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		number, err := allocate(ctx, txm, svc, "JV")
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("JV-2026-%05d", i), number)
	}
}

func TestMonthScopedFormat(t *testing.T) {
	svc, _, txm := setup(t)

	number, err := allocate(context.Background(), txm, svc, "PI")
	require.NoError(t, err)
	assert.Equal(t, "PI-202602-0001", number)

	err = txm.RunInTransactionWithOptions(context.Background(), tx.SerializableOptions(), func(ctx context.Context) error {
		march, err := svc.NextNumberAt(ctx, "PI", fy2026, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, "PI-202603-0001", march)
		return nil
	})
	require.NoError(t, err)
}

func TestConcurrentAllocationsAreUnique(t *testing.T) {
	svc, store, txm := setup(t)
	const workers = 16

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for attempt := 0; attempt < workers*4; attempt++ {
				number, err := allocate(context.Background(), txm, svc, "JV")
				if apperror.IsSerializationConflict(err) {
					continue
				}
				if assert.NoError(t, err) {
					mu.Lock()
					numbers = append(numbers, number)
					mu.Unlock()
				}
				return
			}
			t.Errorf("allocation did not succeed after retries")
		}()
	}
	wg.Wait()

	require.Len(t, numbers, workers)
	sort.Strings(numbers)
	for i, n := range numbers {
		assert.Equal(t, fmt.Sprintf("JV-2026-%05d", i+1), n)
	}

	c, err := store.GetCounter(context.Background(), entity.SequenceKey{DocumentType: "JV", FiscalYearID: fy2026})
	require.NoError(t, err)
	assert.Equal(t, int64(workers), c.LastValue)
}

func TestRequiresSerializableTransaction(t *testing.T) {
	svc, _, txm := setup(t)

	_, err := svc.NextNumber(context.Background(), "JV", fy2026)
	assert.Equal(t, apperror.CodeTxRequired, code(t, err))

	err = txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		_, err := svc.NextNumber(ctx, "JV", fy2026)
		return err
	})
	assert.Equal(t, apperror.CodeTxRequired, code(t, err))
}

func TestMissingFiscalYearIsNotFound(t *testing.T) {
	svc, _, txm := setup(t)

	err := txm.RunInTransactionWithOptions(context.Background(), tx.SerializableOptions(), func(ctx context.Context) error {
		_, err := svc.NextNumber(ctx, "JV", 99)
		return err
	})

	assert.True(t, apperror.IsNotFound(err))
	assert.False(t, apperror.IsRetryable(err))
}

func TestUnknownDocumentType(t *testing.T) {
	svc, _, txm := setup(t)
	_, err := allocate(context.Background(), txm, svc, "ZZ")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestSetNextNumberContinuesSequence(t *testing.T) {
	svc, _, txm := setup(t)
	ctx := context.Background()
	date := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)

	err := txm.RunInTransactionWithOptions(ctx, tx.SerializableOptions(), func(ctx context.Context) error {
		return svc.SetNextNumber(ctx, "JV", fy2026, date, 500)
	})
	require.NoError(t, err)

	number, err := allocate(ctx, txm, svc, "JV")
	require.NoError(t, err)
	assert.Equal(t, "JV-2026-00500", number)

	prefix, value, err := corenumerator.Parse(number)
	require.NoError(t, err)
	assert.Equal(t, "JV-2026-", prefix)
	assert.Equal(t, int64(500), value)

	err = txm.RunInTransactionWithOptions(ctx, tx.SerializableOptions(), func(ctx context.Context) error {
		return svc.SetNextNumber(ctx, "JV", fy2026, date, 10)
	})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func code(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Code
}
