package posting_test

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	appctx "github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/context"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	corenumerator "github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/numerator"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/types"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/audit"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/posting"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/numerator"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/storage/memory"
	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetDefault(logger.NewNop())
	os.Exit(m.Run())
}

const (
	fyOpen   int64 = 1
	fyClosed int64 = 2
)

var entryDate = time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	svc   *posting.Service
	audit *audit.QueryService
}

func newFixture(t *testing.T, auditRepo audit.Repository) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.AddFiscalYear(ctx, entity.FiscalYear{
		ID: fyOpen, Label: "2026", Status: entity.FiscalYearActive,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.AddFiscalYear(ctx, entity.FiscalYear{
		ID: fyClosed, Label: "2025", Status: entity.FiscalYearClosed,
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	}))
	if auditRepo == nil {
		auditRepo = store
	}
	txm := memory.NewTxManager(store)
	svc := posting.NewService(store, txm, numerator.New(store, corenumerator.DefaultTable()), audit.NewRecorder(auditRepo))
	return &fixture{store: store, svc: svc, audit: audit.NewQueryService(store, txm)}
}

func input(amounts ...[2]string) posting.Input {
	in := posting.Input{FiscalYearID: fyOpen, Date: entryDate, Description: "test"}
	for i, a := range amounts {
		in.Lines = append(in.Lines, posting.LineInput{
			AccountID: int64(100 + i),
			Debit:     types.MustMoney(a[0]),
			Credit:    types.MustMoney(a[1]),
		})
	}
	return in
}

type failingAudit struct{ err error }

func (f failingAudit) Append(context.Context, *entity.AuditRecord) error { return f.err }

func (f failingAudit) Query(context.Context, audit.Filter) ([]entity.AuditRecord, error) {
	return nil, nil
}

func TestPostEntry(t *testing.T) {
	f := newFixture(t, nil)
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "accountant"})

	entry, err := f.svc.PostEntry(ctx, input([2]string{"500", "0"}, [2]string{"0", "500"}))

	require.NoError(t, err)
	assert.Equal(t, "JV-2026-00001", entry.Number)
	assert.Equal(t, entity.EntryPosted, entry.Status)
	assert.Equal(t, "accountant", entry.CreatedBy)
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, entry.ID, entry.Lines[0].EntryID)

	stored, err := f.svc.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Number, stored.Number)
	assert.Len(t, stored.Lines, 2)

	history, err := f.audit.ByEntity(ctx, entity.EntityLedgerEntry, entry.ID.String(), 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entity.AuditActionPosted, history[0].Action)
	assert.Equal(t, "accountant", history[0].PerformedBy)
	require.NotNil(t, history[0].Details)
	assert.Contains(t, *history[0].Details, "JV-2026-00001")

	second, err := f.svc.PostEntry(ctx, input([2]string{"200", "0"}, [2]string{"0", "200"}))
	require.NoError(t, err)
	assert.Equal(t, "JV-2026-00002", second.Number)
}

func TestPostEntryTakesNumberFromGenerator(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.AddFiscalYear(context.Background(), entity.FiscalYear{
		ID: fyOpen, Label: "2026", Status: entity.FiscalYearActive,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}))
	numbers := corenumerator.NewMockGenerator()
	svc := posting.NewService(store, memory.NewTxManager(store), numbers, audit.NewRecorder(store))
	ctx := context.Background()

	entry, err := svc.PostEntry(ctx, input([2]string{"40", "0"}, [2]string{"0", "40"}))
	require.NoError(t, err)
	assert.Equal(t, "JV-FY1-00001", entry.Number)
	_, err = store.GetCounter(ctx, entity.SequenceKey{DocumentType: "JV", FiscalYearID: fyOpen})
	assert.True(t, apperror.IsNotFound(err), "the store counter belongs to the real sequencer")

	numbers.Err = errors.New("counter table locked")
	_, err = svc.PostEntry(ctx, input([2]string{"10", "0"}, [2]string{"0", "10"}))
	require.ErrorIs(t, err, numbers.Err)

	totals, err := store.EntryTotals(ctx)
	require.NoError(t, err)
	assert.Len(t, totals, 1, "a failed numbering must not leave an entry behind")
}

func TestPostEntryRejectsBeforeAnyWrite(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.PostEntry(ctx, input([2]string{"100", "0"}, [2]string{"0", "99"}))
	assert.True(t, apperror.IsBalanceViolation(err))

	_, err = f.svc.PostEntry(ctx, input())
	assert.True(t, apperror.IsBalanceViolation(err))

	_, err = f.store.GetCounter(ctx, entity.SequenceKey{DocumentType: "JV", FiscalYearID: fyOpen})
	assert.True(t, apperror.IsNotFound(err), "no number may be consumed by a rejected posting")
	totals, err := f.store.EntryTotals(ctx)
	require.NoError(t, err)
	assert.Empty(t, totals)
}

func TestPostEntryAuditFailureRollsBackEverything(t *testing.T) {
	boom := errors.New("audit storage unavailable")
	f := newFixture(t, failingAudit{err: boom})
	ctx := context.Background()

	_, err := f.svc.PostEntry(ctx, input([2]string{"100", "0"}, [2]string{"0", "100"}))

	require.ErrorIs(t, err, boom)
	totals, err := f.store.EntryTotals(ctx)
	require.NoError(t, err)
	assert.Empty(t, totals, "entry must not be observable after rollback")
	_, err = f.store.GetCounter(ctx, entity.SequenceKey{DocumentType: "JV", FiscalYearID: fyOpen})
	assert.True(t, apperror.IsNotFound(err))
}

func TestPostEntryFiscalYearChecks(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	balanced := [][2]string{{"10", "0"}, {"0", "10"}}

	in := input(balanced...)
	in.FiscalYearID = 77
	_, err := f.svc.PostEntry(ctx, in)
	assert.True(t, apperror.IsNotFound(err))

	in = input(balanced...)
	in.FiscalYearID = fyClosed
	in.Date = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.PostEntry(ctx, in)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePeriodClosed, appErr.Code)

	in = input(balanced...)
	in.Date = time.Date(2027, 1, 5, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.PostEntry(ctx, in)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestPostEntryValidatesInput(t *testing.T) {
	f := newFixture(t, nil)
	in := input([2]string{"10", "0"}, [2]string{"0", "10"})
	in.Lines[0].AccountID = 0

	_, err := f.svc.PostEntry(context.Background(), in)

	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestDraftLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	draft, err := f.svc.CreateDraft(ctx, input([2]string{"40", "0"}, [2]string{"0", "40"}))
	require.NoError(t, err)
	assert.Equal(t, entity.EntryDraft, draft.Status)
	assert.Empty(t, draft.Number)

	_, err = f.svc.PostDraft(ctx, draft.ID, draft.Version+1)
	assert.True(t, apperror.IsConcurrentModification(err))

	posted, err := f.svc.PostDraft(ctx, draft.ID, draft.Version)
	require.NoError(t, err)
	assert.Equal(t, "JV-2026-00001", posted.Number)
	assert.Equal(t, entity.EntryPosted, posted.Status)
	assert.Equal(t, draft.Version+1, posted.Version)

	_, err = f.svc.PostDraft(ctx, draft.ID, 0)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidStatus, appErr.Code)

	history, err := f.audit.ByEntity(ctx, entity.EntityLedgerEntry, draft.ID.String(), 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestUnbalancedDraftCannotBePosted(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	draft, err := f.svc.CreateDraft(ctx, input([2]string{"40", "0"}, [2]string{"0", "30"}))
	require.NoError(t, err)

	_, err = f.svc.PostDraft(ctx, draft.ID, draft.Version)
	assert.True(t, apperror.IsBalanceViolation(err))

	stored, err := f.svc.GetEntry(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EntryDraft, stored.Status)
	_, err = f.store.GetCounter(ctx, entity.SequenceKey{DocumentType: "JV", FiscalYearID: fyOpen})
	assert.True(t, apperror.IsNotFound(err))
}

func TestReverseEntry(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	original, err := f.svc.PostEntry(ctx, input([2]string{"300", "0"}, [2]string{"0", "300"}))
	require.NoError(t, err)

	reversal, err := f.svc.ReverseEntry(ctx, posting.ReverseInput{
		EntryID: original.ID, Date: entryDate, Reason: "duplicate",
	})
	require.NoError(t, err)
	assert.Equal(t, "RJV-2026-00001", reversal.Number)
	require.NotNil(t, reversal.ReversalOf)
	assert.Equal(t, original.ID, *reversal.ReversalOf)
	assert.True(t, reversal.Lines[0].Credit.Equal(types.MustMoney("300")))
	assert.True(t, reversal.Lines[1].Debit.Equal(types.MustMoney("300")))

	stored, err := f.svc.GetEntry(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EntryReversed, stored.Status)
	require.NotNil(t, stored.ReversedBy)
	assert.Equal(t, reversal.ID, *stored.ReversedBy)

	_, err = f.svc.ReverseEntry(ctx, posting.ReverseInput{EntryID: original.ID, Date: entryDate, Reason: "again"})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidStatus, appErr.Code)

	accounts, err := f.store.AccountTotals(ctx)
	require.NoError(t, err)
	for _, a := range accounts {
		assert.True(t, a.Debit.Equal(a.Credit), "account %d nets to zero after reversal", a.AccountID)
	}
}

func TestReverseUnknownEntry(t *testing.T) {
	f := newFixture(t, nil)
	posted, err := f.svc.PostEntry(context.Background(), input([2]string{"1", "0"}, [2]string{"0", "1"}))
	require.NoError(t, err)

	_, err = f.svc.ReverseEntry(context.Background(), posting.ReverseInput{
		EntryID: posted.Lines[0].ID, Date: entryDate, Reason: "typo",
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestConcurrentPostingsGetDistinctNumbers(t *testing.T) {
	f := newFixture(t, nil)
	posting.RetryBaseDelay = time.Microsecond
	const workers = 12

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := posting.RetryOnConflict(context.Background(), workers*4, func(ctx context.Context) error {
				entry, err := f.svc.PostEntry(ctx, input([2]string{"5", "0"}, [2]string{"0", "5"}))
				if err != nil {
					return err
				}
				mu.Lock()
				numbers = append(numbers, entry.Number)
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, numbers, workers)
	sort.Strings(numbers)
	for i := 1; i < len(numbers); i++ {
		assert.NotEqual(t, numbers[i-1], numbers[i])
	}
	assert.Equal(t, "JV-2026-00001", numbers[0])
	assert.Equal(t, "JV-2026-00012", numbers[workers-1])
}

func TestRetryOnConflictStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := posting.RetryOnConflict(context.Background(), 5, func(context.Context) error {
		calls++
		return apperror.NewNoLines()
	})

	assert.True(t, apperror.IsBalanceViolation(err))
	assert.Equal(t, 1, calls)
}

func TestRetryOnConflictRetriesConflicts(t *testing.T) {
	posting.RetryBaseDelay = time.Microsecond
	calls := 0
	err := posting.RetryOnConflict(context.Background(), 3, func(context.Context) error {
		calls++
		if calls < 3 {
			return apperror.NewSerializationConflict(nil)
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}
