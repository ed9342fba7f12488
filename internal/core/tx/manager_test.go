package tx

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
)

// recordingManager runs fn directly and records the options it was given.
type recordingManager struct {
	calls int
	opts  []Options
}

func (m *recordingManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransactionWithOptions(ctx, DefaultOptions(), fn)
}

func (m *recordingManager) RunInTransactionWithOptions(ctx context.Context, opts Options, fn func(ctx context.Context) error) error {
	m.calls++
	m.opts = append(m.opts, opts)
	return fn(WithInfo(ctx, Info{Isolation: opts.Isolation, ReadOnly: opts.ReadOnly}))
}

func (m *recordingManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransactionWithOptions(ctx, ReadOnlyOptions(), fn)
}

func TestCommitRunsOpsInOrderInOneTransaction(t *testing.T) {
	m := &recordingManager{}
	var order []int

	err := Commit(context.Background(), m,
		func(ctx context.Context) error { order = append(order, 1); return nil },
		func(ctx context.Context) error { order = append(order, 2); return nil },
	)

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, 1, m.calls)
}

func TestCommitStopsAtFirstFailure(t *testing.T) {
	m := &recordingManager{}
	boom := errors.New("boom")
	ran := false

	err := Commit(context.Background(), m,
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error { ran = true; return nil },
	)

	assert.ErrorIs(t, err, boom)
	assert.False(t, ran)
}

func TestIsolationAtLeast(t *testing.T) {
	assert.True(t, Serializable.AtLeast(ReadCommitted))
	assert.True(t, Serializable.AtLeast(Serializable))
	assert.False(t, ReadCommitted.AtLeast(Serializable))
	assert.False(t, RepeatableRead.AtLeast(Serializable))
	assert.Error(t, IsolationLevel("chaos").Validate())
}

func TestCheckNested(t *testing.T) {
	assert.NoError(t, CheckNested(Info{Isolation: Serializable}, DefaultOptions()))
	assert.Error(t, CheckNested(Info{Isolation: ReadCommitted}, SerializableOptions()))
	assert.Error(t, CheckNested(Info{Isolation: Serializable, ReadOnly: true}, SerializableOptions()))
	assert.NoError(t, CheckNested(Info{Isolation: ReadCommitted, ReadOnly: true}, ReadOnlyOptions()))
}

func TestRequireIsolation(t *testing.T) {
	ctx := context.Background()

	err := RequireIsolation(ctx, "NextNumber", Serializable)
	assert.Equal(t, apperror.CodeTxRequired, mustAppErr(t, err).Code)

	err = RequireIsolation(WithInfo(ctx, Info{Isolation: ReadCommitted}), "NextNumber", Serializable)
	assert.Equal(t, apperror.CodeTxRequired, mustAppErr(t, err).Code)

	err = RequireIsolation(WithInfo(ctx, Info{Isolation: Serializable, ReadOnly: true}), "NextNumber", Serializable)
	assert.Error(t, err)

	assert.NoError(t, RequireIsolation(WithInfo(ctx, Info{Isolation: Serializable}), "NextNumber", Serializable))
}

func TestTranslateStaleWrite(t *testing.T) {
	wrapped := fmt.Errorf("update entry: %w", NewStaleWrite("LedgerEntry", "e-1"))

	err := TranslateStaleWrite(wrapped)

	appErr := mustAppErr(t, err)
	assert.Equal(t, apperror.KindConcurrencyConflict, appErr.Kind())
	assert.Equal(t, "LedgerEntry", appErr.Details["entity"])

	plain := errors.New("other")
	assert.Same(t, plain, TranslateStaleWrite(plain))
}

func mustAppErr(t *testing.T, err error) *apperror.AppError {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr
}
