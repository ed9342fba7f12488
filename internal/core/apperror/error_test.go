package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"plain error", errors.New("boom"), KindInternal},
		{"not found", NewNotFound("FiscalYear", "fy-1"), KindNotFound},
		{"balance", NewBalanceViolation("100", "99", "1"), KindBalanceViolation},
		{"no lines", NewNoLines(), KindBalanceViolation},
		{"stale", NewConcurrentModification("LedgerEntry", "e-1"), KindConcurrencyConflict},
		{"serialization", NewSerializationConflict(errors.New("40001")), KindSerializationConflict},
		{"infra", NewInfrastructure("query", errors.New("conn refused")), KindInfrastructure},
		{"validation", NewValidation("bad"), KindValidation},
		{"tx required", NewTxRequired("NextNumber", "serializable transaction"), KindValidation},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("post entry: %w", NewConcurrentModification("LedgerEntry", "e-1"))

	assert.Equal(t, KindConcurrencyConflict, KindOf(err))
	assert.True(t, IsConcurrentModification(err))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(err))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewConcurrentModification("SequenceCounter", "JV")))
	assert.True(t, IsRetryable(NewSerializationConflict(nil)))
	assert.True(t, IsRetryable(NewInfrastructure("commit", nil)))
	assert.False(t, IsRetryable(NewNotFound("FiscalYear", 1)))
	assert.False(t, IsRetryable(NewNoLines()))
	assert.False(t, IsRetryable(nil))
}

func TestBalanceViolationDetails(t *testing.T) {
	err := NewBalanceViolation("100", "99", "1")

	require.NotNil(t, err.Details)
	assert.Equal(t, "100", err.Details["debit_total"])
	assert.Equal(t, "99", err.Details["credit_total"])
	assert.Equal(t, "1", err.Details["difference"])
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInfrastructure("begin transaction", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}
