package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	appctx "github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/context"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/http/v1/dto"
)

func newEngine(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Trace(), ErrorHandler(), Recovery(), UserContext())
	r.GET("/", handler)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestErrorHandlerRendersAppError(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		_ = c.Error(apperror.NewBalanceViolation("100", "99", "1"))
	})

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperror.CodeBalanceViolation, body.Code)
	assert.Equal(t, "balance_violation", body.Kind)
	assert.Equal(t, "1", body.Details["difference"])
	assert.False(t, body.Retryable)
}

func TestErrorHandlerHidesUnknownErrors(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		_ = c.Error(errors.New("pq: password authentication failed"))
	})

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRecoveryRendersPanic(t *testing.T) {
	r := newEngine(func(c *gin.Context) { panic("boom") })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), apperror.CodeInternal)
}

func TestTraceKeepsIncomingRequestID(t *testing.T) {
	var seen string
	r := newEngine(func(c *gin.Context) {
		seen = appctx.GetRequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-42")

	rec := serve(r, req)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get(HeaderRequestID))
	assert.NotEmpty(t, rec.Header().Get(HeaderTraceID))
}

func TestUserContextFromHeader(t *testing.T) {
	var actor string
	r := newEngine(func(c *gin.Context) {
		actor = appctx.Actor(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, appctx.SystemActor, actor)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "auditor")
	serve(r, req)
	assert.Equal(t, "auditor", actor)
}
