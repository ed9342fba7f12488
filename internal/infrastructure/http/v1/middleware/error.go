package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/http/v1/dto"
	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

// ErrorHandler turns the last error registered on the gin context into a
// JSON response. Internal causes are logged and never sent to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		ctx := c.Request.Context()

		appErr, ok := apperror.AsAppError(err)
		if !ok {
			logger.Error(ctx, "unhandled error", "error", err)
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Code:    apperror.CodeInternal,
				Kind:    apperror.KindInternal.String(),
				Message: "Internal server error",
				Details: map[string]any{"request_id": c.GetString(requestIDKey)},
			})
			return
		}

		if appErr.Err != nil {
			logger.Error(ctx, "request error",
				"code", appErr.Code,
				"kind", appErr.Kind().String(),
				"cause", appErr.Err,
			)
		}
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		c.JSON(status, dto.ErrorResponse{
			Code:      appErr.Code,
			Kind:      appErr.Kind().String(),
			Message:   appErr.Message,
			Details:   appErr.Details,
			Retryable: apperror.IsRetryable(appErr),
		})
	}
}
