package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/context"
)

// HeaderUserID names the caller when the API sits behind an authenticating proxy.
const HeaderUserID = "X-User-ID"

// UserContext puts the caller named by HeaderUserID on the request context,
// so audit records and logs carry it. Without the header the system actor is used.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := c.GetHeader(HeaderUserID); uid != "" {
			ctx := appctx.WithUser(c.Request.Context(), &appctx.UserContext{UserID: uid})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
