// Package middleware holds the gin middleware of the v1 API.
package middleware

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"helmetledger/internal/core/apperror"
	"helmetledger/pkg/logger"
)

// Recovery turns a handler panic into a logged INTERNAL_ERROR response.
// Gin's own recovery still handles broken connections; its plain text
// output is discarded in favour of the structured log entry.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		logger.Error(c.Request.Context(), "handler panicked",
			"panic", rec,
			"route", c.FullPath(),
			"stack", string(debug.Stack()),
		)
		if c.Writer.Written() {
			c.Abort()
			return
		}
		WriteError(c, apperror.NewInternal(fmt.Errorf("panic: %v", rec)).
			WithDetail("request_id", c.GetString(ContextKeyRequestID)))
		c.Abort()
	})
}
