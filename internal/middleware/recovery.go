package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/econpulse/internal/domain/dto"
	"github.com/guttosm/econpulse/internal/logger"
)

// RecoveryMiddleware turns a panicking read handler into a 500 for that
// request only; the API keeps serving and the ETL scheduler running in the
// same process is unaffected.
//
// The panic value and stack go to the log under the request id. The client
// only sees a generic message plus the request id to quote, never the panic
// value, which may carry SQL or upstream payload fragments. When the handler
// had already started writing, the connection is aborted without a body.
//
// Install it after RequestID and RequestLogger so the access line records
// the 500.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			rid := requestIDOf(c)
			logger.L().Error().
				Str("request_id", rid).
				Str("route", c.FullPath()).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponse("Internal server error", fmt.Errorf("request %s", rid)))
		}()

		c.Next()
	}
}
