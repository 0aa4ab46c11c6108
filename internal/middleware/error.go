package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/econpulse/internal/domain/dto"
	"github.com/guttosm/econpulse/internal/logger"
)

// ErrorHandler renders errors attached with c.Error() as a dto.ErrorResponse.
//
// Behavior:
//   - Runs after the handler chain.
//   - Does nothing when no error was attached or a body was already written.
//   - Uses the current status when it is an error status, 500 otherwise.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	status := c.Writer.Status()
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	last := c.Errors.Last()
	logger.L().Error().
		Str("request_id", requestIDOf(c)).
		Err(last.Err).
		Int("status", status).
		Msg("request failed")

	c.JSON(status, dto.NewErrorResponse(http.StatusText(status), last.Err))
}

// AbortWithError stops the chain and writes a dto.ErrorResponse with the given status.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
