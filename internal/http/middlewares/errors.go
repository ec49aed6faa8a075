package middlewares

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/zudaR107/todo-app/internal/apperr"
)

type ErrorBody struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
	Stack     string `json:"stack,omitempty"`
}

// ErrorMapper is the only place error responses are written. Handlers and
// middlewares record failures with c.Error and return.
func ErrorMapper(log *slog.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		status, body := mapError(err)
		body.RequestID = RequestIDFrom(c)

		attrs := []any{"status", status, "request_id", body.RequestID, "err", err.Error()}
		if status >= http.StatusInternalServerError {
			if !production {
				body.Stack = c.GetString(ctxStack)
				if body.Stack == "" {
					body.Stack = err.Error()
				}
			}
			log.ErrorContext(c.Request.Context(), "request failed", attrs...)
		} else {
			log.DebugContext(c.Request.Context(), "request rejected", attrs...)
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(status, gin.H{"error": body})
	}
}

func mapError(err error) (int, ErrorBody) {
	if e, ok := apperr.As(err); ok {
		if e.Expose {
			return e.Status, ErrorBody{Message: e.Message, Code: e.Code, Details: e.Details}
		}
		status := e.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return status, ErrorBody{Message: http.StatusText(status), Code: apperr.CodeInternal}
	}

	return http.StatusInternalServerError, ErrorBody{Message: "Internal Server Error", Code: apperr.CodeInternal}
}

// Recovery turns a panic into a 500 rendered by ErrorMapper, which must be
// registered before it.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		c.Set(ctxStack, fmt.Sprintf("panic: %v\n%s", rec, debug.Stack()))
		abortWith(c, apperr.Internal(fmt.Errorf("panic: %v", rec)))
	})
}

// NotFound answers unmatched routes.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		abortWith(c, apperr.NotFound("Not Found"))
	}
}
