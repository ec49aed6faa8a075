package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zudaR107/todo-app/internal/apperr"
)

// RequireJSON rejects bodies that are not JSON. Bodyless POSTs such as
// /auth/refresh and /auth/logout pass through.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if !hasBody(c.Request) {
				break
			}
			ct := c.GetHeader("Content-Type")
			// allow "application/json; charset=utf-8"
			if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				abortWith(c, apperr.New(http.StatusUnsupportedMediaType, apperr.CodeUnsupported, "Content-Type must be application/json"))
				return
			}
		}
		c.Next()
	}
}

func hasBody(r *http.Request) bool {
	return r.ContentLength > 0 || (r.ContentLength < 0 && r.Body != nil && r.Body != http.NoBody)
}
