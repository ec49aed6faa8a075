package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zudaR107/todo-app/internal/actorctx"
	"github.com/zudaR107/todo-app/internal/apperr"
	"github.com/zudaR107/todo-app/internal/auth"
	"github.com/zudaR107/todo-app/internal/domain/user"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccess(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWith(c, apperr.Unauthorized("Missing Authorization header"))
			return
		}

		claims, err := m.jwt.VerifyAccess(raw)
		if err != nil {
			abortWith(c, apperr.Unauthorized("Invalid or expired token").Wrap(err))
			return
		}

		SetIdentity(c, claims.Identity())

		c.Next()
	}
}

// SetIdentity stashes the caller on both the gin and the request context.
func SetIdentity(c *gin.Context, id auth.Identity) {
	c.Set(ctxIdentity, id)
	c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), id.UserID))
}

func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(ctxIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok && id.UserID != ""
}

func (m *AuthMiddleware) RequireRole(required user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)
		if !ok {
			abortWith(c, apperr.Unauthorized("Unauthorized"))
			return
		}
		if id.Role != required {
			abortWith(c, apperr.Forbidden("Forbidden"))
			return
		}
		c.Next()
	}
}

// abortWith records err for ErrorMapper and stops the chain.
func abortWith(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
