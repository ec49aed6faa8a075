package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zudaR107/todo-app/internal/apperr"
	"github.com/zudaR107/todo-app/internal/auth"
	"github.com/zudaR107/todo-app/internal/domain/user"
	"github.com/zudaR107/todo-app/internal/http/middlewares"
	"github.com/zudaR107/todo-app/internal/security"
	"github.com/zudaR107/todo-app/internal/session"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type TokenService interface {
	SignAccess(sub string, role user.Role) (string, error)
	SignRefresh(sub string, role user.Role) (string, error)
	VerifyAccess(token string) (*auth.Claims, error)
	VerifyRefresh(token string) (*auth.Claims, error)
	RefreshTTL() time.Duration
}

// AuthRecorder counts auth outcomes. observability.Prom implements it.
type AuthRecorder interface {
	RecordAuth(event, result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuth(string, string) {}

type AuthHandler struct {
	users   UserReader
	tokens  TokenService
	revoker session.Revoker
	metrics AuthRecorder
	// secure marks the refresh cookie Secure, set in prod.
	secure bool
	now    func() time.Time
}

func NewAuthHandler(users UserReader, tokens TokenService, revoker session.Revoker, metrics AuthRecorder, secure bool) *AuthHandler {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &AuthHandler{
		users:   users,
		tokens:  tokens,
		revoker: revoker,
		metrics: metrics,
		secure:  secure,
		now:     time.Now,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=6,max=200"`
}

type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	User        user.Profile `json:"user"`
}

type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, 3*time.Second)
	defer cancel()

	found, err := h.users.GetByEmail(cctx, user.NormalizeEmail(req.Email))
	if errors.Is(err, user.ErrNotFound) {
		h.metrics.RecordAuth("login", "invalid")
		fail(ctx, apperr.Unauthorized("Invalid credentials"))
		return
	}
	if err != nil {
		fail(ctx, err)
		return
	}

	if err := security.CheckPassword(found.PasswordHash, req.Password); err != nil {
		h.metrics.RecordAuth("login", "invalid")
		fail(ctx, apperr.Unauthorized("Invalid credentials"))
		return
	}

	accessToken, err := h.tokens.SignAccess(found.ID, found.Role)
	if err != nil {
		fail(ctx, err)
		return
	}

	refreshToken, err := h.tokens.SignRefresh(found.ID, found.Role)
	if err != nil {
		fail(ctx, err)
		return
	}

	auth.SetRefreshCookie(ctx.Writer, refreshToken, h.tokens.RefreshTTL(), h.secure)
	h.metrics.RecordAuth("login", "ok")

	ctx.JSON(http.StatusOK, LoginResponse{
		AccessToken: accessToken,
		User:        found.Profile(),
	})
}

// Refresh trades the refresh cookie for a new access token. The cookie itself
// is not rotated.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	raw, err := ctx.Cookie(auth.RefreshCookieName)
	if err != nil || raw == "" {
		h.metrics.RecordAuth("refresh", "missing")
		fail(ctx, apperr.Unauthorized("Missing refresh cookie"))
		return
	}

	claims, err := h.tokens.VerifyRefresh(raw)
	if err != nil {
		h.metrics.RecordAuth("refresh", "invalid")
		fail(ctx, apperr.Unauthorized("Invalid or expired token").Wrap(err))
		return
	}

	cctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	revoked, err := session.IsRevoked(cctx, h.revoker, claims.Subject, claims.IssuedAtTime())
	if err != nil {
		fail(ctx, err)
		return
	}
	if revoked {
		h.metrics.RecordAuth("refresh", "revoked")
		auth.ClearRefreshCookie(ctx.Writer, h.secure)
		fail(ctx, apperr.Unauthorized("Session has been revoked"))
		return
	}

	accessToken, err := h.tokens.SignAccess(claims.Subject, claims.Role)
	if err != nil {
		fail(ctx, err)
		return
	}

	h.metrics.RecordAuth("refresh", "ok")
	ctx.JSON(http.StatusOK, TokenResponse{AccessToken: accessToken})
}

// Logout always clears the cookie. With a valid bearer token it also revokes
// every refresh token issued to the caller so far.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	auth.ClearRefreshCookie(ctx.Writer, h.secure)

	if raw, ok := middlewares.BearerToken(ctx.GetHeader("Authorization")); ok {
		if claims, err := h.tokens.VerifyAccess(raw); err == nil {
			cctx, cancel := withTimeout(ctx, 2*time.Second)
			defer cancel()

			if err := h.revoker.RevokeUser(cctx, claims.Subject, h.now()); err != nil {
				fail(ctx, err)
				return
			}
		}
	}

	h.metrics.RecordAuth("logout", "ok")
	ctx.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	id, ok := identity(ctx)
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, id.UserID)
	if err != nil {
		fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, u.Profile())
}

// withTimeout bounds store calls made on behalf of the request.
func withTimeout(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), d)
}
