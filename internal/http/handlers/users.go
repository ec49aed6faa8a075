package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zudaR107/todo-app/internal/access"
	"github.com/zudaR107/todo-app/internal/apperr"
	"github.com/zudaR107/todo-app/internal/domain/user"
	"github.com/zudaR107/todo-app/internal/security"
)

type UserCreator interface {
	Create(ctx context.Context, u user.User) (user.User, error)
}

type UsersHandler struct {
	users UserCreator
}

func NewUsersHandler(users UserCreator) *UsersHandler {
	return &UsersHandler{users: users}
}

// CreateUser is mounted behind RequireRole(superadmin); the policy check here
// keeps the handler safe if it is ever mounted elsewhere.
func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	id, ok := identity(ctx)
	if !ok {
		return
	}
	if !access.CanCreateUsers(id) {
		fail(ctx, apperr.Forbidden("Forbidden"))
		return
	}

	var req user.CreateUserRequest
	if !BindJSON(ctx, &req) {
		return
	}

	role := req.Role
	if role == "" {
		role = user.RoleUser
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		fail(ctx, err)
		return
	}

	cctx, cancel := withTimeout(ctx, 3*time.Second)
	defer cancel()

	created, err := h.users.Create(cctx, user.User{
		Email:        user.NormalizeEmail(req.Email),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, created.Profile())
}
