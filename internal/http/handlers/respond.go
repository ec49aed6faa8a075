package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/zudaR107/todo-app/internal/apperr"
	"github.com/zudaR107/todo-app/internal/auth"
	"github.com/zudaR107/todo-app/internal/domain/project"
	"github.com/zudaR107/todo-app/internal/domain/task"
	"github.com/zudaR107/todo-app/internal/domain/user"
	"github.com/zudaR107/todo-app/internal/http/middlewares"
)

const emptyPatchMessage = "At least one field must be provided"

// fail records err for the error mapper. Store sentinels become their HTTP
// counterparts, anything unrecognised a 500.
func fail(ctx *gin.Context, err error) {
	_ = ctx.Error(translate(err))
}

func translate(err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, user.ErrNotFound):
		return apperr.NotFound("User not found").Wrap(err)
	case errors.Is(err, user.ErrEmailTaken):
		return apperr.Conflict("Email already exists").Wrap(err)
	case errors.Is(err, project.ErrNotFound):
		return apperr.NotFound("Project not found").Wrap(err)
	case errors.Is(err, task.ErrNotFound):
		return apperr.NotFound("Task not found").Wrap(err)
	default:
		return apperr.Internal(err)
	}
}

// identity returns the caller set by RequireAuth. Routes mounted without it
// get a 401 rather than a panic.
func identity(ctx *gin.Context) (auth.Identity, bool) {
	id, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		fail(ctx, apperr.Unauthorized("Unauthorized"))
		return auth.Identity{}, false
	}
	return id, true
}
