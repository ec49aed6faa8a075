package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zudaR107/todo-app/internal/access"
	"github.com/zudaR107/todo-app/internal/apperr"
	"github.com/zudaR107/todo-app/internal/domain/calendar"
	"github.com/zudaR107/todo-app/internal/domain/task"
)

type OwnedProjectLister interface {
	ProjectFinder
	ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error)
}

type WindowLister interface {
	ListInWindow(ctx context.Context, f task.WindowFilter) ([]task.Task, error)
}

type CalendarHandler struct {
	projects OwnedProjectLister
	tasks    WindowLister
}

func NewCalendarHandler(projects OwnedProjectLister, tasks WindowLister) *CalendarHandler {
	return &CalendarHandler{projects: projects, tasks: tasks}
}

// GetCalendar handles GET /calendar?from&to&projectId.
func (h *CalendarHandler) GetCalendar(ctx *gin.Context) {
	id, ok := identity(ctx)
	if !ok {
		return
	}

	var q calendar.Query
	if !BindQuery(ctx, &q) {
		return
	}

	from, to, err := q.Window()
	if errors.Is(err, calendar.ErrInvertedWindow) {
		fail(ctx, apperr.Validation(apperr.ValidationDetails{
			Fields: []apperr.FieldError{{
				Field:   "to",
				Rule:    "gtefield",
				Param:   "from",
				Message: "must be greater than or equal to from",
			}},
		}))
		return
	}
	if err != nil {
		fail(ctx, apperr.FormInvalid("from and to must be RFC 3339 date-times").Wrap(err))
		return
	}

	cctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := task.WindowFilter{From: from, To: to}

	switch {
	case q.ProjectID != "":
		if _, err := loadProject(cctx, h.projects, id, q.ProjectID); err != nil {
			fail(ctx, err)
			return
		}
		filter.ProjectIDs = []string{q.ProjectID}
	case access.DefaultCalendarScope(id) == access.ScopeAll:
		filter.AllProjects = true
	default:
		owned, err := h.projects.ListIDsByOwner(cctx, id.UserID)
		if err != nil {
			fail(ctx, err)
			return
		}
		if len(owned) == 0 {
			ctx.JSON(http.StatusOK, []calendar.Event{})
			return
		}
		filter.ProjectIDs = owned
	}

	tasks, err := h.tasks.ListInWindow(cctx, filter)
	if err != nil {
		fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, calendar.Build(tasks))
}
