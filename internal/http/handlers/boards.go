package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zudaR107/todo-app/internal/domain/board"
	"github.com/zudaR107/todo-app/internal/domain/task"
)

type TaskLister interface {
	List(ctx context.Context, f task.ListFilter) ([]task.Task, error)
}

type BoardsHandler struct {
	projects ProjectFinder
	tasks    TaskLister
}

func NewBoardsHandler(projects ProjectFinder, tasks TaskLister) *BoardsHandler {
	return &BoardsHandler{projects: projects, tasks: tasks}
}

// GetBoard handles GET /boards/:id. The whole project is loaded, no paging.
func (h *BoardsHandler) GetBoard(ctx *gin.Context) {
	id, ok := identity(ctx)
	if !ok {
		return
	}

	projectID, ok := bindID(ctx)
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := loadProject(cctx, h.projects, id, projectID); err != nil {
		fail(ctx, err)
		return
	}

	tasks, err := h.tasks.List(cctx, task.ListFilter{ProjectID: projectID})
	if err != nil {
		fail(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, board.Build(tasks))
}
