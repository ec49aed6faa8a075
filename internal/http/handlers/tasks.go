package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zudaR107/todo-app/internal/apperr"
	"github.com/zudaR107/todo-app/internal/domain/task"
)

type TaskStore interface {
	Create(ctx context.Context, t task.Task) (task.Task, error)
	GetByID(ctx context.Context, id string) (task.Task, error)
	List(ctx context.Context, f task.ListFilter) ([]task.Task, error)
	Update(ctx context.Context, id string, req task.UpdateTaskRequest) (task.Task, error)
}

type TasksHandler struct {
	projects ProjectFinder
	tasks    TaskStore
}

func NewTasksHandler(projects ProjectFinder, tasks TaskStore) *TasksHandler {
	return &TasksHandler{projects: projects, tasks: tasks}
}

// CreateTask handles POST /projects/:id/tasks.
func (h *TasksHandler) CreateTask(ctx *gin.Context) {
	id, ok := identity(ctx)
	if !ok {
		return
	}

	projectID, ok := bindID(ctx)
	if !ok {
		return
	}

	var req task.CreateTaskRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := loadProject(cctx, h.projects, id, projectID); err != nil {
		fail(ctx, err)
		return
	}

	t, err := h.tasks.Create(cctx, task.NewFromCreateRequest(req, projectID, id.UserID))
	if err != nil {
		fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, t)
}

// ListTasks handles GET /projects/:id/tasks.
func (h *TasksHandler) ListTasks(ctx *gin.Context) {
	id, ok := identity(ctx)
	if !ok {
		return
	}

	projectID, ok := bindID(ctx)
	if !ok {
		return
	}

	var q task.ListTasksQuery
	if !BindQuery(ctx, &q) {
		return
	}

	cctx, cancel := withTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := loadProject(cctx, h.projects, id, projectID); err != nil {
		fail(ctx, err)
		return
	}

	items, err := h.tasks.List(cctx, q.ToFilter(projectID))
	if err != nil {
		fail(ctx, err)
		return
	}
	if items == nil {
		items = []task.Task{}
	}

	ctx.JSON(http.StatusOK, items)
}

func (h *TasksHandler) GetTask(ctx *gin.Context) {
	id, ok := identity(ctx)
	if !ok {
		return
	}

	taskID, ok := bindID(ctx)
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, 3*time.Second)
	defer cancel()

	t, err := h.tasks.GetByID(cctx, taskID)
	if err != nil {
		fail(ctx, err)
		return
	}

	if _, err := loadProject(cctx, h.projects, id, t.ProjectID); err != nil {
		fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TasksHandler) UpdateTask(ctx *gin.Context) {
	id, ok := identity(ctx)
	if !ok {
		return
	}

	taskID, ok := bindID(ctx)
	if !ok {
		return
	}

	var req task.UpdateTaskRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if req.IsEmpty() {
		fail(ctx, apperr.FormInvalid(emptyPatchMessage))
		return
	}
	req.Normalize()

	cctx, cancel := withTimeout(ctx, 3*time.Second)
	defer cancel()

	current, err := h.tasks.GetByID(cctx, taskID)
	if err != nil {
		fail(ctx, err)
		return
	}

	if _, err := loadProject(cctx, h.projects, id, current.ProjectID); err != nil {
		fail(ctx, err)
		return
	}

	t, err := h.tasks.Update(cctx, taskID, req)
	if err != nil {
		fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, t)
}
