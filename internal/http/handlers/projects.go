package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zudaR107/todo-app/internal/access"
	"github.com/zudaR107/todo-app/internal/apperr"
	"github.com/zudaR107/todo-app/internal/auth"
	"github.com/zudaR107/todo-app/internal/domain/project"
)

type ProjectFinder interface {
	GetByID(ctx context.Context, id string) (project.Project, error)
}

type ProjectStore interface {
	ProjectFinder
	Create(ctx context.Context, p project.Project) (project.Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]project.Project, error)
	Update(ctx context.Context, id string, req project.UpdateProjectRequest) (project.Project, error)
	Delete(ctx context.Context, id string) error
}

// loadProject fetches projectID and checks that the caller may act on it.
func loadProject(ctx context.Context, projects ProjectFinder, id auth.Identity, projectID string) (project.Project, error) {
	p, err := projects.GetByID(ctx, projectID)
	if err != nil {
		return project.Project{}, err
	}
	if !access.CanManageProject(id, p.OwnerID) {
		return project.Project{}, apperr.Forbidden("Forbidden")
	}
	return p, nil
}

type ProjectsHandler struct {
	projects ProjectStore
}

func NewProjectsHandler(projects ProjectStore) *ProjectsHandler {
	return &ProjectsHandler{projects: projects}
}

func (h *ProjectsHandler) CreateProject(ctx *gin.Context) {
	id, ok := identity(ctx)
	if !ok {
		return
	}

	var req project.CreateProjectRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := h.projects.Create(cctx, project.NewFromCreateRequest(req, id.UserID))
	if err != nil {
		fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, p)
}

// ListProjects is owner-scoped for every role, superadmins included.
func (h *ProjectsHandler) ListProjects(ctx *gin.Context) {
	id, ok := identity(ctx)
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, 3*time.Second)
	defer cancel()

	items, err := h.projects.ListByOwner(cctx, id.UserID)
	if err != nil {
		fail(ctx, err)
		return
	}
	if items == nil {
		items = []project.Project{}
	}

	ctx.JSON(http.StatusOK, items)
}

func (h *ProjectsHandler) UpdateProject(ctx *gin.Context) {
	id, ok := identity(ctx)
	if !ok {
		return
	}

	projectID, ok := bindID(ctx)
	if !ok {
		return
	}

	var req project.UpdateProjectRequest
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

	if _, err := loadProject(cctx, h.projects, id, projectID); err != nil {
		fail(ctx, err)
		return
	}

	p, err := h.projects.Update(cctx, projectID, req)
	if err != nil {
		fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// DeleteProject removes the project and its tasks.
func (h *ProjectsHandler) DeleteProject(ctx *gin.Context) {
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

	if err := h.projects.Delete(cctx, projectID); err != nil {
		fail(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
