package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/zudaR107/todo-app/internal/apperr"
	"github.com/zudaR107/todo-app/internal/auth"
	"github.com/zudaR107/todo-app/internal/domain/project"
	"github.com/zudaR107/todo-app/internal/domain/task"
	"github.com/zudaR107/todo-app/internal/domain/user"
	"github.com/zudaR107/todo-app/internal/http/middlewares"
	"github.com/zudaR107/todo-app/internal/ids"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var discardLog = slog.New(slog.NewTextHandler(io.Discard, nil))

// newEngine returns an engine with the error mapper installed. A non-nil
// caller is attached as if RequireAuth had run.
func newEngine(caller *auth.Identity) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestID(), middlewares.ErrorMapper(discardLog, false), middlewares.Recovery())
	if caller != nil {
		id := *caller
		r.Use(func(c *gin.Context) {
			middlewares.SetIdentity(c, id)
			c.Next()
		})
	}
	return r
}

func setupRouter(method, path string, h gin.HandlerFunc, caller *auth.Identity) *gin.Engine {
	r := newEngine(caller)
	r.Handle(method, path, h)
	return r
}

func doRequest(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorResponse struct {
	Error struct {
		Message   string                   `json:"message"`
		Code      string                   `json:"code"`
		RequestID string                   `json:"requestId"`
		Details   apperr.ValidationDetails `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}
	return resp
}

func mustDecode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to unmarshal body: %v body=%s", err, w.Body.String())
	}
	return out
}

func fieldRules(resp errorResponse) map[string]string {
	out := make(map[string]string, len(resp.Error.Details.Fields))
	for _, f := range resp.Error.Details.Fields {
		out[f.Field] = f.Rule
	}
	return out
}

var (
	ownerID = ids.New()
	otherID = ids.New()
	adminID = ids.New()

	ownerCaller = &auth.Identity{UserID: ownerID, Role: user.RoleUser}
	otherCaller = &auth.Identity{UserID: otherID, Role: user.RoleUser}
	adminCaller = &auth.Identity{UserID: adminID, Role: user.RoleSuperadmin}
)

type fakeUsersRepo struct {
	createFn     func(ctx context.Context, u user.User) (user.User, error)
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
	getByIDFn    func(ctx context.Context, id string) (user.User, error)
}

func (f *fakeUsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	if f.createFn == nil {
		panic("createFn not set")
	}
	return f.createFn(ctx, u)
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn == nil {
		return user.User{}, user.ErrNotFound
	}
	return f.getByEmailFn(ctx, email)
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn == nil {
		return user.User{}, user.ErrNotFound
	}
	return f.getByIDFn(ctx, id)
}

type fakeProjectsRepo struct {
	createFn  func(ctx context.Context, p project.Project) (project.Project, error)
	getFn     func(ctx context.Context, id string) (project.Project, error)
	listFn    func(ctx context.Context, ownerID string) ([]project.Project, error)
	listIDsFn func(ctx context.Context, ownerID string) ([]string, error)
	updateFn  func(ctx context.Context, id string, req project.UpdateProjectRequest) (project.Project, error)
	deleteFn  func(ctx context.Context, id string) error
}

func (f *fakeProjectsRepo) Create(ctx context.Context, p project.Project) (project.Project, error) {
	if f.createFn == nil {
		panic("createFn not set")
	}
	return f.createFn(ctx, p)
}

func (f *fakeProjectsRepo) GetByID(ctx context.Context, id string) (project.Project, error) {
	if f.getFn == nil {
		return project.Project{}, project.ErrNotFound
	}
	return f.getFn(ctx, id)
}

func (f *fakeProjectsRepo) ListByOwner(ctx context.Context, ownerID string) ([]project.Project, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, ownerID)
}

func (f *fakeProjectsRepo) ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	if f.listIDsFn == nil {
		return nil, nil
	}
	return f.listIDsFn(ctx, ownerID)
}

func (f *fakeProjectsRepo) Update(ctx context.Context, id string, req project.UpdateProjectRequest) (project.Project, error) {
	if f.updateFn == nil {
		panic("updateFn not set")
	}
	return f.updateFn(ctx, id, req)
}

func (f *fakeProjectsRepo) Delete(ctx context.Context, id string) error {
	if f.deleteFn == nil {
		panic("deleteFn not set")
	}
	return f.deleteFn(ctx, id)
}

// ownedBy answers GetByID with a project owned by owner.
func ownedBy(owner string) func(ctx context.Context, id string) (project.Project, error) {
	return func(_ context.Context, id string) (project.Project, error) {
		return project.Project{ID: id, Name: "Home", OwnerID: owner}, nil
	}
}

type fakeTasksRepo struct {
	createFn func(ctx context.Context, t task.Task) (task.Task, error)
	getFn    func(ctx context.Context, id string) (task.Task, error)
	listFn   func(ctx context.Context, f task.ListFilter) ([]task.Task, error)
	windowFn func(ctx context.Context, f task.WindowFilter) ([]task.Task, error)
	updateFn func(ctx context.Context, id string, req task.UpdateTaskRequest) (task.Task, error)
}

func (f *fakeTasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	if f.createFn == nil {
		panic("createFn not set")
	}
	return f.createFn(ctx, t)
}

func (f *fakeTasksRepo) GetByID(ctx context.Context, id string) (task.Task, error) {
	if f.getFn == nil {
		return task.Task{}, task.ErrNotFound
	}
	return f.getFn(ctx, id)
}

func (f *fakeTasksRepo) List(ctx context.Context, filter task.ListFilter) ([]task.Task, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, filter)
}

func (f *fakeTasksRepo) ListInWindow(ctx context.Context, filter task.WindowFilter) ([]task.Task, error) {
	if f.windowFn == nil {
		return nil, nil
	}
	return f.windowFn(ctx, filter)
}

func (f *fakeTasksRepo) Update(ctx context.Context, id string, req task.UpdateTaskRequest) (task.Task, error) {
	if f.updateFn == nil {
		panic("updateFn not set")
	}
	return f.updateFn(ctx, id, req)
}
