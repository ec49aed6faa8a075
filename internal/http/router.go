package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/zudaR107/todo-app/internal/auth"
	"github.com/zudaR107/todo-app/internal/config"
	"github.com/zudaR107/todo-app/internal/domain/user"
	"github.com/zudaR107/todo-app/internal/http/docs"
	"github.com/zudaR107/todo-app/internal/http/handlers"
	"github.com/zudaR107/todo-app/internal/http/middlewares"
	"github.com/zudaR107/todo-app/internal/observability"
	"github.com/zudaR107/todo-app/internal/repo"
	"github.com/zudaR107/todo-app/internal/session"
)

const (
	serviceName = "todo-api"
	docsPrefix  = "/api/docs"
)

// Deps is everything the router needs. Prom and Gatherer are optional; without
// them no metrics are recorded and /metrics is not mounted.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Store    repo.Store
	Tokens   *auth.Manager
	Revoker  session.Revoker
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	// unknown methods on a known path fall through to NoRoute
	r.HandleMethodNotAllowed = false
	// nil trusts nobody, so forwarded headers cannot pick the rate limit key
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		d.Log.Warn("invalid trusted proxies, trusting none", "proxies", cfg.TrustedProxies, "err", err)
		_ = r.SetTrustedProxies(nil)
	}

	handlers.RegisterValidators()

	// middleware
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestID())
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.ErrorMapper(d.Log, cfg.IsProd()))
	r.Use(middlewares.Recovery())
	r.Use(middlewares.SecurityHeaders(docsPrefix, cfg.IsProd()))
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	r.NoRoute(middlewares.NotFound())

	// health
	health := handlers.NewHealthHandler(d.Store.Ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	reg := docs.NewRegistry("Todo API", "1.0.0")
	api := r.Group("/api")

	reg.Handle(api, docs.Route{
		Method: http.MethodGet, Path: "/healthz", Summary: "Liveness probe", Tag: "health",
		Responses: map[int]string{http.StatusOK: "Health"},
	}, health.Health)

	registerAuthRoutes(api, reg, d)
	registerResourceRoutes(api, reg, d)

	api.GET("/docs", handlers.SwaggerUI(docsPrefix+"/openapi.yaml"))
	api.GET("/docs/openapi.yaml", reg.Handler())

	return r
}

func registerAuthRoutes(api *gin.RouterGroup, reg *docs.Registry, d Deps) {
	var recorder handlers.AuthRecorder
	if d.Prom != nil {
		recorder = d.Prom
	}
	h := handlers.NewAuthHandler(d.Store.Users, d.Tokens, d.Revoker, recorder, d.Config.IsProd())
	authMw := middlewares.NewAuthMiddleware(d.Tokens)
	loginLimiter := middlewares.NewRateLimiter(d.Config.LoginRateLimit, d.Config.LoginRateWindow)

	g := api.Group("/auth")

	reg.Handle(g, docs.Route{
		Method: http.MethodPost, Path: "/login", Summary: "Log in with email and password", Tag: "auth",
		Body: "LoginRequest",
		Responses: map[int]string{
			http.StatusOK:              "LoginResponse",
			http.StatusBadRequest:      "Error",
			http.StatusUnauthorized:    "Error",
			http.StatusTooManyRequests: "Error",
		},
	}, loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), h.Login)

	reg.Handle(g, docs.Route{
		Method: http.MethodPost, Path: "/refresh", Summary: "Exchange the refresh cookie for an access token", Tag: "auth",
		Responses: map[int]string{http.StatusOK: "TokenResponse", http.StatusUnauthorized: "Error"},
	}, h.Refresh)

	reg.Handle(g, docs.Route{
		Method: http.MethodPost, Path: "/logout", Summary: "Clear the refresh cookie", Tag: "auth",
		Responses: map[int]string{http.StatusNoContent: ""},
	}, h.Logout)

	reg.Handle(g, docs.Route{
		Method: http.MethodGet, Path: "/me", Summary: "Current user profile", Tag: "auth", Auth: true,
		Responses: map[int]string{http.StatusOK: "User", http.StatusUnauthorized: "Error", http.StatusNotFound: "Error"},
	}, authMw.RequireAuth(), h.Me)
}

func registerResourceRoutes(api *gin.RouterGroup, reg *docs.Registry, d Deps) {
	authMw := middlewares.NewAuthMiddleware(d.Tokens)
	g := api.Group("", authMw.RequireAuth())

	// creates are limited per caller, after auth has set the identity
	var writeLimit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if d.Config.WriteRateLimit > 0 {
		writeLimit = middlewares.NewRateLimiter(d.Config.WriteRateLimit, d.Config.WriteRateWindow).
			RateLimiterMiddleware(middlewares.KeyByUserOrIP)
	}

	users := handlers.NewUsersHandler(d.Store.Users)
	projects := handlers.NewProjectsHandler(d.Store.Projects)
	tasks := handlers.NewTasksHandler(d.Store.Projects, d.Store.Tasks)
	boards := handlers.NewBoardsHandler(d.Store.Projects, d.Store.Tasks)
	calendar := handlers.NewCalendarHandler(d.Store.Projects, d.Store.Tasks)

	denied := map[int]string{
		http.StatusBadRequest:   "Error",
		http.StatusUnauthorized: "Error",
		http.StatusForbidden:    "Error",
		http.StatusNotFound:     "Error",
	}
	withDenied := func(ok int, schema string) map[int]string {
		out := map[int]string{ok: schema}
		for code, s := range denied {
			out[code] = s
		}
		return out
	}
	limited := func(ok int, schema string) map[int]string {
		out := withDenied(ok, schema)
		out[http.StatusTooManyRequests] = "Error"
		return out
	}

	// users
	reg.Handle(g, docs.Route{
		Method: http.MethodPost, Path: "/users", Summary: "Create a user (superadmin)", Tag: "users", Auth: true,
		Body: "CreateUserRequest", Responses: limited(http.StatusCreated, "User"),
	}, authMw.RequireRole(user.RoleSuperadmin), writeLimit, users.CreateUser)

	// projects
	reg.Handle(g, docs.Route{
		Method: http.MethodPost, Path: "/projects", Summary: "Create a project", Tag: "projects", Auth: true,
		Body: "CreateProjectRequest", Responses: limited(http.StatusCreated, "Project"),
	}, writeLimit, projects.CreateProject)
	reg.Handle(g, docs.Route{
		Method: http.MethodGet, Path: "/projects", Summary: "List the caller's projects", Tag: "projects", Auth: true,
		Responses: withDenied(http.StatusOK, "ProjectList"),
	}, projects.ListProjects)
	reg.Handle(g, docs.Route{
		Method: http.MethodPatch, Path: "/projects/:id", Summary: "Update a project", Tag: "projects", Auth: true,
		Params: []docs.Param{docs.ObjectIDParam("Project id")},
		Body:   "UpdateProjectRequest", Responses: withDenied(http.StatusOK, "Project"),
	}, projects.UpdateProject)
	reg.Handle(g, docs.Route{
		Method: http.MethodDelete, Path: "/projects/:id", Summary: "Delete a project and its tasks", Tag: "projects", Auth: true,
		Params:    []docs.Param{docs.ObjectIDParam("Project id")},
		Responses: withDenied(http.StatusNoContent, ""),
	}, projects.DeleteProject)

	// tasks
	reg.Handle(g, docs.Route{
		Method: http.MethodPost, Path: "/projects/:id/tasks", Summary: "Create a task", Tag: "tasks", Auth: true,
		Params: []docs.Param{docs.ObjectIDParam("Project id")},
		Body:   "CreateTaskRequest", Responses: limited(http.StatusCreated, "Task"),
	}, writeLimit, tasks.CreateTask)
	reg.Handle(g, docs.Route{
		Method: http.MethodGet, Path: "/projects/:id/tasks", Summary: "List and filter a project's tasks", Tag: "tasks", Auth: true,
		Params: []docs.Param{
			docs.ObjectIDParam("Project id"),
			docs.QueryParam("status", "Exact status", docs.Status, false),
			docs.QueryParam("priority", "Exact priority", docs.Priority, false),
			docs.QueryParam("tag", "Tasks carrying this tag", docs.Text, false),
			docs.QueryParam("q", "Case-insensitive title substring", docs.Text, false),
			docs.QueryParam("dueFrom", "Due at or after", docs.DateTime, false),
			docs.QueryParam("dueTo", "Due at or before", docs.DateTime, false),
			docs.QueryParam("limit", "Page size, default 20", docs.Limit, false),
			docs.QueryParam("offset", "Items to skip", docs.Offset, false),
		},
		Responses: withDenied(http.StatusOK, "TaskList"),
	}, tasks.ListTasks)
	reg.Handle(g, docs.Route{
		Method: http.MethodGet, Path: "/tasks/:id", Summary: "Get a task", Tag: "tasks", Auth: true,
		Params:    []docs.Param{docs.ObjectIDParam("Task id")},
		Responses: withDenied(http.StatusOK, "Task"),
	}, tasks.GetTask)
	reg.Handle(g, docs.Route{
		Method: http.MethodPatch, Path: "/tasks/:id", Summary: "Update a task", Tag: "tasks", Auth: true,
		Params: []docs.Param{docs.ObjectIDParam("Task id")},
		Body:   "UpdateTaskRequest", Responses: withDenied(http.StatusOK, "Task"),
	}, tasks.UpdateTask)

	// board and calendar
	reg.Handle(g, docs.Route{
		Method: http.MethodGet, Path: "/boards/:id", Summary: "Kanban board of a project", Tag: "board", Auth: true,
		Params:    []docs.Param{docs.ObjectIDParam("Project id")},
		Responses: withDenied(http.StatusOK, "Board"),
	}, boards.GetBoard)
	reg.Handle(g, docs.Route{
		Method: http.MethodGet, Path: "/calendar", Summary: "Calendar events in a time window", Tag: "calendar", Auth: true,
		Params: []docs.Param{
			docs.QueryParam("from", "Window start", docs.DateTime, true),
			docs.QueryParam("to", "Window end, not before from", docs.DateTime, true),
			docs.QueryParam("projectId", "Limit to one project", docs.ObjectID, false),
		},
		Responses: withDenied(http.StatusOK, "CalendarEventList"),
	}, calendar.GetCalendar)
}
