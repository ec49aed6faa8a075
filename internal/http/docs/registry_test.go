package docs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zudaR107/todo-app/internal/http/docs"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestOpenAPIPath(t *testing.T) {
	assert.Equal(t, "/api/projects/{id}/tasks", docs.OpenAPIPath("/api/projects/:id/tasks"))
	assert.Equal(t, "/api/calendar", docs.OpenAPIPath("/api/calendar"))
	assert.Equal(t, "/files/{path}", docs.OpenAPIPath("/files/*path"))
}

func TestHandleMountsAndRecords(t *testing.T) {
	r := gin.New()
	reg := docs.NewRegistry("Todo API", "1.0.0")
	api := r.Group("/api")

	reg.Handle(api, docs.Route{
		Method:    http.MethodGet,
		Path:      "/tasks/:id",
		Summary:   "Get task",
		Tag:       "tasks",
		Auth:      true,
		Params:    []docs.Param{docs.ObjectIDParam("Task id")},
		Responses: map[int]string{http.StatusOK: "Task", http.StatusNotFound: "Error"},
	}, func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/abc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Body.String())

	routes := reg.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "/api/tasks/:id", routes[0].Path)

	doc := reg.Document()
	op, ok := doc.Paths["/api/tasks/{id}"]["get"]
	require.True(t, ok, "operation missing: %+v", doc.Paths)
	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.Equal(t, []string{"tasks"}, op.Tags)
	require.Len(t, op.Parameters, 1)
	assert.True(t, op.Parameters[0].Required)
	assert.Equal(t, "path", op.Parameters[0].In)
	assert.Equal(t, "#/components/schemas/Task", op.Responses["200"].Content["application/json"].Schema.Ref)
	assert.Equal(t, []map[string][]string{{"bearerAuth": {}}}, op.Security)
}

func TestHandlerServesYAML(t *testing.T) {
	reg := docs.NewRegistry("Todo API", "1.0.0")
	reg.Add(docs.Route{
		Method:    http.MethodPost,
		Path:      "/api/auth/login",
		Summary:   "Log in",
		Body:      "LoginRequest",
		Responses: map[int]string{http.StatusOK: "LoginResponse", http.StatusUnauthorized: "Error"},
	})
	reg.Add(docs.Route{
		Method:    http.MethodDelete,
		Path:      "/api/projects/:id",
		Auth:      true,
		Params:    []docs.Param{docs.ObjectIDParam("Project id")},
		Responses: map[int]string{http.StatusNoContent: ""},
	})

	r := gin.New()
	r.GET("/openapi.yaml", reg.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/yaml")

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(w.Body.Bytes(), &parsed))
	assert.Equal(t, "3.0.3", parsed["openapi"])

	paths, ok := parsed["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/api/auth/login")
	assert.Contains(t, paths, "/api/projects/{id}")

	del := paths["/api/projects/{id}"].(map[string]any)["delete"].(map[string]any)
	noContent := del["responses"].(map[string]any)["204"].(map[string]any)
	assert.Equal(t, "No Content", noContent["description"])
	assert.NotContains(t, noContent, "content")

	schemas := parsed["components"].(map[string]any)["schemas"].(map[string]any)
	for _, name := range []string{"Error", "Task", "Project", "Board", "CalendarEvent", "LoginRequest"} {
		assert.Contains(t, schemas, name)
	}
}
