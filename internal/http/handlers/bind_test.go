package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/zudaR107/todo-app/internal/apperr"
	"github.com/zudaR107/todo-app/internal/domain/project"
	"github.com/zudaR107/todo-app/internal/domain/task"
	"github.com/zudaR107/todo-app/internal/http/handlers"
	"github.com/zudaR107/todo-app/internal/http/middlewares"
)

func bindTaskRouter() *gin.Engine {
	return setupRouter(http.MethodPost, "/tasks", func(ctx *gin.Context) {
		var req task.CreateTaskRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.JSON(http.StatusCreated, req)
	}, nil)
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	r := bindTaskRouter()

	w := doRequest(r, http.MethodPost, "/tasks", `{"title":"   ","status":"later","tags":["ok",""]}`, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	resp := decodeError(t, w)
	if resp.Error.Code != apperr.CodeValidation || resp.Error.Message != apperr.ValidationMessage {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	wantRules := map[string]string{
		"title":   "notblank",
		"status":  "oneof",
		"tags[1]": "notblank",
	}

	found := map[string]apperr.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	r := bindTaskRouter()

	w := doRequest(r, http.MethodPost, "/tasks", `{"title":"Write docs","tags":"docs"}`, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	resp := decodeError(t, w)
	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if len(resp.Error.Details.Fields) == 0 {
		t.Fatalf("expected at least one field error in details.fields")
	}

	fieldErr := resp.Error.Details.Fields[0]
	if fieldErr.Field != "tags" {
		t.Fatalf("expected fields[0].field=tags, got %q", fieldErr.Field)
	}
	if fieldErr.Rule != "type" {
		t.Fatalf("expected fields[0].rule=type, got %q", fieldErr.Rule)
	}
}

func TestBindJSON_RejectsMalformedBodies(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantJSON  string
		wantField string
		wantForm  bool
	}{
		{name: "unknown field", body: `{"title":"x","owner":"me"}`, wantField: "owner"},
		{name: "syntax error", body: `{"title" "x"}`, wantJSON: "invalid_json_syntax"},
		{name: "truncated", body: `{"title":`, wantJSON: "invalid_json_syntax"},
		{name: "trailing data", body: `{"title":"x"} {"title":"y"}`, wantForm: true},
		{name: "bad timestamp", body: `{"title":"x","dueAt":"tomorrow"}`, wantForm: true},
		{name: "empty body", body: ``, wantField: "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bindTaskRouter()

			w := doRequest(r, http.MethodPost, "/tasks", tt.body, map[string]string{"Content-Type": "application/json"})
			if w.Code != http.StatusBadRequest {
				t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
			}

			resp := decodeError(t, w)
			if tt.wantJSON != "" && resp.Error.Details.JSON != tt.wantJSON {
				t.Fatalf("details.json = %q, want %q", resp.Error.Details.JSON, tt.wantJSON)
			}
			if tt.wantField != "" {
				if _, ok := fieldRules(resp)[tt.wantField]; !ok {
					t.Fatalf("missing field %q in %+v", tt.wantField, resp.Error.Details.Fields)
				}
			}
			if tt.wantForm && len(resp.Error.Details.Form) == 0 {
				t.Fatalf("expected a form error, got %+v", resp.Error.Details)
			}
		})
	}
}

func TestBindJSON_HexColor(t *testing.T) {
	r := setupRouter(http.MethodPost, "/projects", func(ctx *gin.Context) {
		var req project.CreateProjectRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	}, nil)

	tests := []struct {
		body string
		want int
	}{
		{body: `{"name":"Home","color":"#ABC"}`, want: http.StatusCreated},
		{body: `{"name":"Home","color":"#a1b2c3"}`, want: http.StatusCreated},
		{body: `{"name":"Home"}`, want: http.StatusCreated},
		{body: `{"name":"Home","color":"#abcd"}`, want: http.StatusBadRequest},
		{body: `{"name":"Home","color":"red"}`, want: http.StatusBadRequest},
		{body: `{"name":"` + strings.Repeat("a", 101) + `"}`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		w := doRequest(r, http.MethodPost, "/projects", tt.body, nil)
		if w.Code != tt.want {
			t.Fatalf("%s: got %d, want %d, body=%s", tt.body, w.Code, tt.want, w.Body.String())
		}
	}
}

func TestBindJSON_BodyTooLarge(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.ErrorMapper(discardLog, false), middlewares.MaxBodyBytes(16))
	r.POST("/tasks", func(ctx *gin.Context) {
		var req task.CreateTaskRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	w := doRequest(r, http.MethodPost, "/tasks", `{"title":"`+strings.Repeat("x", 64)+`"}`, nil)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got %d, want 413, body=%s", w.Code, w.Body.String())
	}
}

func TestBindQuery(t *testing.T) {
	var got task.ListTasksQuery
	r := setupRouter(http.MethodGet, "/tasks", func(ctx *gin.Context) {
		got = task.ListTasksQuery{}
		if !handlers.BindQuery(ctx, &got) {
			return
		}
		ctx.Status(http.StatusOK)
	}, nil)

	tests := []struct {
		name      string
		query     string
		want      int
		wantField string
		wantRule  string
	}{
		{name: "valid", query: "?status=doing&limit=5&dueFrom=2025-01-01T00:00:00Z", want: http.StatusOK},
		{name: "unknown key", query: "?owner=me", want: http.StatusBadRequest, wantField: "owner", wantRule: "unknown"},
		{name: "bad status", query: "?status=later", want: http.StatusBadRequest, wantField: "status", wantRule: "oneof"},
		{name: "limit too low", query: "?limit=0", want: http.StatusBadRequest, wantField: "limit", wantRule: "min"},
		{name: "limit too high", query: "?limit=101", want: http.StatusBadRequest, wantField: "limit", wantRule: "max"},
		{name: "negative offset", query: "?offset=-1", want: http.StatusBadRequest, wantField: "offset", wantRule: "min"},
		{name: "bad due date", query: "?dueTo=yesterday", want: http.StatusBadRequest, wantField: "dueTo", wantRule: "datetime"},
		{name: "non numeric limit", query: "?limit=ten", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, "/tasks"+tt.query, "", nil)
			if w.Code != tt.want {
				t.Fatalf("got %d, want %d, body=%s", w.Code, tt.want, w.Body.String())
			}
			if tt.wantField == "" {
				return
			}
			resp := decodeError(t, w)
			if rule := fieldRules(resp)[tt.wantField]; rule != tt.wantRule {
				t.Fatalf("field %q rule = %q, want %q (%+v)", tt.wantField, rule, tt.wantRule, resp.Error.Details)
			}
		})
	}

	doRequest(r, http.MethodGet, "/tasks?status=doing&limit=5", "", nil)
	if got.Status != "doing" || got.Limit == nil || *got.Limit != 5 {
		t.Fatalf("query not bound: %+v", got)
	}
}

func TestBindURI_RejectsMalformedID(t *testing.T) {
	r := setupRouter(http.MethodGet, "/things/:id", func(ctx *gin.Context) {
		var p handlers.IDParam
		if !handlers.BindURI(ctx, &p) {
			return
		}
		ctx.String(http.StatusOK, p.ID)
	}, nil)

	w := doRequest(r, http.MethodGet, "/things/not-an-id", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", w.Code)
	}
	if rule := fieldRules(decodeError(t, w))["id"]; rule != "objectid" {
		t.Fatalf("id rule = %q, want objectid", rule)
	}

	w = doRequest(r, http.MethodGet, "/things/64f1c2a0e4b0c9a1d2345678", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != "64f1c2a0e4b0c9a1d2345678" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}
