// Package docs keeps the list of mounted API routes and renders it as an
// OpenAPI 3.0.3 document.
package docs

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

const openAPIVersion = "3.0.3"

// Param documents a path or query parameter.
type Param struct {
	Name        string
	In          string // path or query
	Description string
	Required    bool
	Schema      *Schema
}

// Route describes one mounted endpoint. Body and the response values name
// component schemas; an empty response schema means no body.
type Route struct {
	Method    string
	Path      string // gin syntax, e.g. /api/tasks/:id
	Summary   string
	Tag       string
	Auth      bool
	Params    []Param
	Body      string
	Responses map[int]string
}

// Registry collects routes as they are mounted. It is passed explicitly to
// route registration; there is no package-level instance.
type Registry struct {
	mu      sync.RWMutex
	title   string
	version string
	routes  []Route
	schemas map[string]*Schema
}

func NewRegistry(title, version string) *Registry {
	return &Registry{
		title:   title,
		version: version,
		schemas: Components(),
	}
}

func (r *Registry) Add(rt Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, rt)
}

// Routes returns a copy of the registered routes in registration order.
func (r *Registry) Routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Route(nil), r.routes...)
}

// Handle mounts h on g and records rt with the group's base path.
func (r *Registry) Handle(g *gin.RouterGroup, rt Route, h ...gin.HandlerFunc) {
	g.Handle(rt.Method, rt.Path, h...)
	rt.Path = joinPath(g.BasePath(), rt.Path)
	r.Add(rt)
}

func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	return strings.TrimSuffix(base, "/") + p
}

// OpenAPIPath converts gin's :name and *name segments to {name}.
func OpenAPIPath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, ":") || strings.HasPrefix(s, "*") {
			segs[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segs, "/")
}

type Document struct {
	OpenAPI    string                          `yaml:"openapi"`
	Info       Info                            `yaml:"info"`
	Paths      map[string]map[string]Operation `yaml:"paths"`
	Components DocumentComponents              `yaml:"components"`
}

type Info struct {
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

type DocumentComponents struct {
	Schemas         map[string]*Schema        `yaml:"schemas"`
	SecuritySchemes map[string]SecurityScheme `yaml:"securitySchemes"`
}

type SecurityScheme struct {
	Type         string `yaml:"type"`
	Scheme       string `yaml:"scheme"`
	BearerFormat string `yaml:"bearerFormat,omitempty"`
}

type Operation struct {
	Summary     string                `yaml:"summary,omitempty"`
	Tags        []string              `yaml:"tags,omitempty"`
	Parameters  []Parameter           `yaml:"parameters,omitempty"`
	RequestBody *RequestBody          `yaml:"requestBody,omitempty"`
	Responses   map[string]Response   `yaml:"responses"`
	Security    []map[string][]string `yaml:"security,omitempty"`
}

type Parameter struct {
	Name        string  `yaml:"name"`
	In          string  `yaml:"in"`
	Description string  `yaml:"description,omitempty"`
	Required    bool    `yaml:"required,omitempty"`
	Schema      *Schema `yaml:"schema,omitempty"`
}

type RequestBody struct {
	Required bool                 `yaml:"required"`
	Content  map[string]MediaType `yaml:"content"`
}

type Response struct {
	Description string               `yaml:"description"`
	Content     map[string]MediaType `yaml:"content,omitempty"`
}

type MediaType struct {
	Schema *Schema `yaml:"schema"`
}

// Document builds the OpenAPI document for everything registered so far.
func (r *Registry) Document() Document {
	doc := Document{
		OpenAPI: openAPIVersion,
		Info:    Info{Title: r.title, Version: r.version},
		Paths:   map[string]map[string]Operation{},
		Components: DocumentComponents{
			Schemas: r.schemas,
			SecuritySchemes: map[string]SecurityScheme{
				"bearerAuth": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
			},
		},
	}

	for _, rt := range r.Routes() {
		p := OpenAPIPath(rt.Path)
		if doc.Paths[p] == nil {
			doc.Paths[p] = map[string]Operation{}
		}
		doc.Paths[p][strings.ToLower(rt.Method)] = operation(rt)
	}
	return doc
}

func operation(rt Route) Operation {
	op := Operation{
		Summary:   rt.Summary,
		Responses: map[string]Response{},
	}
	if rt.Tag != "" {
		op.Tags = []string{rt.Tag}
	}
	if rt.Auth {
		op.Security = []map[string][]string{{"bearerAuth": {}}}
	}

	for _, p := range rt.Params {
		param := Parameter{
			Name:        p.Name,
			In:          p.In,
			Description: p.Description,
			Required:    p.Required || p.In == "path",
			Schema:      p.Schema,
		}
		if param.Schema == nil {
			param.Schema = &Schema{Type: "string"}
		}
		op.Parameters = append(op.Parameters, param)
	}

	if rt.Body != "" {
		op.RequestBody = &RequestBody{
			Required: true,
			Content:  jsonContent(Ref(rt.Body)),
		}
	}

	codes := make([]int, 0, len(rt.Responses))
	for code := range rt.Responses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		resp := Response{Description: http.StatusText(code)}
		if name := rt.Responses[code]; name != "" {
			resp.Content = jsonContent(Ref(name))
		}
		op.Responses[strconv.Itoa(code)] = resp
	}
	if len(op.Responses) == 0 {
		op.Responses["default"] = Response{Description: "Error", Content: jsonContent(Ref("Error"))}
	}
	return op
}

func jsonContent(s *Schema) map[string]MediaType {
	return map[string]MediaType{"application/json": {Schema: s}}
}

// YAML renders the current document.
func (r *Registry) YAML() ([]byte, error) {
	out, err := yaml.Marshal(r.Document())
	if err != nil {
		return nil, fmt.Errorf("docs: marshal openapi: %w", err)
	}
	return out, nil
}

// Handler serves the rendered document. It renders on each request so routes
// added after mounting are included.
func (r *Registry) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		out, err := r.YAML()
		if err != nil {
			_ = ctx.Error(err)
			return
		}
		ctx.Data(http.StatusOK, "application/yaml; charset=utf-8", out)
	}
}
