package docs

// Schema is the subset of the OpenAPI schema object the API uses.
type Schema struct {
	Ref                  string             `yaml:"$ref,omitempty"`
	Type                 string             `yaml:"type,omitempty"`
	Format               string             `yaml:"format,omitempty"`
	Pattern              string             `yaml:"pattern,omitempty"`
	Enum                 []string           `yaml:"enum,omitempty"`
	MinLength            *int               `yaml:"minLength,omitempty"`
	MaxLength            *int               `yaml:"maxLength,omitempty"`
	Minimum              *int               `yaml:"minimum,omitempty"`
	Maximum              *int               `yaml:"maximum,omitempty"`
	MaxItems             *int               `yaml:"maxItems,omitempty"`
	Items                *Schema            `yaml:"items,omitempty"`
	Properties           map[string]*Schema `yaml:"properties,omitempty"`
	Required             []string           `yaml:"required,omitempty"`
	AdditionalProperties *bool              `yaml:"additionalProperties,omitempty"`
}

func Ref(name string) *Schema {
	return &Schema{Ref: "#/components/schemas/" + name}
}

func intp(n int) *int { return &n }

func boolp(b bool) *bool { return &b }

func str(min, max int) *Schema {
	return &Schema{Type: "string", MinLength: intp(min), MaxLength: intp(max)}
}

func object(required []string, props map[string]*Schema) *Schema {
	return &Schema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: boolp(false),
	}
}

func arrayOf(s *Schema) *Schema { return &Schema{Type: "array", Items: s} }

var (
	objectIDSchema = &Schema{Type: "string", Pattern: "^[a-fA-F0-9]{24}$"}
	dateTimeSchema = &Schema{Type: "string", Format: "date-time"}
	colorSchema    = &Schema{Type: "string", Pattern: "^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$"}
	roleSchema     = &Schema{Type: "string", Enum: []string{"superadmin", "user"}}
	statusSchema   = &Schema{Type: "string", Enum: []string{"todo", "doing", "done"}}
	prioritySchema = &Schema{Type: "string", Enum: []string{"low", "normal", "high"}}
	tagsSchema     = &Schema{Type: "array", Items: str(1, 50), MaxItems: intp(50)}
)

// ObjectIDParam is the {id} path parameter used by every resource route.
func ObjectIDParam(desc string) Param {
	return Param{Name: "id", In: "path", Description: desc, Required: true, Schema: objectIDSchema}
}

func QueryParam(name, desc string, s *Schema, required bool) Param {
	return Param{Name: name, In: "query", Description: desc, Required: required, Schema: s}
}

// Query parameter schemas shared with route registration.
var (
	DateTime = dateTimeSchema
	ObjectID = objectIDSchema
	Status   = statusSchema
	Priority = prioritySchema
	Limit    = &Schema{Type: "integer", Minimum: intp(1), Maximum: intp(100)}
	Offset   = &Schema{Type: "integer", Minimum: intp(0)}
	Text     = &Schema{Type: "string"}
)

// Components returns the named schemas referenced by routes.
func Components() map[string]*Schema {
	task := object([]string{"id", "projectId", "title", "status", "priority", "tags", "createdBy", "createdAt", "updatedAt"}, map[string]*Schema{
		"id":          objectIDSchema,
		"projectId":   objectIDSchema,
		"title":       str(1, 200),
		"description": str(1, 10000),
		"status":      statusSchema,
		"priority":    prioritySchema,
		"startAt":     dateTimeSchema,
		"dueAt":       dateTimeSchema,
		"allDay":      {Type: "boolean"},
		"tags":        tagsSchema,
		"createdBy":   objectIDSchema,
		"createdAt":   dateTimeSchema,
		"updatedAt":   dateTimeSchema,
	})

	return map[string]*Schema{
		"Error": {
			Type:     "object",
			Required: []string{"error"},
			Properties: map[string]*Schema{
				"error": {
					Type:     "object",
					Required: []string{"message"},
					Properties: map[string]*Schema{
						"message":   {Type: "string"},
						"code":      {Type: "string"},
						"requestId": {Type: "string"},
						"details":   {Type: "object"},
						"stack":     {Type: "string"},
					},
				},
			},
		},
		"LoginRequest": object([]string{"email", "password"}, map[string]*Schema{
			"email":    {Type: "string", Format: "email", MaxLength: intp(254)},
			"password": str(6, 200),
		}),
		"LoginResponse": object([]string{"accessToken", "user"}, map[string]*Schema{
			"accessToken": {Type: "string"},
			"user":        Ref("User"),
		}),
		"TokenResponse": object([]string{"accessToken"}, map[string]*Schema{
			"accessToken": {Type: "string"},
		}),
		"User": object([]string{"id", "email", "displayName", "role"}, map[string]*Schema{
			"id":          objectIDSchema,
			"email":       {Type: "string", Format: "email"},
			"displayName": {Type: "string"},
			"role":        roleSchema,
		}),
		"CreateUserRequest": object([]string{"email", "displayName", "password"}, map[string]*Schema{
			"email":       {Type: "string", Format: "email", MaxLength: intp(254)},
			"displayName": str(1, 100),
			"password":    str(6, 200),
			"role":        roleSchema,
		}),
		"Project": object([]string{"id", "name", "ownerId", "createdAt", "updatedAt"}, map[string]*Schema{
			"id":        objectIDSchema,
			"name":      str(1, 100),
			"color":     colorSchema,
			"ownerId":   objectIDSchema,
			"createdAt": dateTimeSchema,
			"updatedAt": dateTimeSchema,
		}),
		"ProjectList": arrayOf(Ref("Project")),
		"CreateProjectRequest": object([]string{"name"}, map[string]*Schema{
			"name":  str(1, 100),
			"color": colorSchema,
		}),
		"UpdateProjectRequest": object(nil, map[string]*Schema{
			"name":  str(1, 100),
			"color": colorSchema,
		}),
		"Task":     task,
		"TaskList": arrayOf(Ref("Task")),
		"CreateTaskRequest": object([]string{"title"}, map[string]*Schema{
			"title":       str(1, 200),
			"description": str(1, 10000),
			"status":      statusSchema,
			"priority":    prioritySchema,
			"startAt":     dateTimeSchema,
			"dueAt":       dateTimeSchema,
			"allDay":      {Type: "boolean"},
			"tags":        tagsSchema,
		}),
		"UpdateTaskRequest": object(nil, map[string]*Schema{
			"title":       str(1, 200),
			"description": str(1, 10000),
			"status":      statusSchema,
			"priority":    prioritySchema,
			"startAt":     dateTimeSchema,
			"dueAt":       dateTimeSchema,
			"allDay":      {Type: "boolean"},
			"tags":        tagsSchema,
		}),
		"Board": object([]string{"columns"}, map[string]*Schema{
			"columns": arrayOf(object([]string{"id", "name", "tasks"}, map[string]*Schema{
				"id":    statusSchema,
				"name":  {Type: "string"},
				"tasks": arrayOf(Ref("Task")),
			})),
		}),
		"CalendarEvent": object([]string{"id", "title", "start", "projectId", "status", "priority"}, map[string]*Schema{
			"id":        objectIDSchema,
			"title":     {Type: "string"},
			"start":     dateTimeSchema,
			"end":       dateTimeSchema,
			"allDay":    {Type: "boolean"},
			"projectId": objectIDSchema,
			"status":    statusSchema,
			"priority":  prioritySchema,
		}),
		"CalendarEventList": arrayOf(Ref("CalendarEvent")),
		"Health": object([]string{"ok"}, map[string]*Schema{
			"ok": {Type: "boolean"},
		}),
	}
}
