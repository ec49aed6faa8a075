package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Login needs no token. On success the access token is stored and the
// refresh cookie lands in the jar.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	body := map[string]string{"email": email, "password": password}
	if _, err := c.call(ctx, http.MethodPost, pathLogin, body, &out, callOptions{skipAuth: true}); err != nil {
		return LoginResponse{}, err
	}
	c.SetToken(out.AccessToken)
	return out, nil
}

// Logout asks the server to revoke the session and drops the local token
// whatever the outcome.
func (c *Client) Logout(ctx context.Context) error {
	token := c.Token()
	defer c.SetToken("")

	var headers map[string]string
	if token != "" {
		headers = map[string]string{"Authorization": "Bearer " + token}
	}
	_, err := c.call(ctx, http.MethodPost, "/api/auth/logout", nil, nil, callOptions{skipAuth: true, headers: headers})
	return err
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var out User
	err := c.Do(ctx, http.MethodGet, "/api/auth/me", nil, &out)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	var out User
	err := c.Do(ctx, http.MethodPost, "/api/users", in, &out)
	return out, err
}

func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	err := c.Do(ctx, http.MethodGet, "/api/projects", nil, &out)
	return out, err
}

func (c *Client) CreateProject(ctx context.Context, in CreateProjectInput) (Project, error) {
	var out Project
	err := c.Do(ctx, http.MethodPost, "/api/projects", in, &out)
	return out, err
}

func (c *Client) UpdateProject(ctx context.Context, id string, in UpdateProjectInput) (Project, error) {
	var out Project
	err := c.Do(ctx, http.MethodPatch, "/api/projects/"+url.PathEscape(id), in, &out)
	return out, err
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/api/projects/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListTasks(ctx context.Context, projectID string, q TaskQuery) ([]Task, error) {
	var out []Task
	path := "/api/projects/" + url.PathEscape(projectID) + "/tasks" + q.encode()
	err := c.Do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) CreateTask(ctx context.Context, projectID string, in CreateTaskInput) (Task, error) {
	var out Task
	err := c.Do(ctx, http.MethodPost, "/api/projects/"+url.PathEscape(projectID)+"/tasks", in, &out)
	return out, err
}

func (c *Client) GetTask(ctx context.Context, id string) (Task, error) {
	var out Task
	err := c.Do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, in UpdateTaskInput) (Task, error) {
	var out Task
	err := c.Do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), in, &out)
	return out, err
}

func (c *Client) Board(ctx context.Context, projectID string) (Board, error) {
	var out Board
	err := c.Do(ctx, http.MethodGet, "/api/boards/"+url.PathEscape(projectID), nil, &out)
	return out, err
}

// Calendar lists events in [from, to]. An empty projectID spans every
// project the caller may see.
func (c *Client) Calendar(ctx context.Context, from, to time.Time, projectID string) ([]CalendarEvent, error) {
	v := url.Values{}
	v.Set("from", from.UTC().Format(time.RFC3339))
	v.Set("to", to.UTC().Format(time.RFC3339))
	if projectID != "" {
		v.Set("projectId", projectID)
	}

	var out []CalendarEvent
	err := c.Do(ctx, http.MethodGet, "/api/calendar?"+v.Encode(), nil, &out)
	return out, err
}

func (q TaskQuery) encode() string {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("status", q.Status)
	set("priority", q.Priority)
	set("tag", q.Tag)
	set("q", q.Q)
	if !q.DueFrom.IsZero() {
		v.Set("dueFrom", q.DueFrom.UTC().Format(time.RFC3339))
	}
	if !q.DueTo.IsZero() {
		v.Set("dueTo", q.DueTo.UTC().Format(time.RFC3339))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}

	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}
