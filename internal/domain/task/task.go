package task

import (
	"errors"
	"sort"
	"strings"
	"time"
)

var ErrNotFound = errors.New("task not found")

type Status string

const (
	StatusTodo  Status = "todo"
	StatusDoing Status = "doing"
	StatusDone  Status = "done"
)

// Statuses lists every status in board column order.
var Statuses = []Status{StatusTodo, StatusDoing, StatusDone}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusDoing, StatusDone:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	default:
		return false
	}
}

type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	Tags        []string   `json:"tags"`
	StartAt     *time.Time `json:"startAt,omitempty"`
	DueAt       *time.Time `json:"dueAt,omitempty"`
	AllDay      *bool      `json:"allDay,omitempty"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required,notblank,max=200"`
	Description *string    `json:"description" binding:"omitnil,notblank,max=10000"`
	Status      *Status    `json:"status" binding:"omitnil,oneof=todo doing done"`
	Priority    *Priority  `json:"priority" binding:"omitnil,oneof=low normal high"`
	Tags        []string   `json:"tags" binding:"omitempty,max=50,dive,notblank,max=50"`
	StartAt     *time.Time `json:"startAt"`
	DueAt       *time.Time `json:"dueAt"`
	AllDay      *bool      `json:"allDay"`
}

// Tags == nil means "not provided"; an explicit [] clears them.
type UpdateTaskRequest struct {
	Title       *string    `json:"title" binding:"omitnil,notblank,max=200"`
	Description *string    `json:"description" binding:"omitnil,notblank,max=10000"`
	Status      *Status    `json:"status" binding:"omitnil,oneof=todo doing done"`
	Priority    *Priority  `json:"priority" binding:"omitnil,oneof=low normal high"`
	Tags        []string   `json:"tags" binding:"omitempty,max=50,dive,notblank,max=50"`
	StartAt     *time.Time `json:"startAt"`
	DueAt       *time.Time `json:"dueAt"`
	AllDay      *bool      `json:"allDay"`
}

func (r UpdateTaskRequest) IsEmpty() bool {
	return r.Title == nil &&
		r.Description == nil &&
		r.Status == nil &&
		r.Priority == nil &&
		r.Tags == nil &&
		r.StartAt == nil &&
		r.DueAt == nil &&
		r.AllDay == nil
}

func (r *UpdateTaskRequest) Normalize() {
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		r.Title = &t
	}
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		r.Description = &d
	}
	if r.StartAt != nil {
		s := toStored(*r.StartAt)
		r.StartAt = &s
	}
	if r.DueAt != nil {
		d := toStored(*r.DueAt)
		r.DueAt = &d
	}
}

func NewFromCreateRequest(req CreateTaskRequest, projectID, createdBy string) Task {
	t := Task{
		ProjectID: projectID,
		Title:     strings.TrimSpace(req.Title),
		Status:    StatusTodo,
		Priority:  PriorityNormal,
		Tags:      []string{},
		AllDay:    req.AllDay,
		CreatedBy: createdBy,
	}

	if req.Description != nil {
		t.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.Tags != nil {
		t.Tags = append([]string(nil), req.Tags...)
	}
	if req.StartAt != nil {
		s := toStored(*req.StartAt)
		t.StartAt = &s
	}
	if req.DueAt != nil {
		d := toStored(*req.DueAt)
		t.DueAt = &d
	}

	return t
}

// toStored matches the millisecond precision of the document store.
func toStored(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// Apply mutates t in place with the provided fields.
func (t *Task) Apply(req UpdateTaskRequest, now time.Time) {
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.Tags != nil {
		t.Tags = append([]string{}, req.Tags...)
	}
	if req.StartAt != nil {
		s := *req.StartAt
		t.StartAt = &s
	}
	if req.DueAt != nil {
		d := *req.DueAt
		t.DueAt = &d
	}
	if req.AllDay != nil {
		a := *req.AllDay
		t.AllDay = &a
	}
	t.UpdatedAt = now
}

// SortByRecentlyUpdated orders tasks newest update first, id breaking ties so
// every backend returns the same order.
func SortByRecentlyUpdated(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].UpdatedAt.Equal(tasks[j].UpdatedAt) {
			return tasks[i].UpdatedAt.After(tasks[j].UpdatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})
}
