package task

import (
	"strings"
	"time"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListTasksQuery is the raw query string of GET /projects/:id/tasks.
type ListTasksQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=todo doing done"`
	Priority string `form:"priority" binding:"omitempty,oneof=low normal high"`
	Tag      string `form:"tag" binding:"omitempty,max=50"`
	Q        string `form:"q" binding:"omitempty,max=200"`
	DueFrom  string `form:"dueFrom" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	DueTo    string `form:"dueTo" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Limit    *int   `form:"limit" binding:"omitnil,min=1,max=100"`
	Offset   *int   `form:"offset" binding:"omitnil,min=0"`
}

// with pointers if optional, it will be nil
type ListFilter struct {
	ProjectID string
	Status    *Status
	Priority  *Priority
	Tag       *string
	Query     *string
	DueFrom   *time.Time
	DueTo     *time.Time
	// Limit 0 means no limit.
	Limit  int
	Offset int
}

// ToFilter converts an already validated query into a store filter.
func (q ListTasksQuery) ToFilter(projectID string) ListFilter {
	f := ListFilter{
		ProjectID: projectID,
		Limit:     DefaultListLimit,
	}

	if q.Status != "" {
		s := Status(q.Status)
		f.Status = &s
	}
	if q.Priority != "" {
		p := Priority(q.Priority)
		f.Priority = &p
	}
	if tag := strings.TrimSpace(q.Tag); tag != "" {
		f.Tag = &tag
	}
	if query := strings.TrimSpace(q.Q); query != "" {
		f.Query = &query
	}
	if t, err := time.Parse(time.RFC3339, q.DueFrom); err == nil {
		t = t.UTC()
		f.DueFrom = &t
	}
	if t, err := time.Parse(time.RFC3339, q.DueTo); err == nil {
		t = t.UTC()
		f.DueTo = &t
	}
	if q.Limit != nil {
		f.Limit = *q.Limit
	}
	if q.Offset != nil {
		f.Offset = *q.Offset
	}

	return f
}

// Matches reports whether t satisfies every condition of f except paging.
func (f ListFilter) Matches(t Task) bool {
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Tag != nil && !containsString(t.Tags, *f.Tag) {
		return false
	}
	if f.Query != nil && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(*f.Query)) {
		return false
	}
	if f.DueFrom != nil || f.DueTo != nil {
		if t.DueAt == nil {
			return false
		}
		if f.DueFrom != nil && t.DueAt.Before(*f.DueFrom) {
			return false
		}
		if f.DueTo != nil && t.DueAt.After(*f.DueTo) {
			return false
		}
	}
	return true
}

// WindowFilter selects tasks whose start or due time falls inside [From, To].
type WindowFilter struct {
	// AllProjects ignores ProjectIDs.
	AllProjects bool
	ProjectIDs  []string
	From        time.Time
	To          time.Time
}

func (f WindowFilter) Matches(t Task) bool {
	if !f.AllProjects && !containsString(f.ProjectIDs, t.ProjectID) {
		return false
	}
	return inWindow(t.StartAt, f.From, f.To) || inWindow(t.DueAt, f.From, f.To)
}

func inWindow(ts *time.Time, from, to time.Time) bool {
	if ts == nil {
		return false
	}
	return !ts.Before(from) && !ts.After(to)
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
