package calendar

import (
	"errors"
	"sort"
	"time"

	"github.com/zudaR107/todo-app/internal/domain/task"
)

// Query is GET /calendar. The from <= to rule spans two fields and is
// checked by Window.
type Query struct {
	From      string `form:"from" binding:"required,datetime=2006-01-02T15:04:05Z07:00"`
	To        string `form:"to" binding:"required,datetime=2006-01-02T15:04:05Z07:00"`
	ProjectID string `form:"projectId" binding:"omitempty,objectid"`
}

var ErrInvertedWindow = errors.New("to must be greater than or equal to from")

// Window parses an already validated query into UTC bounds.
func (q Query) Window() (from, to time.Time, err error) {
	from, err = time.Parse(time.RFC3339, q.From)
	if err != nil {
		return
	}
	to, err = time.Parse(time.RFC3339, q.To)
	if err != nil {
		return
	}
	from, to = from.UTC(), to.UTC()
	if to.Before(from) {
		err = ErrInvertedWindow
	}
	return
}

type Event struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Start     time.Time     `json:"start"`
	End       *time.Time    `json:"end,omitempty"`
	AllDay    *bool         `json:"allDay,omitempty"`
	ProjectID string        `json:"projectId"`
	Status    task.Status   `json:"status"`
	Priority  task.Priority `json:"priority"`
}

// FromTask returns false for tasks that carry neither a start nor a due time.
func FromTask(t task.Task) (Event, bool) {
	var start *time.Time
	switch {
	case t.StartAt != nil:
		start = t.StartAt
	case t.DueAt != nil:
		start = t.DueAt
	default:
		return Event{}, false
	}

	ev := Event{
		ID:        t.ID,
		Title:     t.Title,
		Start:     *start,
		AllDay:    t.AllDay,
		ProjectID: t.ProjectID,
		Status:    t.Status,
		Priority:  t.Priority,
	}
	if t.StartAt != nil && t.DueAt != nil {
		end := *t.DueAt
		ev.End = &end
	}
	return ev, true
}

// Build converts tasks to events ordered by startAt, then dueAt, then most
// recent update. A missing startAt or dueAt sorts before any time.
func Build(tasks []task.Task) []Event {
	sorted := append([]task.Task(nil), tasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if c := compareOptional(a.StartAt, b.StartAt); c != 0 {
			return c < 0
		}
		if c := compareOptional(a.DueAt, b.DueAt); c != 0 {
			return c < 0
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})

	events := make([]Event, 0, len(sorted))
	for _, t := range sorted {
		if ev, ok := FromTask(t); ok {
			events = append(events, ev)
		}
	}
	return events
}

// nil first
func compareOptional(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
