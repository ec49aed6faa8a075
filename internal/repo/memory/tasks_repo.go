package memory

import (
	"context"

	"github.com/zudaR107/todo-app/internal/domain/task"
	"github.com/zudaR107/todo-app/internal/ids"
)

type TasksRepo struct {
	db *DB
}

func NewTasksRepo(db *DB) *TasksRepo {
	return &TasksRepo{db: db}
}

func (r *TasksRepo) Create(_ context.Context, t task.Task) (task.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.stamp()
	t.ID = ids.New()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Tags == nil {
		t.Tags = []string{}
	}
	r.db.tasks[t.ID] = cloneTask(t)

	return t, nil
}

func (r *TasksRepo) GetByID(_ context.Context, id string) (task.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	t, ok := r.db.tasks[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	return cloneTask(t), nil
}

func (r *TasksRepo) List(_ context.Context, f task.ListFilter) ([]task.Task, error) {
	r.db.mu.RLock()
	matched := make([]task.Task, 0)
	for _, t := range r.db.tasks {
		if f.Matches(t) {
			matched = append(matched, cloneTask(t))
		}
	}
	r.db.mu.RUnlock()

	task.SortByRecentlyUpdated(matched)

	if f.Offset >= len(matched) {
		return []task.Task{}, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func (r *TasksRepo) ListInWindow(_ context.Context, f task.WindowFilter) ([]task.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]task.Task, 0)
	for _, t := range r.db.tasks {
		if f.Matches(t) {
			out = append(out, cloneTask(t))
		}
	}
	return out, nil
}

func (r *TasksRepo) Update(_ context.Context, id string, req task.UpdateTaskRequest) (task.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tasks[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	t = cloneTask(t)
	t.Apply(req, r.db.stamp())
	r.db.tasks[id] = t

	return cloneTask(t), nil
}

// cloneTask detaches the slices and pointers a caller could mutate.
func cloneTask(t task.Task) task.Task {
	t.Tags = append([]string{}, t.Tags...)
	if t.StartAt != nil {
		s := *t.StartAt
		t.StartAt = &s
	}
	if t.DueAt != nil {
		d := *t.DueAt
		t.DueAt = &d
	}
	if t.AllDay != nil {
		a := *t.AllDay
		t.AllDay = &a
	}
	return t
}
