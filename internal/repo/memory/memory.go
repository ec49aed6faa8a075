// Package memory is an in-process store used by tests and STORE_DRIVER=memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/zudaR107/todo-app/internal/domain/project"
	"github.com/zudaR107/todo-app/internal/domain/task"
	"github.com/zudaR107/todo-app/internal/domain/user"
	"github.com/zudaR107/todo-app/internal/repo"
)

// DB holds every collection behind one lock so a project delete and its task
// cascade are atomic.
type DB struct {
	mu       sync.RWMutex
	users    map[string]user.User
	projects map[string]project.Project
	tasks    map[string]task.Task
	now      func() time.Time
}

func NewDB() *DB {
	return &DB{
		users:    make(map[string]user.User),
		projects: make(map[string]project.Project),
		tasks:    make(map[string]task.Task),
		now:      time.Now,
	}
}

// SetClock overrides the timestamp source.
func (db *DB) SetClock(now func() time.Time) {
	db.mu.Lock()
	db.now = now
	db.mu.Unlock()
}

// stamp must be called with the lock held.
func (db *DB) stamp() time.Time {
	return db.now().UTC().Truncate(time.Millisecond)
}

func NewStore() repo.Store {
	db := NewDB()
	return repo.Store{
		Users:    NewUsersRepo(db),
		Projects: NewProjectsRepo(db),
		Tasks:    NewTasksRepo(db),
		Ping:     func(context.Context) error { return nil },
		Close:    func(context.Context) error { return nil },
	}
}
