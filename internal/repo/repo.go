// Package repo declares the store contracts shared by the mongo, postgres and
// memory backends.
package repo

import (
	"context"

	"github.com/zudaR107/todo-app/internal/domain/project"
	"github.com/zudaR107/todo-app/internal/domain/task"
	"github.com/zudaR107/todo-app/internal/domain/user"
)

type Users interface {
	// Create fails with user.ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Count(ctx context.Context) (int64, error)
}

type Projects interface {
	Create(ctx context.Context, p project.Project) (project.Project, error)
	GetByID(ctx context.Context, id string) (project.Project, error)
	// ListByOwner returns newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]project.Project, error)
	ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error)
	Update(ctx context.Context, id string, req project.UpdateProjectRequest) (project.Project, error)
	// Delete removes the project and every task under it.
	Delete(ctx context.Context, id string) error
}

type Tasks interface {
	Create(ctx context.Context, t task.Task) (task.Task, error)
	GetByID(ctx context.Context, id string) (task.Task, error)
	// List returns tasks ordered by most recent update.
	List(ctx context.Context, f task.ListFilter) ([]task.Task, error)
	ListInWindow(ctx context.Context, f task.WindowFilter) ([]task.Task, error)
	Update(ctx context.Context, id string, req task.UpdateTaskRequest) (task.Task, error)
}

// Store bundles one backend's repositories with its lifecycle hooks.
type Store struct {
	Users    Users
	Projects Projects
	Tasks    Tasks

	Ping  func(ctx context.Context) error
	Close func(ctx context.Context) error
}

// Observer times a logical store operation. observability.Prom implements it.
type Observer interface {
	ObserveDB(op string, fn func() error) error
}

type NopObserver struct{}

func (NopObserver) ObserveDB(_ string, fn func() error) error { return fn() }
