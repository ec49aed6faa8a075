package memory

import (
	"context"
	"sort"

	"github.com/zudaR107/todo-app/internal/domain/project"
	"github.com/zudaR107/todo-app/internal/ids"
)

type ProjectsRepo struct {
	db *DB
}

func NewProjectsRepo(db *DB) *ProjectsRepo {
	return &ProjectsRepo{db: db}
}

func (r *ProjectsRepo) Create(_ context.Context, p project.Project) (project.Project, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.stamp()
	p.ID = ids.New()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.db.projects[p.ID] = p

	return p, nil
}

func (r *ProjectsRepo) GetByID(_ context.Context, id string) (project.Project, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.projects[id]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	return p, nil
}

func (r *ProjectsRepo) ListByOwner(_ context.Context, ownerID string) ([]project.Project, error) {
	r.db.mu.RLock()
	out := make([]project.Project, 0)
	for _, p := range r.db.projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	r.db.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *ProjectsRepo) ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	projects, err := r.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.ID)
	}
	return out, nil
}

func (r *ProjectsRepo) Update(_ context.Context, id string, req project.UpdateProjectRequest) (project.Project, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.projects[id]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	p.Apply(req, r.db.stamp())
	r.db.projects[id] = p

	return p, nil
}

func (r *ProjectsRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.projects[id]; !ok {
		return project.ErrNotFound
	}
	delete(r.db.projects, id)

	for tid, t := range r.db.tasks {
		if t.ProjectID == id {
			delete(r.db.tasks, tid)
		}
	}
	return nil
}
