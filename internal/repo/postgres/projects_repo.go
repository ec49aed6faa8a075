package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zudaR107/todo-app/internal/domain/project"
	"github.com/zudaR107/todo-app/internal/ids"
	"github.com/zudaR107/todo-app/internal/repo"
)

const projectColumns = `id, name, color, owner_id, created_at, updated_at`

type ProjectsRepo struct {
	pool *pgxpool.Pool
	obs  repo.Observer
}

func NewProjectsRepo(pool *pgxpool.Pool, obs repo.Observer) *ProjectsRepo {
	return &ProjectsRepo{pool: pool, obs: obs}
}

func scanProject(row pgx.Row) (project.Project, error) {
	var p project.Project
	var color *string

	if err := row.Scan(&p.ID, &p.Name, &color, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return project.Project{}, err
	}
	if color != nil {
		p.Color = *color
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *ProjectsRepo) Create(ctx context.Context, p project.Project) (project.Project, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	p.ID = ids.New()
	p.CreatedAt = now
	p.UpdatedAt = now

	err := observe(r.obs, "projects.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO projects (`+projectColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, p.Name, nullableString(p.Color), p.OwnerID, p.CreatedAt, p.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return project.Project{}, err
	}
	return p, nil
}

func (r *ProjectsRepo) GetByID(ctx context.Context, id string) (project.Project, error) {
	var p project.Project
	err := observe(r.obs, "projects.get_by_id", func() error {
		var err error
		p, err = scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, err
	}
	return p, nil
}

func (r *ProjectsRepo) ListByOwner(ctx context.Context, ownerID string) ([]project.Project, error) {
	out := make([]project.Project, 0)

	err := observe(r.obs, "projects.list_by_owner", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+projectColumns+` FROM projects WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`,
			ownerID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProject(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProjectsRepo) ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	out := make([]string, 0)

	err := observe(r.obs, "projects.list_ids_by_owner", func() error {
		rows, err := r.pool.Query(ctx, `SELECT id FROM projects WHERE owner_id = $1`, ownerID)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, pgx.RowTo[string])
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProjectsRepo) Update(ctx context.Context, id string, req project.UpdateProjectRequest) (project.Project, error) {
	sets := []string{"updated_at = $2"}
	args := []any{id, time.Now().UTC().Truncate(time.Millisecond)}
	argsPosition := 3

	if req.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", argsPosition))
		args = append(args, *req.Name)
		argsPosition++
	}
	if req.Color != nil {
		sets = append(sets, fmt.Sprintf("color = $%d", argsPosition))
		args = append(args, nullableString(*req.Color))
	}

	query := `UPDATE projects SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + projectColumns

	var p project.Project
	err := observe(r.obs, "projects.update", func() error {
		var err error
		p, err = scanProject(r.pool.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, err
	}
	return p, nil
}

// Delete relies on ON DELETE CASCADE for the project's tasks.
func (r *ProjectsRepo) Delete(ctx context.Context, id string) error {
	var affected int64
	err := observe(r.obs, "projects.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return project.ErrNotFound
	}
	return nil
}
