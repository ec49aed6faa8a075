package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zudaR107/todo-app/internal/domain/task"
	"github.com/zudaR107/todo-app/internal/ids"
	"github.com/zudaR107/todo-app/internal/repo"
)

const taskColumns = `id, project_id, title, description, status, priority, tags, start_at, due_at, all_day, created_by, created_at, updated_at`

type TasksRepo struct {
	pool *pgxpool.Pool
	obs  repo.Observer
}

func NewTasksRepo(pool *pgxpool.Pool, obs repo.Observer) *TasksRepo {
	return &TasksRepo{pool: pool, obs: obs}
}

func scanTask(row pgx.Row) (task.Task, error) {
	var t task.Task
	var description *string
	var status, priority string

	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.Title,
		&description,
		&status,
		&priority,
		&t.Tags,
		&t.StartAt,
		&t.DueAt,
		&t.AllDay,
		&t.CreatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return task.Task{}, err
	}

	if description != nil {
		t.Description = *description
	}
	t.Status = task.Status(status)
	t.Priority = task.Priority(priority)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.StartAt != nil {
		s := t.StartAt.UTC()
		t.StartAt = &s
	}
	if t.DueAt != nil {
		d := t.DueAt.UTC()
		t.DueAt = &d
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	t.ID = ids.New()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Tags == nil {
		t.Tags = []string{}
	}

	err := observe(r.obs, "tasks.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO tasks (`+taskColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			t.ID, t.ProjectID, t.Title, nullableString(t.Description), string(t.Status), string(t.Priority),
			t.Tags, t.StartAt, t.DueAt, t.AllDay, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, id string) (task.Task, error) {
	var t task.Task
	err := observe(r.obs, "tasks.get_by_id", func() error {
		var err error
		t, err = scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}
	return t, nil
}

// buildListQuery returns the WHERE conditions and args for f, numbered from $1.
func buildListQuery(f task.ListFilter) (string, []any) {
	var conds []string
	var args []any
	argsPosition := 1

	add := func(cond string, arg any) {
		conds = append(conds, fmt.Sprintf(cond, argsPosition))
		args = append(args, arg)
		argsPosition++
	}

	add("project_id = $%d", f.ProjectID)
	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	if f.Priority != nil {
		add("priority = $%d", string(*f.Priority))
	}
	if f.Tag != nil {
		add("$%d = ANY(tags)", *f.Tag)
	}
	if f.Query != nil {
		add(`title ILIKE $%d ESCAPE '\'`, containsPattern(*f.Query))
	}
	if f.DueFrom != nil {
		add("due_at >= $%d", *f.DueFrom)
	}
	if f.DueTo != nil {
		add("due_at <= $%d", *f.DueTo)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY updated_at DESC, id DESC`

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argsPosition)
		args = append(args, f.Limit)
		argsPosition++
	}
	query += fmt.Sprintf(" OFFSET $%d", argsPosition)
	args = append(args, f.Offset)

	return query, args
}

func (r *TasksRepo) List(ctx context.Context, f task.ListFilter) ([]task.Task, error) {
	query, args := buildListQuery(f)
	return r.query(ctx, "tasks.list", query, args...)
}

func (r *TasksRepo) ListInWindow(ctx context.Context, f task.WindowFilter) ([]task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE ((start_at >= $1 AND start_at <= $2) OR (due_at >= $1 AND due_at <= $2))`
	args := []any{f.From, f.To}

	if !f.AllProjects {
		query += ` AND project_id = ANY($3)`
		args = append(args, f.ProjectIDs)
	}

	return r.query(ctx, "tasks.list_in_window", query, args...)
}

func (r *TasksRepo) query(ctx context.Context, op, query string, args ...any) ([]task.Task, error) {
	out := make([]task.Task, 0)

	err := observe(r.obs, op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TasksRepo) Update(ctx context.Context, id string, req task.UpdateTaskRequest) (task.Task, error) {
	sets := []string{"updated_at = $2"}
	args := []any{id, time.Now().UTC().Truncate(time.Millisecond)}

	set := func(column string, arg any) {
		args = append(args, arg)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Title != nil {
		set("title", *req.Title)
	}
	if req.Description != nil {
		set("description", *req.Description)
	}
	if req.Status != nil {
		set("status", string(*req.Status))
	}
	if req.Priority != nil {
		set("priority", string(*req.Priority))
	}
	if req.Tags != nil {
		set("tags", req.Tags)
	}
	if req.StartAt != nil {
		set("start_at", *req.StartAt)
	}
	if req.DueAt != nil {
		set("due_at", *req.DueAt)
	}
	if req.AllDay != nil {
		set("all_day", *req.AllDay)
	}

	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + taskColumns

	var t task.Task
	err := observe(r.obs, "tasks.update", func() error {
		var err error
		t, err = scanTask(r.pool.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}
	return t, nil
}
