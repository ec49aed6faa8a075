package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zudaR107/todo-app/internal/repo"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            CHAR(24) PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	display_name  TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id         CHAR(24) PRIMARY KEY,
	name       TEXT NOT NULL,
	color      TEXT,
	owner_id   CHAR(24) NOT NULL REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS projects_owner_created_idx ON projects (owner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS tasks (
	id          CHAR(24) PRIMARY KEY,
	project_id  CHAR(24) NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT,
	status      TEXT NOT NULL,
	priority    TEXT NOT NULL,
	tags        TEXT[] NOT NULL DEFAULT '{}',
	start_at    TIMESTAMPTZ,
	due_at      TIMESTAMPTZ,
	all_day     BOOLEAN,
	created_by  CHAR(24) NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS tasks_project_updated_idx ON tasks (project_id, updated_at DESC);
CREATE INDEX IF NOT EXISTS tasks_due_idx ON tasks (due_at);
CREATE INDEX IF NOT EXISTS tasks_start_idx ON tasks (start_at);
`

// EnsureSchema creates the tables if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

func NewStore(pool *pgxpool.Pool, obs repo.Observer) repo.Store {
	return repo.Store{
		Users:    NewUsersRepo(pool, obs),
		Projects: NewProjectsRepo(pool, obs),
		Tasks:    NewTasksRepo(pool, obs),
		Ping: func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
		Close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}
}

func observe(obs repo.Observer, op string, fn func() error) error {
	if obs == nil {
		return fn()
	}
	return obs.ObserveDB(op, fn)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns s into an ILIKE pattern matching it literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
