package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/zudaR107/todo-app/internal/domain/task"
)

func TestBuildListQueryNumbersArgs(t *testing.T) {
	status := task.StatusDoing
	tag := "work"
	q := "50%_off"
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	query, args := buildListQuery(task.ListFilter{
		ProjectID: "p1",
		Status:    &status,
		Tag:       &tag,
		Query:     &q,
		DueTo:     &due,
		Limit:     20,
		Offset:    40,
	})

	wantFragments := []string{
		"project_id = $1",
		"status = $2",
		"$3 = ANY(tags)",
		`title ILIKE $4 ESCAPE '\'`,
		"due_at <= $5",
		"ORDER BY updated_at DESC, id DESC",
		"LIMIT $6",
		"OFFSET $7",
	}
	for _, frag := range wantFragments {
		if !strings.Contains(query, frag) {
			t.Fatalf("expected query to contain %q, got %s", frag, query)
		}
	}

	if len(args) != 7 {
		t.Fatalf("expected 7 args, got %d", len(args))
	}
	if args[3] != `%50\%\_off%` {
		t.Fatalf("unexpected like pattern %v", args[3])
	}
}

func TestBuildListQueryWithoutLimit(t *testing.T) {
	query, args := buildListQuery(task.ListFilter{ProjectID: "p1"})

	if strings.Contains(query, "LIMIT") {
		t.Fatalf("did not expect a limit: %s", query)
	}
	if !strings.Contains(query, "OFFSET $2") || len(args) != 2 {
		t.Fatalf("unexpected query %s with %d args", query, len(args))
	}
}
