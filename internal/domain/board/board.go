package board

import "github.com/zudaR107/todo-app/internal/domain/task"

type Column struct {
	ID    task.Status `json:"id"`
	Name  string      `json:"name"`
	Tasks []task.Task `json:"tasks"`
}

type Board struct {
	Columns []Column `json:"columns"`
}

// ColumnName is the display label of a status column.
func ColumnName(s task.Status) string {
	switch s {
	case task.StatusTodo:
		return "To Do"
	case task.StatusDoing:
		return "Doing"
	case task.StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// Build groups tasks into the fixed todo/doing/done columns. Tasks with an
// unknown status are dropped. Each column is ordered by most recent update.
func Build(tasks []task.Task) Board {
	byStatus := make(map[task.Status][]task.Task, len(task.Statuses))
	for _, t := range tasks {
		if !t.Status.Valid() {
			continue
		}
		byStatus[t.Status] = append(byStatus[t.Status], t)
	}

	b := Board{Columns: make([]Column, 0, len(task.Statuses))}
	for _, s := range task.Statuses {
		col := byStatus[s]
		if col == nil {
			col = []task.Task{}
		}
		task.SortByRecentlyUpdated(col)

		b.Columns = append(b.Columns, Column{
			ID:    s,
			Name:  ColumnName(s),
			Tasks: col,
		})
	}
	return b
}
