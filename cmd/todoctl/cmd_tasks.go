package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zudaR107/todo-app/pkg/client"
)

var (
	tasksCmd = &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"t"},
		Short:   "Manage the tasks of a project",
	}
	tasksListCmd = &cobra.Command{
		Use:     "list <project-id>",
		Aliases: []string{"ls"},
		Short:   "List and filter a project's tasks",
		Args:    cobra.ExactArgs(1),
		RunE:    runTasksList,
	}
	tasksCreateCmd = &cobra.Command{
		Use:   "create <project-id> <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(2),
		RunE:  runTasksCreate,
	}
	tasksGetCmd = &cobra.Command{
		Use:   "get <task-id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE:  runTasksGet,
	}
	tasksUpdateCmd = &cobra.Command{
		Use:   "update <task-id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE:  runTasksUpdate,
	}
)

func init() {
	f := tasksListCmd.Flags()
	f.String("status", "", "todo, doing or done")
	f.String("priority", "", "low, normal or high")
	f.String("tag", "", "only tasks with this tag")
	f.StringP("query", "q", "", "title contains (case-insensitive)")
	f.String("due-from", "", "due at or after (RFC 3339 or YYYY-MM-DD)")
	f.String("due-to", "", "due at or before (RFC 3339 or YYYY-MM-DD)")
	f.Int("limit", 0, "page size (server default 20, max 100)")
	f.Int("offset", 0, "items to skip")

	addTaskFieldFlags(tasksCreateCmd.Flags())
	tasksUpdateCmd.Flags().String("title", "", "new title")
	addTaskFieldFlags(tasksUpdateCmd.Flags())
}

func addTaskFieldFlags(f *pflag.FlagSet) {
	f.StringP("description", "d", "", "description")
	f.String("status", "", "todo, doing or done")
	f.String("priority", "", "low, normal or high")
	f.String("start", "", "start time (RFC 3339 or YYYY-MM-DD)")
	f.String("due", "", "due time (RFC 3339 or YYYY-MM-DD)")
	f.Bool("all-day", false, "mark as an all-day task")
	f.StringSlice("tag", nil, "tag, repeatable")
}

// parseWhen accepts RFC 3339 or a bare date in local time.
func parseWhen(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, want RFC 3339 or YYYY-MM-DD", v)
	}
	return t, nil
}

func timeFlag(f *pflag.FlagSet, name string) (*time.Time, error) {
	if !f.Changed(name) {
		return nil, nil
	}
	v, _ := f.GetString(name)
	t, err := parseWhen(v)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &t, nil
}

func runTasksList(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	var q client.TaskQuery
	q.Status, _ = f.GetString("status")
	q.Priority, _ = f.GetString("priority")
	q.Tag, _ = f.GetString("tag")
	q.Q, _ = f.GetString("query")
	q.Limit, _ = f.GetInt("limit")
	q.Offset, _ = f.GetInt("offset")

	from, err := timeFlag(f, "due-from")
	if err != nil {
		return err
	}
	if from != nil {
		q.DueFrom = *from
	}
	to, err := timeFlag(f, "due-to")
	if err != nil {
		return err
	}
	if to != nil {
		q.DueTo = *to
	}

	return withClient(cmd, func(ctx context.Context, c *client.Client) error {
		items, err := c.ListTasks(ctx, args[0], q)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), items, func() string { return tasksView(items) })
	})
}

func runTasksCreate(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	in := client.CreateTaskInput{Title: args[1]}
	in.Description, _ = f.GetString("description")
	in.Status, _ = f.GetString("status")
	in.Priority, _ = f.GetString("priority")
	in.Tags, _ = f.GetStringSlice("tag")
	if f.Changed("all-day") {
		v, _ := f.GetBool("all-day")
		in.AllDay = &v
	}

	var err error
	if in.StartAt, err = timeFlag(f, "start"); err != nil {
		return err
	}
	if in.DueAt, err = timeFlag(f, "due"); err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, c *client.Client) error {
		t, err := c.CreateTask(ctx, args[0], in)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), t, func() string { return taskView(t) })
	})
}

func runTasksGet(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, c *client.Client) error {
		t, err := c.GetTask(ctx, args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), t, func() string { return taskView(t) })
	})
}

func runTasksUpdate(cmd *cobra.Command, args []string) error {
	in, err := taskUpdateFromFlags(cmd.Flags())
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, c *client.Client) error {
		t, err := c.UpdateTask(ctx, args[0], in)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), t, func() string { return taskView(t) })
	})
}

// taskUpdateFromFlags sends only the flags that were set.
func taskUpdateFromFlags(f *pflag.FlagSet) (client.UpdateTaskInput, error) {
	var in client.UpdateTaskInput
	changed := false

	str := func(name string) *string {
		if !f.Changed(name) {
			return nil
		}
		changed = true
		v, _ := f.GetString(name)
		return &v
	}
	in.Title = str("title")
	in.Description = str("description")
	in.Status = str("status")
	in.Priority = str("priority")

	if f.Changed("all-day") {
		changed = true
		v, _ := f.GetBool("all-day")
		in.AllDay = &v
	}
	if f.Changed("tag") {
		changed = true
		v, _ := f.GetStringSlice("tag")
		tags := make([]string, 0, len(v))
		for _, t := range v {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		in.Tags = &tags
	}

	var err error
	if in.StartAt, err = timeFlag(f, "start"); err != nil {
		return in, err
	}
	if in.DueAt, err = timeFlag(f, "due"); err != nil {
		return in, err
	}
	if in.StartAt != nil || in.DueAt != nil {
		changed = true
	}

	if !changed {
		return in, errors.New("nothing to update, pass at least one field flag")
	}
	return in, nil
}
