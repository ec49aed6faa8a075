package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zudaR107/todo-app/pkg/client"
)

var (
	boardCmd = &cobra.Command{
		Use:   "board <project-id>",
		Short: "Show a project as a kanban board",
		Args:  cobra.ExactArgs(1),
		RunE:  runBoard,
	}
	calendarCmd = &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal"},
		Short:   "List scheduled tasks in a time window",
		Args:    cobra.NoArgs,
		RunE:    runCalendar,
	}
)

func init() {
	addCalendarFlags(calendarCmd.Flags())
}

func addCalendarFlags(f *pflag.FlagSet) {
	f.String("from", "", "window start (default: today)")
	f.String("to", "", "window end (default: from + --days)")
	f.Int("days", 7, "window length when --to is not set")
	f.String("project", "", "only this project")
}

func runBoard(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, c *client.Client) error {
		bd, err := c.Board(ctx, args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), bd, func() string { return boardView(bd) })
	})
}

// calendarWindow resolves the flags to [from, to]. now anchors the defaults.
func calendarWindow(f *pflag.FlagSet, now time.Time) (time.Time, time.Time, error) {
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if v, err := timeFlag(f, "from"); err != nil {
		return from, from, err
	} else if v != nil {
		from = *v
	}

	days, _ := f.GetInt("days")
	to := from.AddDate(0, 0, days)
	if v, err := timeFlag(f, "to"); err != nil {
		return from, to, err
	} else if v != nil {
		to = *v
	}
	return from, to, nil
}

func runCalendar(cmd *cobra.Command, _ []string) error {
	from, to, err := calendarWindow(cmd.Flags(), time.Now())
	if err != nil {
		return err
	}
	projectID, _ := cmd.Flags().GetString("project")

	return withClient(cmd, func(ctx context.Context, c *client.Client) error {
		events, err := c.Calendar(ctx, from, to, projectID)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), events, func() string { return calendarView(events) })
	})
}
