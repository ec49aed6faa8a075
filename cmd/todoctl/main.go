package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zudaR107/todo-app/pkg/client"
)

var (
	serverURL  string
	statePath  string
	outputMode string
	timeout    time.Duration

	rootCmd = &cobra.Command{
		Use:           "todoctl",
		Short:         "Command line client for the todo API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".todoctl.yaml"
	}
	return filepath.Join(dir, "todoctl", "session.yaml")
}

func defaultServer() string {
	if v := os.Getenv("TODO_API_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "API base URL (default $TODO_API_URL or the saved session's server)")
	rootCmd.PersistentFlags().StringVar(&statePath, "session-file", defaultStatePath(), "where the session is stored")
	rootCmd.PersistentFlags().StringVarP(&outputMode, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "per-command timeout")

	rootCmd.AddCommand(loginCmd, logoutCmd, meCmd)
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersCreateCmd)
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.AddCommand(projectsListCmd, projectsCreateCmd, projectsUpdateCmd, projectsDeleteCmd)
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksListCmd, tasksCreateCmd, tasksGetCmd, tasksUpdateCmd)
	rootCmd.AddCommand(boardCmd, calendarCmd)
}

// withClient builds a client from the saved session, runs fn and writes the
// session back so a refreshed token or a logout survives the process.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	st, err := loadState(statePath)
	if err != nil {
		return err
	}

	base := serverURL
	if base == "" {
		base = st.Server
	}
	if base == "" {
		base = defaultServer()
	}
	if st.Server != "" && st.Server != base {
		// a session belongs to one server
		st = state{}
	}

	c, err := client.New(base, client.WithToken(st.AccessToken))
	if err != nil {
		return err
	}
	c.SetCookies(st.cookies())

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	runErr := fn(ctx, c)
	if cmd.Name() != "login" {
		runErr = notLoggedIn(runErr)
	}

	st = stateFrom(c)
	if err := saveState(statePath, st); err != nil {
		return errors.Join(runErr, fmt.Errorf("save session: %w", err))
	}
	return runErr
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
