package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zudaR107/todo-app/pkg/client"
)

var (
	loginCmd = &cobra.Command{
		Use:   "login [email]",
		Short: "Log in and store the session",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLogin,
	}
	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "End the session on the server and forget it locally",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
	meCmd = &cobra.Command{
		Use:   "me",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE:  runMe,
	}

	usersCmd = &cobra.Command{
		Use:   "users",
		Short: "Manage users (superadmin)",
	}
	usersCreateCmd = &cobra.Command{
		Use:   "create <email>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE:  runUsersCreate,
	}
)

func init() {
	loginCmd.Flags().String("password", "", "password (default: $TODO_PASSWORD or prompt)")

	usersCreateCmd.Flags().String("name", "", "display name")
	usersCreateCmd.Flags().String("password", "", "initial password")
	usersCreateCmd.Flags().String("role", "", "user or superadmin")
	_ = usersCreateCmd.MarkFlagRequired("name")
	_ = usersCreateCmd.MarkFlagRequired("password")
}

func runLogin(cmd *cobra.Command, args []string) error {
	in := bufio.NewReader(cmd.InOrStdin())

	email := ""
	if len(args) == 1 {
		email = args[0]
	} else {
		v, err := prompt(cmd, in, "Email: ")
		if err != nil {
			return err
		}
		email = v
	}

	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = os.Getenv("TODO_PASSWORD")
	}
	if password == "" {
		v, err := prompt(cmd, in, "Password: ")
		if err != nil {
			return err
		}
		password = v
	}

	return withClient(cmd, func(ctx context.Context, c *client.Client) error {
		res, err := c.Login(ctx, email, password)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), res.User, func() string {
			return successLine(fmt.Sprintf("Logged in as %s (%s)", res.User.Email, res.User.Role))
		})
	})
}

func prompt(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, c *client.Client) error {
		err := c.Logout(ctx)
		// the local session is gone either way
		c.SetCookies([]*http.Cookie{expiredRefreshCookie()})
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), warningLine("server logout failed: "+err.Error()))
		}
		fmt.Fprintln(cmd.OutOrStdout(), successLine("Logged out"))
		return nil
	})
}

func runMe(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, c *client.Client) error {
		u, err := c.Me(ctx)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), u, func() string { return userView(u) })
	})
}

func runUsersCreate(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	password, _ := cmd.Flags().GetString("password")
	role, _ := cmd.Flags().GetString("role")

	return withClient(cmd, func(ctx context.Context, c *client.Client) error {
		u, err := c.CreateUser(ctx, client.CreateUserInput{
			Email:       args[0],
			DisplayName: name,
			Password:    password,
			Role:        client.Role(role),
		})
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), u, func() string { return userView(u) })
	})
}

// notLoggedIn replaces a 401 or a missing session with a hint.
func notLoggedIn(err error) error {
	if client.IsStatus(err, 401) || errors.Is(err, client.ErrNoRefresh) {
		return errors.New("not logged in, run `todoctl login`")
	}
	return err
}
