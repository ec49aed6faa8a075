package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zudaR107/todo-app/pkg/client"
)

var (
	projectsCmd = &cobra.Command{
		Use:     "projects",
		Aliases: []string{"p"},
		Short:   "Manage your projects",
	}
	projectsListCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your projects",
		Args:    cobra.NoArgs,
		RunE:    runProjectsList,
	}
	projectsCreateCmd = &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE:  runProjectsCreate,
	}
	projectsUpdateCmd = &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or recolor a project",
		Args:  cobra.ExactArgs(1),
		RunE:  runProjectsUpdate,
	}
	projectsDeleteCmd = &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a project and all of its tasks",
		Args:    cobra.ExactArgs(1),
		RunE:    runProjectsDelete,
	}
)

func init() {
	projectsCreateCmd.Flags().String("color", "", "hex color, #rgb or #rrggbb")

	projectsUpdateCmd.Flags().String("name", "", "new name")
	projectsUpdateCmd.Flags().String("color", "", "new hex color")
}

func runProjectsList(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, c *client.Client) error {
		items, err := c.ListProjects(ctx)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), items, func() string { return projectsView(items) })
	})
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	color, _ := cmd.Flags().GetString("color")

	return withClient(cmd, func(ctx context.Context, c *client.Client) error {
		p, err := c.CreateProject(ctx, client.CreateProjectInput{Name: args[0], Color: color})
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), p, func() string { return projectsView([]client.Project{p}) })
	})
}

func runProjectsUpdate(cmd *cobra.Command, args []string) error {
	var in client.UpdateProjectInput
	if cmd.Flags().Changed("name") {
		v, _ := cmd.Flags().GetString("name")
		in.Name = &v
	}
	if cmd.Flags().Changed("color") {
		v, _ := cmd.Flags().GetString("color")
		in.Color = &v
	}
	if in.Name == nil && in.Color == nil {
		return errors.New("nothing to update, pass --name or --color")
	}

	return withClient(cmd, func(ctx context.Context, c *client.Client) error {
		p, err := c.UpdateProject(ctx, args[0], in)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), p, func() string { return projectsView([]client.Project{p}) })
	})
}

func runProjectsDelete(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, c *client.Client) error {
		if err := c.DeleteProject(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successLine("Deleted project "+args[0]))
		return nil
	})
}
