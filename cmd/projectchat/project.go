package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/projectchat/internal/project"
	"github.com/fyrsmithlabs/projectchat/internal/services"
)

func newProjectCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects in the local database",
	}
	cmd.AddCommand(
		newProjectCreateCmd(opts),
		newProjectListCmd(opts),
		newProjectShowCmd(opts),
	)
	return cmd
}

func newProjectCreateCmd(opts *rootOptions) *cobra.Command {
	var id, name, summary, userID string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Long: `Create a project. An ID is generated when --id is omitted.

Examples:
  projectchat project create --id 1 --name Demo --summary "A demo" --user u1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withServices(cmd, func(ctx context.Context, reg services.Registry) error {
				p, err := project.NewProject(id, name, summary, userID)
				if err != nil {
					return err
				}
				created, err := reg.Projects().Create(ctx, p)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", created.ID, created.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "project ID")
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&summary, "summary", "", "project summary used as chat context")
	cmd.Flags().StringVar(&userID, "user", "", "owning user ID")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withServices(cmd, func(ctx context.Context, reg services.Registry) error {
				projects, err := reg.Projects().List(ctx)
				if err != nil {
					return err
				}
				if len(projects) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No projects.")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tUSER\tCREATED")
				for _, p := range projects {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.UserID, p.CreatedAt.Format("2006-01-02 15:04"))
				}
				return w.Flush()
			})
		},
	}
}

func newProjectShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withServices(cmd, func(ctx context.Context, reg services.Registry) error {
				p, err := reg.Projects().Get(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:      %s\n", p.ID)
				fmt.Fprintf(out, "Name:    %s\n", p.Name)
				fmt.Fprintf(out, "User:    %s\n", p.UserID)
				fmt.Fprintf(out, "Summary: %s\n", p.Summary)
				return nil
			})
		},
	}
}
