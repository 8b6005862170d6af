package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Manage teams",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <id> [name]",
	Short: "Add a project",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		p, err := s.services.Catalog.AddProject(cmd.Context(), args[0], displayName(args))
		if err != nil {
			return MapError(fmt.Errorf("add project: %w", err))
		}
		fmt.Fprintf(out(cmd), "Added project %s (%s)\n", p.ID, p.Name)
		return nil
	},
}

var teamAddCmd = &cobra.Command{
	Use:   "add <id> [name]",
	Short: "Add a team",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		t, err := s.services.Catalog.AddTeam(cmd.Context(), args[0], displayName(args))
		if err != nil {
			return MapError(fmt.Errorf("add team: %w", err))
		}
		fmt.Fprintf(out(cmd), "Added team %s (%s)\n", t.ID, t.Name)
		return nil
	},
}

// displayName joins the words after the ID, falling back to the ID.
func displayName(args []string) string {
	if len(args) > 1 {
		return strings.Join(args[1:], " ")
	}
	return args[0]
}

func listCatalog(kind string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List " + kind + "s",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			projects, teams, err := s.services.Catalog.Catalog(cmd.Context())
			if err != nil {
				return MapError(fmt.Errorf("list %ss: %w", kind, err))
			}
			tw := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			if kind == "project" {
				for _, p := range projects {
					fmt.Fprintf(tw, "%s\t%s\n", p.ID, p.Name)
				}
			} else {
				for _, t := range teams {
					fmt.Fprintf(tw, "%s\t%s\n", t.ID, t.Name)
				}
			}
			return tw.Flush()
		},
	}
}

func init() {
	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(listCatalog("project"))
	teamCmd.AddCommand(teamAddCmd)
	teamCmd.AddCommand(listCatalog("team"))
	RootCmd.AddCommand(projectCmd)
	RootCmd.AddCommand(teamCmd)
}
