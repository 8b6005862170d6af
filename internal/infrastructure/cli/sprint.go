package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

var sprintCmd = &cobra.Command{
	Use:   "sprint",
	Short: "Plan, start and complete sprints",
}

var (
	sprintJSON      bool
	sprintStart     string
	sprintEnd       string
	sprintDays      int
	sprintKeepIssue bool
)

// sprintDates resolves --start/--end/--days. The start defaults to today
// (UTC midnight) and the end to start plus days.
func sprintDates(now time.Time) (time.Time, time.Time, error) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if sprintStart != "" {
		t, ok := tracker.ParseTimestamp(sprintStart)
		if !ok {
			return time.Time{}, time.Time{}, &tracker.ValidationError{Problems: []string{fmt.Sprintf("invalid --start %q", sprintStart)}}
		}
		start = t
	}
	if sprintEnd != "" {
		end, ok := tracker.ParseTimestamp(sprintEnd)
		if !ok {
			return time.Time{}, time.Time{}, &tracker.ValidationError{Problems: []string{fmt.Sprintf("invalid --end %q", sprintEnd)}}
		}
		return start, end, nil
	}
	return start, start.AddDate(0, 0, sprintDays), nil
}

var sprintCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a Planned sprint",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := sprintDates(time.Now().UTC())
		if err != nil {
			return MapError(err)
		}
		s, err := loadSession()
		if err != nil {
			return err
		}
		sprint, err := s.services.Sprints.CreateSprint(cmd.Context(), strings.Join(args, " "), start, end)
		if err != nil {
			return MapError(fmt.Errorf("create sprint: %w", err))
		}
		if sprintJSON {
			return printJSON(out(cmd), sprint)
		}
		fmt.Fprintf(out(cmd), "Created sprint %s (%s, %s to %s)\n", sprint.ID, sprint.Name,
			sprint.StartDate.Format(time.DateOnly), sprint.EndDate.Format(time.DateOnly))
		return nil
	},
}

var sprintStartCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Make a Planned sprint the Active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		sprint, err := s.services.Sprints.StartSprint(cmd.Context(), args[0])
		if err != nil {
			return MapError(fmt.Errorf("start sprint: %w", err))
		}
		fmt.Fprintf(out(cmd), "Sprint %s is active\n", sprint.ID)
		return nil
	},
}

var sprintCompleteCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Complete a sprint; unfinished issues return to the backlog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		sprint, moved, err := s.services.Sprints.CompleteSprint(cmd.Context(), args[0], !sprintKeepIssue)
		if err != nil {
			return MapError(fmt.Errorf("complete sprint: %w", err))
		}
		fmt.Fprintf(out(cmd), "Sprint %s completed, %d unfinished issues moved to the backlog\n", sprint.ID, moved)
		return nil
	},
}

var sprintListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		sprints, err := s.services.Sprints.ListSprints(cmd.Context())
		if err != nil {
			return MapError(fmt.Errorf("list sprints: %w", err))
		}
		if sprintJSON {
			return printJSON(out(cmd), sprints)
		}
		if len(sprints) == 0 {
			fmt.Fprintln(out(cmd), "No sprints.")
			return nil
		}
		tw := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tSTART\tEND\tNAME")
		for _, sp := range sprints {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", sp.ID, sp.Status,
				sp.StartDate.Format(time.DateOnly), sp.EndDate.Format(time.DateOnly), sp.Name)
		}
		return tw.Flush()
	},
}

func init() {
	sprintCreateCmd.Flags().StringVar(&sprintStart, "start", "", "Start date (YYYY-MM-DD or RFC 3339, default today)")
	sprintCreateCmd.Flags().StringVar(&sprintEnd, "end", "", "End date (YYYY-MM-DD or RFC 3339)")
	sprintCreateCmd.Flags().IntVar(&sprintDays, "days", 14, "Sprint length in days when --end is not set")
	sprintCreateCmd.Flags().BoolVar(&sprintJSON, "json", false, "Output in JSON format")
	sprintCompleteCmd.Flags().BoolVar(&sprintKeepIssue, "keep-unfinished", false, "Leave unfinished issues in the completed sprint")
	sprintListCmd.Flags().BoolVar(&sprintJSON, "json", false, "Output in JSON format")

	sprintCmd.AddCommand(sprintCreateCmd)
	sprintCmd.AddCommand(sprintStartCmd)
	sprintCmd.AddCommand(sprintCompleteCmd)
	sprintCmd.AddCommand(sprintListCmd)
	RootCmd.AddCommand(sprintCmd)
}
