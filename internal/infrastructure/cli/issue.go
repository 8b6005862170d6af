package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowcraft/pkg/application"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Create, move and inspect issues",
}

var (
	issueJSON     bool
	issueDraft    application.IssueDraft
	issuePriority string
)

var issueCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create an issue in Todo",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		d := issueDraft
		d.Title = strings.Join(args, " ")
		d.Priority = tracker.Priority(strings.ToUpper(issuePriority))

		issue, err := s.services.Issues.CreateIssue(cmd.Context(), d)
		if err != nil {
			return MapError(fmt.Errorf("create issue: %w", err))
		}
		if issueJSON {
			return printJSON(out(cmd), issue)
		}
		fmt.Fprintf(out(cmd), "Created %s: %s\n", issue.ID, issue.Title)
		return nil
	},
}

// parseStatus accepts board names in any case, with spaces, dashes or
// underscores ("in-progress", "In Progress").
func parseStatus(s string) (tracker.IssueStatus, error) {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	for _, st := range tracker.AllIssueStatuses() {
		if strings.ReplaceAll(strings.ToLower(string(st)), " ", "") == norm {
			return st, nil
		}
	}
	return "", &tracker.ValidationError{Problems: []string{fmt.Sprintf("unknown status %q", s)}}
}

var issueMoveCmd = &cobra.Command{
	Use:   "move <id> <status>",
	Short: "Move an issue to todo, in-progress, in-review or done",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := parseStatus(args[1])
		if err != nil {
			return MapError(err)
		}
		s, err := loadSession()
		if err != nil {
			return err
		}
		issue, err := s.services.Issues.MoveIssue(cmd.Context(), args[0], target)
		if err != nil {
			return MapError(fmt.Errorf("move issue: %w", err))
		}
		fmt.Fprintf(out(cmd), "%s is now %s\n", issue.ID, issue.Status)
		return nil
	},
}

func blockCommand(use, short string, blocked bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			issue, err := s.services.Issues.SetBlocked(cmd.Context(), args[0], blocked)
			if err != nil {
				return MapError(fmt.Errorf("%s issue: %w", use, err))
			}
			state := "unblocked"
			if issue.IsBlocked() {
				state = "blocked"
			}
			fmt.Fprintf(out(cmd), "%s is %s\n", issue.ID, state)
			return nil
		},
	}
}

var issueAssignCmd = &cobra.Command{
	Use:   "assign <id> [assignee]",
	Short: "Assign an issue; omit the assignee to unassign",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		assignee := ""
		if len(args) == 2 {
			assignee = args[1]
		}
		s, err := loadSession()
		if err != nil {
			return err
		}
		issue, err := s.services.Issues.Assign(cmd.Context(), args[0], assignee)
		if err != nil {
			return MapError(fmt.Errorf("assign issue: %w", err))
		}
		if issue.AssigneeID == "" {
			fmt.Fprintf(out(cmd), "%s is unassigned\n", issue.ID)
			return nil
		}
		fmt.Fprintf(out(cmd), "%s assigned to %s\n", issue.ID, issue.AssigneeID)
		return nil
	},
}

var issueSprintCmd = &cobra.Command{
	Use:   "sprint <id> [sprint-id]",
	Short: "Put an issue in a sprint; omit the sprint to move it to the backlog",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sprintID := ""
		if len(args) == 2 {
			sprintID = args[1]
		}
		s, err := loadSession()
		if err != nil {
			return err
		}
		issue, err := s.services.Issues.AssignToSprint(cmd.Context(), args[0], sprintID)
		if err != nil {
			return MapError(fmt.Errorf("assign sprint: %w", err))
		}
		if issue.SprintID == "" {
			fmt.Fprintf(out(cmd), "%s moved to the backlog\n", issue.ID)
			return nil
		}
		fmt.Fprintf(out(cmd), "%s added to sprint %s\n", issue.ID, issue.SprintID)
		return nil
	},
}

var issueDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		if err := s.services.Issues.DeleteIssue(cmd.Context(), args[0]); err != nil {
			return MapError(fmt.Errorf("delete issue: %w", err))
		}
		fmt.Fprintf(out(cmd), "Deleted %s\n", args[0])
		return nil
	},
}

var issueListStatus string

var issueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter tracker.IssueStatus
		if issueListStatus != "" {
			st, err := parseStatus(issueListStatus)
			if err != nil {
				return MapError(err)
			}
			filter = st
		}
		s, err := loadSession()
		if err != nil {
			return err
		}
		all, err := s.services.Issues.ListIssues(cmd.Context())
		if err != nil {
			return MapError(fmt.Errorf("list issues: %w", err))
		}
		issues := make([]tracker.Issue, 0, len(all))
		for _, issue := range all {
			if filter == "" || issue.Status == filter {
				issues = append(issues, issue)
			}
		}

		if issueJSON {
			return printJSON(out(cmd), issues)
		}
		if len(issues) == 0 {
			fmt.Fprintln(out(cmd), "No issues.")
			return nil
		}
		tw := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tASSIGNEE\tSPRINT\tPROJECT\tTITLE")
		for _, issue := range issues {
			title := issue.Title
			if issue.IsBlocked() {
				title += " [blocked]"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				issue.ID, issue.Status, issue.Priority,
				orDash(issue.AssigneeID), orDash(issue.SprintID), orDash(issue.ProjectID), title)
		}
		return tw.Flush()
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	issueCreateCmd.Flags().StringVarP(&issueDraft.Description, "description", "d", "", "Issue description")
	issueCreateCmd.Flags().StringVarP(&issuePriority, "priority", "p", "", "Priority P0-P5 (default P3)")
	issueCreateCmd.Flags().StringVar(&issueDraft.ProjectID, "project", "", "Project ID")
	issueCreateCmd.Flags().StringVar(&issueDraft.TeamID, "team", "", "Team ID")
	issueCreateCmd.Flags().StringVar(&issueDraft.SprintID, "sprint", "", "Sprint ID")
	issueCreateCmd.Flags().StringVarP(&issueDraft.AssigneeID, "assignee", "a", "", "Assignee ID")
	issueCreateCmd.Flags().BoolVar(&issueJSON, "json", false, "Output in JSON format")

	issueListCmd.Flags().StringVar(&issueListStatus, "status", "", "Only list issues in this status")
	issueListCmd.Flags().BoolVar(&issueJSON, "json", false, "Output in JSON format")

	issueCmd.AddCommand(issueCreateCmd)
	issueCmd.AddCommand(issueMoveCmd)
	issueCmd.AddCommand(blockCommand("block", "Flag an issue as blocked", true))
	issueCmd.AddCommand(blockCommand("unblock", "Clear the blocked flag", false))
	issueCmd.AddCommand(issueAssignCmd)
	issueCmd.AddCommand(issueSprintCmd)
	issueCmd.AddCommand(issueDeleteCmd)
	issueCmd.AddCommand(issueListCmd)
	RootCmd.AddCommand(issueCmd)
}
