package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowcraft/internal/infrastructure/config"
	"github.com/felixgeelhaar/flowcraft/internal/infrastructure/webhook"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

var webhookJSON bool

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Inspect outgoing webhooks configured in preferences.yaml",
}

var webhookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured webhooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		prefs, err := config.LoadPreferences(root)
		if err != nil {
			return MapError(fmt.Errorf("load preferences: %w", err))
		}
		if len(prefs.Webhooks) == 0 {
			fmt.Fprintln(out(cmd), "No webhooks configured. Add a 'webhooks' list to .flowcraft/preferences.yaml.")
			return nil
		}

		w := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tURL\tEVENTS\tSTATE")
		for _, wh := range prefs.Webhooks {
			events := "all"
			if len(wh.Events) > 0 {
				events = strings.Join(wh.Events, ",")
			}
			state := "enabled"
			if wh.Disabled {
				state = "disabled"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", wh.Name, wh.URL, events, state)
		}
		return w.Flush()
	},
}

var webhookPingCmd = &cobra.Command{
	Use:   "ping <name>",
	Short: "Send a test event to a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		if s.services.Webhooks == nil {
			return NewCLIError("no webhooks configured", "Add a 'webhooks' list to .flowcraft/preferences.yaml", nil)
		}
		if err := s.services.Webhooks.Ping(cmd.Context(), args[0]); err != nil {
			if errors.Is(err, webhook.ErrUnknownEndpoint) {
				return NewCLIError(err.Error(), "Run 'flowcraft webhook list' to see webhook names", err)
			}
			return NewCLIError(fmt.Sprintf("ping %s failed", args[0]), "Check the URL and that the receiver accepts POST requests", err)
		}
		fmt.Fprintf(out(cmd), "Webhook %s acknowledged the ping\n", args[0])
		return nil
	},
}

var webhookDeadLettersCmd = &cobra.Command{
	Use:   "dead-letters",
	Short: "Show deliveries that failed after all retries",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		repo := s.services.Workspace.Repo
		if !repo.IsInitialized() {
			return MapError(fmt.Errorf("dead letters: %w", tracker.ErrWorkspaceNotInitialized))
		}
		entries, err := webhook.NewDeadLetterStore(filepath.Join(repo.Dir(), webhook.DeadLetterFile)).ReadAll()
		if err != nil {
			return fmt.Errorf("read dead letters: %w", err)
		}
		if webhookJSON {
			if entries == nil {
				entries = []webhook.DeadLetter{}
			}
			return printJSON(out(cmd), entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out(cmd), "No failed deliveries.")
			return nil
		}

		w := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tWEBHOOK\tEVENT\tATTEMPTS\tERROR")
		for _, dl := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", dl.Timestamp.Format("2006-01-02 15:04"), dl.WebhookName, dl.EventType, dl.Attempts, dl.Error)
		}
		return w.Flush()
	},
}

func init() {
	webhookDeadLettersCmd.Flags().BoolVar(&webhookJSON, "json", false, "Output as JSON")
	webhookCmd.AddCommand(webhookListCmd, webhookPingCmd, webhookDeadLettersCmd)
	RootCmd.AddCommand(webhookCmd)
}
