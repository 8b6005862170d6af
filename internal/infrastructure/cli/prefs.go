package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowcraft/internal/infrastructure/config"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/telemetry"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show and change dashboard preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show [key]",
	Short: "Show effective preferences, including environment overrides",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		prefs, err := config.LoadPreferences(root)
		if err != nil {
			return MapError(fmt.Errorf("load preferences: %w", err))
		}
		if len(args) == 1 {
			v, err := prefs.Get(args[0])
			if err != nil {
				return NewCLIError(err.Error(), "Run 'flowcraft prefs show' to list keys", err)
			}
			fmt.Fprintln(out(cmd), v)
			return nil
		}
		tw := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
		for _, key := range config.PreferenceKeys {
			v, _ := prefs.Get(key)
			fmt.Fprintf(tw, "%s\t%s\n", key, v)
		}
		return tw.Flush()
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a preference in .flowcraft/preferences.yaml",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		if !s.services.Workspace.Repo.IsInitialized() {
			return NewCLIError("workspace not initialized", "Run 'flowcraft init' first", nil)
		}

		key, value := args[0], args[1]
		prefs, err := config.LoadPreferencesFile(s.root)
		if err != nil {
			return MapError(fmt.Errorf("load preferences: %w", err))
		}
		old, err := prefs.Set(key, value)
		if err != nil {
			return NewCLIError(fmt.Sprintf("cannot set %s", key), "Run 'flowcraft prefs show' for current values", err)
		}
		if err := config.SavePreferences(s.root, prefs); err != nil {
			return fmt.Errorf("save preferences: %w", err)
		}

		if key == "wip_threshold" && old != value {
			oldN, _ := strconv.Atoi(old)
			s.services.Workspace.Telemetry.Track(telemetry.WIPThresholdChanged, map[string]any{
				"from": oldN,
				"to":   prefs.WIPThreshold,
			})
		}
		updated, _ := prefs.Get(key)
		fmt.Fprintf(out(cmd), "%s: %s -> %s\n", key, old, updated)
		return nil
	},
}

func init() {
	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsSetCmd)
	RootCmd.AddCommand(prefsCmd)
}
