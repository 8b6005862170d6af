package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowcraft/internal/infrastructure/config"
	"github.com/felixgeelhaar/flowcraft/pkg/storage"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a flowcraft workspace in the project directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		repo := s.services.Workspace.Repo

		ws, err := repo.InitWorkspace(cmd.Context())
		if err != nil {
			return MapError(fmt.Errorf("failed to initialize workspace: %w", err))
		}

		prefsPath, err := repo.ResolvePath(storage.PreferencesFile)
		if err != nil {
			return err
		}
		if _, statErr := os.Stat(prefsPath); os.IsNotExist(statErr) {
			if err := config.SavePreferences(s.root, config.DefaultPreferences()); err != nil {
				return fmt.Errorf("failed to write default preferences: %w", err)
			}
		}

		fmt.Fprintf(out(cmd), "Initialized flowcraft workspace in %s (%d issues, %d sprints)\n",
			repo.Dir(), len(ws.Issues), len(ws.Sprints))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(initCmd)
}
