package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	projectPath string
	logLevel    string
	logFormat   string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "flowcraft",
	Version: Version,
	Short:   "A local issue tracker with derived delivery metrics",
	Long: `FlowCraft tracks issues and sprints in a local workspace and derives
delivery metrics from them: status breakdown, sprint progress, throughput,
workload, velocity, blocked and stale work, WIP pressure, cycle time and
per-project delivery ETA.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	err := RootCmd.Execute()
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.Hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", cliErr.Hint)
	}
	return err
}

func init() {
	cobra.OnFinalize(closeSessions)
	RootCmd.PersistentFlags().StringVar(&projectPath, "project-path", "", "Workspace root (defaults to the current directory)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides preferences")
	RootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (console, json); overrides preferences")
}
