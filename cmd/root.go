package cmd

import (
	"fmt"
	"os"

	schederrors "github.com/maxkimambo/dagsched/internal/errors"
	"github.com/maxkimambo/dagsched/internal/logger"
	"github.com/spf13/cobra"
)

var version = "v0.1.0"

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	debug    bool
	verbose  bool
	jsonLogs bool
	quiet    bool
}

// NewRootCmd builds the dagsched command tree
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "dagsched",
		Short: "Run tasks in dependency order",
		Long: `dagsched executes a directed acyclic graph of tasks. A task becomes ready once
every task it depends on has completed, and receives their outputs as inputs.
Ready tasks run in parallel up to the configured concurrency.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Setup(opts.verbose || opts.debug, opts.jsonLogs, opts.quiet)
			if opts.debug {
				logger.Op.Debug("Debug logging enabled")
			}
		},
	}

	rootCmd.Version = version
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonLogs, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress non-error output")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newGraphCmd())
	rootCmd.AddCommand(newValidateCmd())

	return rootCmd
}

// Execute runs the root command and prints any error in its user-facing form
func Execute() error {
	rootCmd := NewRootCmd()
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, schederrors.DisplayError(schederrors.Classify(err)))
	}
	return err
}
