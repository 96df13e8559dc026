package cmd

import (
	"github.com/maxkimambo/dagsched/internal/visualization"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	var sample sampleFlags
	var format string

	cmd := &cobra.Command{
		Use:   "graph [file.hcl]",
		Short: "Print the dependency graph of a schedule",
		Long: `Prints the tasks and dependencies of a schedule without running it.

Example:
dagsched graph pipeline.hcl --format dot | dot -Tpng -o pipeline.png
dagsched graph --format text
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := visualization.ParseFormat(format)
			if err != nil {
				return err
			}
			s, err := loadSchedule(args, &sample)
			if err != nil {
				return err
			}
			return visualization.Write(cmd.OutOrStdout(), visualization.Describe(s), f)
		},
	}

	sample.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", string(visualization.FormatText), "Output format: dot, json or text")

	return cmd
}
