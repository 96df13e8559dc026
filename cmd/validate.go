package cmd

import (
	"fmt"

	"github.com/maxkimambo/dagsched/internal/definition"
	"github.com/maxkimambo/dagsched/internal/logger"
	"github.com/maxkimambo/dagsched/internal/tasks"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate file.hcl",
		Short: "Check a schedule definition without running it",
		Long: `Parses a schedule definition, checks every task kind and dependency, and
verifies the dependencies contain no cycle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := definition.Load(args[0])
			if err != nil {
				return err
			}
			s, err := definition.Build(def, tasks.DefaultRegistry())
			if err != nil {
				return err
			}

			g := s.Dependencies()
			logger.User.Successf("Definition %s is valid", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d tasks, %d dependencies, %d ready to start\n",
				args[0], g.Size(), len(g.Edges()), len(s.ReadyTasks()))
			return nil
		},
	}
}
