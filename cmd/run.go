package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/maxkimambo/dagsched/internal/driver"
	schederrors "github.com/maxkimambo/dagsched/internal/errors"
	"github.com/maxkimambo/dagsched/internal/metrics"
	"github.com/maxkimambo/dagsched/internal/progress"
	"github.com/maxkimambo/dagsched/internal/utils"
	"github.com/maxkimambo/dagsched/internal/visualization"
	"github.com/spf13/cobra"
)

type runOptions struct {
	sample   sampleFlags
	graphOut string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [file.hcl]",
		Short: "Execute a schedule",
		Long: `Executes the schedule defined in an HCL file. Without a file the built-in sample
runs: Square1 and Square2 square their inputs and Sum adds the squares.

Example:
dagsched run --input1 2 --input2 3
dagsched run pipeline.hcl --concurrency 8 --task-timeout 30s --graph-out run.dot
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(cmd, args, opts)
		},
	}

	opts.sample.register(cmd)
	cmd.Flags().Int("concurrency", 4, "Maximum number of tasks running at once (env DAGSCHED_CONCURRENCY)")
	cmd.Flags().Duration("task-timeout", 5*time.Minute, "Timeout of a single task (env DAGSCHED_TASK_TIMEOUT)")
	cmd.Flags().Duration("progress-interval", 5*time.Second, "Interval between progress lines, 0 disables (env DAGSCHED_PROGRESS_INTERVAL)")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (env DAGSCHED_METRICS_ADDR)")
	cmd.Flags().StringVar(&opts.graphOut, "graph-out", "", "Write the executed graph with task outcomes as DOT to this file")

	return cmd
}

func runSchedule(cmd *cobra.Command, args []string, opts *runOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s, err := loadSchedule(args, &opts.sample)
	if err != nil {
		return err
	}
	snapshot := visualization.Describe(s)

	collector := metrics.NewCollector()
	if cfg.MetricsAddr != "" {
		shutdown, err := serveMetrics(cfg.MetricsAddr, collector.Handler())
		if err != nil {
			return err
		}
		defer shutdown()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := driver.New(driverConfig(cfg), driver.WithRecorder(collector))
	result, runErr := d.Run(ctx, s)
	if result == nil {
		return schederrors.Classify(runErr)
	}

	printResult(cmd.OutOrStdout(), result)

	if opts.graphOut != "" {
		snapshot.Apply(result)
		if err := os.WriteFile(opts.graphOut, []byte(visualization.DOT(snapshot)), 0644); err != nil {
			return fmt.Errorf("failed to write graph to %s: %w", opts.graphOut, err)
		}
	}

	if runErr != nil {
		return schederrors.Classify(runErr)
	}
	if !result.Success() {
		return failedRunError(result)
	}
	return nil
}

// printResult writes the run summary, the results and a per-task report
func printResult(w io.Writer, result *driver.Result) {
	boxType := utils.SuccessMessage
	title := "Schedule completed"
	if !result.Success() {
		boxType = utils.ErrorMessage
		title = fmt.Sprintf("Schedule %s", result.Status)
	}
	fmt.Fprintln(w, utils.NewBox(boxType, title).
		AddLine(fmt.Sprintf("Run: %s", result.RunID)).
		AddLine(fmt.Sprintf("Tasks executed: %d", len(result.Tasks))).
		AddLine(fmt.Sprintf("Duration: %s", progress.FormatDuration(result.ExecutionTime))).
		Render())

	if len(result.Results) > 0 {
		fmt.Fprintln(w, "\nResults:")
		fmt.Fprint(w, utils.ParamsTable(result.Results).String())
	}

	reports := make([]*driver.TaskReport, 0, len(result.Tasks))
	for _, report := range result.Tasks {
		reports = append(reports, report)
	}
	sort.Slice(reports, func(i, j int) bool {
		if !reports[i].StartTime.Equal(reports[j].StartTime) {
			return reports[i].StartTime.Before(reports[j].StartTime)
		}
		return reports[i].TaskID < reports[j].TaskID
	})

	if len(reports) > 0 {
		table := utils.NewTable("Task", "Outcome", "Duration", "Error")
		for _, report := range reports {
			outcome, errMsg := "succeeded", ""
			if !report.Success {
				outcome = "failed"
				if report.Error != nil {
					errMsg = report.Error.Error()
				}
			}
			_ = table.AddRow(report.TaskID, outcome, progress.FormatDuration(report.Duration), errMsg)
		}
		fmt.Fprintln(w, "\nTasks:")
		fmt.Fprint(w, table.String())
	}

	if len(result.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, msg := range result.Errors {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	}
}

// failedRunError reports the first failed task, or every recorded error
// when no task report carries one
func failedRunError(result *driver.Result) error {
	var failed []*driver.TaskReport
	for _, report := range result.Tasks {
		if !report.Success {
			failed = append(failed, report)
		}
	}
	if len(failed) == 0 {
		return fmt.Errorf("schedule %s: %s", result.Status, strings.Join(result.Errors, "; "))
	}

	sort.Slice(failed, func(i, j int) bool { return failed[i].TaskID < failed[j].TaskID })
	return schederrors.NewTaskFailedError(failed[0].TaskID, failed[0].Error).
		WithContext("run_id", result.RunID)
}
