package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/maxkimambo/dagsched/internal/config"
	"github.com/maxkimambo/dagsched/internal/definition"
	"github.com/maxkimambo/dagsched/internal/driver"
	schederrors "github.com/maxkimambo/dagsched/internal/errors"
	"github.com/maxkimambo/dagsched/internal/logger"
	"github.com/maxkimambo/dagsched/internal/schedule"
	"github.com/maxkimambo/dagsched/internal/tasks"
	"github.com/spf13/cobra"
)

// sampleFlags selects the inputs of the built-in sample schedule
type sampleFlags struct {
	input1 []int
	input2 []int
}

func (f *sampleFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntSliceVar(&f.input1, "input1", []int{2}, "Inputs of Square1 when no definition file is given")
	cmd.Flags().IntSliceVar(&f.input2, "input2", []int{3}, "Inputs of Square2 when no definition file is given")
}

// loadSchedule builds the schedule from the definition file in args, or the
// sample schedule when no file is given
func loadSchedule(args []string, sample *sampleFlags) (*schedule.Schedule, error) {
	if len(args) == 0 {
		logger.Op.WithFields(map[string]interface{}{
			"input1": sample.input1,
			"input2": sample.input2,
		}).Debug("Using built-in sample schedule")
		return tasks.NewSampleSchedule(sample.input1, sample.input2)
	}

	def, err := definition.Load(args[0])
	if err != nil {
		return nil, err
	}
	return definition.Build(def, tasks.DefaultRegistry())
}

// loadConfig reads the environment configuration and applies explicitly set flags on top
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, schederrors.NewConfigError(err)
	}

	flags := cmd.Flags()
	if flags.Changed("concurrency") {
		cfg.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("task-timeout") {
		cfg.TaskTimeout, _ = flags.GetDuration("task-timeout")
	}
	if flags.Changed("progress-interval") {
		cfg.ProgressInterval, _ = flags.GetDuration("progress-interval")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}

	if err := cfg.Validate(); err != nil {
		return nil, schederrors.NewConfigError(fmt.Errorf("invalid config: %w", err))
	}
	return cfg, nil
}

func driverConfig(cfg *config.Config) *driver.Config {
	return &driver.Config{
		Concurrency:      cfg.Concurrency,
		TaskTimeout:      cfg.TaskTimeout,
		PollInterval:     cfg.PollInterval,
		ProgressInterval: cfg.ProgressInterval,
	}
}

// serveMetrics exposes handler on addr under /metrics. The returned function
// shuts the server down.
func serveMetrics(addr string, handler http.Handler) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, schederrors.NewConfigError(err).WithContext("metrics_addr", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Op.WithFields(map[string]interface{}{
				"addr":  ln.Addr().String(),
				"error": err.Error(),
			}).Error("Metrics server stopped")
		}
	}()
	logger.User.Infof("Serving metrics on http://%s/metrics", ln.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
