package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/maxkimambo/dagsched/internal/logger"
	"github.com/maxkimambo/dagsched/internal/progress"
	"github.com/maxkimambo/dagsched/internal/schedule"
)

var (
	// ErrStalled is returned when tasks remain but none can become ready
	ErrStalled = errors.New("driver: schedule stalled")
	// ErrCancelled is returned when the run context ends before the schedule does
	ErrCancelled = errors.New("driver: execution cancelled")
)

// Executable is a task the driver knows how to run
type Executable interface {
	schedule.Task

	// Execute performs the task's work and populates its output parameters
	Execute(ctx context.Context) error
}

// Recorder receives execution events, e.g. for metrics
type Recorder interface {
	TaskStarted(taskID string)
	TaskFinished(taskID string, duration time.Duration, err error)
	RunFinished(status string, duration time.Duration)
}

// Config contains configuration for the driver
type Config struct {
	// Concurrency is the maximum number of tasks to run in parallel
	Concurrency int

	// TaskTimeout bounds every single task execution
	TaskTimeout time.Duration

	// PollInterval is how often the schedule is re-checked without a wake-up
	PollInterval time.Duration

	// ProgressInterval is how often progress is logged; zero disables it
	ProgressInterval time.Duration
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Concurrency:      4,
		TaskTimeout:      5 * time.Minute,
		PollInterval:     50 * time.Millisecond,
		ProgressInterval: 5 * time.Second,
	}
}

// Status is the final state of a run
type Status string

const (
	StatusDrained   Status = "drained"
	StatusFailed    Status = "failed"
	StatusStalled   Status = "stalled"
	StatusCancelled Status = "cancelled"
)

// TaskReport contains the result of a single task execution
type TaskReport struct {
	TaskID    string
	Success   bool
	Error     error
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Result contains the outcome of a schedule run
type Result struct {
	RunID         string
	Status        Status
	Results       schedule.Params
	Errors        []string
	Tasks         map[string]*TaskReport
	ExecutionTime time.Duration
}

// Success reports whether the schedule drained without errors
func (r *Result) Success() bool {
	return r.Status == StatusDrained
}

// Option configures a Driver
type Option func(*Driver)

// WithRecorder sets the recorder notified of task and run events
func WithRecorder(recorder Recorder) Option {
	return func(d *Driver) {
		d.recorder = recorder
	}
}

// Driver repeatedly takes ready tasks from a schedule, runs them on a bounded
// number of goroutines and reports their completion back to the schedule
type Driver struct {
	config   *Config
	recorder Recorder
}

// New creates a driver
func New(config *Config, opts ...Option) *Driver {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	}
	cfg := *config
	config = &cfg
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.TaskTimeout <= 0 {
		config.TaskTimeout = defaults.TaskTimeout
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	d := &Driver{
		config:   config,
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// run holds the state of a single Run call
type run struct {
	id       string
	schedule *schedule.Schedule
	workers  chan struct{}
	wake     chan struct{}
	reporter *progress.Reporter
	inFlight atomic.Int32
	wg       sync.WaitGroup

	mutex   sync.Mutex
	reports map[string]*TaskReport
}

// Run drives s until it is done, stalls or ctx is cancelled. Task failures
// are not returned as an error; they are reported in the Result.
func (d *Driver) Run(ctx context.Context, s *schedule.Schedule) (*Result, error) {
	if s == nil {
		return nil, schedule.ErrNilGraph
	}

	start := time.Now()
	r := &run{
		id:       uuid.NewString(),
		schedule: s,
		workers:  make(chan struct{}, d.config.Concurrency),
		wake:     make(chan struct{}, 1),
		reporter: progress.NewReporter(d.config.ProgressInterval),
		reports:  make(map[string]*TaskReport),
	}
	total := s.Dependencies().Size()

	logger.User.Startingf("Starting schedule run %s: %d tasks (max %d parallel)", r.id, total, d.config.Concurrency)

	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	status := StatusDrained
	var runErr error

	for {
		if ctx.Err() != nil {
			status = StatusCancelled
			runErr = fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
			break
		}
		if s.IsDone() {
			break
		}

		if !d.dispatchReady(ctx, r) {
			continue
		}

		if r.inFlight.Load() == 0 && len(s.ReadyTasks()) == 0 && !s.IsDone() {
			status = StatusStalled
			runErr = d.stall(r)
			break
		}

		select {
		case <-r.wake:
		case <-ticker.C:
			if r.reporter.ShouldReport() {
				logger.User.Info(r.reporter.Report(r.progressInfo(total, start)))
			}
		case <-ctx.Done():
		}
	}

	// in-flight tasks run to completion
	r.wg.Wait()

	if status == StatusDrained && s.HasErrors() {
		status = StatusFailed
	}

	result := &Result{
		RunID:         r.id,
		Status:        status,
		Results:       s.Results(),
		Errors:        s.Errors(),
		Tasks:         r.snapshotReports(),
		ExecutionTime: time.Since(start),
	}
	d.recorder.RunFinished(string(status), result.ExecutionTime)
	d.logSummary(result, total)

	return result, runErr
}

// dispatchReady starts every ready task. It returns false when the caller
// should re-evaluate the loop conditions immediately.
func (d *Driver) dispatchReady(ctx context.Context, r *run) bool {
	for _, task := range r.schedule.ReadyTasks() {
		select {
		case r.workers <- struct{}{}:
		case <-ctx.Done():
			return false
		}

		// no new work once an error has been recorded
		if r.schedule.HasErrors() {
			<-r.workers
			return false
		}

		exe, ok := task.(Executable)
		if !ok {
			<-r.workers
			_ = r.schedule.NotifyError([]string{fmt.Sprintf("task %s is not executable", task.ID())})
			return false
		}

		if err := r.schedule.SetAsStarted(task); err != nil {
			<-r.workers
			_ = r.schedule.NotifyError([]string{err.Error()})
			return false
		}

		r.inFlight.Add(1)
		r.wg.Add(1)
		go d.execute(ctx, r, exe)
	}
	return true
}

// execute runs a single task on a worker slot and reports its outcome
func (d *Driver) execute(ctx context.Context, r *run, task Executable) {
	defer r.wg.Done()
	defer func() { <-r.workers }()

	id := task.ID()
	report := &TaskReport{TaskID: id, StartTime: time.Now()}

	logger.Op.With(logger.WithRun(r.id), logger.WithTask(id)).Debug("Dispatching task")
	logger.User.Taskf("Starting task: %s", id)
	d.recorder.TaskStarted(id)

	taskCtx, cancel := context.WithTimeout(ctx, d.config.TaskTimeout)
	err := executeSafely(taskCtx, task)
	cancel()

	if err == nil {
		if notifyErr := r.schedule.NotifyDone(task); notifyErr != nil {
			err = notifyErr
		}
	}
	if err != nil {
		_ = r.schedule.NotifyError([]string{fmt.Sprintf("task %s: %v", id, err)})
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	report.Success = err == nil
	report.Error = err
	d.recorder.TaskFinished(id, report.Duration, err)

	if msg := r.reporter.ReportTaskComplete(id, report.Duration, err); err != nil {
		logger.User.Error(msg)
	} else {
		logger.User.Success(msg)
	}

	r.mutex.Lock()
	r.reports[id] = report
	r.mutex.Unlock()

	r.inFlight.Add(-1)
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// executeSafely turns a panicking task into an error
func executeSafely(ctx context.Context, task Executable) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return task.Execute(ctx)
}

// stall records that the remaining tasks can never become ready
func (d *Driver) stall(r *run) error {
	var pending []string
	for _, task := range r.schedule.Dependencies().Vertices() {
		pending = append(pending, task.ID())
	}
	msg := fmt.Sprintf("schedule stalled: no task is ready, remaining tasks %v", pending)
	_ = r.schedule.NotifyError([]string{msg})

	logger.Op.With(logger.WithRun(r.id)).WithField("pending", pending).Warn("Schedule stalled")

	return fmt.Errorf("%w: remaining tasks %v", ErrStalled, pending)
}

func (r *run) progressInfo(total int, start time.Time) progress.Info {
	info := progress.Info{
		TotalTasks:  total,
		ReadyTasks:  len(r.schedule.ReadyTasks()),
		ElapsedTime: time.Since(start),
	}
	for _, task := range r.schedule.Running() {
		info.RunningTasks = append(info.RunningTasks, task.ID())
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, report := range r.reports {
		if report.Success {
			info.CompletedTasks++
		} else {
			info.FailedTasks++
		}
	}
	return info
}

func (r *run) snapshotReports() map[string]*TaskReport {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	out := make(map[string]*TaskReport, len(r.reports))
	for id, report := range r.reports {
		cp := *report
		out[id] = &cp
	}
	return out
}

// logSummary logs the final execution summary
func (d *Driver) logSummary(result *Result, total int) {
	completed, failed := 0, 0
	for _, report := range result.Tasks {
		if report.Success {
			completed++
		} else {
			failed++
		}
	}

	elapsed := progress.FormatDuration(result.ExecutionTime)
	switch result.Status {
	case StatusDrained:
		logger.User.Successf("Schedule completed: %d/%d tasks successful in %s", completed, total, elapsed)
	default:
		logger.User.Errorf("Schedule %s: %d successful, %d failed, %d not run in %s",
			result.Status, completed, failed, total-completed-failed, elapsed)
	}
}

type noopRecorder struct{}

func (noopRecorder) TaskStarted(string)                       {}
func (noopRecorder) TaskFinished(string, time.Duration, error) {}
func (noopRecorder) RunFinished(string, time.Duration)         {}
