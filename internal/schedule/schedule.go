package schedule

import (
	"fmt"
	"sync"
)

// Schedule tracks the dependency state of one DAG execution: which tasks are
// ready, which are running, the outputs of finished sink tasks and the errors
// reported by the driver. All methods are safe for concurrent use.
type Schedule struct {
	dependencies *Graph
	running      map[string]Task
	completed    map[string]struct{}
	results      Params
	errors       []string
	hasErrors    bool
	mutex        sync.Mutex
}

// New wraps an existing dependency graph. The graph must be acyclic.
func New(g *Graph) (*Schedule, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &Schedule{
		dependencies: g,
		running:      make(map[string]Task),
		completed:    make(map[string]struct{}),
		results:      make(Params),
	}, nil
}

// NewEmpty creates a schedule with an empty graph
func NewEmpty() *Schedule {
	s, _ := New(NewGraph())
	return s
}

// Add inserts task, plus one edge from every task in dependsOn to it.
// Inserting a task that is already present only adds the new edges. A task
// that already completed cannot be added again, neither as task nor as a
// dependency.
func (s *Schedule) Add(task Task, dependsOn ...Task) error {
	if task == nil {
		return ErrNilTask
	}
	for _, parent := range dependsOn {
		if parent == nil {
			return fmt.Errorf("dependency of %s: %w", task.ID(), ErrNilTask)
		}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, done := s.completed[task.ID()]; done {
		return fmt.Errorf("task %s already completed: %w", task.ID(), ErrUnknownTask)
	}
	for _, parent := range dependsOn {
		if _, done := s.completed[parent.ID()]; done {
			return fmt.Errorf("dependency %s of %s already completed: %w", parent.ID(), task.ID(), ErrUnknownTask)
		}
	}

	if _, err := s.dependencies.AddVertex(task); err != nil {
		return err
	}
	for _, parent := range dependsOn {
		if _, err := s.dependencies.AddVertex(parent); err != nil {
			return err
		}
		if err := s.dependencies.AddEdge(parent.ID(), task.ID()); err != nil {
			return err
		}
	}
	return nil
}

// MustAdd is like Add but panics on error and returns s for chaining.
// It is intended for statically known schedules.
func (s *Schedule) MustAdd(task Task, dependsOn ...Task) *Schedule {
	if err := s.Add(task, dependsOn...); err != nil {
		panic(err)
	}
	return s
}

// IsDone reports whether the schedule reached a terminal state: either an
// error was recorded or every task has completed.
func (s *Schedule) IsDone() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.hasErrors {
		return true
	}
	return s.dependencies.Size() == 0
}

// ReadyTasks returns the tasks with no unresolved dependencies that are not running
func (s *Schedule) ReadyTasks() []Task {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var ready []Task
	for _, task := range s.dependencies.Vertices() {
		if _, running := s.running[task.ID()]; running {
			continue
		}
		if s.dependencies.InDegree(task.ID()) == 0 {
			ready = append(ready, task)
		}
	}
	return ready
}

// SetAsStarted moves task into the running set
func (s *Schedule) SetAsStarted(task Task) error {
	if task == nil {
		return ErrNilTask
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := task.ID()
	if _, running := s.running[id]; running {
		return fmt.Errorf("task %s: %w", id, ErrAlreadyStarted)
	}
	if !s.dependencies.HasVertex(id) {
		return fmt.Errorf("task %s: %w", id, ErrUnknownTask)
	}

	s.running[id] = task
	return nil
}

// NotifyDone completes a running task. Its outputs are appended to the inputs
// of every dependent task, or to the schedule results when it has no
// dependents. The task is then removed from the graph.
func (s *Schedule) NotifyDone(task Task) error {
	if task == nil {
		return ErrNilTask
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := task.ID()
	if _, running := s.running[id]; !running {
		return fmt.Errorf("task %s: %w", id, ErrNotStarted)
	}

	outputs := task.OutputParameters()
	if dependents := s.dependencies.Successors(id); len(dependents) > 0 {
		for _, dependent := range dependents {
			dependent.AddInput(outputs.Clone())
		}
	} else {
		s.results.Merge(outputs)
	}

	delete(s.running, id)
	s.completed[id] = struct{}{}
	s.dependencies.RemoveVertex(id)
	return nil
}

// NotifyError records task failures and moves the schedule into its
// permanent failed state. Running tasks are not interrupted.
func (s *Schedule) NotifyError(errs []string) error {
	if errs == nil {
		return ErrNilErrors
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.errors = append(s.errors, errs...)
	s.hasErrors = true
	return nil
}

// HasErrors reports whether any error has been recorded
func (s *Schedule) HasErrors() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.hasErrors
}

// Errors returns a copy of the recorded error messages
func (s *Schedule) Errors() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]string, len(s.errors))
	copy(out, s.errors)
	return out
}

// Results returns a copy of the outputs accumulated from sink tasks
func (s *Schedule) Results() Params {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.results.Clone()
}

// Running returns the tasks currently marked as started
func (s *Schedule) Running() []Task {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var tasks []Task
	for _, task := range s.dependencies.Vertices() {
		if _, running := s.running[task.ID()]; running {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

// Dependencies returns the live dependency graph. It is meant for inspection;
// mutating it bypasses the schedule's bookkeeping.
func (s *Schedule) Dependencies() *Graph {
	return s.dependencies
}
