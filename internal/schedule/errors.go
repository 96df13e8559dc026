package schedule

import "errors"

var (
	ErrNilGraph       = errors.New("schedule: graph cannot be nil")
	ErrNilTask        = errors.New("schedule: task cannot be nil")
	ErrEmptyTaskID    = errors.New("schedule: task ID cannot be empty")
	ErrNilErrors      = errors.New("schedule: error list cannot be nil")
	ErrUnknownTask    = errors.New("schedule: task is not part of the graph")
	ErrAlreadyStarted = errors.New("schedule: task already started")
	ErrNotStarted     = errors.New("schedule: task hasn't been started, or already executed")
	ErrCycle          = errors.New("schedule: dependency would create a cycle")
)
