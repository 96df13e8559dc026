package schedule

import "sync"

// Task is a unit of work tracked by a Schedule
type Task interface {
	// ID returns the stable, unique identifier for this task
	ID() string

	// OutputParameters returns the values produced by the task once it has run
	OutputParameters() Params

	// AddInput appends a batch of inputs, usually the outputs of a finished predecessor
	AddInput(input Params)

	// AddInputParameter seeds a single named input, e.g. for root tasks
	AddInputParameter(name string, values ...any)
}

// BaseTask provides the parameter bookkeeping of Task and can be embedded
// by concrete task types
type BaseTask struct {
	id      string
	inputs  Params
	outputs Params
	mutex   sync.RWMutex
}

// NewBaseTask creates a new base task
func NewBaseTask(id string) *BaseTask {
	return &BaseTask{
		id:      id,
		inputs:  make(Params),
		outputs: make(Params),
	}
}

// ID returns the unique identifier for this task
func (t *BaseTask) ID() string {
	return t.id
}

// AddInput appends input to the task's input parameters
func (t *BaseTask) AddInput(input Params) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.inputs.Merge(input)
}

// AddInputParameter appends values to a single named input parameter
func (t *BaseTask) AddInputParameter(name string, values ...any) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.inputs[name] = append(t.inputs[name], values...)
}

// Input returns a copy of the values received for the named input parameter
func (t *BaseTask) Input(name string) []any {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	values := t.inputs[name]
	out := make([]any, len(values))
	copy(out, values)
	return out
}

// Inputs returns a copy of all input parameters
func (t *BaseTask) Inputs() Params {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.inputs.Clone()
}

// SetOutput appends values to the named output parameter
func (t *BaseTask) SetOutput(name string, values ...any) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.outputs[name] = append(t.outputs[name], values...)
}

// OutputParameters returns a copy of the output parameters
func (t *BaseTask) OutputParameters() Params {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.outputs.Clone()
}
