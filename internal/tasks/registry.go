package tasks

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownKind is returned when no constructor is registered for a kind
	ErrUnknownKind = errors.New("tasks: unknown task kind")
	// ErrDuplicateKind is returned when a kind is registered twice
	ErrDuplicateKind = errors.New("tasks: kind already registered")
)

// Constructor creates a task with the given ID
type Constructor func(id string) Task

// Registry maps task kind names to constructors
type Registry struct {
	constructors map[string]Constructor
	mutex        sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// DefaultRegistry returns a registry with the square, sum and fail kinds
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister("square", func(id string) Task { return NewSquare(id) })
	r.MustRegister("sum", func(id string) Task { return NewSum(id) })
	r.MustRegister("fail", func(id string) Task { return NewFail(id) })
	return r
}

// Register adds a constructor for kind
func (r *Registry) Register(kind string, ctor Constructor) error {
	if kind == "" || ctor == nil {
		return fmt.Errorf("tasks: invalid registration for kind %q", kind)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.constructors[kind]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, kind)
	}
	r.constructors[kind] = ctor
	return nil
}

// MustRegister is like Register but panics on error
func (r *Registry) MustRegister(kind string, ctor Constructor) {
	if err := r.Register(kind, ctor); err != nil {
		panic(err)
	}
}

// New creates a task of the given kind
func (r *Registry) New(kind, id string) (Task, error) {
	r.mutex.RLock()
	ctor, ok := r.constructors[kind]
	r.mutex.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return ctor(id), nil
}

// Has reports whether kind is registered
func (r *Registry) Has(kind string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, ok := r.constructors[kind]
	return ok
}

// Kinds returns the registered kind names, sorted
func (r *Registry) Kinds() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	kinds := make([]string, 0, len(r.constructors))
	for kind := range r.constructors {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
