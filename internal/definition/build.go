package definition

import (
	"fmt"
	"strings"

	"github.com/maxkimambo/dagsched/internal/errors"
	"github.com/maxkimambo/dagsched/internal/schedule"
	"github.com/maxkimambo/dagsched/internal/tasks"
)

// Build creates a schedule from def, constructing every task through reg.
// Tasks are inserted in file order, each after its dependencies.
func Build(def *Definition, reg *tasks.Registry) (*schedule.Schedule, error) {
	if def == nil {
		return nil, fmt.Errorf("definition: nil definition")
	}
	if reg == nil {
		reg = tasks.DefaultRegistry()
	}

	specs := make(map[string]TaskSpec, len(def.Tasks))
	for _, spec := range def.Tasks {
		if _, exists := specs[spec.ID]; exists {
			return nil, errors.NewDuplicateTaskError(spec.ID)
		}
		if !reg.Has(spec.Kind) {
			return nil, errors.NewUnknownKindError(spec.ID, spec.Kind, reg.Kinds())
		}
		specs[spec.ID] = spec
	}
	for _, spec := range def.Tasks {
		for _, dep := range spec.DependsOn {
			if _, ok := specs[dep]; !ok {
				return nil, errors.NewUnknownDependencyError(spec.ID, dep)
			}
		}
	}

	b := &builder{
		specs:    specs,
		registry: reg,
		schedule: schedule.NewEmpty(),
		built:    make(map[string]tasks.Task),
		visiting: make(map[string]bool),
	}
	for _, spec := range def.Tasks {
		if _, err := b.visit(spec.ID, nil); err != nil {
			return nil, err
		}
	}
	return b.schedule, nil
}

type builder struct {
	specs    map[string]TaskSpec
	registry *tasks.Registry
	schedule *schedule.Schedule
	built    map[string]tasks.Task
	visiting map[string]bool
}

// visit adds id to the schedule after all of its dependencies. path holds
// the chain of tasks currently being visited, for cycle messages.
func (b *builder) visit(id string, path []string) (tasks.Task, error) {
	if task, ok := b.built[id]; ok {
		return task, nil
	}
	path = append(path, id)
	if b.visiting[id] {
		return nil, errors.NewCycleError(
			fmt.Errorf("%w: %s", schedule.ErrCycle, strings.Join(path, " -> ")))
	}
	b.visiting[id] = true
	defer delete(b.visiting, id)

	spec := b.specs[id]
	parents := make([]schedule.Task, 0, len(spec.DependsOn))
	for _, dep := range spec.DependsOn {
		parent, err := b.visit(dep, path)
		if err != nil {
			return nil, err
		}
		parents = append(parents, parent)
	}

	task, err := b.registry.New(spec.Kind, spec.ID)
	if err != nil {
		return nil, errors.NewUnknownKindError(spec.ID, spec.Kind, b.registry.Kinds())
	}
	task.AddInput(spec.Inputs.Clone())

	if err := b.schedule.Add(task, parents...); err != nil {
		return nil, errors.Classify(err)
	}
	b.built[id] = task
	return task, nil
}
