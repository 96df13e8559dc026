package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/maxkimambo/dagsched/internal/schedule"
)

// Parameter names used by the sample tasks
const (
	InputSquare  = "input_square"
	ResultSquare = "result_square"
	FinalResult  = "final_result"
	Message      = "message"
)

// Task is a schedule task that can be executed by the driver
type Task interface {
	schedule.Task
	Execute(ctx context.Context) error
}

// Square outputs the square of every input_square value as result_square
type Square struct {
	*schedule.BaseTask
}

// NewSquare creates a square task
func NewSquare(id string) *Square {
	return &Square{BaseTask: schedule.NewBaseTask(id)}
}

// Execute squares the inputs
func (t *Square) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	inputs := t.Input(InputSquare)
	squares := make([]any, 0, len(inputs))
	for _, v := range inputs {
		sq, err := square(v)
		if err != nil {
			return fmt.Errorf("%s: %w", InputSquare, err)
		}
		squares = append(squares, sq)
	}
	t.SetOutput(ResultSquare, squares...)
	return nil
}

// Sum adds up every result_square value into a single final_result
type Sum struct {
	*schedule.BaseTask
}

// NewSum creates a sum task
func NewSum(id string) *Sum {
	return &Sum{BaseTask: schedule.NewBaseTask(id)}
}

// Execute sums the inputs
func (t *Sum) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	total, err := sum(t.Input(ResultSquare))
	if err != nil {
		return fmt.Errorf("%s: %w", ResultSquare, err)
	}
	t.SetOutput(FinalResult, total)
	return nil
}

// Fail always returns an error. The message is taken from the "message"
// input when present.
type Fail struct {
	*schedule.BaseTask
}

// NewFail creates a failing task
func NewFail(id string) *Fail {
	return &Fail{BaseTask: schedule.NewBaseTask(id)}
}

// Execute returns the configured failure
func (t *Fail) Execute(context.Context) error {
	var parts []string
	for _, v := range t.Input(Message) {
		parts = append(parts, fmt.Sprint(v))
	}
	if len(parts) == 0 {
		return fmt.Errorf("task %s failed", t.ID())
	}
	return fmt.Errorf("%s", strings.Join(parts, "; "))
}

// FuncBody computes outputs from a snapshot of the task's inputs
type FuncBody func(ctx context.Context, inputs schedule.Params) (schedule.Params, error)

// Func adapts a plain function into a task
type Func struct {
	*schedule.BaseTask
	body FuncBody
}

// NewFunc creates a task running body
func NewFunc(id string, body FuncBody) *Func {
	return &Func{BaseTask: schedule.NewBaseTask(id), body: body}
}

// Execute runs the function and stores its outputs
func (t *Func) Execute(ctx context.Context) error {
	if t.body == nil {
		return nil
	}
	outputs, err := t.body(ctx, t.Inputs())
	if err != nil {
		return err
	}
	for name, values := range outputs {
		t.SetOutput(name, values...)
	}
	return nil
}

// NewSampleSchedule builds two square tasks feeding one sum task:
// Square1(input1), Square2(input2) -> Sum
func NewSampleSchedule(input1, input2 []int) (*schedule.Schedule, error) {
	sq1 := NewSquare("Square1")
	sq2 := NewSquare("Square2")
	for _, v := range input1 {
		sq1.AddInputParameter(InputSquare, v)
	}
	for _, v := range input2 {
		sq2.AddInputParameter(InputSquare, v)
	}

	s := schedule.NewEmpty()
	if err := s.Add(sq1); err != nil {
		return nil, err
	}
	if err := s.Add(sq2); err != nil {
		return nil, err
	}
	if err := s.Add(NewSum("Sum"), sq1, sq2); err != nil {
		return nil, err
	}
	return s, nil
}
