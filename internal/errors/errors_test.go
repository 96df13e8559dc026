package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/maxkimambo/dagsched/internal/driver"
	"github.com/maxkimambo/dagsched/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerError_Error(t *testing.T) {
	cause := stderrors.New("boom")
	err := NewSchedulerError(ErrorCategoryTask, "001", "Task 'a' failed", "Task execution").
		WithContext("task", "a").
		WithContext("run_id", "r-1").
		WithTroubleshooting("Check the inputs").
		WithOriginalError(cause)

	expected := strings.Join([]string{
		"TASK-001: Task 'a' failed",
		"Operation: Task execution",
		"Context:",
		"  run_id: r-1",
		"  task: a",
		"Troubleshooting:",
		"  1. Check the inputs",
		"Underlying error: boom",
	}, "\n")
	assert.Equal(t, expected, err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *SchedulerError
		category ErrorCategory
		code     string
	}{
		{"parse", NewDefinitionParseError("x.hcl", stderrors.New("bad")), ErrorCategoryDefinition, CodeDefinitionParse},
		{"kind", NewUnknownKindError("a", "cube", []string{"square", "sum"}), ErrorCategoryDefinition, CodeDefinitionKind},
		{"dependency", NewUnknownDependencyError("a", "b"), ErrorCategoryDefinition, CodeDefinitionDependency},
		{"duplicate", NewDuplicateTaskError("a"), ErrorCategoryDefinition, CodeDefinitionDuplicate},
		{"cycle", NewCycleError(schedule.ErrCycle), ErrorCategoryDefinition, CodeDefinitionCycle},
		{"task", NewTaskFailedError("a", stderrors.New("x")), ErrorCategoryTask, CodeTaskFailed},
		{"config", NewConfigError(stderrors.New("x")), ErrorCategoryConfiguration, CodeConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}

	kindErr := NewUnknownKindError("a", "cube", []string{"square", "sum"})
	assert.Contains(t, kindErr.Error(), "square, sum")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		code     string
	}{
		{"cycle", fmt.Errorf("add: %w", schedule.ErrCycle), ErrorCategoryDefinition, CodeDefinitionCycle},
		{"already started", schedule.ErrAlreadyStarted, ErrorCategoryProtocol, CodeProtocolStarted},
		{"not started", schedule.ErrNotStarted, ErrorCategoryProtocol, CodeProtocolNotStarted},
		{"unknown task", schedule.ErrUnknownTask, ErrorCategoryProtocol, CodeProtocolUnknown},
		{"nil task", schedule.ErrNilTask, ErrorCategoryProtocol, CodeProtocolArgument},
		{"stalled", fmt.Errorf("%w: remaining [a]", driver.ErrStalled), ErrorCategoryExecution, CodeExecutionStalled},
		{"cancelled", driver.ErrCancelled, ErrorCategoryExecution, CodeExecutionCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := Classify(tt.err)

			var schedErr *SchedulerError
			require.True(t, stderrors.As(classified, &schedErr))
			assert.Equal(t, tt.category, schedErr.Category)
			assert.Equal(t, tt.code, schedErr.Code)
			assert.ErrorIs(t, classified, tt.err)
		})
	}
}

func TestClassify_Passthrough(t *testing.T) {
	assert.Nil(t, Classify(nil))

	plain := stderrors.New("plain")
	assert.Same(t, plain, Classify(plain))

	already := NewConfigError(plain)
	assert.Same(t, already, Classify(already))
}

func TestIsDefinitionError(t *testing.T) {
	assert.True(t, IsDefinitionError(NewDuplicateTaskError("a")))
	assert.True(t, IsDefinitionError(fmt.Errorf("wrapped: %w", NewCycleError(nil))))
	assert.False(t, IsDefinitionError(NewConfigError(nil)))
	assert.False(t, IsDefinitionError(stderrors.New("x")))
	assert.False(t, IsDefinitionError(nil))
}

func TestDisplay(t *testing.T) {
	err := NewDuplicateTaskError("a")
	assert.Equal(t, err.Error(), DisplayError(err))
	assert.Equal(t, "DEFINITION-004: Task 'a' is declared more than once", DisplayErrorSummary(err))

	assert.Equal(t, "Error: plain", DisplayError(stderrors.New("plain")))
	long := strings.Repeat("x", 120)
	assert.Len(t, DisplayErrorSummary(stderrors.New(long)), 100)
}
