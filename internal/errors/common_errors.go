package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/maxkimambo/dagsched/internal/driver"
	"github.com/maxkimambo/dagsched/internal/schedule"
)

const (
	CodeDefinitionParse      = "001"
	CodeDefinitionKind       = "002"
	CodeDefinitionDependency = "003"
	CodeDefinitionDuplicate  = "004"
	CodeDefinitionCycle      = "005"

	CodeProtocolStarted    = "001"
	CodeProtocolNotStarted = "002"
	CodeProtocolUnknown    = "003"
	CodeProtocolArgument   = "004"

	CodeTaskFailed = "001"

	CodeConfigInvalid = "001"

	CodeExecutionStalled   = "001"
	CodeExecutionCancelled = "002"
)

// NewDefinitionParseError creates an error for unreadable schedule definitions
func NewDefinitionParseError(path string, originalErr error) *SchedulerError {
	return NewSchedulerError(ErrorCategoryDefinition, CodeDefinitionParse,
		fmt.Sprintf("Failed to parse schedule definition '%s'", path),
		"Definition loading").
		WithContext("file", path).
		WithOriginalError(originalErr).
		WithTroubleshooting(
			"Check the file is valid HCL",
			"Every task block needs a label and a kind attribute",
			"Inputs must be a map of lists, e.g. inputs = { x = [1, 2] }",
		)
}

// NewUnknownKindError creates an error for a task kind missing from the registry
func NewUnknownKindError(taskID, kind string, known []string) *SchedulerError {
	return NewSchedulerError(ErrorCategoryDefinition, CodeDefinitionKind,
		fmt.Sprintf("Task '%s' uses unknown kind '%s'", taskID, kind),
		"Definition building").
		WithContext("task", taskID).
		WithContext("kind", kind).
		WithTroubleshooting(
			fmt.Sprintf("Use one of the registered kinds: %s", strings.Join(known, ", ")),
		)
}

// NewUnknownDependencyError creates an error for depends_on entries naming no task
func NewUnknownDependencyError(taskID, dependency string) *SchedulerError {
	return NewSchedulerError(ErrorCategoryDefinition, CodeDefinitionDependency,
		fmt.Sprintf("Task '%s' depends on undefined task '%s'", taskID, dependency),
		"Definition building").
		WithContext("task", taskID).
		WithContext("dependency", dependency).
		WithTroubleshooting(
			"Check the spelling of the depends_on entry",
			"Declare a task block for every dependency",
		)
}

// NewDuplicateTaskError creates an error for two task blocks sharing a label
func NewDuplicateTaskError(taskID string) *SchedulerError {
	return NewSchedulerError(ErrorCategoryDefinition, CodeDefinitionDuplicate,
		fmt.Sprintf("Task '%s' is declared more than once", taskID),
		"Definition building").
		WithContext("task", taskID).
		WithTroubleshooting("Give every task block a unique label")
}

// NewCycleError creates an error for dependency cycles
func NewCycleError(originalErr error) *SchedulerError {
	return NewSchedulerError(ErrorCategoryDefinition, CodeDefinitionCycle,
		"Dependency graph contains a cycle",
		"Graph construction").
		WithOriginalError(originalErr).
		WithTroubleshooting(
			"Run 'dagsched graph' to inspect the dependencies",
			"Remove one depends_on entry from the loop",
		)
}

// NewTaskFailedError creates an error for a task whose execution failed
func NewTaskFailedError(taskID string, originalErr error) *SchedulerError {
	return NewSchedulerError(ErrorCategoryTask, CodeTaskFailed,
		fmt.Sprintf("Task '%s' failed", taskID),
		"Task execution").
		WithContext("task", taskID).
		WithOriginalError(originalErr)
}

// NewConfigError creates an error for invalid configuration values
func NewConfigError(originalErr error) *SchedulerError {
	return NewSchedulerError(ErrorCategoryConfiguration, CodeConfigInvalid,
		"Invalid configuration",
		"Configuration loading").
		WithOriginalError(originalErr).
		WithTroubleshooting(
			"Check the DAGSCHED_* environment variables",
			"Use --help to see the accepted flag ranges",
		)
}

// Classify converts errors returned by the schedule core or the driver into
// a SchedulerError. Errors that are already classified, or unknown, are
// returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var schedErr *SchedulerError
	if stderrors.As(err, &schedErr) {
		return err
	}

	switch {
	case stderrors.Is(err, schedule.ErrCycle):
		return NewCycleError(err)
	case stderrors.Is(err, schedule.ErrAlreadyStarted):
		return NewSchedulerError(ErrorCategoryProtocol, CodeProtocolStarted,
			"Task was started twice", "Schedule lifecycle").WithOriginalError(err)
	case stderrors.Is(err, schedule.ErrNotStarted):
		return NewSchedulerError(ErrorCategoryProtocol, CodeProtocolNotStarted,
			"Task completed without being started", "Schedule lifecycle").WithOriginalError(err)
	case stderrors.Is(err, schedule.ErrUnknownTask):
		return NewSchedulerError(ErrorCategoryProtocol, CodeProtocolUnknown,
			"Task is not part of the schedule", "Schedule lifecycle").WithOriginalError(err)
	case stderrors.Is(err, schedule.ErrNilTask),
		stderrors.Is(err, schedule.ErrNilGraph),
		stderrors.Is(err, schedule.ErrNilErrors),
		stderrors.Is(err, schedule.ErrEmptyTaskID):
		return NewSchedulerError(ErrorCategoryProtocol, CodeProtocolArgument,
			"Missing required argument", "Schedule lifecycle").WithOriginalError(err)
	case stderrors.Is(err, driver.ErrStalled):
		return NewSchedulerError(ErrorCategoryExecution, CodeExecutionStalled,
			"Schedule stalled with tasks left but none ready", "Schedule execution").
			WithOriginalError(err).
			WithTroubleshooting(
				"The dependency graph was probably modified to contain a cycle",
				"Run 'dagsched graph' to inspect the remaining tasks",
			)
	case stderrors.Is(err, driver.ErrCancelled):
		return NewSchedulerError(ErrorCategoryExecution, CodeExecutionCancelled,
			"Schedule execution was cancelled", "Schedule execution").WithOriginalError(err)
	}
	return err
}

// IsDefinitionError reports whether err is caused by an invalid schedule definition
func IsDefinitionError(err error) bool {
	var schedErr *SchedulerError
	if stderrors.As(err, &schedErr) {
		return schedErr.Category == ErrorCategoryDefinition
	}
	return false
}
