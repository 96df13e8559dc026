package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorCategory represents the category of error
type ErrorCategory string

const (
	// ErrorCategoryDefinition represents invalid schedule definitions
	ErrorCategoryDefinition ErrorCategory = "DEFINITION"
	// ErrorCategoryProtocol represents misuse of the schedule lifecycle
	ErrorCategoryProtocol ErrorCategory = "PROTOCOL"
	// ErrorCategoryTask represents failures reported by task execution
	ErrorCategoryTask ErrorCategory = "TASK"
	// ErrorCategoryConfiguration represents configuration errors
	ErrorCategoryConfiguration ErrorCategory = "CONFIGURATION"
	// ErrorCategoryExecution represents driver-level execution problems
	ErrorCategoryExecution ErrorCategory = "EXECUTION"
)

// SchedulerError represents a structured error with context and troubleshooting information
type SchedulerError struct {
	Category        ErrorCategory
	Code            string
	Message         string
	Operation       string
	Context         map[string]interface{}
	Troubleshooting []string
	OriginalError   error
}

// Error implements the error interface
func (e *SchedulerError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s-%s: %s", e.Category, e.Code, e.Message))

	if e.Operation != "" {
		sb.WriteString(fmt.Sprintf("\nOperation: %s", e.Operation))
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for key := range e.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		sb.WriteString("\nContext:")
		for _, key := range keys {
			sb.WriteString(fmt.Sprintf("\n  %s: %v", key, e.Context[key]))
		}
	}

	if len(e.Troubleshooting) > 0 {
		sb.WriteString("\nTroubleshooting:")
		for i, step := range e.Troubleshooting {
			sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, step))
		}
	}

	if e.OriginalError != nil {
		sb.WriteString(fmt.Sprintf("\nUnderlying error: %v", e.OriginalError))
	}

	return sb.String()
}

// Unwrap returns the original error for error chain compatibility
func (e *SchedulerError) Unwrap() error {
	return e.OriginalError
}

// NewSchedulerError creates a new error with the specified parameters
func NewSchedulerError(category ErrorCategory, code, message, operation string) *SchedulerError {
	return &SchedulerError{
		Category:        category,
		Code:            code,
		Message:         message,
		Operation:       operation,
		Context:         make(map[string]interface{}),
		Troubleshooting: []string{},
	}
}

// WithContext adds context information to the error
func (e *SchedulerError) WithContext(key string, value interface{}) *SchedulerError {
	e.Context[key] = value
	return e
}

// WithTroubleshooting adds troubleshooting steps to the error
func (e *SchedulerError) WithTroubleshooting(steps ...string) *SchedulerError {
	e.Troubleshooting = append(e.Troubleshooting, steps...)
	return e
}

// WithOriginalError attaches the underlying cause
func (e *SchedulerError) WithOriginalError(err error) *SchedulerError {
	e.OriginalError = err
	return e
}
