package errors

import (
	stderrors "errors"
	"fmt"
)

// DisplayError formats an error for user-friendly display
func DisplayError(err error) string {
	var schedErr *SchedulerError
	if stderrors.As(err, &schedErr) {
		return schedErr.Error()
	}
	return fmt.Sprintf("Error: %v", err)
}

// DisplayErrorSummary provides a brief summary of the error for logs
func DisplayErrorSummary(err error) string {
	var schedErr *SchedulerError
	if stderrors.As(err, &schedErr) {
		return fmt.Sprintf("%s-%s: %s", schedErr.Category, schedErr.Code, schedErr.Message)
	}

	errStr := err.Error()
	if len(errStr) > 100 {
		return errStr[:97] + "..."
	}
	return errStr
}
