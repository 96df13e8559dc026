package progress

import (
	"fmt"
	"strings"
	"time"
)

// Info is a point-in-time view of a schedule run
type Info struct {
	TotalTasks     int
	CompletedTasks int
	FailedTasks    int
	RunningTasks   []string
	ReadyTasks     int
	ElapsedTime    time.Duration
}

// Reporter formats progress lines for a running schedule
type Reporter struct {
	startTime      time.Time
	lastReportTime time.Time
	reportInterval time.Duration
}

// NewReporter creates a reporter that suggests a report every interval
func NewReporter(interval time.Duration) *Reporter {
	now := time.Now()
	return &Reporter{
		startTime:      now,
		lastReportTime: now,
		reportInterval: interval,
	}
}

// ShouldReport returns true if it's time to report progress
func (r *Reporter) ShouldReport() bool {
	return r.reportInterval > 0 && time.Since(r.lastReportTime) >= r.reportInterval
}

// Report generates a formatted progress report
func (r *Reporter) Report(info Info) string {
	r.lastReportTime = time.Now()

	var sb strings.Builder

	percentage := 0.0
	if info.TotalTasks > 0 {
		percentage = float64(info.CompletedTasks) / float64(info.TotalTasks) * 100
	}
	sb.WriteString(fmt.Sprintf("Progress: %d/%d tasks completed (%.1f%%)",
		info.CompletedTasks, info.TotalTasks, percentage))

	if len(info.RunningTasks) > 0 {
		sb.WriteString(fmt.Sprintf(" | Running: %d (%s)",
			len(info.RunningTasks), strings.Join(info.RunningTasks, ", ")))
	}
	if info.ReadyTasks > 0 {
		sb.WriteString(fmt.Sprintf(" | Ready: %d", info.ReadyTasks))
	}
	if info.FailedTasks > 0 {
		sb.WriteString(fmt.Sprintf(" | Failed: %d", info.FailedTasks))
	}

	sb.WriteString(fmt.Sprintf(" | Elapsed: %s", FormatDuration(info.ElapsedTime)))

	if eta := CalculateETA(info.CompletedTasks, info.TotalTasks, info.ElapsedTime); eta > 0 {
		sb.WriteString(fmt.Sprintf(" | ETA: %s", FormatDuration(eta)))
	}

	return sb.String()
}

// ReportTaskComplete formats the completion line of a single task
func (r *Reporter) ReportTaskComplete(taskID string, duration time.Duration, err error) string {
	if err != nil {
		return fmt.Sprintf("FAILED %s (took %s): %v", taskID, FormatDuration(duration), err)
	}
	return fmt.Sprintf("COMPLETED %s (took %s)", taskID, FormatDuration(duration))
}

// CalculateETA estimates time remaining based on current progress
func CalculateETA(completed, total int, elapsed time.Duration) time.Duration {
	if completed <= 0 || total <= 0 || completed >= total {
		return 0
	}

	averageTimePerTask := elapsed / time.Duration(completed)
	remainingTasks := total - completed
	return averageTimePerTask * time.Duration(remainingTasks)
}

// FormatDuration formats a duration in a user-friendly way
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
