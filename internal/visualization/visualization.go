package visualization

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/maxkimambo/dagsched/internal/driver"
	"github.com/maxkimambo/dagsched/internal/schedule"
)

// TaskStatus is the display state of a task
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusReady     TaskStatus = "ready"
	StatusRunning   TaskStatus = "running"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
)

// Format selects a renderer
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatDOT, FormatJSON, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported graph format %q (use dot, json or text)", name)
	}
}

// TaskInfo contains information about a task for visualization
type TaskInfo struct {
	ID       string     `json:"id"`
	Kind     string     `json:"kind"`
	Status   TaskStatus `json:"status"`
	Duration string     `json:"duration,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Stats counts tasks per status
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Running   int `json:"running"`
	Ready     int `json:"ready"`
	Pending   int `json:"pending"`
}

// Snapshot is a point-in-time view of a schedule's dependency graph
type Snapshot struct {
	Tasks []TaskInfo      `json:"tasks"`
	Edges []schedule.Edge `json:"edges"`
	Stats Stats           `json:"stats"`
}

// Describe captures the tasks that remain in s with their edges
func Describe(s *schedule.Schedule) *Snapshot {
	ready := make(map[string]bool)
	for _, task := range s.ReadyTasks() {
		ready[task.ID()] = true
	}
	running := make(map[string]bool)
	for _, task := range s.Running() {
		running[task.ID()] = true
	}

	g := s.Dependencies()
	snap := &Snapshot{Edges: g.Edges()}
	if snap.Edges == nil {
		snap.Edges = []schedule.Edge{}
	}

	for _, task := range g.Vertices() {
		status := StatusPending
		switch {
		case running[task.ID()]:
			status = StatusRunning
		case ready[task.ID()]:
			status = StatusReady
		}
		snap.Tasks = append(snap.Tasks, TaskInfo{
			ID:     task.ID(),
			Kind:   kindOf(task),
			Status: status,
		})
	}
	snap.recount()
	return snap
}

// Apply overlays a run result: reported tasks become completed or failed,
// everything else is shown as pending.
func (snap *Snapshot) Apply(result *driver.Result) {
	for i := range snap.Tasks {
		info := &snap.Tasks[i]
		report, ok := result.Tasks[info.ID]
		if !ok {
			info.Status = StatusPending
			continue
		}

		info.Duration = report.Duration.String()
		if report.Success {
			info.Status = StatusCompleted
		} else {
			info.Status = StatusFailed
			if report.Error != nil {
				info.Error = report.Error.Error()
			}
		}
	}
	snap.recount()
}

func (snap *Snapshot) recount() {
	stats := Stats{Total: len(snap.Tasks)}
	for _, info := range snap.Tasks {
		switch info.Status {
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		case StatusRunning:
			stats.Running++
		case StatusReady:
			stats.Ready++
		case StatusPending:
			stats.Pending++
		}
	}
	snap.Stats = stats
}

// Write renders snap in the given format
func Write(w io.Writer, snap *Snapshot, format Format) error {
	switch format {
	case FormatDOT:
		_, err := io.WriteString(w, DOT(snap))
		return err
	case FormatJSON:
		data, err := JSON(snap)
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatText:
		_, err := io.WriteString(w, Text(snap))
		return err
	default:
		return fmt.Errorf("unsupported graph format %q", format)
	}
}

// JSON encodes the snapshot
func JSON(snap *Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// DOT creates a DOT format graph for visualization with Graphviz
func DOT(snap *Snapshot) string {
	var sb strings.Builder
	sb.WriteString("digraph Schedule {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=filled];\n\n")

	for _, info := range snap.Tasks {
		label := fmt.Sprintf("%s\\n%s", escape(info.ID), info.Kind)
		if info.Duration != "" {
			label += "\\n" + info.Duration
		}
		if info.Error != "" {
			msg := info.Error
			if len(msg) > 50 {
				msg = msg[:47] + "..."
			}
			label += "\\nError: " + escape(msg)
		}
		sb.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\", fillcolor=\"%s\"];\n",
			escape(info.ID), label, statusColor(info.Status)))
	}

	if len(snap.Edges) > 0 {
		sb.WriteString("\n")
	}
	for _, edge := range snap.Edges {
		sb.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\";\n", escape(edge.From), escape(edge.To)))
	}

	sb.WriteString("}\n")
	return sb.String()
}

// Text creates a human-readable summary grouped by status
func Text(snap *Snapshot) string {
	var sb strings.Builder

	sb.WriteString("=== Schedule Summary ===\n\n")
	sb.WriteString(fmt.Sprintf("  Total Tasks: %d\n", snap.Stats.Total))
	sb.WriteString(fmt.Sprintf("  Completed: %d\n", snap.Stats.Completed))
	sb.WriteString(fmt.Sprintf("  Failed: %d\n", snap.Stats.Failed))
	sb.WriteString(fmt.Sprintf("  Running: %d\n", snap.Stats.Running))
	sb.WriteString(fmt.Sprintf("  Ready: %d\n", snap.Stats.Ready))
	sb.WriteString(fmt.Sprintf("  Pending: %d\n", snap.Stats.Pending))

	for _, status := range []TaskStatus{StatusFailed, StatusRunning, StatusReady, StatusPending, StatusCompleted} {
		var group []TaskInfo
		for _, info := range snap.Tasks {
			if info.Status == status {
				group = append(group, info)
			}
		}
		if len(group) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("\n%s (%d):\n", strings.ToUpper(string(status)), len(group)))
		for _, info := range group {
			sb.WriteString(fmt.Sprintf("  - %s (%s)", info.ID, info.Kind))
			if deps := snap.dependencies(info.ID); len(deps) > 0 {
				sb.WriteString(" <- " + strings.Join(deps, ", "))
			}
			if info.Duration != "" {
				sb.WriteString(" - " + info.Duration)
			}
			if info.Error != "" {
				sb.WriteString(" - Error: " + info.Error)
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func (snap *Snapshot) dependencies(id string) []string {
	var deps []string
	for _, edge := range snap.Edges {
		if edge.To == id {
			deps = append(deps, edge.From)
		}
	}
	return deps
}

func statusColor(status TaskStatus) string {
	switch status {
	case StatusReady:
		return "lightyellow"
	case StatusRunning:
		return "lightblue"
	case StatusCompleted:
		return "lightgreen"
	case StatusFailed:
		return "salmon"
	default:
		return "lightgrey"
	}
}

// kindOf returns the task's type name, e.g. "Square"
func kindOf(task schedule.Task) string {
	name := fmt.Sprintf("%T", task)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimPrefix(name, "*")
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
