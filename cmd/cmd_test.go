package cmd

import (
	"bytes"
	stderrors "errors"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	schederrors "github.com/maxkimambo/dagsched/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pipelineHCL = `
task "Square1" {
  kind   = "square"
  inputs = { input_square = [1, 2] }
}

task "Square2" {
  kind   = "square"
  inputs = { input_square = [3] }
}

task "Sum" {
  kind       = "sum"
  depends_on = ["Square1", "Square2"]
}
`

const failingHCL = `
task "Prepare" {
  kind   = "fail"
  inputs = { message = "disk full" }
}

task "Sum" {
  kind       = "sum"
  depends_on = ["Prepare"]
}
`

const cyclicHCL = `
task "a" {
  kind       = "sum"
  depends_on = ["b"]
}

task "b" {
  kind       = "sum"
  depends_on = ["a"]
}
`

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--quiet"}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_SampleSchedule(t *testing.T) {
	out, err := executeCommand(t, "run")
	require.NoError(t, err)

	assert.Contains(t, out, "Schedule completed")
	assert.Contains(t, out, "│ final_result │ 13")
	assert.Contains(t, out, "Square1")
	assert.Contains(t, out, "succeeded")
}

func TestRun_SampleInputs(t *testing.T) {
	out, err := executeCommand(t, "run", "--input1", "1,2", "--input2", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "│ final_result │ 14")
}

func TestRun_DefinitionFile(t *testing.T) {
	path := writeFile(t, "pipeline.hcl", pipelineHCL)
	graphOut := filepath.Join(t.TempDir(), "run.dot")

	out, err := executeCommand(t, "run", path, "--concurrency", "2", "--graph-out", graphOut)
	require.NoError(t, err)
	assert.Contains(t, out, "│ final_result │ 14")

	dot, err := os.ReadFile(graphOut)
	require.NoError(t, err)
	assert.Contains(t, string(dot), `"Square1" -> "Sum";`)
	assert.Contains(t, string(dot), "lightgreen")
}

func TestRun_FailingTask(t *testing.T) {
	path := writeFile(t, "failing.hcl", failingHCL)

	out, err := executeCommand(t, "run", path)
	require.Error(t, err)

	var schedErr *schederrors.SchedulerError
	require.True(t, stderrors.As(err, &schedErr))
	assert.Equal(t, schederrors.ErrorCategoryTask, schedErr.Category)
	assert.Equal(t, "Prepare", schedErr.Context["task"])

	assert.Contains(t, out, "Schedule failed")
	assert.Contains(t, out, "task Prepare: disk full")
	assert.NotContains(t, out, "final_result")
}

func TestRun_InvalidConcurrency(t *testing.T) {
	_, err := executeCommand(t, "run", "--concurrency", "0")
	require.Error(t, err)

	var schedErr *schederrors.SchedulerError
	require.True(t, stderrors.As(err, &schedErr))
	assert.Equal(t, schederrors.ErrorCategoryConfiguration, schedErr.Category)
}

func TestRun_EnvConfig(t *testing.T) {
	t.Setenv("DAGSCHED_CONCURRENCY", "1000")
	_, err := executeCommand(t, "run")
	assert.Error(t, err)
}

func TestRun_FlagOverridesInvalidEnv(t *testing.T) {
	t.Setenv("DAGSCHED_CONCURRENCY", "0")
	out, err := executeCommand(t, "run", "--concurrency", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "final_result")
}

func TestRun_MetricsServer(t *testing.T) {
	_, err := executeCommand(t, "run", "--metrics-addr", "127.0.0.1:0")
	assert.NoError(t, err)
}

func TestRun_CyclicDefinition(t *testing.T) {
	path := writeFile(t, "cyclic.hcl", cyclicHCL)
	_, err := executeCommand(t, "run", path)
	assert.True(t, schederrors.IsDefinitionError(err))
}

func TestGraph_Formats(t *testing.T) {
	path := writeFile(t, "pipeline.hcl", pipelineHCL)

	out, err := executeCommand(t, "graph", path, "--format", "dot")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph Schedule {")
	assert.Contains(t, out, `"Square2" -> "Sum";`)

	out, err = executeCommand(t, "graph", path, "--format", "json")
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Len(t, decoded["tasks"], 3)

	out, err = executeCommand(t, "graph")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Tasks: 3")
	assert.Contains(t, out, "Sum (Sum) <- Square1, Square2")

	_, err = executeCommand(t, "graph", "--format", "svg")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	path := writeFile(t, "pipeline.hcl", pipelineHCL)

	out, err := executeCommand(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "3 tasks, 2 dependencies, 2 ready to start")

	_, err = executeCommand(t, "validate", writeFile(t, "cyclic.hcl", cyclicHCL))
	assert.True(t, schederrors.IsDefinitionError(err))

	_, err = executeCommand(t, "validate", writeFile(t, "broken.hcl", `task "x" {`))
	assert.True(t, schederrors.IsDefinitionError(err))

	_, err = executeCommand(t, "validate")
	assert.Error(t, err)
}
