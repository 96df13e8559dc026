package schedule

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTask is a test implementation of the Task interface
type mockTask struct {
	*BaseTask
}

func newMockTask(id string) *mockTask {
	return &mockTask{BaseTask: NewBaseTask(id)}
}

func ids(tasks []Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID())
	}
	return out
}

func runTask(t *testing.T, s *Schedule, task Task) {
	t.Helper()
	require.NoError(t, s.SetAsStarted(task))
	require.NoError(t, s.NotifyDone(task))
}

func TestNew(t *testing.T) {
	s, err := New(nil)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrNilGraph)

	g := NewGraph()
	a, b := newMockTask("a"), newMockTask("b")
	_, err = g.AddVertex(a)
	require.NoError(t, err)
	_, err = g.AddVertex(b)
	require.NoError(t, err)
	require.NoError(t, g.AddEdge("a", "b"))

	s, err = New(g)
	require.NoError(t, err)
	assert.Same(t, g, s.Dependencies())
	assert.Equal(t, []string{"a"}, ids(s.ReadyTasks()))
}

func TestNewEmpty(t *testing.T) {
	s := NewEmpty()
	require.NotNil(t, s)
	assert.True(t, s.IsDone())
	assert.False(t, s.HasErrors())
	assert.Empty(t, s.ReadyTasks())
	assert.Empty(t, s.Results())
	assert.Empty(t, s.Errors())
}

func TestSchedule_Add(t *testing.T) {
	s := NewEmpty()
	a, b, c := newMockTask("a"), newMockTask("b"), newMockTask("c")

	require.NoError(t, s.Add(a))
	require.NoError(t, s.Add(c, a, b))

	g := s.Dependencies()
	assert.Equal(t, 3, g.Size())
	assert.Equal(t, 2, g.InDegree("c"))
	assert.Equal(t, []string{"a", "c", "b"}, ids(g.Vertices()))

	// re-adding is a no-op for the vertex
	require.NoError(t, s.Add(a))
	assert.Equal(t, 3, g.Size())
	assert.False(t, s.IsDone())
}

func TestSchedule_AddInvalid(t *testing.T) {
	tests := []struct {
		name      string
		task      Task
		dependsOn []Task
		expectErr error
	}{
		{name: "nil task", task: nil, expectErr: ErrNilTask},
		{name: "nil dependency", task: newMockTask("a"), dependsOn: []Task{nil}, expectErr: ErrNilTask},
		{name: "empty ID", task: newMockTask(""), expectErr: ErrEmptyTaskID},
		{name: "self dependency", task: newMockTask("a"), dependsOn: []Task{newMockTask("a")}, expectErr: ErrCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewEmpty()
			err := s.Add(tt.task, tt.dependsOn...)
			assert.ErrorIs(t, err, tt.expectErr)
		})
	}
}

func TestSchedule_AddRejectsCycle(t *testing.T) {
	s := NewEmpty()
	a, b, c := newMockTask("a"), newMockTask("b"), newMockTask("c")
	require.NoError(t, s.Add(b, a))
	require.NoError(t, s.Add(c, b))

	err := s.Add(a, c)
	assert.ErrorIs(t, err, ErrCycle)
	assert.Equal(t, 0, s.Dependencies().InDegree("a"))
	assert.NoError(t, s.Dependencies().Validate())
}

func TestSchedule_AddRejectsCompletedTask(t *testing.T) {
	s := NewEmpty()
	a, b := newMockTask("A"), newMockTask("B")
	require.NoError(t, s.Add(a))
	a.SetOutput("x", 1)
	runTask(t, s, a)
	require.True(t, s.IsDone())

	err := s.Add(b, a)
	assert.ErrorIs(t, err, ErrUnknownTask)
	assert.Contains(t, err.Error(), "A")
	assert.Empty(t, s.ReadyTasks())
	assert.Equal(t, 0, s.Dependencies().Size())

	err = s.Add(a)
	assert.ErrorIs(t, err, ErrUnknownTask)
	assert.True(t, s.IsDone())
	assert.Equal(t, []any{1}, s.Results()["x"])
}

func TestSchedule_MustAdd(t *testing.T) {
	a, b := newMockTask("a"), newMockTask("b")
	s := NewEmpty().MustAdd(a).MustAdd(b, a)
	assert.Equal(t, 2, s.Dependencies().Size())

	assert.Panics(t, func() {
		NewEmpty().MustAdd(nil)
	})
}

func TestSchedule_SampleScenario(t *testing.T) {
	square1 := newMockTask("Square1")
	square2 := newMockTask("Square2")
	sum := newMockTask("Sum")
	s := NewEmpty().
		MustAdd(square1).
		MustAdd(square2).
		MustAdd(sum, square1, square2)

	assert.ElementsMatch(t, []string{"Square1", "Square2"}, ids(s.ReadyTasks()))

	require.NoError(t, s.SetAsStarted(square1))
	require.NoError(t, s.SetAsStarted(square2))
	assert.Empty(t, s.ReadyTasks())

	square1.SetOutput("result_square", 4)
	require.NoError(t, s.NotifyDone(square1))
	assert.Empty(t, s.ReadyTasks())

	square2.SetOutput("result_square", 9)
	require.NoError(t, s.NotifyDone(square2))

	assert.Equal(t, []string{"Sum"}, ids(s.ReadyTasks()))
	assert.Equal(t, []any{4, 9}, sum.Input("result_square"))
	assert.Empty(t, s.Results())

	require.NoError(t, s.SetAsStarted(sum))
	sum.SetOutput("final_result", 13)
	require.NoError(t, s.NotifyDone(sum))

	assert.Equal(t, []any{13}, s.Results()["final_result"])
	assert.True(t, s.IsDone())
	assert.False(t, s.HasErrors())
}

func TestSchedule_OutputPropagationAppends(t *testing.T) {
	a, b := newMockTask("A"), newMockTask("B")
	b.AddInputParameter("x", 0)
	s := NewEmpty().MustAdd(b, a)

	a.SetOutput("x", 1, 2)
	a.SetOutput("y", "z")
	runTask(t, s, a)

	assert.Equal(t, []any{0, 1, 2}, b.Input("x"))
	assert.Equal(t, []any{"z"}, b.Input("y"))
	assert.Empty(t, s.Results(), "outputs of a task with dependents are not results")
}

func TestSchedule_PropagationToEveryDependent(t *testing.T) {
	a, b, c := newMockTask("a"), newMockTask("b"), newMockTask("c")
	s := NewEmpty().MustAdd(b, a).MustAdd(c, a)

	a.SetOutput("v", 7)
	runTask(t, s, a)

	assert.Equal(t, []any{7}, b.Input("v"))
	assert.Equal(t, []any{7}, c.Input("v"))

	// each dependent receives its own copy
	b.AddInputParameter("v", 8)
	assert.Equal(t, []any{7}, c.Input("v"))
}

func TestSchedule_SinkAggregationOrder(t *testing.T) {
	first, second := newMockTask("first"), newMockTask("second")
	s := NewEmpty().MustAdd(first).MustAdd(second)

	first.SetOutput("sum", 1)
	second.SetOutput("sum", 2)

	require.NoError(t, s.SetAsStarted(first))
	require.NoError(t, s.SetAsStarted(second))
	require.NoError(t, s.NotifyDone(second))
	require.NoError(t, s.NotifyDone(first))

	assert.Equal(t, []any{2, 1}, s.Results()["sum"])
	assert.True(t, s.IsDone())
}

func TestSchedule_ResultsIsACopy(t *testing.T) {
	a := newMockTask("a")
	s := NewEmpty().MustAdd(a)
	a.SetOutput("r", 1)
	runTask(t, s, a)

	results := s.Results()
	results["r"][0] = 99
	results["other"] = []any{1}

	assert.Equal(t, Params{"r": {1}}, s.Results())
}

func TestSchedule_SetAsStarted(t *testing.T) {
	a := newMockTask("a")
	s := NewEmpty().MustAdd(a)

	assert.ErrorIs(t, s.SetAsStarted(nil), ErrNilTask)
	assert.ErrorIs(t, s.SetAsStarted(newMockTask("missing")), ErrUnknownTask)

	require.NoError(t, s.SetAsStarted(a))
	err := s.SetAsStarted(a)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	assert.Contains(t, err.Error(), "a")
	assert.Equal(t, []string{"a"}, ids(s.Running()))
}

func TestSchedule_NotifyDoneProtocolViolations(t *testing.T) {
	a := newMockTask("a")
	s := NewEmpty().MustAdd(a)

	assert.ErrorIs(t, s.NotifyDone(nil), ErrNilTask)

	err := s.NotifyDone(a)
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.Equal(t, 1, s.Dependencies().Size(), "failed call must not change state")

	runTask(t, s, a)
	assert.ErrorIs(t, s.NotifyDone(a), ErrNotStarted)
	assert.ErrorIs(t, s.SetAsStarted(a), ErrUnknownTask)
}

func TestSchedule_ReadyTasksExcludesRunningAndCompleted(t *testing.T) {
	a, b := newMockTask("a"), newMockTask("b")
	s := NewEmpty().MustAdd(a).MustAdd(b)

	require.NoError(t, s.SetAsStarted(a))
	assert.Equal(t, []string{"b"}, ids(s.ReadyTasks()))

	require.NoError(t, s.NotifyDone(a))
	assert.Equal(t, []string{"b"}, ids(s.ReadyTasks()))
	assert.False(t, s.Dependencies().HasVertex("a"))
}

func TestSchedule_NotifyError(t *testing.T) {
	a, b := newMockTask("a"), newMockTask("b")
	s := NewEmpty().MustAdd(b, a)

	assert.ErrorIs(t, s.NotifyError(nil), ErrNilErrors)
	assert.False(t, s.HasErrors())

	require.NoError(t, s.NotifyError([]string{"boom"}))
	assert.True(t, s.HasErrors())
	assert.True(t, s.IsDone())
	assert.Equal(t, []string{"boom"}, s.Errors())
	assert.Equal(t, 2, s.Dependencies().Size())

	require.NoError(t, s.NotifyError([]string{"second", "third"}))
	assert.Equal(t, []string{"boom", "second", "third"}, s.Errors())
}

func TestSchedule_NotifyEmptyErrorListStillFails(t *testing.T) {
	s := NewEmpty().MustAdd(newMockTask("a"))
	require.NoError(t, s.NotifyError([]string{}))
	assert.True(t, s.HasErrors())
	assert.True(t, s.IsDone())
}

func TestSchedule_PartialResultsKeptAfterError(t *testing.T) {
	a, b := newMockTask("a"), newMockTask("b")
	s := NewEmpty().MustAdd(a).MustAdd(b)

	a.SetOutput("out", "done")
	runTask(t, s, a)
	require.NoError(t, s.NotifyError([]string{"b failed"}))

	assert.Equal(t, []any{"done"}, s.Results()["out"])
	assert.True(t, s.IsDone())
}

// Repeatedly picking a ready task and completing it drains any acyclic graph.
func TestSchedule_DrainsDiamond(t *testing.T) {
	top := newMockTask("top")
	left, right := newMockTask("left"), newMockTask("right")
	bottom := newMockTask("bottom")
	s := NewEmpty().
		MustAdd(left, top).
		MustAdd(right, top).
		MustAdd(bottom, left, right)

	var order []string
	for steps := 0; !s.IsDone(); steps++ {
		require.Less(t, steps, 10, "schedule did not drain")
		ready := s.ReadyTasks()
		require.NotEmpty(t, ready)
		runTask(t, s, ready[0])
		order = append(order, ready[0].ID())
	}

	assert.Equal(t, "top", order[0])
	assert.Equal(t, "bottom", order[3])
}

func TestSchedule_ConcurrentDrain(t *testing.T) {
	const layers, width = 5, 20

	s := NewEmpty()
	var previous []Task
	for l := 0; l < layers; l++ {
		var current []Task
		for w := 0; w < width; w++ {
			task := newMockTask(fmt.Sprintf("task-%d-%d", l, w))
			task.SetOutput("layer", l)
			require.NoError(t, s.Add(task, previous...))
			current = append(current, task)
		}
		previous = current
	}

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !s.IsDone() {
				for _, task := range s.ReadyTasks() {
					if err := s.SetAsStarted(task); err != nil {
						// another worker claimed it first
						if !errors.Is(err, ErrAlreadyStarted) && !errors.Is(err, ErrUnknownTask) {
							t.Errorf("unexpected error: %v", err)
						}
						continue
					}
					if err := s.NotifyDone(task); err != nil {
						t.Errorf("notify done %s: %v", task.ID(), err)
					}
				}
			}
		}()
	}
	wg.Wait()

	assert.True(t, s.IsDone())
	assert.False(t, s.HasErrors())
	assert.Len(t, s.Results()["layer"], width)
}
