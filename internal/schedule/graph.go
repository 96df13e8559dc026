package schedule

import (
	"fmt"
	"sync"
)

// Edge is a producer -> consumer dependency between two tasks
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type vertex struct {
	task  Task
	preds map[string]struct{}
	succs []string
}

// Graph is a directed dependency graph keyed by task ID. An edge from A to B
// means B consumes the output of A. Vertices keep their insertion order.
type Graph struct {
	vertices map[string]*vertex
	order    []string
	mutex    sync.RWMutex
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		vertices: make(map[string]*vertex),
	}
}

// AddVertex inserts task. It reports false when a vertex with the same ID
// already exists, in which case the graph is unchanged.
func (g *Graph) AddVertex(task Task) (bool, error) {
	if task == nil {
		return false, ErrNilTask
	}
	id := task.ID()
	if id == "" {
		return false, ErrEmptyTaskID
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, exists := g.vertices[id]; exists {
		return false, nil
	}
	g.vertices[id] = &vertex{
		task:  task,
		preds: make(map[string]struct{}),
	}
	g.order = append(g.order, id)
	return true, nil
}

// AddEdge adds a dependency from -> to. Both vertices must exist. Adding an
// existing edge is a no-op; an edge that would close a cycle is rejected.
func (g *Graph) AddEdge(fromID, toID string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	from, exists := g.vertices[fromID]
	if !exists {
		return fmt.Errorf("source task %s: %w", fromID, ErrUnknownTask)
	}
	to, exists := g.vertices[toID]
	if !exists {
		return fmt.Errorf("target task %s: %w", toID, ErrUnknownTask)
	}
	if _, exists := to.preds[fromID]; exists {
		return nil
	}
	if fromID == toID || g.reachesUnsafe(toID, fromID) {
		return fmt.Errorf("%s -> %s: %w", fromID, toID, ErrCycle)
	}

	from.succs = append(from.succs, toID)
	to.preds[fromID] = struct{}{}
	return nil
}

// RemoveVertex deletes the vertex and every edge incident to it
func (g *Graph) RemoveVertex(id string) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	v, exists := g.vertices[id]
	if !exists {
		return false
	}
	for _, succID := range v.succs {
		delete(g.vertices[succID].preds, id)
	}
	for predID := range v.preds {
		pred := g.vertices[predID]
		pred.succs = removeID(pred.succs, id)
	}
	delete(g.vertices, id)
	g.order = removeID(g.order, id)
	return true
}

// HasVertex reports whether a task with the given ID is in the graph
func (g *Graph) HasVertex(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, exists := g.vertices[id]
	return exists
}

// Vertex returns the task stored under id
func (g *Graph) Vertex(id string) (Task, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	v, exists := g.vertices[id]
	if !exists {
		return nil, false
	}
	return v.task, true
}

// Vertices returns all tasks in insertion order
func (g *Graph) Vertices() []Task {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	tasks := make([]Task, 0, len(g.order))
	for _, id := range g.order {
		tasks = append(tasks, g.vertices[id].task)
	}
	return tasks
}

// Edges returns every edge, grouped by source in vertex order
func (g *Graph) Edges() []Edge {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var edges []Edge
	for _, id := range g.order {
		for _, succID := range g.vertices[id].succs {
			edges = append(edges, Edge{From: id, To: succID})
		}
	}
	return edges
}

// Successors returns the tasks that depend on id
func (g *Graph) Successors(id string) []Task {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	v, exists := g.vertices[id]
	if !exists {
		return nil
	}
	tasks := make([]Task, 0, len(v.succs))
	for _, succID := range v.succs {
		tasks = append(tasks, g.vertices[succID].task)
	}
	return tasks
}

// Predecessors returns the tasks id depends on, in vertex order
func (g *Graph) Predecessors(id string) []Task {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	v, exists := g.vertices[id]
	if !exists {
		return nil
	}
	tasks := make([]Task, 0, len(v.preds))
	for _, predID := range g.order {
		if _, ok := v.preds[predID]; ok {
			tasks = append(tasks, g.vertices[predID].task)
		}
	}
	return tasks
}

// InDegree returns the number of unresolved dependencies of id
func (g *Graph) InDegree(id string) int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	if v, exists := g.vertices[id]; exists {
		return len(v.preds)
	}
	return 0
}

// OutDegree returns the number of dependents of id
func (g *Graph) OutDegree(id string) int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	if v, exists := g.vertices[id]; exists {
		return len(v.succs)
	}
	return 0
}

// Size returns the number of vertices
func (g *Graph) Size() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.vertices)
}

// Validate returns ErrCycle if the graph contains a cycle
func (g *Graph) Validate() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	for _, id := range g.order {
		if !visited[id] && g.hasCycleDFS(id, visited, recStack) {
			return ErrCycle
		}
	}
	return nil
}

func (g *Graph) hasCycleDFS(id string, visited, recStack map[string]bool) bool {
	visited[id] = true
	recStack[id] = true

	for _, succID := range g.vertices[id].succs {
		if !visited[succID] {
			if g.hasCycleDFS(succID, visited, recStack) {
				return true
			}
		} else if recStack[succID] {
			return true
		}
	}

	recStack[id] = false
	return false
}

// reachesUnsafe reports whether target is reachable from start. Caller holds the lock.
func (g *Graph) reachesUnsafe(start, target string) bool {
	seen := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true
		}
		for _, succID := range g.vertices[id].succs {
			if !seen[succID] {
				seen[succID] = true
				stack = append(stack, succID)
			}
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
