// Package dag provides the dependency graph behind the resolver's creation
// plan: insertion-ordered nodes, directed edges, cycle detection and a
// deterministic topological sort.
package dag

import (
	"fmt"
)

// Graph is a collection of nodes and their dependencies. Nodes remember
// insertion order, which breaks topological-sort ties so the same document
// always yields the same plan.
type Graph struct {
	nodes map[string]*node
	order []*node
}

// node is a single vertex, unexported so callers interact through string IDs
// rather than direct struct manipulation.
type node struct {
	id         string
	seq        int
	deps       map[string]*node
	dependents map[string]*node
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. Adding an existing
// ID does nothing.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	n := &node{
		id:         id,
		seq:        len(g.order),
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.nodes[id] = n
	g.order = append(g.order, n)
}

// AddEdge creates a directed edge from fromID to toID, meaning toID depends
// on fromID. An error is returned if either node does not exist or the edge
// would be self-referential.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode
	return nil
}

// Dependencies returns the IDs the given node depends on.
func (g *Graph) Dependencies(id string) ([]string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	deps := make([]string, 0, len(n.deps))
	for depID := range n.deps {
		deps = append(deps, depID)
	}
	return deps, nil
}

// DetectCycles checks the graph for cycles. It returns a non-nil error if a
// cycle is found, naming a node involved in it. The current document schema
// cannot express a cycle, but the check runs regardless so a malformed graph
// fails cleanly instead of looping.
func (g *Graph) DetectCycles() error {
	// Classic depth-first search with three node sets:
	// permanent: fully visited, known not to be on a cycle.
	// temporary: on the current recursion stack.
	// unvisited: everything else.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return fmt.Errorf("cycle detected involving node '%s'", n.id)
		}

		temporary[n.id] = true
		for _, dependent := range n.dependents {
			if err := visit(dependent); err != nil {
				return err
			}
		}
		delete(temporary, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, n := range g.order {
		if !permanent[n.id] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// TopoSort returns every node ID in an order where each node follows all of
// its dependencies. Among nodes whose dependencies are satisfied, insertion
// order wins. An error is returned if the graph has a cycle.
func (g *Graph) TopoSort() ([]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	for _, n := range g.order {
		indegree[n.id] = len(n.deps)
	}

	out := make([]string, 0, len(g.order))
	emitted := make(map[string]bool, len(g.order))
	for len(out) < len(g.order) {
		progressed := false
		for _, n := range g.order {
			if emitted[n.id] || indegree[n.id] != 0 {
				continue
			}
			emitted[n.id] = true
			out = append(out, n.id)
			for _, dependent := range n.dependents {
				indegree[dependent.id]--
			}
			progressed = true
			break
		}
		if !progressed {
			return nil, fmt.Errorf("cycle detected: %d of %d nodes unreachable", len(g.order)-len(out), len(g.order))
		}
	}
	return out, nil
}
