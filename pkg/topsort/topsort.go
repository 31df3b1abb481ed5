// Package topsort orders a collection of nodes so that every node comes after the nodes it depends on.
//
// Sorting never fails. Cycles are broken at back edges, which are reported to the caller
// together with the set of nodes that take part in a cycle.
package topsort

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// BackEdge is a dependency that was not followed because it closes a cycle.
type BackEdge[K comparable] struct {
	From K
	To   K
}

type Result[K comparable, T any] struct {
	Nodes     []T
	BackEdges []BackEdge[K]
	// components maps the keys of cyclic nodes to the strongly connected component they belong to.
	components map[K]int
}

// Cyclic reports whether the node with key k is part of a cycle, including a dependency on itself.
func (r Result[K, T]) Cyclic(k K) bool {
	_, ok := r.components[k]
	return ok
}

// Component returns the id of the strongly connected component of a cyclic node.
func (r Result[K, T]) Component(k K) (int, bool) {
	id, ok := r.components[k]
	return id, ok
}

// SameCycle reports whether a and b are part of the same cycle.
func (r Result[K, T]) SameCycle(a, b K) bool {
	first, ok := r.components[a]
	if !ok {
		return false
	}
	second, ok := r.components[b]
	return ok && first == second
}

func (r Result[K, T]) IsBackEdge(from, to K) bool {
	for i := range r.BackEdges {
		if r.BackEdges[i].From == from && r.BackEdges[i].To == to {
			return true
		}
	}
	return false
}

const (
	unvisited = iota
	visiting
	visited
)

// Sort returns nodes in depth-first post-order.
// Nodes are visited in input order and dependencies in the order deps returns them, so the result is deterministic.
// Dependencies on keys that are not part of nodes are ignored.
func Sort[K comparable, T any](nodes []T, key func(T) K, deps func(T) []K) Result[K, T] {
	positions := make(map[K]int, len(nodes))
	for i := range nodes {
		k := key(nodes[i])
		if _, exists := positions[k]; !exists {
			positions[k] = i
		}
	}

	s := &sorter[K, T]{
		nodes:     nodes,
		key:       key,
		deps:      deps,
		positions: positions,
		state:     make([]int, len(nodes)),
	}
	s.result.Nodes = make([]T, 0, len(nodes))

	for i := range nodes {
		if positions[key(nodes[i])] != i {
			// duplicate key, the first node wins
			continue
		}
		if s.state[i] == unvisited {
			s.visit(i)
		}
	}

	s.result.components = s.components()
	return s.result
}

type sorter[K comparable, T any] struct {
	nodes     []T
	key       func(T) K
	deps      func(T) []K
	positions map[K]int
	state     []int
	result    Result[K, T]
}

func (s *sorter[K, T]) visit(i int) {
	s.state[i] = visiting
	from := s.key(s.nodes[i])
	for _, to := range s.deps(s.nodes[i]) {
		j, ok := s.positions[to]
		if !ok {
			continue
		}
		switch s.state[j] {
		case unvisited:
			s.visit(j)
		case visiting:
			s.result.BackEdges = append(s.result.BackEdges, BackEdge[K]{From: from, To: to})
		}
	}
	s.state[i] = visited
	s.result.Nodes = append(s.result.Nodes, s.nodes[i])
}

// components assigns component ids to all nodes in strongly connected components with more than one node
// and to nodes depending on themselves.
func (s *sorter[K, T]) components() map[K]int {
	components := make(map[K]int)
	if len(s.result.BackEdges) == 0 {
		return components
	}

	graph := simple.NewDirectedGraph()
	for _, i := range s.positions {
		graph.AddNode(simple.Node(i))
	}
	selfLoops := make(map[int64]struct{})
	for _, i := range s.positions {
		for _, to := range s.deps(s.nodes[i]) {
			j, ok := s.positions[to]
			if !ok {
				continue
			}
			if i == j {
				selfLoops[int64(i)] = struct{}{}
				continue
			}
			graph.SetEdge(simple.Edge{F: simple.Node(i), T: simple.Node(j)})
		}
	}

	for id, component := range topo.TarjanSCC(graph) {
		if len(component) == 1 {
			if _, ok := selfLoops[component[0].ID()]; !ok {
				continue
			}
		}
		for _, node := range component {
			components[s.key(s.nodes[node.ID()])] = id
		}
	}
	return components
}
