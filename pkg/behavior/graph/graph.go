// Package graph builds behavior graphs: directed acyclic graphs capturing
// the partial order that interval-valued timestamps provably enforce over
// the events of an uncertain trace.
package graph

import (
	"math"

	"github.com/veralog/veralog/internal/model"
)

// NodeID addresses a node in the graph arena.
type NodeID int

// Kind distinguishes event nodes from the synthetic boundary nodes.
type Kind uint8

const (
	KindEvent Kind = iota
	KindStart
	KindEnd
)

// Node is one position of the uncertain trace, frozen with all its label
// alternatives and uncertainty metadata. Boundary nodes carry no labels.
type Node struct {
	ID   NodeID
	Kind Kind

	// Index is the event position in the originating trace, -1 for
	// boundary nodes.
	Index int

	// Alternatives holds the candidate labels with their probability mass.
	Alternatives []model.Alternative

	// Missing is the probability that the event did not occur. An event
	// with Missing > 0 additionally admits a silent "absent" alternative.
	Missing float64

	// Time is the occurrence interval. Boundary nodes sit at -inf / +inf.
	Time          model.Interval
	TimeUncertain bool
}

// Silent reports whether the node stands for a trace boundary.
func (n *Node) Silent() bool { return n.Kind != KindEvent }

// Graph is a behavior graph. Nodes live in an arena addressed by NodeID;
// adjacency lists hold the direct must-precede relation, which is the
// transitive reduction of the interval order. Immutable once built.
type Graph struct {
	Nodes []Node
	Succ  [][]NodeID
	Pred  [][]NodeID

	Start NodeID
	End   NodeID
}

// NumEdges returns the number of direct precedence edges.
func (g *Graph) NumEdges() int {
	n := 0
	for _, succ := range g.Succ {
		n += len(succ)
	}
	return n
}

// HasEdge reports whether u directly precedes v.
func (g *Graph) HasEdge(u, v NodeID) bool {
	for _, w := range g.Succ[u] {
		if w == v {
			return true
		}
	}
	return false
}

// EventNodes returns the IDs of all non-boundary nodes in trace order.
func (g *Graph) EventNodes() []NodeID {
	ids := make([]NodeID, 0, len(g.Nodes)-2)
	for i := range g.Nodes {
		if g.Nodes[i].Kind == KindEvent {
			ids = append(ids, NodeID(i))
		}
	}
	return ids
}

// addEdge records u -> v, keeping both adjacency lists in sync.
func (g *Graph) addEdge(u, v NodeID) {
	g.Succ[u] = append(g.Succ[u], v)
	g.Pred[v] = append(g.Pred[v], u)
}

const (
	timeNegInf = math.MinInt64
	timePosInf = math.MaxInt64
)
