package net

import (
	"fmt"

	"github.com/veralog/veralog/pkg/behavior/graph"
)

// Synthesize compiles a behavior graph into a behavior net.
//
// Every graph node yields one transition per label alternative, plus a
// silent transition when the event may be absent. The alternatives of one
// node share their full input place set, so token competition makes them
// mutually exclusive (a free-choice construct). Every graph edge u -> v
// becomes one dedicated place receiving an arc from each alternative of u
// and feeding each alternative of v; a node with several incoming edges
// therefore joins all its predecessors (AND-join). The boundary nodes
// become the invisible source and sink transitions: firing the source
// transition seeds every initial branch at once (AND-split), and the sink
// transition collects every final branch.
//
// The resulting net is safe, acyclic, and sound by construction, with one
// token on the source place as initial marking and one token on the sink
// place as final marking.
func Synthesize(g *graph.Graph) *Net {
	n := &Net{
		groups: make(map[graph.NodeID][]TransitionID, len(g.Nodes)),
	}

	n.Source = n.addPlace("source")
	n.Sink = n.addPlace("sink")

	for id := range g.Nodes {
		node := &g.Nodes[id]
		nodeID := graph.NodeID(id)

		switch node.Kind {
		case graph.KindStart:
			t := n.addTransition(Transition{
				Name:     "t_source",
				Node:     nodeID,
				Boundary: true,
				In:       []PlaceID{n.Source},
			})
			n.groups[nodeID] = []TransitionID{t}

		case graph.KindEnd:
			t := n.addTransition(Transition{
				Name:     "t_sink",
				Node:     nodeID,
				Boundary: true,
				Out:      []PlaceID{n.Sink},
			})
			n.groups[nodeID] = []TransitionID{t}

		default:
			group := make([]TransitionID, 0, len(node.Alternatives)+1)
			for _, alt := range node.Alternatives {
				group = append(group, n.addTransition(Transition{
					Name:          fmt.Sprintf("t%d_%s", node.Index, alt.Label),
					Label:         alt.Label,
					Node:          nodeID,
					Weight:        alternativeWeight(node, alt.Weight),
					Missing:       node.Missing,
					Time:          node.Time,
					TimeUncertain: node.TimeUncertain,
				}))
			}
			if node.Missing > 0 {
				group = append(group, n.addTransition(Transition{
					Name:    fmt.Sprintf("t%d_skip", node.Index),
					Node:    nodeID,
					Absent:  true,
					Missing: node.Missing,
					Time:    node.Time,
				}))
			}
			n.groups[nodeID] = group
		}
	}

	// One place per behavior graph edge, wired across the full
	// alternative groups on both ends.
	for u := range g.Succ {
		for _, v := range g.Succ[u] {
			p := n.addPlace(fmt.Sprintf("n%d_to_n%d", u, v))
			for _, t := range n.groups[graph.NodeID(u)] {
				n.Transitions[t].Out = append(n.Transitions[t].Out, p)
			}
			for _, t := range n.groups[v] {
				n.Transitions[t].In = append(n.Transitions[t].In, p)
			}
		}
	}

	n.Initial = NewMarking(n.Source)
	n.Final = NewMarking(n.Sink)
	return n
}

// alternativeWeight resolves the probability mass of one label alternative.
// Unweighted alternatives are uniform over the node's label set.
func alternativeWeight(node *graph.Node, weight float64) float64 {
	if weight != 0 {
		return weight
	}
	for _, a := range node.Alternatives {
		if a.Weight != 0 {
			// Mixed explicit and zero weights: trust the recorded value.
			return weight
		}
	}
	return 1 / float64(len(node.Alternatives))
}

func (n *Net) addPlace(name string) PlaceID {
	id := PlaceID(len(n.Places))
	n.Places = append(n.Places, Place{ID: id, Name: name})
	return id
}

func (n *Net) addTransition(t Transition) TransitionID {
	t.ID = TransitionID(len(n.Transitions))
	n.Transitions = append(n.Transitions, t)
	return t.ID
}
