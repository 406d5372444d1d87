// Package net synthesizes behavior nets: safe, acyclic workflow Petri nets
// whose complete firing sequences correspond exactly to the label
// realizations admitted by a behavior graph. It also provides the marking
// semantics and the exhaustive enumeration of firing sequences.
package net

import (
	"sort"

	"github.com/veralog/veralog/internal/model"
	"github.com/veralog/veralog/pkg/behavior/graph"
)

// PlaceID addresses a place in the net arena.
type PlaceID int

// TransitionID addresses a transition in the net arena.
type TransitionID int

// Place is a token holder. The net is safe: a place holds zero or one token.
type Place struct {
	ID   PlaceID
	Name string
}

// Transition is an atomic firing unit. A transition is either silent
// (boundary or absent-event) or carries exactly one candidate label together
// with the uncertainty metadata of the graph node it was derived from.
type Transition struct {
	ID   TransitionID
	Name string

	// Label is the observable activity label; empty for silent transitions.
	Label string

	// Node is the originating behavior graph node.
	Node graph.NodeID

	// Weight is the label probability mass, 0 when unspecified.
	Weight float64

	// Absent marks the silent alternative standing for a skipped
	// indeterminate event.
	Absent bool

	// Boundary marks the invisible source/sink transitions.
	Boundary bool

	// Missing is the node's missing probability, 0 for determinate events.
	Missing float64

	// Time carries the node's occurrence interval.
	Time          model.Interval
	TimeUncertain bool

	// In and Out are the input and output places.
	In  []PlaceID
	Out []PlaceID
}

// Silent reports whether firing the transition is unobservable.
func (t *Transition) Silent() bool { return t.Label == "" }

// Net is a behavior net. Places and transitions live in arenas addressed by
// integer IDs; arcs are the In/Out lists of each transition. Immutable once
// synthesized.
type Net struct {
	Places      []Place
	Transitions []Transition

	Source PlaceID
	Sink   PlaceID

	// Initial and Final are the workflow markings: one token on the
	// source place, one token on the sink place.
	Initial Marking
	Final   Marking

	// groups maps each graph node to its alternative transitions. All
	// transitions of one group share an identical input place set, so the
	// net never fires two alternatives of the same event.
	groups map[graph.NodeID][]TransitionID
}

// Alternatives returns the transitions competing for one graph node.
func (n *Net) Alternatives(node graph.NodeID) []TransitionID {
	return n.groups[node]
}

// Marking is the set of marked places, kept sorted. The net is safe, so a
// set suffices for the multiset semantics.
type Marking []PlaceID

// NewMarking builds a marking from the given places.
func NewMarking(places ...PlaceID) Marking {
	m := make(Marking, len(places))
	copy(m, places)
	sort.Slice(m, func(i, j int) bool { return m[i] < m[j] })
	return m
}

// Contains reports whether the place is marked.
func (m Marking) Contains(p PlaceID) bool {
	i := sort.Search(len(m), func(i int) bool { return m[i] >= p })
	return i < len(m) && m[i] == p
}

// Equal reports marking equality.
func (m Marking) Equal(other Marking) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if m[i] != other[i] {
			return false
		}
	}
	return true
}

// Key returns a compact byte encoding usable as a map key.
func (m Marking) Key() string {
	buf := make([]byte, 0, len(m)*3)
	for _, p := range m {
		buf = append(buf, byte(p), byte(p>>8), byte(p>>16))
	}
	return string(buf)
}

// Enabled reports whether the transition may fire under the marking: every
// input place must hold a token.
func (n *Net) Enabled(m Marking, t TransitionID) bool {
	for _, p := range n.Transitions[t].In {
		if !m.Contains(p) {
			return false
		}
	}
	return true
}

// EnabledTransitions returns all transitions enabled under the marking.
func (n *Net) EnabledTransitions(m Marking) []TransitionID {
	var enabled []TransitionID
	for i := range n.Transitions {
		if n.Enabled(m, TransitionID(i)) {
			enabled = append(enabled, TransitionID(i))
		}
	}
	return enabled
}

// Fire consumes the transition's input tokens and produces its output
// tokens, returning the successor marking. The caller must ensure the
// transition is enabled.
func (n *Net) Fire(m Marking, t TransitionID) Marking {
	tr := &n.Transitions[t]
	next := make(Marking, 0, len(m)-len(tr.In)+len(tr.Out))
	for _, p := range m {
		if !containsPlace(tr.In, p) {
			next = append(next, p)
		}
	}
	next = append(next, tr.Out...)
	sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
	return next
}

func containsPlace(places []PlaceID, p PlaceID) bool {
	for _, q := range places {
		if q == p {
			return true
		}
	}
	return false
}
