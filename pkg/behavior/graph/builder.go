package graph

import (
	"math"
	"sort"

	"github.com/veralog/veralog/internal/model"
	"github.com/veralog/veralog/pkg/errors"
)

// weightTolerance bounds how far explicit label weights may drift from 1.
const weightTolerance = 1e-9

// markerKind orders boundary markers at equal instants: opens sort before
// closes so that coincident intervals stay unordered.
type markerKind uint8

const (
	markerLeft markerKind = iota // interval lower bound
	markerCertain                // degenerate instant, both open and close
	markerRight                  // interval upper bound
)

// marker is one interval boundary in the sweep sequence.
type marker struct {
	time int64
	node NodeID
	kind markerKind
}

// Build constructs the behavior graph of an uncertain trace.
//
// Each event contributes one node holding all its label alternatives. The
// builder then sweeps a time-sorted sequence of interval boundary markers:
// for every close marker of node u it scans forward, emitting u -> v for
// each open marker v strictly after u's close, and cuts the scan off as
// soon as it reaches a node already recorded as a successor of u, since
// everything farther is transitively reachable. The emitted edges form the
// transitive reduction of the strictly-before interval order directly.
//
// Malformed events fail with a validation error; the uncertainty values
// themselves never cause failure.
func Build(trace model.UncertainTrace) (*Graph, error) {
	n := len(trace.Events)

	g := &Graph{
		Nodes: make([]Node, 0, n+2),
		Succ:  make([][]NodeID, n+2),
		Pred:  make([][]NodeID, n+2),
	}

	markers := make([]marker, 0, 2*n+2)

	for i := range trace.Events {
		ev := &trace.Events[i]
		if err := validateEvent(i, ev); err != nil {
			return nil, err
		}

		id := NodeID(len(g.Nodes))
		g.Nodes = append(g.Nodes, Node{
			ID:            id,
			Kind:          KindEvent,
			Index:         i,
			Alternatives:  ev.Activities,
			Missing:       ev.Missing,
			Time:          ev.Time,
			TimeUncertain: ev.TimeUncertain,
		})

		if ev.TimeUncertain && !ev.Time.Degenerate() {
			markers = append(markers,
				marker{time: ev.Time.Min, node: id, kind: markerLeft},
				marker{time: ev.Time.Max, node: id, kind: markerRight})
		} else {
			markers = append(markers, marker{time: ev.Time.Min, node: id, kind: markerCertain})
		}
	}

	// Boundary nodes bound the sweep at -inf and +inf so that every real
	// node gains at least one predecessor and one successor path.
	g.Start = NodeID(len(g.Nodes))
	g.Nodes = append(g.Nodes, Node{
		ID:   g.Start,
		Kind: KindStart,
		Index: -1,
		Time: model.Interval{Min: timeNegInf, Max: timeNegInf},
	})
	g.End = NodeID(len(g.Nodes))
	g.Nodes = append(g.Nodes, Node{
		ID:   g.End,
		Kind: KindEnd,
		Index: -1,
		Time: model.Interval{Min: timePosInf, Max: timePosInf},
	})
	markers = append(markers,
		marker{time: timeNegInf, node: g.Start, kind: markerCertain},
		marker{time: timePosInf, node: g.End, kind: markerCertain})

	sort.SliceStable(markers, func(a, b int) bool {
		if markers[a].time != markers[b].time {
			return markers[a].time < markers[b].time
		}
		return markers[a].kind < markers[b].kind
	})

	g.sweep(markers)
	return g, nil
}

// sweep runs the single forward pass over the sorted boundary markers.
func (g *Graph) sweep(markers []marker) {
	for i, close := range markers {
		if close.kind == markerLeft {
			continue
		}
		// Once an edge to a certain successor at instant T is emitted,
		// only markers strictly past T are reachable through it; certain
		// markers tied at T are unordered with it and still need their
		// own edge, so the cutoff waits for the scan to leave T.
		cutoff := false
		var cutoffAt int64
	scan:
		for _, open := range markers[i+1:] {
			if cutoff && open.time > cutoffAt {
				break scan
			}
			switch open.kind {
			case markerLeft:
				if open.time > close.time {
					g.addEdge(close.node, open.node)
				}
			case markerCertain:
				if open.time > close.time {
					g.addEdge(close.node, open.node)
					cutoff, cutoffAt = true, open.time
				}
			case markerRight:
				// A close of an already-recorded successor: all later
				// opens are reachable through that successor.
				if g.HasEdge(close.node, open.node) {
					break scan
				}
			}
		}
	}
}

// validateEvent checks the structural well-formedness of one event.
func validateEvent(position int, ev *model.UncertainEvent) error {
	if len(ev.Activities) == 0 {
		return errors.MissingActivity(position)
	}
	for _, a := range ev.Activities {
		if a.Label == "" {
			return errors.MissingActivity(position)
		}
	}
	if ev.Time.Min > ev.Time.Max {
		return errors.InvalidInterval(position, ev.Time.Min, ev.Time.Max)
	}
	if ev.Weighted() {
		sum := 0.0
		for _, a := range ev.Activities {
			if a.Weight <= 0 {
				return errors.New(errors.CodeInvalidWeights, "weighted event has a non-positive label probability").
					WithContext("position", position).
					WithContext("label", a.Label).
					WithContext("weight", a.Weight)
			}
			sum += a.Weight
		}
		if math.Abs(sum-1) > weightTolerance {
			return errors.InvalidWeights(position, sum)
		}
	}
	if ev.Missing < 0 || ev.Missing > 1 {
		return errors.InvalidProbability(position, ev.Missing)
	}
	return nil
}
