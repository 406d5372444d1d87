// Package conformance bounds the deviation between an uncertain trace and
// an acyclic reference behavior net. Because the trace stands for a set of
// realizations, the optimal alignment cost is an interval: the best and
// worst cost over all realizations.
package conformance

import (
	"container/heap"
	"math"
	"strconv"

	"github.com/veralog/veralog/pkg/behavior/net"
	"github.com/veralog/veralog/pkg/errors"
	"github.com/veralog/veralog/pkg/realization"
)

// Standard unit costs for alignment moves. Synchronous and silent model
// moves are free; every other move counts as one deviation.
const (
	costSync  = 0.0
	costModel = 1.0
	costLog   = 1.0
)

// Bounds is the alignment cost interval of an uncertain trace against a
// reference net: Lower is the cost of the best-fitting realization, Upper
// the cost of the worst.
type Bounds struct {
	Lower float64
	Upper float64
}

// AlignmentBounds computes the cost interval over all realizations in the
// set. The reference net must be acyclic and safe; each realization is
// aligned independently.
func AlignmentBounds(set *realization.Set, ref *net.Net) (Bounds, error) {
	if err := ref.Validate(); err != nil {
		return Bounds{}, err
	}
	b := Bounds{Lower: math.Inf(1), Upper: math.Inf(-1)}
	for _, v := range set.Variants {
		cost, err := AlignTrace(v.Labels, ref)
		if err != nil {
			return Bounds{}, err
		}
		b.Lower = math.Min(b.Lower, cost)
		b.Upper = math.Max(b.Upper, cost)
	}
	if len(set.Variants) == 0 {
		return Bounds{}, errors.New(errors.CodeUnsoundNet, "realization set is empty").
			WithContext("reference", len(ref.Transitions))
	}
	return b, nil
}

// AlignTrace computes the optimal alignment cost of one label sequence
// against the reference net: a shortest path through the synchronous
// product of trace positions and net markings.
func AlignTrace(labels []string, ref *net.Net) (float64, error) {
	start := productState{position: 0, marking: ref.Initial}
	dist := map[string]float64{start.id(): 0}

	pq := &stateQueue{{state: start, cost: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(queued)
		if cur.cost > dist[cur.state.id()] {
			continue
		}
		if cur.state.position == len(labels) && cur.state.marking.Equal(ref.Final) {
			return cur.cost, nil
		}

		relax := func(next productState, step float64) {
			total := cur.cost + step
			id := next.id()
			if best, ok := dist[id]; !ok || total < best {
				dist[id] = total
				heap.Push(pq, queued{state: next, cost: total})
			}
		}

		// Log move: consume one trace label without moving the model.
		if cur.state.position < len(labels) {
			relax(productState{position: cur.state.position + 1, marking: cur.state.marking}, costLog)
		}

		for _, t := range ref.EnabledTransitions(cur.state.marking) {
			tr := &ref.Transitions[t]
			next := ref.Fire(cur.state.marking, t)

			// Model move: silent transitions are free, visible ones count.
			step := costModel
			if tr.Silent() {
				step = costSync
			}
			relax(productState{position: cur.state.position, marking: next}, step)

			// Synchronous move: label matches the next trace event.
			if cur.state.position < len(labels) && tr.Label == labels[cur.state.position] {
				relax(productState{position: cur.state.position + 1, marking: next}, costSync)
			}
		}
	}
	return 0, errors.New(errors.CodeUnsoundNet, "reference net cannot reach its final marking").
		WithContext("trace_length", len(labels))
}

type productState struct {
	position int
	marking  net.Marking
}

func (s productState) id() string {
	return strconv.Itoa(s.position) + "|" + s.marking.Key()
}

type queued struct {
	state productState
	cost  float64
}

type stateQueue []queued

func (q stateQueue) Len() int            { return len(q) }
func (q stateQueue) Less(i, j int) bool  { return q[i].cost < q[j].cost }
func (q stateQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *stateQueue) Push(x interface{}) { *q = append(*q, x.(queued)) }
func (q *stateQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
