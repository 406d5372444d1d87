package probability

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/veralog/veralog/pkg/behavior/net"
)

// nanosPerSecond converts model timestamps to the float seconds the
// integrator works in.
const nanosPerSecond = 1e9

// timeEvent is one dimension of the order-simplex integral: the occurrence
// instant of one realization event, with its density and support bounds in
// normalized seconds.
type timeEvent struct {
	pdf   distuv.Uniform
	lower float64
	upper float64
}

// sequenceBounds converts the present events of a realization, in order,
// into integration dimensions. Interval timestamps become uniform densities
// over [min, max]; certain instants become narrow uniforms of half-width
// delta approximating a Dirac spike. All instants are normalized by the
// minimum lower bound across the realization to keep the domain small.
func sequenceBounds(present []*net.Transition, delta float64) []timeEvent {
	minLower := math.Inf(1)
	for _, tr := range present {
		if lo := float64(tr.Time.Min) / nanosPerSecond; lo < minLower {
			minLower = lo
		}
	}

	events := make([]timeEvent, len(present))
	for i, tr := range present {
		lo := float64(tr.Time.Min)/nanosPerSecond - minLower
		hi := float64(tr.Time.Max)/nanosPerSecond - minLower
		if !tr.TimeUncertain || lo == hi {
			lo -= delta
			hi += delta
		}
		events[i] = timeEvent{
			pdf:   distuv.Uniform{Min: lo, Max: hi},
			lower: lo,
			upper: hi,
		}
	}
	return events
}

// integrate evaluates the nested integral of the product of all densities
// over the simplex t_1 <= t_2 <= ... <= t_n matching the realization
// order. The bounds of each dimension depend on the outer variables: the
// lower bound of event i is the later of its own support lower bound and
// the instant assigned to event i-1; the upper bound is the minimum upper
// bound among the remaining events.
//
// Quadrature is Gauss-Legendre, refined by doubling the node count per
// dimension until the difference between successive refinements meets the
// configured tolerance or the iteration budget runs out. The final
// difference is reported as the error estimate either way.
func (e *Evaluator) integrate(events []timeEvent) Result {
	// Suffix minima of the upper bounds.
	remaining := make([]float64, len(events))
	upper := math.Inf(1)
	for i := len(events) - 1; i >= 0; i-- {
		upper = math.Min(upper, events[i].upper)
		remaining[i] = upper
	}

	// The integrand restricted to any region not crossing an interval
	// bound is polynomial, so each one-dimensional integral is split at
	// the support bounds of all events before applying quadrature.
	cuts := make([]float64, 0, 2*len(events))
	for _, ev := range events {
		cuts = append(cuts, ev.lower, ev.upper)
	}
	sort.Float64s(cuts)

	nd := nestedIntegrator{events: events, remaining: remaining, cuts: cuts}

	nodes := 8
	prev := nd.integrate(0, math.Inf(-1), nodes)
	res := Result{Value: prev, ErrEstimate: math.Inf(1)}

	for iter := 1; iter <= e.opts.MaxIter; iter++ {
		nodes *= 2
		value := nd.integrate(0, math.Inf(-1), nodes)
		res.Value = value
		res.ErrEstimate = math.Abs(value - prev)
		if res.ErrEstimate <= math.Max(e.opts.AbsTol, e.opts.RelTol*math.Abs(value)) {
			res.Converged = true
			return res
		}
		prev = value
	}
	return res
}

type nestedIntegrator struct {
	events    []timeEvent
	remaining []float64
	cuts      []float64
}

// integrate evaluates dimension i with its lower bound clamped to the
// instant assigned to dimension i-1.
func (nd *nestedIntegrator) integrate(i int, floor float64, nodes int) float64 {
	if i == len(nd.events) {
		return 1
	}
	lo := math.Max(nd.events[i].lower, floor)
	hi := nd.remaining[i]
	if hi <= lo {
		return 0
	}

	f := func(x float64) float64 {
		return nd.events[i].pdf.Prob(x) * nd.integrate(i+1, x, nodes)
	}

	total := 0.0
	segLo := lo
	for _, cut := range nd.cuts {
		if cut <= segLo {
			continue
		}
		if cut >= hi {
			break
		}
		total += quad.Fixed(f, segLo, cut, nodes, nil, 0)
		segLo = cut
	}
	total += quad.Fixed(f, segLo, hi, nodes, nil, 0)
	return total
}
