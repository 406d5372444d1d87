// Package probability evaluates realization probabilities: the product of
// the activity-label choice mass, the missing-event mass, and the
// timestamp-consistency mass obtained by multi-dimensional numerical
// integration over the realization's order simplex.
package probability

import (
	"github.com/veralog/veralog/pkg/behavior/net"
	"github.com/veralog/veralog/pkg/errors"
)

// Options configures the numerical integration.
type Options struct {
	// AbsTol and RelTol are the absolute and relative error tolerances
	// for the timestamp integral.
	AbsTol float64
	RelTol float64

	// MaxIter bounds the number of quadrature refinement iterations.
	MaxIter int

	// DiracDelta is the half-width, in seconds, of the narrow uniform
	// density approximating a certain timestamp.
	DiracDelta float64
}

// DefaultOptions mirrors the tolerances the realization probabilities are
// specified against: mass conservation holds to about 1e-3.
func DefaultOptions() Options {
	return Options{
		AbsTol:     1e-3,
		RelTol:     1e-3,
		MaxIter:    5,
		DiracDelta: 1e-4,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.AbsTol <= 0 {
		o.AbsTol = def.AbsTol
	}
	if o.RelTol <= 0 {
		o.RelTol = def.RelTol
	}
	if o.MaxIter <= 0 {
		o.MaxIter = def.MaxIter
	}
	if o.DiracDelta <= 0 {
		o.DiracDelta = def.DiracDelta
	}
	return o
}

// Result is the outcome of one numerical integration: the estimate, the
// estimated error, and whether the tolerances were met.
type Result struct {
	Value       float64
	ErrEstimate float64
	Converged   bool
}

// Outcome decomposes a realization probability into its three factors.
type Outcome struct {
	// Label is the product of the chosen label alternatives' mass.
	Label float64

	// Missing is the product over indeterminate events of their
	// presence or absence mass.
	Missing float64

	// Time is the timestamp-consistency integral.
	Time Result

	// Value is the composed probability Label * Missing * Time.
	Value float64
}

// Evaluator computes realization probabilities over a behavior net.
type Evaluator struct {
	opts Options
}

// New creates an evaluator with the given options; zero-valued fields fall
// back to the defaults.
func New(opts Options) *Evaluator {
	return &Evaluator{opts: opts.withDefaults()}
}

// Probability evaluates one realization, given as the firing sequence
// produced by the net's enumerator.
//
// When the timestamp integral fails to converge within the configured
// tolerances, the returned error is an integration error and the Outcome
// still carries the best estimate together with its error bound; the
// caller decides whether to accept the estimate or retry with relaxed
// tolerances.
func (e *Evaluator) Probability(n *net.Net, fired []net.TransitionID) (Outcome, error) {
	out := Outcome{Label: 1, Missing: 1, Time: Result{Value: 1, Converged: true}}

	var present []*net.Transition
	for _, id := range fired {
		tr := &n.Transitions[id]
		if tr.Boundary {
			continue
		}
		if tr.Missing > 0 {
			if tr.Absent {
				out.Missing *= tr.Missing
			} else {
				out.Missing *= 1 - tr.Missing
			}
		}
		if tr.Absent {
			continue
		}
		if tr.Weight > 0 {
			out.Label *= tr.Weight
		}
		present = append(present, tr)
	}

	if orderConstrained(present) {
		out.Time = e.integrate(sequenceBounds(present, e.opts.DiracDelta))
	}
	out.Value = out.Label * out.Missing * out.Time.Value

	if !out.Time.Converged {
		return out, errors.NoConvergence(out.Time.Value, out.Time.ErrEstimate)
	}
	return out, nil
}

// orderConstrained reports whether the realization order restricts the
// joint timestamp mass at all. The order t_1 <= ... <= t_n is a chain, so
// the constraint binds exactly when some consecutive pair of occurrence
// intervals can touch; events at tied certain instants count, since either
// order of the pair is realizable and each carries half the mass.
func orderConstrained(present []*net.Transition) bool {
	for i := 1; i < len(present); i++ {
		if present[i-1].Time.Max >= present[i].Time.Min {
			return true
		}
	}
	return false
}
