// Package realization computes the realization set of an uncertain trace:
// every concrete label sequence consistent with the trace's uncertainty,
// optionally annotated with its probability mass.
package realization

import "strings"

// Variant is one distinct observable label sequence together with its
// aggregated probability mass.
type Variant struct {
	// Labels is the observable activity sequence, silent firings elided.
	Labels []string

	// Probability is the total mass across all firing sequences reducing
	// to this label sequence. Zero when probability was not requested.
	Probability float64

	// Converged is false when any contributing timestamp integration
	// exhausted its budget; the probability is then the best estimate.
	Converged bool
}

// Set is the realization set of one uncertain trace: one entry per
// distinct observable label sequence.
type Set struct {
	Variants        []Variant
	WithProbability bool
}

// TotalProbability sums the mass across all variants. For a well-formed
// uncertain trace this is 1 up to the integration tolerance.
func (s *Set) TotalProbability() float64 {
	total := 0.0
	for _, v := range s.Variants {
		total += v.Probability
	}
	return total
}

// Find returns the variant with the given label sequence, if present.
func (s *Set) Find(labels ...string) (Variant, bool) {
	want := sequenceKey(labels)
	for _, v := range s.Variants {
		if sequenceKey(v.Labels) == want {
			return v, true
		}
	}
	return Variant{}, false
}

// sequenceKey builds the dedup key of an observable label sequence.
func sequenceKey(labels []string) string {
	return strings.Join(labels, "\x1f")
}
