package net

// labelSep separates observable labels inside memo keys. The unit
// separator cannot occur in XES attribute values.
const labelSep = "\x1f"

// Variants explores the reachable marking space exhaustively from the
// initial marking and returns every complete firing sequence, restricted to
// the event transitions (boundary transitions elided). Each sequence is one
// candidate realization of the underlying uncertain trace.
//
// The exploration is an explicit worklist depth-first search. States are
// memoized as (marking, observed label sequence) pairs and pruned on
// revisit: interleavings that differ only in the order of unobservable
// firings collapse to a single candidate. The algorithm assumes an acyclic
// net and validates the invariant up front.
func (n *Net) Variants() ([][]TransitionID, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	type state struct {
		marking Marking
		fired   []TransitionID
		labels  string
	}

	stack := []state{{marking: n.Initial}}
	visited := make(map[string]struct{})
	var variants [][]TransitionID

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if s.marking.Equal(n.Final) {
			variants = append(variants, s.fired)
			continue
		}

		key := s.marking.Key() + "|" + s.labels
		if _, seen := visited[key]; seen {
			continue
		}
		visited[key] = struct{}{}

		for _, t := range n.EnabledTransitions(s.marking) {
			tr := &n.Transitions[t]
			next := state{marking: n.Fire(s.marking, t), fired: s.fired, labels: s.labels}
			if !tr.Boundary {
				next.fired = append(append(make([]TransitionID, 0, len(s.fired)+1), s.fired...), t)
				if !tr.Silent() {
					next.labels = s.labels + tr.Label + labelSep
				}
			}
			stack = append(stack, next)
		}
	}

	return variants, nil
}

// Labels projects a firing sequence onto its observable label sequence.
func (n *Net) Labels(fired []TransitionID) []string {
	labels := make([]string, 0, len(fired))
	for _, t := range fired {
		if tr := &n.Transitions[t]; !tr.Silent() {
			labels = append(labels, tr.Label)
		}
	}
	return labels
}
