package net

import "github.com/veralog/veralog/pkg/errors"

// Validate checks the structural invariants the enumerator relies on.
// A cyclic net breaks the marking exploration, and a transition without
// input places is permanently enabled, so both are rejected as fatal
// structural errors rather than risking non-termination.
func (n *Net) Validate() error {
	if err := n.validateStructure(); err != nil {
		return err
	}

	// Successor relation over transitions: t1 -> t2 when some place
	// produced by t1 is consumed by t2.
	consumers := make(map[PlaceID][]TransitionID)
	for i := range n.Transitions {
		for _, p := range n.Transitions[i].In {
			consumers[p] = append(consumers[p], TransitionID(i))
		}
	}

	const (
		unvisited = iota
		inProgress
		done
	)
	state := make([]uint8, len(n.Transitions))

	var visit func(t TransitionID) error
	visit = func(t TransitionID) error {
		state[t] = inProgress
		for _, p := range n.Transitions[t].Out {
			for _, succ := range consumers[p] {
				switch state[succ] {
				case inProgress:
					return errors.CyclicNet(n.Transitions[succ].Name)
				case unvisited:
					if err := visit(succ); err != nil {
						return err
					}
				}
			}
		}
		state[t] = done
		return nil
	}

	for i := range n.Transitions {
		if state[i] == unvisited {
			if err := visit(TransitionID(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateStructure checks the workflow shape: every transition consumes
// and produces at least one token, every place except the source has a
// producer, and every place except the sink has a consumer.
func (n *Net) validateStructure() error {
	produced := make([]bool, len(n.Places))
	consumed := make([]bool, len(n.Places))

	for i := range n.Transitions {
		t := &n.Transitions[i]
		if len(t.In) == 0 {
			return errors.UnsoundNet(t.Name, "transition has no input place")
		}
		if len(t.Out) == 0 {
			return errors.UnsoundNet(t.Name, "transition has no output place")
		}
		for _, p := range t.In {
			consumed[p] = true
		}
		for _, p := range t.Out {
			produced[p] = true
		}
	}

	for i := range n.Places {
		p := PlaceID(i)
		if !produced[p] && p != n.Source {
			return errors.UnsoundNet(n.Places[i].Name, "place has no producer")
		}
		if !consumed[p] && p != n.Sink {
			return errors.UnsoundNet(n.Places[i].Name, "place has no consumer")
		}
	}
	return nil
}
