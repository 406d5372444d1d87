package net

import (
	"testing"

	"github.com/veralog/veralog/internal/model"
	"github.com/veralog/veralog/pkg/behavior/graph"
)

func mustGraph(t *testing.T, events ...model.UncertainEvent) *graph.Graph {
	t.Helper()
	g, err := graph.Build(model.UncertainTrace{CaseID: "case", Events: events})
	if err != nil {
		t.Fatalf("graph.Build: %v", err)
	}
	return g
}

func intervalEvent(label string, lo, hi int64) model.UncertainEvent {
	return model.UncertainEvent{
		Activities:    []model.Alternative{{Label: label}},
		Time:          model.Interval{Min: lo, Max: hi},
		TimeUncertain: true,
	}
}

func TestSynthesize_SequentialStructure(t *testing.T) {
	g := mustGraph(t,
		model.CertainEvent("A", 10),
		model.CertainEvent("B", 20),
	)
	n := Synthesize(g)

	// source + sink + one place per graph edge (start->A, A->B, B->end).
	if len(n.Places) != 2+g.NumEdges() {
		t.Errorf("places = %d, want %d", len(n.Places), 2+g.NumEdges())
	}
	// t_source, t_sink, one transition per certain label.
	if len(n.Transitions) != 4 {
		t.Errorf("transitions = %d, want 4", len(n.Transitions))
	}

	if !n.Initial.Contains(n.Source) || len(n.Initial) != 1 {
		t.Error("initial marking must be exactly the source place")
	}
	if !n.Final.Contains(n.Sink) || len(n.Final) != 1 {
		t.Error("final marking must be exactly the sink place")
	}
}

func TestSynthesize_AlternativesShareInputs(t *testing.T) {
	g := mustGraph(t, model.UncertainEvent{
		Activities: []model.Alternative{{Label: "A", Weight: 0.6}, {Label: "B", Weight: 0.4}},
		Time:       model.Interval{Min: 10, Max: 10},
	})
	n := Synthesize(g)

	group := n.Alternatives(0)
	if len(group) != 2 {
		t.Fatalf("alternative group size = %d, want 2", len(group))
	}

	// Both alternatives consume the same places: firing one disables the
	// other.
	a, b := &n.Transitions[group[0]], &n.Transitions[group[1]]
	if len(a.In) != len(b.In) {
		t.Fatalf("input arity differs: %d vs %d", len(a.In), len(b.In))
	}
	for i := range a.In {
		if a.In[i] != b.In[i] {
			t.Errorf("input place %d differs: %d vs %d", i, a.In[i], b.In[i])
		}
	}
	if a.Weight != 0.6 || b.Weight != 0.4 {
		t.Errorf("weights = %v, %v, want 0.6, 0.4", a.Weight, b.Weight)
	}
}

func TestSynthesize_UniformWeightsWhenUnspecified(t *testing.T) {
	g := mustGraph(t, model.UncertainEvent{
		Activities: []model.Alternative{{Label: "A"}, {Label: "B"}, {Label: "C"}},
		Time:       model.Interval{Min: 10, Max: 10},
	})
	n := Synthesize(g)

	for _, id := range n.Alternatives(0) {
		tr := &n.Transitions[id]
		if tr.Absent {
			continue
		}
		if tr.Weight != 1.0/3 {
			t.Errorf("weight of %s = %v, want 1/3", tr.Name, tr.Weight)
		}
	}
}

func TestSynthesize_IndeterminateAddsSkip(t *testing.T) {
	g := mustGraph(t, model.UncertainEvent{
		Activities: []model.Alternative{{Label: "A"}},
		Time:       model.Interval{Min: 10, Max: 10},
		Missing:    0.3,
	})
	n := Synthesize(g)

	group := n.Alternatives(0)
	if len(group) != 2 {
		t.Fatalf("alternative group size = %d, want 2 (label + skip)", len(group))
	}

	var skips, visible int
	for _, id := range group {
		tr := &n.Transitions[id]
		if tr.Absent {
			skips++
			if !tr.Silent() {
				t.Error("skip transition must be silent")
			}
		} else {
			visible++
		}
	}
	if skips != 1 || visible != 1 {
		t.Errorf("skips = %d, visible = %d, want 1 and 1", skips, visible)
	}
}

func TestSynthesize_FiringRespectsTokens(t *testing.T) {
	g := mustGraph(t, model.CertainEvent("A", 10))
	n := Synthesize(g)

	// Only the source boundary transition is enabled initially.
	enabled := n.EnabledTransitions(n.Initial)
	if len(enabled) != 1 || !n.Transitions[enabled[0]].Boundary {
		t.Fatalf("initially enabled = %v, want just the source transition", enabled)
	}

	m := n.Fire(n.Initial, enabled[0])
	enabled = n.EnabledTransitions(m)
	if len(enabled) != 1 || n.Transitions[enabled[0]].Label != "A" {
		t.Fatalf("after source: enabled = %v, want just A", enabled)
	}

	m = n.Fire(m, enabled[0])
	enabled = n.EnabledTransitions(m)
	if len(enabled) != 1 || n.Transitions[enabled[0]].Name != "t_sink" {
		t.Fatalf("after A: enabled = %v, want just the sink transition", enabled)
	}

	if m = n.Fire(m, enabled[0]); !m.Equal(n.Final) {
		t.Errorf("final marking = %v, want %v", m, n.Final)
	}
}
