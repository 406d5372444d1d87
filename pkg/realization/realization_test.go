package realization

import (
	"math"
	"testing"

	"github.com/veralog/veralog/internal/model"
	"github.com/veralog/veralog/pkg/errors"
)

const tol = 2e-3

func compute(t *testing.T, withProb bool, events ...model.UncertainEvent) *Result {
	t.Helper()
	res, err := Compute(model.UncertainTrace{CaseID: "case", Events: events}, Options{Probability: withProb})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	return res
}

func near(got, want float64) bool {
	return math.Abs(got-want) <= tol
}

func TestCompute_CertainTraceSingleVariant(t *testing.T) {
	res := compute(t, true,
		model.CertainEvent("A", 10),
		model.CertainEvent("B", 20),
		model.CertainEvent("C", 30),
	)

	if len(res.Set.Variants) != 1 {
		t.Fatalf("variants = %d, want 1", len(res.Set.Variants))
	}
	v, ok := res.Set.Find("A", "B", "C")
	if !ok {
		t.Fatal("variant A,B,C not found")
	}
	if !near(v.Probability, 1) {
		t.Errorf("P = %v, want 1", v.Probability)
	}
	if !v.Converged {
		t.Error("certain trace must converge")
	}
}

func TestCompute_LabelUncertaintyWeights(t *testing.T) {
	res := compute(t, true,
		model.CertainEvent("X", 0),
		model.UncertainEvent{
			Activities: []model.Alternative{{Label: "Y", Weight: 0.6}, {Label: "Z", Weight: 0.4}},
			Time:       model.Interval{Min: 5, Max: 5},
		},
	)

	if len(res.Set.Variants) != 2 {
		t.Fatalf("variants = %d, want 2", len(res.Set.Variants))
	}
	if v, _ := res.Set.Find("X", "Y"); !near(v.Probability, 0.6) {
		t.Errorf("P(X,Y) = %v, want 0.6", v.Probability)
	}
	if v, _ := res.Set.Find("X", "Z"); !near(v.Probability, 0.4) {
		t.Errorf("P(X,Z) = %v, want 0.4", v.Probability)
	}
}

func TestCompute_IndeterminateEvent(t *testing.T) {
	res := compute(t, true, model.UncertainEvent{
		Activities: []model.Alternative{{Label: "A"}},
		Time:       model.Interval{Min: 0, Max: 0},
		Missing:    0.3,
	})

	if v, ok := res.Set.Find(); !ok || !near(v.Probability, 0.3) {
		t.Errorf("P(empty) = %v (found %v), want 0.3", v.Probability, ok)
	}
	if v, ok := res.Set.Find("A"); !ok || !near(v.Probability, 0.7) {
		t.Errorf("P(A) = %v (found %v), want 0.7", v.Probability, ok)
	}
}

func TestCompute_DuplicateLabelSequencesAggregate(t *testing.T) {
	// Two unordered events with the same label: both orders reduce to the
	// same observable sequence, and their mass must sum.
	res := compute(t, true,
		model.UncertainEvent{
			Activities:    []model.Alternative{{Label: "A"}},
			Time:          model.Interval{Min: 0, Max: 10_000_000_000},
			TimeUncertain: true,
		},
		model.UncertainEvent{
			Activities:    []model.Alternative{{Label: "A"}},
			Time:          model.Interval{Min: 0, Max: 10_000_000_000},
			TimeUncertain: true,
		},
	)

	if len(res.Set.Variants) != 1 {
		t.Fatalf("variants = %d, want 1 after aggregation", len(res.Set.Variants))
	}
	v := res.Set.Variants[0]
	if len(v.Labels) != 2 || v.Labels[0] != "A" || v.Labels[1] != "A" {
		t.Errorf("labels = %v, want [A A]", v.Labels)
	}
}

func TestCompute_TiedInstantsInterleave(t *testing.T) {
	// Two certain events at the same instant after a common predecessor:
	// both orders are realizations and the mass splits between them.
	res := compute(t, true,
		model.CertainEvent("A", 5_000_000_000),
		model.CertainEvent("B", 6_000_000_000),
		model.CertainEvent("C", 6_000_000_000),
	)

	if len(res.Set.Variants) != 2 {
		t.Fatalf("variants = %d, want 2", len(res.Set.Variants))
	}
	if v, ok := res.Set.Find("A", "B", "C"); !ok || !near(v.Probability, 0.5) {
		t.Errorf("P(A,B,C) = %v (found %v), want 0.5", v.Probability, ok)
	}
	if v, ok := res.Set.Find("A", "C", "B"); !ok || !near(v.Probability, 0.5) {
		t.Errorf("P(A,C,B) = %v (found %v), want 0.5", v.Probability, ok)
	}
	if !near(res.Set.TotalProbability(), 1) {
		t.Errorf("total = %v, want 1", res.Set.TotalProbability())
	}
}

func TestCompute_TimestampUncertaintyMass(t *testing.T) {
	res := compute(t, true,
		model.UncertainEvent{
			Activities:    []model.Alternative{{Label: "A"}},
			Time:          model.Interval{Min: 0, Max: 10_000_000_000},
			TimeUncertain: true,
		},
		model.UncertainEvent{
			Activities:    []model.Alternative{{Label: "B"}},
			Time:          model.Interval{Min: 0, Max: 10_000_000_000},
			TimeUncertain: true,
		},
	)

	if v, _ := res.Set.Find("A", "B"); !near(v.Probability, 0.5) {
		t.Errorf("P(A,B) = %v, want 0.5", v.Probability)
	}
	if v, _ := res.Set.Find("B", "A"); !near(v.Probability, 0.5) {
		t.Errorf("P(B,A) = %v, want 0.5", v.Probability)
	}
	if !near(res.Set.TotalProbability(), 1) {
		t.Errorf("total = %v, want 1", res.Set.TotalProbability())
	}
}

func TestCompute_WithoutProbability(t *testing.T) {
	res := compute(t, false,
		model.UncertainEvent{
			Activities:    []model.Alternative{{Label: "A"}},
			Time:          model.Interval{Min: 0, Max: 10_000_000_000},
			TimeUncertain: true,
		},
		model.UncertainEvent{
			Activities:    []model.Alternative{{Label: "B"}},
			Time:          model.Interval{Min: 5_000_000_000, Max: 15_000_000_000},
			TimeUncertain: true,
		},
	)

	if res.Set.WithProbability {
		t.Error("WithProbability must be false")
	}
	if len(res.Set.Variants) != 2 {
		t.Fatalf("variants = %d, want 2", len(res.Set.Variants))
	}
	for _, v := range res.Set.Variants {
		if v.Probability != 0 {
			t.Errorf("probability = %v, want 0 when not requested", v.Probability)
		}
	}
}

func TestCompute_ValidationErrorAborts(t *testing.T) {
	_, err := Compute(model.UncertainTrace{
		CaseID: "case",
		Events: []model.UncertainEvent{{
			Activities:    []model.Alternative{{Label: "A"}},
			Time:          model.Interval{Min: 10, Max: 5},
			TimeUncertain: true,
		}},
	}, Options{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.IsCode(err, errors.CodeInvalidInterval) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.CodeInvalidInterval)
	}
}

func TestCompute_ExposesIntermediateArtifacts(t *testing.T) {
	res := compute(t, false, model.CertainEvent("A", 10))
	if res.Graph == nil || res.Net == nil {
		t.Error("Result must expose the behavior graph and net")
	}
	if len(res.Graph.EventNodes()) != 1 {
		t.Errorf("event nodes = %d, want 1", len(res.Graph.EventNodes()))
	}
}

func TestSet_Find(t *testing.T) {
	set := Set{Variants: []Variant{
		{Labels: []string{"A", "B"}, Probability: 0.7},
		{Labels: []string{"B"}, Probability: 0.3},
	}}

	if v, ok := set.Find("A", "B"); !ok || v.Probability != 0.7 {
		t.Errorf("Find(A,B) = %v, %v", v, ok)
	}
	if _, ok := set.Find("C"); ok {
		t.Error("Find(C) must miss")
	}
}
