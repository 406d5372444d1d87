package mining

import (
	"math"
	"testing"

	"github.com/veralog/veralog/pkg/realization"
)

func set(variants ...realization.Variant) *realization.Set {
	return &realization.Set{Variants: variants, WithProbability: true}
}

func variant(p float64, labels ...string) realization.Variant {
	return realization.Variant{Labels: labels, Probability: p, Converged: true}
}

func findItemset(items []Itemset, labels ...string) (Itemset, bool) {
	want := itemKey(labels)
	for _, is := range items {
		if itemKey(is.Items) == want {
			return is, true
		}
	}
	return Itemset{}, false
}

func TestSupport_MinCountsAllRealizations(t *testing.T) {
	sets := []*realization.Set{
		// A in every realization.
		set(variant(0.6, "A", "B"), variant(0.4, "A", "C")),
		// A in one of two realizations.
		set(variant(0.5, "A"), variant(0.5, "B")),
	}

	lo, hi := Support([]string{"A"}, sets, AprioriOptions{})
	if lo != 0.5 {
		t.Errorf("min support = %v, want 0.5 (certain in 1 of 2 traces)", lo)
	}
	if hi != 1.0 {
		t.Errorf("max support = %v, want 1.0 (possible in both traces)", hi)
	}
}

func TestSupport_WeightedMaxUsesProbability(t *testing.T) {
	sets := []*realization.Set{
		set(variant(0.3, "A"), variant(0.7, "B")),
	}

	_, hi := Support([]string{"A"}, sets, AprioriOptions{Weighted: true})
	if math.Abs(hi-0.3) > 1e-12 {
		t.Errorf("weighted max support = %v, want 0.3", hi)
	}

	_, unweighted := Support([]string{"A"}, sets, AprioriOptions{})
	if unweighted != 1.0 {
		t.Errorf("unweighted max support = %v, want 1.0", unweighted)
	}
}

func TestSupport_ItemsetNeedsAllItems(t *testing.T) {
	sets := []*realization.Set{
		set(variant(1, "A", "B", "C")),
		set(variant(1, "A", "C")),
	}

	lo, hi := Support([]string{"A", "B"}, sets, AprioriOptions{})
	if lo != 0.5 || hi != 0.5 {
		t.Errorf("support = [%v, %v], want [0.5, 0.5]", lo, hi)
	}
}

func TestApriori_FindsPairsAndPrunes(t *testing.T) {
	sets := []*realization.Set{
		set(variant(1, "A", "B")),
		set(variant(1, "A", "B", "C")),
		set(variant(1, "A")),
	}

	pair := SupportPair{Min: 0.6, Max: 1.0}
	results := Apriori(sets, []SupportPair{pair}, AprioriOptions{})

	found := results[pair]
	if _, ok := findItemset(found, "A"); !ok {
		t.Error("A must be frequent (support 1)")
	}
	if is, ok := findItemset(found, "A", "B"); !ok {
		t.Error("{A, B} must be frequent (support 2/3)")
	} else if math.Abs(is.MinSupport-2.0/3) > 1e-12 {
		t.Errorf("{A, B} min support = %v, want 2/3", is.MinSupport)
	}
	if _, ok := findItemset(found, "C"); ok {
		t.Error("C has support 1/3 and must not be frequent")
	}
	if _, ok := findItemset(found, "A", "C"); ok {
		t.Error("{A, C} must be pruned: C is infrequent")
	}
}

func TestApriori_MultiplePairsIndependent(t *testing.T) {
	sets := []*realization.Set{
		set(variant(1, "A")),
		set(variant(1, "A", "B")),
	}

	strict := SupportPair{Min: 0.9, Max: 1.0}
	loose := SupportPair{Min: 0.4, Max: 1.0}
	results := Apriori(sets, []SupportPair{strict, loose}, AprioriOptions{})

	if _, ok := findItemset(results[strict], "B"); ok {
		t.Error("B (support 0.5) must fail the strict pair")
	}
	if _, ok := findItemset(results[loose], "B"); !ok {
		t.Error("B (support 0.5) must pass the loose pair")
	}
}

func TestApriori_EmptyLog(t *testing.T) {
	pair := SupportPair{Min: 0, Max: 1}
	results := Apriori(nil, []SupportPair{pair}, AprioriOptions{})
	if len(results[pair]) != 0 {
		t.Errorf("itemsets = %v, want none for empty input", results[pair])
	}
}

func TestCombinations_Enumerates(t *testing.T) {
	got := combinations([]string{"A", "B", "C"}, 2)
	want := [][]string{{"A", "B"}, {"A", "C"}, {"B", "C"}}
	if len(got) != len(want) {
		t.Fatalf("combinations = %v, want %v", got, want)
	}
	for i := range want {
		if itemKey(got[i]) != itemKey(want[i]) {
			t.Errorf("combination %d = %v, want %v", i, got[i], want[i])
		}
	}
}
