// Package mining finds frequent patterns across uncertain traces. Because
// an uncertain trace stands for a set of realizations rather than a single
// sequence, support values come out as intervals: the minimum counts traces
// whose every realization contains a pattern, the maximum counts traces
// where at least one realization does.
package mining

import (
	"sort"
	"strings"

	"github.com/veralog/veralog/pkg/realization"
)

const itemSep = "\x1f"

// SupportPair bounds the support interval a frequent itemset must satisfy:
// MinSupport >= Min and MaxSupport <= Max.
type SupportPair struct {
	Min float64
	Max float64
}

// Itemset is a frequent itemset together with its support bounds over the
// uncertain log.
type Itemset struct {
	Items      []string
	MinSupport float64
	MaxSupport float64
}

// AprioriOptions controls the support computation.
type AprioriOptions struct {
	// Weighted switches the maximum support from trace counting to
	// summing realization probabilities, so a trace where the itemset
	// appears only in unlikely realizations contributes little.
	Weighted bool
}

// Support computes the (min, max) support interval for an itemset over a
// collection of realization sets, one set per uncertain trace.
func Support(items []string, sets []*realization.Set, opts AprioriOptions) (float64, float64) {
	if len(sets) == 0 {
		return 0, 0
	}
	var minCount, maxCount float64
	for _, set := range sets {
		inAll := true
		var best float64
		for _, v := range set.Variants {
			if containsAll(v.Labels, items) {
				if opts.Weighted {
					best += v.Probability
				} else {
					best = 1
				}
			} else {
				inAll = false
			}
		}
		if inAll && len(set.Variants) > 0 {
			minCount++
		}
		maxCount += best
	}
	n := float64(len(sets))
	return minCount / n, maxCount / n
}

// Apriori mines frequent itemsets for each support pair, sharing one
// support computation per candidate across all pairs. Results are keyed by
// pair; itemsets appear level by level in discovery order.
func Apriori(sets []*realization.Set, pairs []SupportPair, opts AprioriOptions) map[SupportPair][]Itemset {
	results := make(map[SupportPair][]Itemset, len(pairs))
	frequent := make(map[SupportPair]map[string]bool, len(pairs))

	initial := singletonCandidates(sets)
	candidates := make(map[SupportPair][][]string, len(pairs))
	for _, pair := range pairs {
		results[pair] = nil
		frequent[pair] = make(map[string]bool)
		candidates[pair] = initial
	}

	for k := 1; anyCandidates(candidates); k++ {
		cache := make(map[string][2]float64)
		for _, pair := range pairs {
			for _, items := range candidates[pair] {
				key := itemKey(items)
				if _, ok := cache[key]; !ok {
					lo, hi := Support(items, sets, opts)
					cache[key] = [2]float64{lo, hi}
				}
			}
		}

		for _, pair := range pairs {
			var kept [][]string
			for _, items := range candidates[pair] {
				s := cache[itemKey(items)]
				if s[0] >= pair.Min && s[1] <= pair.Max {
					results[pair] = append(results[pair], Itemset{
						Items:      items,
						MinSupport: s[0],
						MaxSupport: s[1],
					})
					kept = append(kept, items)
					frequent[pair][itemKey(items)] = true
				}
			}
			candidates[pair] = nextCandidates(kept, frequent[pair], k)
		}
	}
	return results
}

// singletonCandidates collects the sorted label alphabet of the log as
// size-1 itemsets.
func singletonCandidates(sets []*realization.Set) [][]string {
	seen := make(map[string]bool)
	var labels []string
	for _, set := range sets {
		for _, v := range set.Variants {
			for _, label := range v.Labels {
				if !seen[label] {
					seen[label] = true
					labels = append(labels, label)
				}
			}
		}
	}
	sort.Strings(labels)
	out := make([][]string, len(labels))
	for i, label := range labels {
		out[i] = []string{label}
	}
	return out
}

// nextCandidates joins size-k frequent itemsets pairwise into size-k+1
// candidates, pruning any whose k-subsets are not all frequent.
func nextCandidates(kept [][]string, frequent map[string]bool, k int) [][]string {
	seen := make(map[string]bool)
	var out [][]string
	for i := 0; i < len(kept); i++ {
		for j := i + 1; j < len(kept); j++ {
			union := mergeSorted(kept[i], kept[j])
			if len(union) != k+1 {
				continue
			}
			key := itemKey(union)
			if seen[key] {
				continue
			}
			seen[key] = true
			if subsetsFrequent(union, frequent, k) {
				out = append(out, union)
			}
		}
	}
	return out
}

// subsetsFrequent checks every k-subset of items against the frequent set.
func subsetsFrequent(items []string, frequent map[string]bool, k int) bool {
	for _, sub := range combinations(items, k) {
		if !frequent[itemKey(sub)] {
			return false
		}
	}
	return true
}

// mergeSorted unions two sorted string slices, deduplicating.
func mergeSorted(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

func itemKey(items []string) string {
	return strings.Join(items, itemSep)
}

func containsAll(labels []string, items []string) bool {
	for _, item := range items {
		found := false
		for _, label := range labels {
			if label == item {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func anyCandidates(candidates map[SupportPair][][]string) bool {
	for _, c := range candidates {
		if len(c) > 0 {
			return true
		}
	}
	return false
}

// combinations enumerates all k-element ordered subsequences of items.
func combinations(items []string, k int) [][]string {
	if k <= 0 || k > len(items) {
		return nil
	}
	var out [][]string
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		pick := make([]string, k)
		for i, j := range idx {
			pick[i] = items[j]
		}
		out = append(out, pick)

		i := k - 1
		for i >= 0 && idx[i] == len(items)-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
