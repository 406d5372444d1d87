package realization

import (
	"github.com/veralog/veralog/internal/model"
	"github.com/veralog/veralog/pkg/behavior/graph"
	"github.com/veralog/veralog/pkg/behavior/net"
	"github.com/veralog/veralog/pkg/probability"
)

// Options configures the per-trace pipeline.
type Options struct {
	// Probability enables probability evaluation and aggregation; when
	// false the set is only deduplicated.
	Probability bool

	// Integration tunes the timestamp integral; zero values fall back to
	// the defaults.
	Integration probability.Options
}

// Result carries the realization set of one trace together with the
// intermediate artifacts, exposed read-only for downstream consumers such
// as conformance checking.
type Result struct {
	Graph *graph.Graph
	Net   *net.Net
	Set   Set
}

// Compute runs the full pipeline for one uncertain trace: behavior graph,
// behavior net, exhaustive enumeration, probability evaluation, and
// aggregation by observable label sequence.
//
// Validation and structural errors abort the trace. Integration
// non-convergence does not: affected variants are flagged and keep their
// best estimate.
func Compute(trace model.UncertainTrace, opts Options) (*Result, error) {
	g, err := graph.Build(trace)
	if err != nil {
		return nil, err
	}

	n := net.Synthesize(g)
	variants, err := n.Variants()
	if err != nil {
		return nil, err
	}

	res := &Result{Graph: g, Net: n}
	res.Set = aggregate(n, variants, opts)
	return res, nil
}

// aggregate groups firing sequences by observable label sequence, summing
// probability mass when requested. Entries keep first-seen order so the
// output is deterministic.
func aggregate(n *net.Net, variants [][]net.TransitionID, opts Options) Set {
	set := Set{WithProbability: opts.Probability}

	var eval *probability.Evaluator
	if opts.Probability {
		eval = probability.New(opts.Integration)
	}

	index := make(map[string]int, len(variants))
	for _, fired := range variants {
		labels := n.Labels(fired)
		key := sequenceKey(labels)

		i, seen := index[key]
		if !seen {
			i = len(set.Variants)
			index[key] = i
			set.Variants = append(set.Variants, Variant{Labels: labels, Converged: true})
		}

		if !opts.Probability {
			continue
		}
		out, err := eval.Probability(n, fired)
		set.Variants[i].Probability += out.Value
		if err != nil {
			// Integration error: keep the estimate, drop the flag.
			set.Variants[i].Converged = false
		}
	}
	return set
}
