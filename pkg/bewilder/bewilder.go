// Package bewilder injects synthetic uncertainty into deterministic event
// logs: weighted activity-label alternatives, interval timestamps
// overlapping neighboring events, and indeterminate (possibly missing)
// events. It produces the test fixtures the realization pipeline consumes.
package bewilder

import (
	"math/rand"
	"time"

	"github.com/veralog/veralog/internal/model"
	"github.com/veralog/veralog/pkg/errors"
)

// overlapMargin widens injected timestamp intervals past the neighboring
// event so the intervals genuinely overlap.
const overlapMargin = 100 * time.Millisecond

// Bewilderer perturbs logs using an injected random source, so runs are
// reproducible from a seed.
type Bewilderer struct {
	rng *rand.Rand
}

// New creates a Bewilderer seeded deterministically.
func New(seed int64) *Bewilderer {
	return &Bewilderer{rng: rand.New(rand.NewSource(seed))}
}

// NewWithRand creates a Bewilderer with a caller-owned random source.
func NewWithRand(rng *rand.Rand) *Bewilderer {
	return &Bewilderer{rng: rng}
}

// position addresses one event inside a log.
type position struct {
	trace int
	event int
}

// AddUncertainty applies all three perturbations: activity-label
// uncertainty with probability pa, timestamp uncertainty with pt, and
// indeterminate events with pi.
func (b *Bewilderer) AddUncertainty(log *model.Log, pa, pt, pi float64) error {
	if err := b.AddActivities(log, pa, 1, nil, true); err != nil {
		return err
	}
	if err := b.AddTimestamps(log, pt); err != nil {
		return err
	}
	return b.AddIndeterminate(log, pi, true)
}

// AddActivities turns the labels of a fraction p of the log's events into
// weighted alternative sets, adding up to maxLabels extra labels drawn
// from labelSet (or from the log's own label alphabet when nil). When
// weighted is true the masses are random and normalized to 1; otherwise
// they are uniform.
func (b *Bewilderer) AddActivities(log *model.Log, p float64, maxLabels int, labelSet []string, weighted bool) error {
	if err := checkProbability(p); err != nil {
		return err
	}
	if p == 0 {
		return nil
	}

	if labelSet == nil {
		seen := make(map[string]struct{})
		for _, trace := range log.Traces {
			for _, ev := range trace.Events {
				for _, a := range ev.Activities {
					if _, ok := seen[a.Label]; !ok {
						seen[a.Label] = struct{}{}
						labelSet = append(labelSet, a.Label)
					}
				}
			}
		}
	}
	toAdd := min(maxLabels, len(labelSet)-1)
	if toAdd <= 0 {
		return nil
	}

	eligible := b.eligible(log, func(ev *model.UncertainEvent) bool {
		return len(ev.Activities) == 1
	})
	for _, pos := range b.pick(eligible, p) {
		ev := &log.Traces[pos.trace].Events[pos.event]
		current := ev.Activities[0].Label

		labels := append([]string{current}, b.sampleLabels(labelSet, current, toAdd)...)
		weights := b.weights(len(labels), weighted)

		alts := make([]model.Alternative, len(labels))
		for i, label := range labels {
			alts[i] = model.Alternative{Label: label, Weight: weights[i]}
		}
		ev.Activities = alts
	}
	return nil
}

// AddTimestamps replaces the certain timestamps of a fraction p of the
// log's events with intervals overlapping the previous or the next event
// of the same trace, widened by a small margin on each side.
func (b *Bewilderer) AddTimestamps(log *model.Log, p float64) error {
	if err := checkProbability(p); err != nil {
		return err
	}
	if p == 0 {
		return nil
	}

	eligible := b.eligible(log, func(ev *model.UncertainEvent) bool {
		return !ev.TimeUncertain
	})
	for _, pos := range b.pick(eligible, p) {
		events := log.Traces[pos.trace].Events
		j := pos.event
		t := events[j].Time.Min

		// First events overlap forward, last events backward, everything
		// in between goes either way.
		forward := j == 0 || (j != len(events)-1 && b.rng.Float64() < 0.5)
		var lo, hi int64
		if forward {
			lo = t - int64(overlapMargin)
			hi = max(t, events[min(j+1, len(events)-1)].Time.Min) + int64(overlapMargin)
		} else {
			lo = min(t, events[max(j-1, 0)].Time.Min) - int64(overlapMargin)
			hi = t + int64(overlapMargin)
		}
		events[j].Time = model.Interval{Min: lo, Max: hi}
		events[j].TimeUncertain = true
	}
	return nil
}

// AddIndeterminate marks a fraction p of the log's events as possibly
// missing. When weighted is true the missing probability is drawn
// uniformly from (0, 1); otherwise it is 0.5.
func (b *Bewilderer) AddIndeterminate(log *model.Log, p float64, weighted bool) error {
	if err := checkProbability(p); err != nil {
		return err
	}
	if p == 0 {
		return nil
	}

	eligible := b.eligible(log, func(ev *model.UncertainEvent) bool {
		return ev.Missing == 0
	})
	for _, pos := range b.pick(eligible, p) {
		ev := &log.Traces[pos.trace].Events[pos.event]
		if weighted {
			ev.Missing = 0.00001 + b.rng.Float64()*0.99998
		} else {
			ev.Missing = 0.5
		}
	}
	return nil
}

// eligible collects the positions of all events matching the predicate.
func (b *Bewilderer) eligible(log *model.Log, ok func(*model.UncertainEvent) bool) []position {
	var out []position
	for i := range log.Traces {
		for j := range log.Traces[i].Events {
			if ok(&log.Traces[i].Events[j]) {
				out = append(out, position{trace: i, event: j})
			}
		}
	}
	return out
}

// pick samples round(len*p) positions without replacement.
func (b *Bewilderer) pick(eligible []position, p float64) []position {
	count := int(float64(len(eligible))*p + 0.5)
	if count >= len(eligible) {
		return eligible
	}
	picked := make([]position, 0, count)
	for _, i := range b.rng.Perm(len(eligible))[:count] {
		picked = append(picked, eligible[i])
	}
	return picked
}

// sampleLabels draws count distinct labels from set, excluding current.
func (b *Bewilderer) sampleLabels(set []string, current string, count int) []string {
	pool := make([]string, 0, len(set)-1)
	for _, label := range set {
		if label != current {
			pool = append(pool, label)
		}
	}
	if count > len(pool) {
		count = len(pool)
	}
	out := make([]string, 0, count)
	for _, i := range b.rng.Perm(len(pool))[:count] {
		out = append(out, pool[i])
	}
	return out
}

// weights draws a normalized weight vector of the given size.
func (b *Bewilderer) weights(size int, weighted bool) []float64 {
	out := make([]float64, size)
	if !weighted {
		for i := range out {
			out[i] = 1 / float64(size)
		}
		return out
	}
	sum := 0.0
	for i := range out {
		out[i] = 0.0001 + b.rng.Float64()*0.9998
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func checkProbability(p float64) error {
	if p < 0 || p > 1 {
		return errors.New(errors.CodeInvalidProbability, "perturbation probability outside [0, 1]").
			WithContext("value", p)
	}
	return nil
}
