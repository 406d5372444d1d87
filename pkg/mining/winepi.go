package mining

import (
	"math"
	"sort"
)

// TimedEvent is one observed activity with its (discrete) timestamp, the
// unit the sliding window width and step are expressed in.
type TimedEvent struct {
	Time  int64
	Label string
}

// Episode is a frequent episode with its support bounds across the
// realizations of an uncertain trace.
type Episode struct {
	Items      []string
	MinSupport float64
	MaxSupport float64
}

// EpisodeMatcher decides what counts as an occurrence of an episode inside
// a window, and which candidate episodes exist for a given alphabet. Serial
// episodes are ordered subsequences; parallel episodes ignore order.
type EpisodeMatcher interface {
	// Name identifies the matching family.
	Name() string
	// Candidates enumerates the size-k episodes over a sorted alphabet.
	Candidates(alphabet []string, k int) [][]string
	// Matches reports whether the episode occurs in the window.
	Matches(episode, window []string) bool
}

// SerialMatcher matches episodes as ordered subsequences with gaps.
type SerialMatcher struct{}

func (SerialMatcher) Name() string { return "serial" }

func (SerialMatcher) Candidates(alphabet []string, k int) [][]string {
	return permutations(alphabet, k)
}

func (SerialMatcher) Matches(episode, window []string) bool {
	j := 0
	for _, label := range window {
		if label == episode[j] {
			j++
			if j == len(episode) {
				return true
			}
		}
	}
	return false
}

// ParallelMatcher matches episodes as unordered subsets.
type ParallelMatcher struct{}

func (ParallelMatcher) Name() string { return "parallel" }

func (ParallelMatcher) Candidates(alphabet []string, k int) [][]string {
	return combinations(alphabet, k)
}

func (ParallelMatcher) Matches(episode, window []string) bool {
	return containsAll(window, episode)
}

// WinEpi mines frequent episodes from the realizations of an uncertain
// trace with a sliding window. Support of an episode in one realization is
// the fraction of windows containing it; across realizations the support
// becomes an interval, with the minimum forced to zero unless the episode
// occurs in every realization.
type WinEpi struct {
	matcher    EpisodeMatcher
	width      int64
	step       int64
	minSupport float64
	maxSupport float64
}

// NewWinEpi builds a miner. Width and step are in the timestamp unit of
// the sequences; episodes are kept when MinSupport >= minSupport and
// MaxSupport <= maxSupport.
func NewWinEpi(matcher EpisodeMatcher, width, step int64, minSupport, maxSupport float64) *WinEpi {
	if step <= 0 {
		step = 1
	}
	return &WinEpi{
		matcher:    matcher,
		width:      width,
		step:       step,
		minSupport: minSupport,
		maxSupport: maxSupport,
	}
}

// Mine runs the level-wise search and returns the frequent episodes
// grouped by size.
func (w *WinEpi) Mine(sequences [][]TimedEvent) [][]Episode {
	if len(sequences) == 0 {
		return nil
	}
	windows := w.slide(sequences)
	alphabet := w.alphabet(sequences)

	candidates := w.matcher.Candidates(alphabet, 1)
	var levels [][]Episode
	frequent := make(map[string]bool)

	for k := 1; len(candidates) > 0; k++ {
		supports := w.scan(windows, candidates)
		var level []Episode
		for _, episode := range candidates {
			s, ok := supports[itemKey(episode)]
			if !ok {
				continue
			}
			if s[0] >= w.minSupport && s[1] <= w.maxSupport {
				level = append(level, Episode{Items: episode, MinSupport: s[0], MaxSupport: s[1]})
				frequent[itemKey(episode)] = true
			}
		}
		if len(level) == 0 {
			break
		}
		levels = append(levels, level)
		candidates = w.next(level, frequent, k)
	}
	return levels
}

// slide cuts each realization into the label contents of its sliding
// windows.
func (w *WinEpi) slide(sequences [][]TimedEvent) [][][]string {
	out := make([][][]string, len(sequences))
	for i, seq := range sequences {
		if len(seq) == 0 {
			continue
		}
		span := seq[len(seq)-1].Time - seq[0].Time + w.width
		count := int(span / w.step)
		if count < 1 {
			count = 1
		}

		windows := make([][]string, 0, count)
		windows = append(windows, []string{seq[0].Label})
		end := seq[0].Time + w.step
		start := end - w.width
		for n := 1; n < count; n++ {
			start += w.step
			end += w.step
			var win []string
			for _, ev := range seq {
				if start <= ev.Time && ev.Time < end {
					win = append(win, ev.Label)
				}
			}
			windows = append(windows, win)
		}
		out[i] = windows
	}
	return out
}

// scan counts, per realization, the fraction of windows each candidate
// occurs in, then folds the per-realization supports into intervals.
func (w *WinEpi) scan(nested [][][]string, candidates [][]string) map[string][2]float64 {
	type bounds struct {
		lo, hi float64
		seen   int
	}
	acc := make(map[string]*bounds)

	for _, windows := range nested {
		if len(windows) == 0 {
			continue
		}
		for _, candidate := range candidates {
			hits := 0
			for _, win := range windows {
				if len(win) >= len(candidate) && w.matcher.Matches(candidate, win) {
					hits++
				}
			}
			if hits == 0 {
				continue
			}
			support := float64(hits) / float64(len(windows))
			key := itemKey(candidate)
			b, ok := acc[key]
			if !ok {
				b = &bounds{lo: math.Inf(1), hi: math.Inf(-1)}
				acc[key] = b
			}
			b.seen++
			b.lo = math.Min(b.lo, support)
			b.hi = math.Max(b.hi, support)
		}
	}

	out := make(map[string][2]float64, len(acc))
	for key, b := range acc {
		lo := b.lo
		if b.seen != len(nested) {
			lo = 0
		}
		out[key] = [2]float64{lo, b.hi}
	}
	return out
}

// next derives size-k+1 candidates from the size-k frequent episodes,
// pruning candidates with an infrequent k-sub-episode.
func (w *WinEpi) next(level []Episode, frequent map[string]bool, k int) [][]string {
	seen := make(map[string]bool)
	var alphabet []string
	for _, ep := range level {
		for _, item := range ep.Items {
			if !seen[item] {
				seen[item] = true
				alphabet = append(alphabet, item)
			}
		}
	}
	sort.Strings(alphabet)

	var out [][]string
	for _, candidate := range w.matcher.Candidates(alphabet, k+1) {
		if subsetsFrequent(candidate, frequent, k) {
			out = append(out, candidate)
		}
	}
	return out
}

// alphabet collects the sorted distinct labels of the sequences.
func (w *WinEpi) alphabet(sequences [][]TimedEvent) []string {
	seen := make(map[string]bool)
	var out []string
	for _, seq := range sequences {
		for _, ev := range seq {
			if !seen[ev.Label] {
				seen[ev.Label] = true
				out = append(out, ev.Label)
			}
		}
	}
	sort.Strings(out)
	return out
}

// permutations enumerates all k-element ordered selections of items
// without repetition.
func permutations(items []string, k int) [][]string {
	if k <= 0 || k > len(items) {
		return nil
	}
	var out [][]string
	used := make([]bool, len(items))
	pick := make([]string, 0, k)
	var recurse func()
	recurse = func() {
		if len(pick) == k {
			out = append(out, append([]string(nil), pick...))
			return
		}
		for i, item := range items {
			if used[i] {
				continue
			}
			used[i] = true
			pick = append(pick, item)
			recurse()
			pick = pick[:len(pick)-1]
			used[i] = false
		}
	}
	recurse()
	return out
}
