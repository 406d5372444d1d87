package mining

import "github.com/veralog/veralog/pkg/realization"

// SequencesFromSet converts a realization set into unit-spaced event
// sequences, one per variant, suitable for WinEpi. Positions stand in for
// timestamps, so a window width of w covers w consecutive events.
func SequencesFromSet(set *realization.Set) [][]TimedEvent {
	out := make([][]TimedEvent, 0, len(set.Variants))
	for _, v := range set.Variants {
		seq := make([]TimedEvent, len(v.Labels))
		for i, label := range v.Labels {
			seq[i] = TimedEvent{Time: int64(i), Label: label}
		}
		out = append(out, seq)
	}
	return out
}
