// Package model defines core data structures for veralog.
package model

import "time"

// Alternative is one possible activity label of an uncertain event,
// together with its probability mass. A Weight of zero means the mass is
// unspecified and alternatives are treated as uniform.
type Alternative struct {
	Label  string
	Weight float64
}

// Interval is a closed timestamp interval in nanoseconds since Unix epoch.
// A certain timestamp is the degenerate interval Min == Max.
type Interval struct {
	Min int64
	Max int64
}

// Degenerate reports whether the interval collapses to a single instant.
func (iv Interval) Degenerate() bool { return iv.Min == iv.Max }

// Duration returns the interval width.
func (iv Interval) Duration() time.Duration { return time.Duration(iv.Max - iv.Min) }

// Overlaps reports whether two intervals share at least one instant.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Min <= other.Max && other.Min <= iv.Max
}

// UncertainEvent is a recorded event whose activity label, occurrence time,
// or very existence may be ambiguous.
type UncertainEvent struct {
	// Activities holds the label alternatives. Always non-empty; a single
	// entry with Weight 0 models a certain label.
	Activities []Alternative

	// Time is the occurrence interval. Degenerate for certain timestamps.
	Time Interval

	// TimeUncertain is true when Time was recorded as an explicit
	// [min, max] interval rather than a single instant.
	TimeUncertain bool

	// Missing is the probability that the event did not occur at all.
	// Zero for determinate events.
	Missing float64
}

// Weighted reports whether the label alternatives carry explicit
// probability mass.
func (e *UncertainEvent) Weighted() bool {
	for _, a := range e.Activities {
		if a.Weight != 0 {
			return true
		}
	}
	return false
}

// Indeterminate reports whether the event may be missing from the trace.
func (e *UncertainEvent) Indeterminate() bool { return e.Missing > 0 }

// Labels returns the label alternatives in recorded order.
func (e *UncertainEvent) Labels() []string {
	labels := make([]string, len(e.Activities))
	for i, a := range e.Activities {
		labels[i] = a.Label
	}
	return labels
}

// CertainEvent builds an event with a single certain label and instant.
func CertainEvent(label string, ts int64) UncertainEvent {
	return UncertainEvent{
		Activities: []Alternative{{Label: label}},
		Time:       Interval{Min: ts, Max: ts},
	}
}

// UncertainTrace is an ordered sequence of uncertain events. The order
// reflects recording order, not necessarily temporal order.
type UncertainTrace struct {
	CaseID string
	Events []UncertainEvent
}

// Log is a collection of uncertain traces.
type Log struct {
	Name   string
	Traces []UncertainTrace
}
