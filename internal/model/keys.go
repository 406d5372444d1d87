package model

// XES attribute keys for the uncertainty extension. These mirror the keys
// used by uncertainty-aware XES exporters: a weighted-children container for
// uncertain activity labels, a pair of date attributes for interval
// timestamps, and a float attribute for indeterminate events.
const (
	KeyActivity     = "concept:name"
	KeyTimestamp    = "time:timestamp"
	KeyTimestampMin = "uncertainty:time:timestamp_min"
	KeyTimestampMax = "uncertainty:time:timestamp_max"
	KeyActivitySet  = "uncertainty:name"
	KeyMissing      = "uncertainty:entry"
)

// Keys identifies which event attributes hold labels, timestamps, and the
// uncertainty extension values. Zero-value fields fall back to the defaults.
type Keys struct {
	Activity     string
	Timestamp    string
	TimestampMin string
	TimestampMax string
	ActivitySet  string
	Missing      string
}

// DefaultKeys returns the standard uncertainty extension keys.
func DefaultKeys() Keys {
	return Keys{
		Activity:     KeyActivity,
		Timestamp:    KeyTimestamp,
		TimestampMin: KeyTimestampMin,
		TimestampMax: KeyTimestampMax,
		ActivitySet:  KeyActivitySet,
		Missing:      KeyMissing,
	}
}

// Merge fills zero-value fields from the defaults.
func (k Keys) Merge() Keys {
	def := DefaultKeys()
	if k.Activity == "" {
		k.Activity = def.Activity
	}
	if k.Timestamp == "" {
		k.Timestamp = def.Timestamp
	}
	if k.TimestampMin == "" {
		k.TimestampMin = def.TimestampMin
	}
	if k.TimestampMax == "" {
		k.TimestampMax = def.TimestampMax
	}
	if k.ActivitySet == "" {
		k.ActivitySet = def.ActivitySet
	}
	if k.Missing == "" {
		k.Missing = def.Missing
	}
	return k
}
