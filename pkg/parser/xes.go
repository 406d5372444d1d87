package parser

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/veralog/veralog/internal/model"
)

// XML element names
var (
	xmlLog    = []byte("log")
	xmlTrace  = []byte("trace")
	xmlEvent  = []byte("event")
	xmlValues = []byte("values")
	xmlString = []byte("string")
	xmlDate   = []byte("date")
	xmlInt    = []byte("int")
	xmlFloat  = []byte("float")
	xmlBool   = []byte("boolean")
)

// XES parser states
type xesState uint8

const (
	stateInit xesState = iota
	stateLog
	stateTrace
	stateEvent
	stateActivitySet
)

// XESParser implements streaming XES parsing using a state machine. It
// recognizes the uncertainty extension: an uncertain-label container with
// weighted children, interval timestamp attributes, and the
// missing-probability attribute.
type XESParser struct {
	cfg  Config
	keys model.Keys
}

// NewXESParser creates a new XES parser.
func NewXESParser(cfg Config) *XESParser {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = defaultBufferSize
	}
	return &XESParser{cfg: cfg, keys: cfg.Keys.Merge()}
}

// rawEvent accumulates one event's attributes until the closing tag.
type rawEvent struct {
	label        string
	alternatives []model.Alternative

	timestamp       int64
	hasTimestamp    bool
	timestampMin    int64
	hasTimestampMin bool
	timestampMax    int64
	hasTimestampMax bool

	missing    float64
	hasMissing bool
}

// Parse reads a full uncertain log. It returns an error on malformed XML,
// unparsable timestamps, or events missing both label and timestamp
// information; the uncertainty values themselves are passed through for
// the downstream pipeline to validate.
func (p *XESParser) Parse(ctx context.Context, r io.Reader) (*model.Log, error) {
	reader := bufio.NewReaderSize(r, p.cfg.BufferSize)

	log := &model.Log{}
	state := stateInit
	var (
		trace    *model.UncertainTrace
		current  *rawEvent
		position int
	)

	for {
		select {
		case <-ctx.Done():
			return nil, ErrContextCanceled
		default:
		}

		line, err := reader.ReadBytes('>')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if len(line) == 0 && err == io.EOF {
			break
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			if err == io.EOF {
				break
			}
			continue
		}

		switch {
		case isOpenTag(line, xmlLog):
			state = stateLog

		case isOpenTag(line, xmlTrace):
			state = stateTrace
			trace = &model.UncertainTrace{}
			position = 0

		case isCloseTag(line, xmlTrace):
			state = stateLog
			if trace != nil {
				log.Traces = append(log.Traces, *trace)
				trace = nil
			}

		case isOpenTag(line, xmlEvent):
			state = stateEvent
			current = &rawEvent{}

		case isCloseTag(line, xmlEvent):
			if current != nil && trace != nil {
				ev, convErr := p.finishEvent(current, position)
				if convErr != nil {
					return nil, convErr
				}
				trace.Events = append(trace.Events, ev)
				position++
				current = nil
			}
			state = stateTrace

		case state == stateActivitySet:
			if isEndTag(line, xmlString) {
				state = stateEvent
				break
			}
			if isOpenTag(line, xmlValues) || isCloseTag(line, xmlValues) {
				break
			}
			// Weighted child: the key is the label, the value its mass.
			key, value := extractAttribute(line)
			if key == nil || current == nil {
				break
			}
			weight, _ := strconv.ParseFloat(string(value), 64)
			current.alternatives = append(current.alternatives, model.Alternative{
				Label:  string(key),
				Weight: weight,
			})

		case state == stateTrace && isAttributeTag(line):
			key, value := extractAttribute(line)
			if trace != nil && bytes.Equal(key, []byte(p.keys.Activity)) {
				trace.CaseID = string(value)
			}

		case state == stateEvent && isAttributeTag(line):
			if current == nil {
				break
			}
			if next, attrErr := p.processEventAttribute(line, current); attrErr != nil {
				return nil, attrErr
			} else if next {
				state = stateActivitySet
			}
		}

		if err == io.EOF {
			break
		}
	}

	if state == stateInit {
		return nil, ErrInvalidXES
	}
	return log, nil
}

// processEventAttribute updates the event from one attribute element. The
// second return value signals entry into the uncertain-label container.
func (p *XESParser) processEventAttribute(line []byte, ev *rawEvent) (bool, error) {
	key, value := extractAttribute(line)
	if key == nil {
		return false, nil
	}

	switch string(key) {
	case p.keys.ActivitySet:
		// Container element: children carry the weighted labels.
		return !isSelfClosing(line), nil

	case p.keys.Activity:
		ev.label = string(value)

	case p.keys.Timestamp:
		ts, err := parseXESTimestamp(value)
		if err != nil {
			return false, err
		}
		ev.timestamp = ts
		ev.hasTimestamp = true

	case p.keys.TimestampMin:
		ts, err := parseXESTimestamp(value)
		if err != nil {
			return false, err
		}
		ev.timestampMin = ts
		ev.hasTimestampMin = true

	case p.keys.TimestampMax:
		ts, err := parseXESTimestamp(value)
		if err != nil {
			return false, err
		}
		ev.timestampMax = ts
		ev.hasTimestampMax = true

	case p.keys.Missing:
		m, err := strconv.ParseFloat(string(value), 64)
		if err != nil {
			return false, fmt.Errorf("%w: %s=%q", ErrInvalidXES, p.keys.Missing, value)
		}
		ev.missing = m
		ev.hasMissing = true
	}
	return false, nil
}

// finishEvent converts an accumulated raw event into the model type.
func (p *XESParser) finishEvent(raw *rawEvent, position int) (model.UncertainEvent, error) {
	var ev model.UncertainEvent

	switch {
	case len(raw.alternatives) > 0:
		ev.Activities = raw.alternatives
	case raw.label != "":
		ev.Activities = []model.Alternative{{Label: raw.label}}
	default:
		return ev, fmt.Errorf("%w (event %d)", ErrMissingActivity, position)
	}

	switch {
	case raw.hasTimestampMin && raw.hasTimestampMax:
		ev.Time = model.Interval{Min: raw.timestampMin, Max: raw.timestampMax}
		ev.TimeUncertain = true
	case raw.hasTimestamp:
		ev.Time = model.Interval{Min: raw.timestamp, Max: raw.timestamp}
	default:
		return ev, fmt.Errorf("%w (event %d)", ErrMissingTimestamp, position)
	}

	if raw.hasMissing {
		ev.Missing = raw.missing
	}
	return ev, nil
}

// isOpenTag checks if line is an opening tag for the given element.
func isOpenTag(line, element []byte) bool {
	if len(line) < len(element)+2 {
		return false
	}
	if line[0] != '<' {
		return false
	}
	if bytes.HasPrefix(line[1:], element) {
		next := 1 + len(element)
		if next >= len(line) {
			return true
		}
		c := line[next]
		return c == '>' || c == ' ' || c == '\t' || c == '/'
	}
	return false
}

// isCloseTag checks if line is a closing tag for the given element.
func isCloseTag(line, element []byte) bool {
	if len(line) < len(element)+3 {
		return false
	}
	// Check for </element>
	if line[0] == '<' && line[1] == '/' {
		return bytes.HasPrefix(line[2:], element)
	}
	// Check for self-closing <element ... />
	if line[0] == '<' && bytes.HasPrefix(line[1:], element) {
		return isSelfClosing(line)
	}
	return false
}

// isEndTag checks strictly for the </element> form.
func isEndTag(line, element []byte) bool {
	return len(line) >= len(element)+3 && line[0] == '<' && line[1] == '/' &&
		bytes.HasPrefix(line[2:], element)
}

// isSelfClosing checks for a <element ... /> form.
func isSelfClosing(line []byte) bool {
	return len(line) >= 2 && line[len(line)-2] == '/' && line[len(line)-1] == '>'
}

// isAttributeTag checks if line is an XES attribute element.
func isAttributeTag(line []byte) bool {
	if len(line) < 3 || line[0] != '<' {
		return false
	}
	return bytes.HasPrefix(line[1:], xmlString) ||
		bytes.HasPrefix(line[1:], xmlDate) ||
		bytes.HasPrefix(line[1:], xmlInt) ||
		bytes.HasPrefix(line[1:], xmlFloat) ||
		bytes.HasPrefix(line[1:], xmlBool)
}

// extractAttribute extracts key and value from an XES attribute element.
func extractAttribute(line []byte) (key, value []byte) {
	key = extractAttrValue(line, []byte("key=\""))
	value = extractAttrValue(line, []byte("value=\""))
	return key, value
}

// extractAttrValue extracts an XML attribute value.
func extractAttrValue(line, prefix []byte) []byte {
	idx := bytes.Index(line, prefix)
	if idx < 0 {
		return nil
	}
	start := idx + len(prefix)
	end := bytes.IndexByte(line[start:], '"')
	if end < 0 {
		return nil
	}
	return line[start : start+end]
}

// parseXESTimestamp parses XES timestamp formats to nanoseconds.
func parseXESTimestamp(ts []byte) (int64, error) {
	formats := []string{
		"2006-01-02T15:04:05.000Z07:00",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
	}

	tsStr := string(ts)
	for _, format := range formats {
		t, err := time.Parse(format, tsStr)
		if err == nil {
			return t.UnixNano(), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, tsStr)
}
