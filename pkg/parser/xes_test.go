package parser

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/veralog/veralog/internal/model"
)

const certainXES = `<?xml version="1.0" encoding="UTF-8"?>
<log xes.version="1.0">
	<trace>
		<string key="concept:name" value="case1"/>
		<event>
			<string key="concept:name" value="A"/>
			<date key="time:timestamp" value="2024-03-01T10:00:00.000Z"/>
		</event>
		<event>
			<string key="concept:name" value="B"/>
			<date key="time:timestamp" value="2024-03-01T11:00:00.000Z"/>
		</event>
	</trace>
</log>`

const uncertainXES = `<?xml version="1.0" encoding="UTF-8"?>
<log xes.version="1.0" xes.features="nested-attributes">
	<trace>
		<string key="concept:name" value="case1"/>
		<event>
			<string key="concept:name" value="A"/>
			<string key="uncertainty:name" value="">
				<values>
					<float key="A" value="0.6"/>
					<float key="Z" value="0.4"/>
				</values>
			</string>
			<date key="time:timestamp" value="2024-03-01T10:00:00.000Z"/>
		</event>
		<event>
			<string key="concept:name" value="B"/>
			<date key="uncertainty:time:timestamp_min" value="2024-03-01T10:30:00.000Z"/>
			<date key="uncertainty:time:timestamp_max" value="2024-03-01T11:30:00.000Z"/>
			<float key="uncertainty:entry" value="0.25"/>
		</event>
	</trace>
</log>`

func parse(t *testing.T, doc string) *model.Log {
	t.Helper()
	p := NewXESParser(Config{})
	log, err := p.Parse(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return log
}

func TestParse_CertainLog(t *testing.T) {
	log := parse(t, certainXES)

	if len(log.Traces) != 1 {
		t.Fatalf("traces = %d, want 1", len(log.Traces))
	}
	trace := log.Traces[0]
	if trace.CaseID != "case1" {
		t.Errorf("CaseID = %q, want case1", trace.CaseID)
	}
	if len(trace.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(trace.Events))
	}

	a := trace.Events[0]
	if len(a.Activities) != 1 || a.Activities[0].Label != "A" {
		t.Errorf("event 0 activities = %v, want [A]", a.Activities)
	}
	if a.TimeUncertain || a.Missing != 0 {
		t.Error("event 0 must be fully certain")
	}

	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).UnixNano()
	if a.Time.Min != want || a.Time.Max != want {
		t.Errorf("event 0 time = %v, want degenerate %d", a.Time, want)
	}
}

func TestParse_UncertaintyExtension(t *testing.T) {
	log := parse(t, uncertainXES)
	trace := log.Traces[0]
	if len(trace.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(trace.Events))
	}

	a := trace.Events[0]
	if len(a.Activities) != 2 {
		t.Fatalf("event 0 alternatives = %d, want 2", len(a.Activities))
	}
	if a.Activities[0].Label != "A" || a.Activities[0].Weight != 0.6 {
		t.Errorf("alternative 0 = %+v, want A/0.6", a.Activities[0])
	}
	if a.Activities[1].Label != "Z" || a.Activities[1].Weight != 0.4 {
		t.Errorf("alternative 1 = %+v, want Z/0.4", a.Activities[1])
	}

	b := trace.Events[1]
	if !b.TimeUncertain {
		t.Error("event 1 must have an interval timestamp")
	}
	lo := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC).UnixNano()
	hi := time.Date(2024, 3, 1, 11, 30, 0, 0, time.UTC).UnixNano()
	if b.Time.Min != lo || b.Time.Max != hi {
		t.Errorf("event 1 interval = %v, want [%d, %d]", b.Time, lo, hi)
	}
	if b.Missing != 0.25 {
		t.Errorf("event 1 missing = %v, want 0.25", b.Missing)
	}
}

func TestParse_MissingTimestamp(t *testing.T) {
	doc := `<log><trace><event>
		<string key="concept:name" value="A"/>
	</event></trace></log>`

	p := NewXESParser(Config{})
	_, err := p.Parse(context.Background(), strings.NewReader(doc))
	if !errors.Is(err, ErrMissingTimestamp) {
		t.Errorf("err = %v, want ErrMissingTimestamp", err)
	}
}

func TestParse_MissingActivity(t *testing.T) {
	doc := `<log><trace><event>
		<date key="time:timestamp" value="2024-03-01T10:00:00.000Z"/>
	</event></trace></log>`

	p := NewXESParser(Config{})
	_, err := p.Parse(context.Background(), strings.NewReader(doc))
	if !errors.Is(err, ErrMissingActivity) {
		t.Errorf("err = %v, want ErrMissingActivity", err)
	}
}

func TestParse_InvalidTimestamp(t *testing.T) {
	doc := `<log><trace><event>
		<string key="concept:name" value="A"/>
		<date key="time:timestamp" value="not-a-date"/>
	</event></trace></log>`

	p := NewXESParser(Config{})
	_, err := p.Parse(context.Background(), strings.NewReader(doc))
	if !errors.Is(err, ErrInvalidTimestamp) {
		t.Errorf("err = %v, want ErrInvalidTimestamp", err)
	}
}

func TestParse_NotXES(t *testing.T) {
	p := NewXESParser(Config{})
	_, err := p.Parse(context.Background(), strings.NewReader("plain text, no tags"))
	if !errors.Is(err, ErrInvalidXES) {
		t.Errorf("err = %v, want ErrInvalidXES", err)
	}
}

func TestParse_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewXESParser(Config{})
	_, err := p.Parse(ctx, strings.NewReader(certainXES))
	if !errors.Is(err, ErrContextCanceled) {
		t.Errorf("err = %v, want ErrContextCanceled", err)
	}
}

func TestParse_CustomKeys(t *testing.T) {
	doc := `<log><trace><event>
		<string key="activity" value="A"/>
		<date key="ts" value="2024-03-01T10:00:00.000Z"/>
	</event></trace></log>`

	p := NewXESParser(Config{Keys: model.Keys{Activity: "activity", Timestamp: "ts"}})
	log, err := p.Parse(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if log.Traces[0].Events[0].Activities[0].Label != "A" {
		t.Errorf("label = %q, want A", log.Traces[0].Events[0].Activities[0].Label)
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	original := parse(t, uncertainXES)

	var buf bytes.Buffer
	w := NewXESWriter(model.DefaultKeys())
	if err := w.Write(&buf, original); err != nil {
		t.Fatalf("Write: %v", err)
	}

	reparsed := parse(t, buf.String())
	if len(reparsed.Traces) != len(original.Traces) {
		t.Fatalf("traces = %d, want %d", len(reparsed.Traces), len(original.Traces))
	}

	for ti := range original.Traces {
		ot, rt := original.Traces[ti], reparsed.Traces[ti]
		if ot.CaseID != rt.CaseID {
			t.Errorf("trace %d CaseID = %q, want %q", ti, rt.CaseID, ot.CaseID)
		}
		if len(ot.Events) != len(rt.Events) {
			t.Fatalf("trace %d events = %d, want %d", ti, len(rt.Events), len(ot.Events))
		}
		for ei := range ot.Events {
			oe, re := ot.Events[ei], rt.Events[ei]
			if len(oe.Activities) != len(re.Activities) {
				t.Errorf("event %d alternatives = %d, want %d", ei, len(re.Activities), len(oe.Activities))
				continue
			}
			for ai := range oe.Activities {
				if oe.Activities[ai] != re.Activities[ai] {
					t.Errorf("event %d alternative %d = %+v, want %+v", ei, ai, re.Activities[ai], oe.Activities[ai])
				}
			}
			if oe.Time != re.Time || oe.TimeUncertain != re.TimeUncertain {
				t.Errorf("event %d time = %v/%v, want %v/%v", ei, re.Time, re.TimeUncertain, oe.Time, oe.TimeUncertain)
			}
			if oe.Missing != re.Missing {
				t.Errorf("event %d missing = %v, want %v", ei, re.Missing, oe.Missing)
			}
		}
	}
}
