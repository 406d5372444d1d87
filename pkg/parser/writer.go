package parser

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/veralog/veralog/internal/model"
)

// xesTimestampLayout is the canonical XES date format emitted on export.
const xesTimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// XESWriter serializes uncertain logs back to XES, including the
// uncertainty extension attributes the parser reads.
type XESWriter struct {
	keys model.Keys
}

// NewXESWriter creates a writer using the given attribute keys.
func NewXESWriter(keys model.Keys) *XESWriter {
	return &XESWriter{keys: keys.Merge()}
}

// Write serializes the log. Output round-trips through Parse.
func (w *XESWriter) Write(out io.Writer, log *model.Log) error {
	bw := bufio.NewWriter(out)

	fmt.Fprintln(bw, `<?xml version="1.0" encoding="UTF-8"?>`)
	fmt.Fprintln(bw, `<log xes.version="1.0" xes.features="nested-attributes">`)

	for i := range log.Traces {
		w.writeTrace(bw, &log.Traces[i])
	}

	fmt.Fprintln(bw, `</log>`)
	return bw.Flush()
}

func (w *XESWriter) writeTrace(bw *bufio.Writer, trace *model.UncertainTrace) {
	fmt.Fprintln(bw, "\t<trace>")
	if trace.CaseID != "" {
		fmt.Fprintf(bw, "\t\t<string key=%q value=%q/>\n", w.keys.Activity, trace.CaseID)
	}
	for i := range trace.Events {
		w.writeEvent(bw, &trace.Events[i])
	}
	fmt.Fprintln(bw, "\t</trace>")
}

func (w *XESWriter) writeEvent(bw *bufio.Writer, ev *model.UncertainEvent) {
	fmt.Fprintln(bw, "\t\t<event>")

	fmt.Fprintf(bw, "\t\t\t<string key=%q value=%q/>\n", w.keys.Activity, ev.Activities[0].Label)
	if len(ev.Activities) > 1 {
		fmt.Fprintf(bw, "\t\t\t<string key=%q value=\"\">\n", w.keys.ActivitySet)
		fmt.Fprintln(bw, "\t\t\t\t<values>")
		for _, alt := range ev.Activities {
			fmt.Fprintf(bw, "\t\t\t\t\t<float key=%q value=\"%g\"/>\n", alt.Label, alt.Weight)
		}
		fmt.Fprintln(bw, "\t\t\t\t</values>")
		fmt.Fprintln(bw, "\t\t\t</string>")
	}

	if ev.TimeUncertain {
		fmt.Fprintf(bw, "\t\t\t<date key=%q value=%q/>\n", w.keys.TimestampMin, formatXESTimestamp(ev.Time.Min))
		fmt.Fprintf(bw, "\t\t\t<date key=%q value=%q/>\n", w.keys.TimestampMax, formatXESTimestamp(ev.Time.Max))
	} else {
		fmt.Fprintf(bw, "\t\t\t<date key=%q value=%q/>\n", w.keys.Timestamp, formatXESTimestamp(ev.Time.Min))
	}

	if ev.Missing > 0 {
		fmt.Fprintf(bw, "\t\t\t<float key=%q value=\"%g\"/>\n", w.keys.Missing, ev.Missing)
	}

	fmt.Fprintln(bw, "\t\t</event>")
}

func formatXESTimestamp(nanos int64) string {
	return time.Unix(0, nanos).UTC().Format(xesTimestampLayout)
}
