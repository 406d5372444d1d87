// Package core runs realization computation across whole uncertain logs.
// Traces are independent, so the work is dispatched to a bounded worker
// pool with no shared mutable state.
package core

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/veralog/veralog/internal/model"
	"github.com/veralog/veralog/pkg/realization"
)

// tracerName identifies this package's spans.
const tracerName = "github.com/veralog/veralog/pkg/core"

// RunOptions configures a log-wide run.
type RunOptions struct {
	realization.Options

	// Workers bounds the number of traces processed concurrently.
	// Zero means one worker per CPU.
	Workers int

	// Progress, when set, is called after each trace completes. It must be
	// safe for concurrent use.
	Progress func(done, total int)
}

// TraceResult is the outcome for a single trace. Exactly one of Result and
// Err is set: a failed trace never yields partial results.
type TraceResult struct {
	CaseID string
	Result *realization.Result
	Err    error
}

// RunReport collects the per-trace outcomes of one run.
type RunReport struct {
	// RunID uniquely identifies the run in telemetry and reports.
	RunID string

	// Results is indexed like the log's trace slice.
	Results []TraceResult

	Duration time.Duration
	Failed   int
}

// ComputeLog computes the realization set of every trace in the log.
//
// Validation and structural errors abort only the offending trace and are
// reported per trace; the other traces are unaffected. The returned error
// is non-nil only when the context is canceled.
func ComputeLog(ctx context.Context, log model.Log, opts RunOptions) (*RunReport, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	report := &RunReport{
		RunID:   uuid.NewString(),
		Results: make([]TraceResult, len(log.Traces)),
	}

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "core.ComputeLog")
	span.SetAttributes(
		attribute.String("run.id", report.RunID),
		attribute.String("log.name", log.Name),
		attribute.Int("log.traces", len(log.Traces)),
	)
	defer span.End()

	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var done atomic.Int64

	for i := range log.Traces {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			trace := log.Traces[i]
			_, tspan := tracer.Start(ctx, "core.ComputeTrace")
			tspan.SetAttributes(
				attribute.String("trace.case_id", trace.CaseID),
				attribute.Int("trace.events", len(trace.Events)),
			)
			defer tspan.End()

			res, err := realization.Compute(trace, opts.Options)
			report.Results[i] = TraceResult{CaseID: trace.CaseID, Result: res, Err: err}
			if err != nil {
				tspan.RecordError(err)
			}
			if opts.Progress != nil {
				opts.Progress(int(done.Add(1)), len(log.Traces))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	for i := range report.Results {
		if report.Results[i].Err != nil {
			report.Failed++
		}
	}
	return report, nil
}

// Sets extracts the successfully computed realization sets, grouped per
// trace, in log order. This is the "uncertain log" input shape the pattern
// mining layer consumes.
func (r *RunReport) Sets() []*realization.Set {
	sets := make([]*realization.Set, 0, len(r.Results))
	for i := range r.Results {
		if r.Results[i].Result != nil {
			sets = append(sets, &r.Results[i].Result.Set)
		}
	}
	return sets
}
