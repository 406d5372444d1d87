package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/veralog/veralog/internal/model"
	"github.com/veralog/veralog/pkg/bewilder"
	"github.com/veralog/veralog/pkg/config"
	"github.com/veralog/veralog/pkg/core"
	"github.com/veralog/veralog/pkg/mining"
	"github.com/veralog/veralog/pkg/parser"
	"github.com/veralog/veralog/pkg/probability"
	"github.com/veralog/veralog/pkg/realization"
	"github.com/veralog/veralog/pkg/tui"
	"github.com/veralog/veralog/pkg/watch"
)

// resolveInput picks the input path from the positional argument or the
// --input flag.
func resolveInput(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if inputFile != "" {
		return inputFile, nil
	}
	return "", fmt.Errorf("no input file: pass a path or use --input")
}

// loadLog parses an uncertain XES file.
func loadLog(ctx context.Context, path string) (*model.Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := config.Global().Get()
	p := parser.NewXESParser(parser.Config{BufferSize: cfg.Parser.BufferSize})
	log, err := p.Parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	log.Name = path
	return log, nil
}

// runOptions assembles compute options from config and flags.
func runOptions() core.RunOptions {
	cfg := config.Global().Get()
	return core.RunOptions{
		Options: realization.Options{
			Probability: withProbability,
			Integration: probability.Options{
				AbsTol:     cfg.Integration.AbsTol,
				RelTol:     cfg.Integration.RelTol,
				MaxIter:    cfg.Integration.MaxIter,
				DiracDelta: cfg.Integration.DiracDelta,
			},
		},
		Workers: workers,
	}
}

func runRealizations(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	shutdown := setupTelemetry(ctx)
	defer shutdown(ctx)

	path, err := resolveInput(args)
	if err != nil {
		return err
	}
	log, err := loadLog(ctx, path)
	if err != nil {
		return err
	}

	tui.PrintHeader(version)

	opts := runOptions()
	bar := tui.ShowProgress(int64(len(log.Traces)), "computing")
	opts.Progress = func(done, total int) { bar.Set(done) }

	report, err := core.ComputeLog(ctx, *log, opts)
	if err != nil {
		return err
	}
	bar.Finish()

	variants := 0
	for i := range report.Results {
		r := &report.Results[i]
		if r.Err != nil {
			tui.PrintError(fmt.Errorf("%s: %w", r.CaseID, r.Err))
			continue
		}
		variants += len(r.Result.Set.Variants)
		tui.PrintSet(r.CaseID, &r.Result.Set)
	}

	tui.PrintSummary(tui.RunReportSummary{
		Traces:   len(report.Results),
		Variants: variants,
		Failed:   report.Failed,
		Duration: report.Duration,
	})
	return nil
}

func runBewilder(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	path, err := resolveInput(args)
	if err != nil {
		return err
	}
	log, err := loadLog(ctx, path)
	if err != nil {
		return err
	}

	b := bewilder.New(seed)
	if err := b.AddActivities(log, activityP, extraLabels, nil, true); err != nil {
		return err
	}
	if err := b.AddTimestamps(log, timestampP); err != nil {
		return err
	}
	if err := b.AddIndeterminate(log, indeterminateP, true); err != nil {
		return err
	}

	out, err := os.Create(outputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	w := parser.NewXESWriter(model.DefaultKeys())
	if err := w.Write(out, log); err != nil {
		return err
	}

	if verbose {
		fmt.Printf("wrote %s (%d traces)\n", outputFile, len(log.Traces))
	}
	return nil
}

func runMine(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	shutdown := setupTelemetry(ctx)
	defer shutdown(ctx)

	path, err := resolveInput(args)
	if err != nil {
		return err
	}
	log, err := loadLog(ctx, path)
	if err != nil {
		return err
	}

	// Probabilities are only needed for weighted support.
	withProbability = weightedFlag
	opts := runOptions()
	bar := tui.ShowProgress(int64(len(log.Traces)), "computing realizations")
	opts.Progress = func(done, total int) { bar.Set(done) }

	report, err := core.ComputeLog(ctx, *log, opts)
	if err != nil {
		return err
	}
	bar.Finish()

	sets := report.Sets()
	if len(sets) == 0 {
		return fmt.Errorf("no traces could be computed")
	}

	switch algorithmFlag {
	case "apriori":
		results := mining.Apriori(sets,
			[]mining.SupportPair{{Min: minSupport, Max: maxSupport}},
			mining.AprioriOptions{Weighted: weightedFlag})
		tui.PrintItemsets(results)

	case "winepi":
		var matcher mining.EpisodeMatcher
		switch matcherFlag {
		case "serial":
			matcher = mining.SerialMatcher{}
		case "parallel":
			matcher = mining.ParallelMatcher{}
		default:
			return fmt.Errorf("unknown matcher %q (serial, parallel)", matcherFlag)
		}
		miner := mining.NewWinEpi(matcher, windowWidth, windowStep, minSupport, maxSupport)
		for i := range report.Results {
			r := &report.Results[i]
			if r.Result == nil {
				continue
			}
			levels := miner.Mine(mining.SequencesFromSet(&r.Result.Set))
			fmt.Printf("\n%s\n", r.CaseID)
			tui.PrintEpisodes(levels, matcher.Name())
		}

	default:
		return fmt.Errorf("unknown algorithm %q (apriori, winepi)", algorithmFlag)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	shutdown := setupTelemetry(ctx)
	defer shutdown(ctx)

	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	w, err := watch.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	w.OnChange = func(path string) error {
		log, err := loadLog(ctx, path)
		if err != nil {
			return err
		}
		report, err := core.ComputeLog(ctx, *log, runOptions())
		if err != nil {
			return err
		}
		for i := range report.Results {
			r := &report.Results[i]
			if r.Err != nil {
				tui.PrintError(fmt.Errorf("%s: %w", r.CaseID, r.Err))
				continue
			}
			tui.PrintSet(r.CaseID, &r.Result.Set)
		}
		return nil
	}
	w.OnError = func(path string, err error) {
		tui.PrintError(fmt.Errorf("%s: %w", path, err))
	}

	if err := w.Watch(dir); err != nil {
		return err
	}

	fmt.Printf("watching %s for XES files\n", dir)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
