// Package tui renders command-line output for veralog.
// Simple, streaming, no complex TUI - just clean styled output.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/veralog/veralog/pkg/mining"
	"github.com/veralog/veralog/pkg/realization"
)

// Colors (Swiss minimal)
var (
	accent  = lipgloss.Color("#FF0000")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
)

// PrintHeader prints the program banner.
func PrintHeader(version string) {
	fmt.Println()
	fmt.Println(titleStyle.Render("  VERALOG") + mutedStyle.Render(" v"+version))
	fmt.Println(mutedStyle.Render("  Realization sets for uncertain event logs"))
	fmt.Println()
}

// PrintSet prints one trace's realization set, most probable variant first
// when probabilities were computed.
func PrintSet(caseID string, set *realization.Set) {
	fmt.Println()
	fmt.Println(accentStyle.Render("▸ " + caseID))

	variants := append([]realization.Variant(nil), set.Variants...)
	if set.WithProbability {
		sort.SliceStable(variants, func(i, j int) bool {
			return variants[i].Probability > variants[j].Probability
		})
	}

	for _, v := range variants {
		seq := strings.Join(v.Labels, " → ")
		if seq == "" {
			seq = "(empty)"
		}
		if set.WithProbability {
			mark := ""
			if !v.Converged {
				mark = accentStyle.Render(" ~")
			}
			fmt.Printf("  %s  %s%s\n", titleStyle.Render(fmt.Sprintf("%.4f", v.Probability)), seq, mark)
		} else {
			fmt.Printf("  %s\n", seq)
		}
	}

	if set.WithProbability {
		fmt.Println(mutedStyle.Render(fmt.Sprintf("  total %.4f over %d variants", set.TotalProbability(), len(variants))))
	} else {
		fmt.Println(mutedStyle.Render(fmt.Sprintf("  %d variants", len(variants))))
	}
}

// PrintItemsets prints mined frequent itemsets per support pair.
func PrintItemsets(results map[mining.SupportPair][]mining.Itemset) {
	pairs := make([]mining.SupportPair, 0, len(results))
	for pair := range results {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Min != pairs[j].Min {
			return pairs[i].Min < pairs[j].Min
		}
		return pairs[i].Max < pairs[j].Max
	})

	for _, pair := range pairs {
		fmt.Println()
		fmt.Println(accentStyle.Render(fmt.Sprintf("▸ support [%.2f, %.2f]", pair.Min, pair.Max)))
		for _, set := range results[pair] {
			fmt.Printf("  {%s}  %s\n",
				strings.Join(set.Items, ", "),
				mutedStyle.Render(fmt.Sprintf("[%.2f, %.2f]", set.MinSupport, set.MaxSupport)))
		}
		if len(results[pair]) == 0 {
			fmt.Println(mutedStyle.Render("  no frequent itemsets"))
		}
	}
}

// PrintEpisodes prints mined episodes level by level.
func PrintEpisodes(levels [][]mining.Episode, matcher string) {
	fmt.Println()
	fmt.Println(accentStyle.Render("▸ " + matcher + " episodes"))
	for k, level := range levels {
		fmt.Println(mutedStyle.Render(fmt.Sprintf("  size %d", k+1)))
		for _, ep := range level {
			fmt.Printf("    %s  %s\n",
				strings.Join(ep.Items, " "),
				mutedStyle.Render(fmt.Sprintf("[%.2f, %.2f]", ep.MinSupport, ep.MaxSupport)))
		}
	}
}

// RunReportSummary summarizes a finished run.
type RunReportSummary struct {
	Traces   int
	Variants int
	Failed   int
	Duration time.Duration
}

// PrintSummary prints the closing summary line.
func PrintSummary(s RunReportSummary) {
	fmt.Println()
	fmt.Println(successStyle.Render("  ✓ DONE"))
	fmt.Printf("  %s %s  %s %s  %s %s\n",
		mutedStyle.Render("traces:"), titleStyle.Render(fmt.Sprintf("%d", s.Traces)),
		mutedStyle.Render("variants:"), titleStyle.Render(fmt.Sprintf("%d", s.Variants)),
		mutedStyle.Render("time:"), titleStyle.Render(formatDuration(s.Duration)))
	if s.Failed > 0 {
		fmt.Println(accentStyle.Render(fmt.Sprintf("  %d traces failed", s.Failed)))
	}
	fmt.Println()
}

// PrintError prints a styled error line.
func PrintError(err error) {
	fmt.Println(accentStyle.Render("  ✗ " + err.Error()))
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

// ShowProgress creates a progress bar for processing.
func ShowProgress(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
