package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/promptbench/promptbench/internal/models"
	"github.com/promptbench/promptbench/internal/statistics"
)

// printComparison writes a per-problem technique comparison table followed
// by the selection verdict.
func printComparison(w io.Writer, result *models.BenchmarkResult) {
	fmt.Fprintf(w, "\nProblem: %s\n", result.Problem) //nolint:errcheck
	if result.GroundTruth != nil {
		fmt.Fprintf(w, "Expected: %s\n", *result.GroundTruth) //nolint:errcheck
	}

	if len(result.Comparison) == 0 {
		fmt.Fprintln(w, "No technique produced a usable result:") //nolint:errcheck
		for _, tech := range sortedTechniques(result) {
			tr := result.Results[tech]
			fmt.Fprintf(w, "  %s: %s\n", tech, tr.ErrorMsg) //nolint:errcheck
		}
		return
	}

	headers := []string{"TECHNIQUE", "ACCURACY", "COMPLETENESS", "EFFICIENCY", "OVERALL", "TIME", "TOKENS"}
	rows := make([][]string, 0, len(result.Comparison))
	for _, rec := range result.Comparison {
		name := string(rec.Technique)
		if rec.Technique == result.BestTechnique {
			name += " *"
		}
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%.3f", rec.Accuracy),
			fmt.Sprintf("%.3f", rec.Completeness),
			fmt.Sprintf("%.3f", rec.Efficiency),
			fmt.Sprintf("%.3f", rec.Overall),
			fmt.Sprintf("%.2fs", rec.Latency),
			fmt.Sprintf("%d", rec.Tokens),
		})
	}
	printTable(w, headers, rows)

	fmt.Fprintf(w, "Best technique: %s (%s)\n", result.BestTechnique, result.SelectionSource) //nolint:errcheck
	if result.SelectionSource == models.SelectionHistory && result.SelectionDetails != nil {
		fmt.Fprintf(w, "History override: %d prior runs for domain %q\n", //nolint:errcheck
			historySamples(result.SelectionDetails), result.SelectionDetails.Domain)
	}
	if len(result.Comparison) >= 2 {
		gain := statistics.NormalizedGain(result.Comparison[1].Overall, result.Comparison[0].Overall)
		fmt.Fprintf(w, "Normalized gain over runner-up: %+.1f%%\n", gain*100) //nolint:errcheck
	}

	// Failed techniques do not appear in the comparison table.
	for _, tech := range sortedTechniques(result) {
		tr := result.Results[tech]
		if !tr.Success {
			fmt.Fprintf(w, "Failed: %s: %s\n", tech, tr.ErrorMsg) //nolint:errcheck
		}
	}
}

// printTable writes rows with columns padded to their display width.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	writeRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = padRight(cell, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " ")) //nolint:errcheck
	}

	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

func sortedTechniques(result *models.BenchmarkResult) []models.Technique {
	techs := make([]models.Technique, 0, len(result.Results))
	for tech := range result.Results {
		techs = append(techs, tech)
	}
	sort.Slice(techs, func(i, j int) bool { return techs[i] < techs[j] })
	return techs
}

func historySamples(selection *models.HistorySelection) int {
	total := 0
	for _, rank := range selection.Ranking {
		total += rank.Samples
	}
	return total
}
