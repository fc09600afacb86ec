package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/piwi3910/softpdn/internal/engine"
	"github.com/piwi3910/softpdn/internal/model"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(16)
	styleHeader      = lipgloss.NewStyle().Bold(true).Foreground(colorGray)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconArrow   = "→"
)

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printResult prints the run summary: headline figures, then one line per
// metal layer and per via layer.
func printResult(w io.Writer, res model.Result) {
	fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("%s (%d x %d, %d layers)", res.Design, res.Width, res.Height, len(res.Layers))))
	printKeyValue(w, "run", res.RunID)
	printKeyValue(w, "iterations", fmt.Sprintf("%d", res.Settings.IterationMax))
	printKeyValue(w, "total area", fmt.Sprintf("%.2f", res.Stats.TotalArea()))

	for _, l := range res.Stats.Layers {
		line := fmt.Sprintf("%d bodies  area %s  pressure %.3f..%.3f",
			l.Bodies, StyleNumber.Render(fmt.Sprintf("%.2f", l.TotalArea)), l.MinPressure, l.MaxPressure)
		printKeyValue(w, fmt.Sprintf("metal %d", l.Layer), line)
	}
	for _, vl := range res.Stats.ViaLayers {
		var parts []string
		for _, st := range model.ViaStatuses() {
			if n := vl.Status[st]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s %d", strings.ToLower(st.String()), n))
			}
		}
		printKeyValue(w, fmt.Sprintf("via %d", vl.Layer), strings.Join(parts, "  "))
	}

	if n := len(res.Violations); n > 0 {
		printWarning(w, "%d clearance violations below %.2f", n, res.Settings.Clearance)
	}
}

// printComparison prints one row per scenario.
func printComparison(w io.Writer, results []engine.ComparisonResult) {
	header := fmt.Sprintf("%-24s %10s %8s %8s %8s %8s %10s", "scenario", "area", "empty", "broken", "stable", "clear", "max P")
	fmt.Fprintln(w, styleHeader.Render(header))
	for _, r := range results {
		if r.Err != nil {
			printError(w, "%-22s %v", r.Scenario.Name, r.Err)
			continue
		}
		fmt.Fprintf(w, "%-24s %10.2f %8d %8d %8d %8d %10.3f\n",
			r.Scenario.Name, r.TotalArea, r.EmptyVias, r.BrokenVias, r.StableVias, r.Violations, r.MaxPressure)
	}
}
