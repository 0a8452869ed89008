package surface

import (
	"fmt"
	"io"
	"os"

	"github.com/climascope/climascope/pkg/report"
	"github.com/climascope/climascope/pkg/sentiment"
)

// TerminalRenderer renders a report as colored terminal output.
type TerminalRenderer struct{}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

// meanColor colors a group mean by where it sits relative to the band.
func meanColor(v float64, t report.Thresholds) string {
	if noColor() {
		return ""
	}
	switch {
	case v < t.Low:
		return colorRed
	case v > t.High:
		return colorGreen
	default:
		return colorYellow
	}
}

func levelColor(l sentiment.AlertLevel) string {
	if l == sentiment.AlertLow {
		return colorRed
	}
	return colorGreen
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func (r *TerminalRenderer) Render(w io.Writer, rep *report.Report) error {
	fmt.Fprintf(w, "%s\n", bold(fmt.Sprintf("Climascope: work climate as of %s", rep.AsOf)))
	fmt.Fprintf(w, "%s\n\n", dim("run "+rep.RunID))

	if rep.NoData() {
		if rep.ResponseCount == 0 {
			fmt.Fprintln(w, "No free-text responses to analyze.")
		} else {
			fmt.Fprintf(w, "No resolvable sentiment in %d responses.\n", rep.ResponseCount)
		}
		return nil
	}

	fmt.Fprintf(w, "Analyzed: %d responses / %d groups", rep.ResponseCount, rep.GroupCount)
	if rep.UnresolvedCount > 0 {
		fmt.Fprintf(w, " / %d unresolved", rep.UnresolvedCount)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	if s := rep.Summary; s != nil {
		fmt.Fprintln(w, "Executive summary:")
		fmt.Fprintf(w, "  Lowest morale:  %s (%.2f)\n", bold(s.WorstGroup.String()), s.WorstValue)
		fmt.Fprintf(w, "  Highest morale: %s (%.2f)\n\n", bold(s.BestGroup.String()), s.BestValue)
	}

	width := 0
	for _, ag := range rep.Aggregates {
		if n := len(ag.Group.String()); n > width {
			width = n
		}
	}
	fmt.Fprintf(w, "Groups (%s):\n", dim(fmt.Sprintf("low < %.2f, high > %.2f", rep.Thresholds.Low, rep.Thresholds.High)))
	for _, ag := range rep.Aggregates {
		mean := fmt.Sprintf("%.2f", ag.MeanPolarity)
		fmt.Fprintf(w, "  %-*s  %s  %s\n", width, ag.Group.String(),
			colored(mean, meanColor(ag.MeanPolarity, rep.Thresholds)),
			dim(fmt.Sprintf("n=%d", ag.SampleCount)))
	}
	fmt.Fprintln(w)

	if len(rep.Alerts) == 0 {
		fmt.Fprintln(w, "No alerts.")
		return nil
	}
	fmt.Fprintln(w, "Alerts:")
	for _, a := range rep.Alerts {
		fmt.Fprintf(w, "  %s %s\n", colored("●", levelColor(a.Level)), a.Message)
	}
	return nil
}
