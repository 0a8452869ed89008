package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/climascope/climascope/pkg/report"
	"github.com/climascope/climascope/pkg/sentiment"
)

// MarkdownRenderer produces a shareable Markdown digest of a report.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(w io.Writer, rep *report.Report) error {
	_, err := io.WriteString(w, buildMarkdownSummary(rep))
	return err
}

func buildMarkdownSummary(rep *report.Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Work climate as of %s\n\n", rep.AsOf))

	if rep.NoData() {
		sb.WriteString("_No data to analyze._\n")
		return sb.String()
	}

	if s := rep.Summary; s != nil {
		sb.WriteString("### Executive summary\n\n")
		sb.WriteString(fmt.Sprintf("- Lowest morale: **%s** (%.2f)\n", s.WorstGroup, s.WorstValue))
		sb.WriteString(fmt.Sprintf("- Highest morale: **%s** (%.2f)\n\n", s.BestGroup, s.BestValue))
	}

	sb.WriteString("### Groups\n\n")
	sb.WriteString("| Group | Mean | Responses |\n|-------|------|-----------|\n")
	for _, ag := range rep.Aggregates {
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %d |\n", ag.Group, ag.MeanPolarity, ag.SampleCount))
	}
	sb.WriteString("\n")

	if len(rep.Alerts) > 0 {
		sb.WriteString("### Alerts\n\n")
		for _, a := range rep.Alerts {
			sb.WriteString(fmt.Sprintf("- %s %s\n", levelIcon(a.Level), a.Message))
		}
	}

	return sb.String()
}

func levelIcon(l sentiment.AlertLevel) string {
	if l == sentiment.AlertLow {
		return ":red_circle:"
	}
	return ":green_circle:"
}
