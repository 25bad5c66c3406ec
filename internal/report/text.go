package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/okian/clipscore/internal/domain/scoring"
)

const barWidth = 20

type textStyles struct {
	header lipgloss.Style
	label  lipgloss.Style
	good   lipgloss.Style
	fair   lipgloss.Style
	poor   lipgloss.Style
	muted  lipgloss.Style
	warn   lipgloss.Style
}

func newTextStyles(color bool) textStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return textStyles{header: plain, label: plain, good: plain, fair: plain, poor: plain, muted: plain, warn: plain}
	}
	return textStyles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label:  lipgloss.NewStyle().Bold(true),
		good:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		fair:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		poor:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	}
}

// scoreStyle picks the colour band of a [0,100] value.
func (s textStyles) scoreStyle(v float64) lipgloss.Style {
	switch {
	case v >= 75:
		return s.good
	case v >= 50:
		return s.fair
	default:
		return s.poor
	}
}

func renderBar(v float64) string {
	filled := int(v / 100 * barWidth)
	filled = max(0, min(barWidth, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func renderText(exp scoring.Explanation, color bool) string {
	st := newTextStyles(color)
	res := exp.Result
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n", st.header.Render("clipscore "+res.Version), st.label.Render(res.VideoID))
	fmt.Fprintf(&b, "%s %s\n", st.label.Render("Overall:"), st.scoreStyle(res.Overall).Render(fmt.Sprintf("%.2f", res.Overall)))
	if res.Normalized != nil {
		fmt.Fprintf(&b, "%s %.2f %s\n", st.label.Render("Normalized:"), res.Normalized.Overall,
			st.muted.Render(fmt.Sprintf("(raw %.2f±%.2f → %.2f±%.2f)",
				res.Normalized.RawMean, res.Normalized.RawStd, res.Normalized.TargetMean, res.Normalized.TargetStd)))
	}
	b.WriteString("\n")

	for _, d := range exp.Dimensions {
		fmt.Fprintf(&b, "  %-13s %s %6.2f  %s\n",
			d.Dimension,
			st.scoreStyle(d.Value).Render(renderBar(d.Value)),
			d.Value,
			st.muted.Render(fmt.Sprintf("× %.2f = %.2f", d.Weight, d.Weighted)),
		)
		for _, a := range d.Adjustments {
			fmt.Fprintf(&b, "      %s\n", st.muted.Render(fmt.Sprintf("%+6.2f %s", a.Points, a.Rule)))
		}
	}

	p := res.PenaltyBreakdown
	fmt.Fprintf(&b, "\n%s -%.2f", st.label.Render("Penalties:"), res.Penalties)
	if res.Penalties > 0 {
		fmt.Fprintf(&b, " %s", st.muted.Render(fmt.Sprintf("(spam %.0f, low quality %.0f, length %.0f, formatting %.0f)",
			p.SpamIndicators, p.LowQualitySignals, p.ExcessiveLength, p.PoorFormatting)))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %.2f\n", st.label.Render("Confidence:"), res.Diagnostics.OverallConfidence)
	if len(res.Diagnostics.Missing) > 0 {
		fmt.Fprintf(&b, "%s %s\n", st.label.Render("Missing:"), strings.Join(res.Diagnostics.Missing, ", "))
	}
	var flags []string
	if res.Flags.Incomplete {
		flags = append(flags, "incomplete")
	}
	if res.Flags.LowConfidence {
		flags = append(flags, "low confidence")
	}
	if len(flags) > 0 {
		fmt.Fprintf(&b, "%s %s\n", st.label.Render("Flags:"), st.warn.Render(strings.Join(flags, ", ")))
	}
	return b.String()
}
