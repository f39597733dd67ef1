// Package render prints an originality report to the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/doc2book/originality/internal/report"
)

// Colors matching the dark dashboard theme.
const (
	colorGreen  = "#3fb950"
	colorRed    = "#f85149"
	colorYellow = "#d29922"
	colorGray   = "#8b949e"
	colorBright = "#f0f6fc"
	colorBorder = "#30363d"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorBright))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray))

	goodStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorGreen))

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorYellow))

	badStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorRed))

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorBorder)).
			Padding(0, 1)
)

// Report renders rep as styled terminal text.
func Report(rep *report.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("原创性检测报告"))
	b.WriteString("\n\n")

	if !rep.Success {
		b.WriteString(badStyle.Render(rep.Summary))
		if rep.Error != "" {
			b.WriteString("\n" + labelStyle.Render(rep.Error))
		}
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("%s %s\n",
		labelStyle.Render("原创度"),
		scoreStyle(rep.OriginalityScore).Render(fmt.Sprintf("%.1f%%", rep.OriginalityScore*100))))
	b.WriteString(fmt.Sprintf("%s %s\n",
		labelStyle.Render("相似度"),
		scoreStyle(1-rep.OverallScore).Render(fmt.Sprintf("%.1f%%", rep.OverallScore*100))))
	b.WriteString(fmt.Sprintf("%s %d 字符\n\n", labelStyle.Render("检测范围"), rep.TotalChecked))

	b.WriteString(rep.Summary)
	b.WriteString("\n")

	for i, s := range rep.FlaggedSections {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render(fmt.Sprintf("片段 %d", i+1)),
			badStyle.Render(fmt.Sprintf("相似度 %.1f%%", s.Similarity*100))))
		sb.WriteString(excerpt(s.Text) + "\n")
		sb.WriteString(labelStyle.Render("来源: ") + excerpt(s.Source))
		if s.Suggestion != "" {
			sb.WriteString("\n" + labelStyle.Render("建议: ") + excerpt(s.Suggestion))
		}
		b.WriteString("\n" + sectionStyle.Render(sb.String()) + "\n")
	}

	return b.String()
}

// scoreStyle colors a goodness value: green is safe, red is trouble.
func scoreStyle(goodness float64) lipgloss.Style {
	switch {
	case goodness >= 0.8:
		return goodStyle
	case goodness >= 0.5:
		return warnStyle
	default:
		return badStyle
	}
}

func excerpt(s string) string {
	const limit = 120
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
