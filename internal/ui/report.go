package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	reportTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Underline(true)

	reportLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "246"})

	reportIssueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("9"))

	reportOKStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))
)

// ValidationReport renders the --validate output: resolution source,
// per-entry issues, and a summary line. Returns the rendered string; the
// caller decides the destination writer.
func ValidationReport(source string, resolved []string, issues []string) string {
	var sb strings.Builder

	sb.WriteString(reportTitleStyle.Render("sessionizer configuration check"))
	sb.WriteString("\n\n")

	sb.WriteString(reportLabelStyle.Render("source: "))
	sb.WriteString(source)
	sb.WriteString("\n")

	sb.WriteString(reportLabelStyle.Render("resolved directories:"))
	sb.WriteString("\n")
	if len(resolved) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, dir := range resolved {
		sb.WriteString(fmt.Sprintf("  %s\n", dir))
	}
	sb.WriteString("\n")

	if len(issues) == 0 {
		sb.WriteString(reportOKStyle.Render("no issues found"))
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString(reportLabelStyle.Render(fmt.Sprintf("%d issue(s):", len(issues))))
	sb.WriteString("\n")
	for i, issue := range issues {
		sb.WriteString(reportIssueStyle.Render(fmt.Sprintf("  %d. %s", i+1, issue)))
		sb.WriteString("\n")
	}

	return sb.String()
}
