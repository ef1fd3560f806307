package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/EsotericMat/TheLonelyTraderDesk/desk"
)

var (
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD166"))
	headStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	approvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#06D6A0"))
	rejectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// Progress returns the line printed after a step completes.
func Progress(step string) string {
	return progressStyle.Render(fmt.Sprintf("[Step Completed: %s]", step))
}

// Render frames the final report of a run.
func Render(r *desk.Result) string {
	var lines []string

	lines = append(lines,
		titleStyle.Render(fmt.Sprintf("FINAL REPORT FOR: %s", r.Ticker)),
		mutedStyle.Render(fmt.Sprintf("run %s | %d iteration(s) | %s", r.RunID, r.Iterations, strings.Join(r.Path, " > "))),
		"",
		headStyle.Render("Analysis"),
		r.Analysis,
		"",
		headStyle.Render("Critic's final verdict"),
		verdict(r),
	)

	return boxStyle.Render(strings.Join(lines, "\n"))
}

func verdict(r *desk.Result) string {
	switch {
	case r.Approved:
		return approvedStyle.Render(r.Feedback)
	case r.Capped:
		return rejectedStyle.Render(r.Feedback) + "\n" +
			mutedStyle.Render(fmt.Sprintf("(stopped after %d iterations without approval)", r.Iterations))
	default:
		return rejectedStyle.Render(r.Feedback)
	}
}
