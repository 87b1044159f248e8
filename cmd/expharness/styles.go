package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"expharness/internal/campaign"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
)

// renderSummary formats the completion report of one campaign.
func renderSummary(t *campaign.Totals) string {
	status := okStyle.Render(fmt.Sprintf("%d succeeded", t.Succeeded))
	if t.Failed > 0 {
		status += ", " + warnStyle.Render(fmt.Sprintf("%d failed", t.Failed))
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s campaign complete", strings.ToUpper(string(t.Shape)))))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("campaign:"), t.CampaignID)
	fmt.Fprintf(&b, "%s %d experiments, %s (%s)\n", labelStyle.Render("runs:"),
		t.Attempted, status, t.Elapsed.Round(time.Second))
	fmt.Fprintf(&b, "%s %d\n", labelStyle.Render("summary rows:"), t.SummaryRows)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("results:"), t.Paths.Log)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("manifest:"), t.Paths.Manifest)
	fmt.Fprintf(&b, "%s %s", labelStyle.Render("summary:"), t.Paths.Summary)
	return boxStyle.Render(b.String())
}
