package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nvoss/chatgpt-offboard/internal/export"
)

var (
	styleHeading = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	styleCount = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	styleFailed = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	styleDim = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

func renderReport(r *export.Report, outputDir string, dryRun bool) string {
	var b strings.Builder

	heading := "Done."
	if dryRun {
		heading = "Dry run complete."
	}
	b.WriteString("\n" + styleHeading.Render(heading) + "\n")
	b.WriteString(styleCount.Render(fmt.Sprintf("  Written: %d", r.Written)) + "\n")
	if r.Renamed > 0 {
		b.WriteString(styleCount.Render(fmt.Sprintf("  Renamed: %d (archive state changed)", r.Renamed)) + "\n")
	}
	b.WriteString(styleCount.Render(fmt.Sprintf("  Skipped: %d (already existed)", r.Skipped)) + "\n")

	if r.Failed > 0 {
		b.WriteString(styleFailed.Render(fmt.Sprintf("  Failed:  %d", r.Failed)) + "\n")
		for _, f := range r.Failures {
			title := f.Title
			if title == "" {
				title = "(untitled)"
			}
			b.WriteString(styleFailed.Render(fmt.Sprintf("    %s  %s", f.ID, title)) + "\n")
			b.WriteString(styleDim.Render("      "+f.Reason) + "\n")
		}
	}

	b.WriteString(styleDim.Render("  Output:  "+outputDir) + "\n")
	return b.String()
}
