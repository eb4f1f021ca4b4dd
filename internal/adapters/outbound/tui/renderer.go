package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/openkraft/licensekraft/internal/domain"
)

// ── palette ──
var (
	accent  = lipgloss.Color("#D97706") // amber
	fg      = lipgloss.Color("#E8E6E3") // warm light gray
	dim     = lipgloss.Color("#6B7280") // muted gray
	faint   = lipgloss.Color("#3F3F46") // very dim
	success = lipgloss.Color("#22C55E") // green
	danger  = lipgloss.Color("#EF4444") // red
	warning = lipgloss.Color("#F59E0B") // amber-yellow
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	fileStyle     = lipgloss.NewStyle().Foreground(dim)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	scopeStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// RenderReport formats a verification report for terminal output.
func RenderReport(report *domain.Report) string {
	var b strings.Builder

	// ── Header ──
	title := headerStyle.Render("licensekraft")
	subtitle := dimStyle.Render("License Verification")
	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + statusBadge(report.Status)))
	b.WriteString("\n\n")

	meta := []string{dimStyle.Render(report.Root)}
	if report.CommitHash != "" {
		meta = append(meta, faintStyle.Render(shortHash(report.CommitHash)))
	}
	if report.Branch != "" {
		meta = append(meta, faintStyle.Render(report.Branch))
	}
	b.WriteString("  " + strings.Join(meta, "  ") + "\n\n")

	// ── Stages ──
	for _, o := range report.Outcomes {
		renderOutcome(&b, o)
	}

	if report.Attribution != "" {
		b.WriteString("\n")
		fmt.Fprintf(&b, "  %s %s\n", titleStyle.Render("Attribution"), dimStyle.Render(report.Attribution))
	}

	b.WriteString("\n")
	b.WriteString("  " + separatorLine)
	b.WriteString("\n\n")

	// ── Offenders ──
	if len(report.Offenders) > 0 {
		fmt.Fprintf(&b, "  %s  %s\n\n",
			titleStyle.Render("Missing copyright"),
			failStyle.Bold(true).Render(fmt.Sprintf("%d files", len(report.Offenders))),
		)
		for _, f := range report.Offenders {
			fmt.Fprintf(&b, "    %s %s\n", failStyle.Render("●"), fileStyle.Render(f))
		}
	} else if report.Status == domain.StatusPass {
		b.WriteString("  " + passStyle.Render("All checks passed.") + "\n")
	} else if o, ok := report.Failed(); ok {
		b.WriteString("  " + failStyle.Render("Failed at "+string(o.Stage)+": ") + o.Reason + "\n")
	}

	b.WriteString("\n")
	return b.String()
}

func renderOutcome(b *strings.Builder, o domain.Outcome) {
	icon := passStyle.Render("●")
	if !o.Passed() {
		icon = failStyle.Render("●")
	}

	stage := scopeStyle.Render(padRight(string(o.Stage), 14))
	fmt.Fprintf(b, "  %s %s %s\n", icon, stage, dimStyle.Render(o.Scope))

	if !o.Passed() && o.Reason != "" {
		fmt.Fprintf(b, "      %s\n", failStyle.Render(o.Reason))
	}
	if o.Stage == domain.StageCoverage {
		return
	}
	for _, d := range o.Details {
		fmt.Fprintf(b, "      %s\n", faintStyle.Render(d))
	}
}

func statusBadge(s domain.Status) string {
	style := lipgloss.NewStyle().Bold(true)
	if s == domain.StatusPass {
		return style.Foreground(success).Render(string(s))
	}
	return style.Foreground(danger).Render(string(s))
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// RenderHistory formats run history for terminal output.
func RenderHistory(entries []domain.RunEntry) string {
	if len(entries) == 0 {
		return "  " + dimStyle.Render("No verification history found.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Verification History") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")

	for _, e := range entries {
		hash := shortHash(e.CommitHash)
		if hash == "" {
			hash = "·······"
		}

		date := e.Timestamp
		if len(date) > 10 {
			date = date[:10]
		}

		line := fmt.Sprintf("  %s  %s  %s",
			dimStyle.Render(date),
			faintStyle.Render(hash),
			statusBadge(e.Status),
		)
		if e.FailedStage != "" {
			line += "  " + warnStyle.Render(string(e.FailedStage))
		}
		if e.FailureCode != "" {
			line += "  " + faintStyle.Render(e.FailureCode)
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}
