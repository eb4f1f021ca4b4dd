package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/openkraft/licensekraft/internal/domain"
)

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle          = lipgloss.NewStyle().Foreground(dim).Italic(true)
)

// RenderManifestOutcome renders the result of a single manifest check.
func RenderManifestOutcome(path, expected string, o domain.Outcome) string {
	var b strings.Builder

	fmt.Fprintf(&b, "  %s %s\n", sectionHeaderStyle.Render("Manifest"), fileStyle.Render(path))

	if o.Passed() {
		fmt.Fprintf(&b, "    %s license is %s\n", passStyle.Render("●"), titleStyle.Render(expected))
		return b.String()
	}

	fmt.Fprintf(&b, "    %s %s\n", failStyle.Render("●"), o.Reason)
	for _, d := range o.Details {
		b.WriteString("      " + hintStyle.Render(d) + "\n")
	}
	return b.String()
}

// RenderError renders a classified error with its hint.
func RenderError(err error) string {
	var b strings.Builder

	tag := failStyle.Bold(true).Render("error")
	if c := domain.CategoryOf(err); c != "" {
		tag += " " + dimStyle.Render("["+string(c)+"]")
	}
	fmt.Fprintf(&b, "  %s %s\n", tag, err.Error())

	if hint := domain.HintOf(err); hint != "" {
		for _, line := range strings.Split(hint, "\n") {
			b.WriteString("    " + hintStyle.Render(line) + "\n")
		}
	}
	return b.String()
}
