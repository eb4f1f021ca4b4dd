package verify

import (
	"fmt"
	"strings"
	"time"

	"github.com/openkraft/licensekraft/internal/domain"
)

// escapedNewline is the two-character sequence some detector outputs use
// between attributions of forked repositories.
const escapedNewline = `\n`

// DefaultAttribution synthesizes the attribution used when the LICENSE file
// carries none.
func DefaultAttribution(organization string, year int) string {
	return fmt.Sprintf("Copyright (C) %d %s.", year, organization)
}

// ResolveAttribution picks the copyright line used for source coverage.
//
// Blank input falls back to DefaultAttribution for now's year. Input without
// a line delimiter is returned verbatim, surrounding whitespace included.
// Otherwise the input is split into trimmed non-blank lines: a lone line is
// returned, and with several lines the first one containing organization
// wins. If none does the attribution is ambiguous and an attribution-category
// error is returned.
func ResolveAttribution(raw, organization string, now time.Time) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultAttribution(organization, now.Year()), nil
	}
	if !strings.Contains(raw, "\n") && !strings.Contains(raw, escapedNewline) {
		return raw, nil
	}

	lines := splitAttribution(raw)
	if len(lines) == 1 {
		return lines[0], nil
	}

	for _, line := range lines {
		if strings.Contains(line, organization) {
			return line, nil
		}
	}

	return "", domain.Wrap(
		fmt.Errorf("none of %d attribution lines mentions %q: %s", len(lines), organization, strings.Join(lines, " | ")),
		domain.CategoryAttribution, "ambiguous_attribution",
		"the LICENSE file must carry a copyright line naming the organization",
	)
}

func splitAttribution(s string) []string {
	s = strings.ReplaceAll(s, escapedNewline, "\n")
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
