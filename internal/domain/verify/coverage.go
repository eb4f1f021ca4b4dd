package verify

import (
	"fmt"
	"strings"

	"github.com/openkraft/licensekraft/internal/domain"
)

// InterpretSearch turns a raw inverse-match search into the offending files.
//
// The search lists files that do not contain the attribution, so an empty
// listing means full coverage whatever the exit status. A listing together
// with a non-zero status means the tool itself failed; the error carries its
// diagnostics. Stderr never counts as a listing.
func InterpretSearch(res *domain.SearchResult) ([]string, error) {
	if res == nil {
		return nil, nil
	}

	var lines []string
	for _, l := range res.Output {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	if len(lines) == 0 {
		return nil, nil
	}
	if res.ExitCode != 0 {
		msg := append(lines, res.Stderr...)
		return nil, domain.Wrap(
			fmt.Errorf("search exited with status %d: %s", res.ExitCode, strings.Join(msg, "\n")),
			domain.CategoryInvocation, "search_failed", "")
	}
	return lines, nil
}

// CoverageOutcome reports the offending files, if any.
func CoverageOutcome(attribution string, offenders []string) domain.Outcome {
	if len(offenders) == 0 {
		return domain.Pass(domain.StageCoverage, domain.RootScopeName)
	}
	return domain.Fail(domain.StageCoverage, domain.RootScopeName,
		fmt.Sprintf("%d source file(s) lack the copyright notice %q", len(offenders), attribution),
		offenders...)
}
