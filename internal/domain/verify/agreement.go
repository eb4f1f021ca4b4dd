package verify

import (
	"fmt"
	"strings"

	"github.com/openkraft/licensekraft/internal/domain"
)

// LicenseRef is the license identifier declared by one file of a scope.
// Present is false when the file declares nothing.
type LicenseRef struct {
	Source    string `json:"source"`
	LicenseID string `json:"license_id,omitempty"`
	Present   bool   `json:"present"`
}

// Ref builds a LicenseRef; an empty id is treated as absent.
func Ref(source, id string) LicenseRef {
	return LicenseRef{Source: source, LicenseID: id, Present: id != ""}
}

// CheckAgreement requires every present identifier in refs to be identical.
// Absent refs are skipped, so a scope where nothing is declared passes.
func CheckAgreement(scope string, refs []LicenseRef) domain.Outcome {
	var (
		first   string
		details []string
		agree   = true
	)

	for _, r := range refs {
		if !r.Present {
			details = append(details, fmt.Sprintf("%s: (none)", r.Source))
			continue
		}
		details = append(details, fmt.Sprintf("%s: %s", r.Source, r.LicenseID))
		if first == "" {
			first = r.LicenseID
			continue
		}
		if r.LicenseID != first {
			agree = false
		}
	}

	if !agree {
		return domain.Fail(domain.StageAgreement, scope,
			fmt.Sprintf("license identifiers disagree in %s: %s", scope, strings.Join(details, ", ")),
			details...)
	}
	return domain.Pass(domain.StageAgreement, scope, details...)
}
