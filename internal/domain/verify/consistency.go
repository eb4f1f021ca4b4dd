// Package verify holds the license-consistency rules: match-count policy,
// cross-file agreement, attribution resolution and coverage interpretation.
package verify

import (
	"fmt"

	"github.com/openkraft/licensekraft/internal/domain"
)

// VerifyConsistency applies the count and identity rules of the scope's
// policy variant to the matched filenames. Rules are evaluated in order and
// the first failure is returned.
func VerifyConsistency(filenames []string, scope domain.Scope, cfg domain.Config) domain.Outcome {
	if scope.IsRoot() {
		return verifyRoot(filenames, scope, cfg)
	}
	return verifyMember(filenames, scope, cfg)
}

func verifyRoot(filenames []string, scope domain.Scope, cfg domain.Config) domain.Outcome {
	policy := cfg.Policy.Root
	n := len(filenames)

	if n < policy.MinMatches {
		return domain.Fail(domain.StageConsistency, scope.Name,
			fmt.Sprintf("expected at least %d license references, detected %d", policy.MinMatches, n),
			fmt.Sprintf("This repository is either missing a %s file or no license is declared in the %s. Or both.", cfg.LicenseFile, cfg.ReadmeFile),
			fmt.Sprintf("Please include a %s file and a reference to it in the %s.", cfg.LicenseFile, cfg.ReadmeFile),
		)
	}

	if n > policy.MaxMatches && !cfg.Workspace {
		return domain.Fail(domain.StageConsistency, scope.Name,
			fmt.Sprintf("more than %d license references detected (%d)", policy.MaxMatches, n),
			fmt.Sprintf("Use one license in a %s file at the root.", cfg.LicenseFile),
			fmt.Sprintf("Make a reference to the license in the %s.", cfg.ReadmeFile),
			fmt.Sprintf("If this is a package repository, add a license to %s.", cfg.ManifestFile),
		)
	}

	if !contains(filenames, cfg.LicenseFile) {
		return domain.Fail(domain.StageConsistency, scope.Name,
			fmt.Sprintf("no valid license detected in the %s file", cfg.LicenseFile))
	}

	if !contains(filenames, cfg.ReadmeFile) {
		return domain.Fail(domain.StageConsistency, scope.Name,
			fmt.Sprintf("no valid license detected in the %s file", cfg.ReadmeFile))
	}

	return domain.Pass(domain.StageConsistency, scope.Name, filenames...)
}

// verifyMember loosens the root rules: a member references the shared
// top-level license and so is not required to carry its own LICENSE.
func verifyMember(filenames []string, scope domain.Scope, cfg domain.Config) domain.Outcome {
	policy := cfg.Policy.Member
	n := len(filenames)

	if n < policy.MinMatches {
		return domain.Fail(domain.StageConsistency, scope.Name,
			fmt.Sprintf("expected at least %d license reference in member %s, detected %d", policy.MinMatches, scope.Name, n),
			fmt.Sprintf("Declare the license in the member's %s.", cfg.ReadmeFile),
		)
	}

	if n > policy.MaxMatches {
		return domain.Fail(domain.StageConsistency, scope.Name,
			fmt.Sprintf("more than %d license references detected in member %s (%d)", policy.MaxMatches, scope.Name, n),
			fmt.Sprintf("A member should only reference the license in its %s and %s.", cfg.ReadmeFile, cfg.ManifestFile),
		)
	}

	if !contains(filenames, cfg.ReadmeFile) {
		return domain.Fail(domain.StageConsistency, scope.Name,
			fmt.Sprintf("no valid license detected in the %s file of member %s", cfg.ReadmeFile, scope.Name))
	}

	return domain.Pass(domain.StageConsistency, scope.Name, filenames...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
