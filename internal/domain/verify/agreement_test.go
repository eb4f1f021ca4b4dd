package verify_test

import (
	"testing"

	"github.com/openkraft/licensekraft/internal/domain"
	"github.com/openkraft/licensekraft/internal/domain/verify"
	"github.com/stretchr/testify/assert"
)

func TestCheckAgreement_AllEqual(t *testing.T) {
	out := verify.CheckAgreement("root", []verify.LicenseRef{
		verify.Ref("LICENSE", "MIT"),
		verify.Ref("README.md", "MIT"),
		verify.Ref("Cargo.toml", "MIT"),
	})
	assert.True(t, out.Passed())
	assert.Equal(t, domain.StageAgreement, out.Stage)
}

func TestCheckAgreement_AllAbsent(t *testing.T) {
	out := verify.CheckAgreement("root", []verify.LicenseRef{
		verify.Ref("LICENSE", ""),
		verify.Ref("README.md", ""),
		verify.Ref("Cargo.toml", ""),
	})
	assert.True(t, out.Passed())
}

func TestCheckAgreement_Mismatch(t *testing.T) {
	tests := [][3]string{
		{"MIT", "MIT", "Apache-2.0"},
		{"MIT", "Apache-2.0", "MIT"},
		{"GPL-3.0", "MIT", "MIT"},
		{"MIT", "mit", "MIT"},
	}
	for _, ids := range tests {
		out := verify.CheckAgreement("root", []verify.LicenseRef{
			verify.Ref("LICENSE", ids[0]),
			verify.Ref("README.md", ids[1]),
			verify.Ref("Cargo.toml", ids[2]),
		})
		assert.Equal(t, domain.StatusFail, out.Status, "ids %v", ids)
		assert.Contains(t, out.Reason, "root")
	}
}

func TestCheckAgreement_AbsentIsSkipped(t *testing.T) {
	out := verify.CheckAgreement("crates/core", []verify.LicenseRef{
		verify.Ref("README.md", "MIT"),
		verify.Ref("Cargo.toml", ""),
	})
	assert.True(t, out.Passed())
	assert.Contains(t, out.Details, "Cargo.toml: (none)")
}

func TestCheckAgreement_MemberMismatchNamesMember(t *testing.T) {
	out := verify.CheckAgreement("crates/core", []verify.LicenseRef{
		verify.Ref("README.md", "MIT"),
		verify.Ref("Cargo.toml", "Apache-2.0"),
	})
	assert.Equal(t, domain.StatusFail, out.Status)
	assert.Equal(t, "crates/core", out.Scope)
	assert.Contains(t, out.Reason, "crates/core")
	assert.Contains(t, out.Reason, "Apache-2.0")
}
