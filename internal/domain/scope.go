package domain

import "path/filepath"

// RootScopeName names the repository root scope.
const RootScopeName = "root"

// ScopeVariant selects the policy applied to a scope.
type ScopeVariant string

const (
	VariantRoot   ScopeVariant = "root"
	VariantMember ScopeVariant = "member"
)

// Scope is one directory unit under verification.
type Scope struct {
	Name    string       `json:"name"`
	Path    string       `json:"path"`
	Variant ScopeVariant `json:"variant"`
}

// IsRoot reports whether s is the repository root scope.
func (s Scope) IsRoot() bool { return s.Variant == VariantRoot }

// BuildScopes returns the root scope followed by one scope per declared
// member, in declaration order. Members are only included in workspace mode.
func BuildScopes(rootPath string, cfg Config) []Scope {
	scopes := []Scope{{Name: RootScopeName, Path: rootPath, Variant: VariantRoot}}
	if !cfg.Workspace {
		return scopes
	}
	for _, m := range cfg.Members {
		scopes = append(scopes, Scope{
			Name:    m,
			Path:    filepath.Join(rootPath, m),
			Variant: VariantMember,
		})
	}
	return scopes
}
