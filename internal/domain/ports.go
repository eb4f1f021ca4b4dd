package domain

import "context"

// LicenseDetector runs the external license detector against a directory.
type LicenseDetector interface {
	Detect(ctx context.Context, dir string) (*DetectionResult, error)
}

// SourceSearcher runs the external text-search utility and lists the files of
// fileType under root that do NOT contain pattern as a fixed string.
type SourceSearcher interface {
	FilesWithout(ctx context.Context, root, pattern, fileType string) (*SearchResult, error)
}

// SearchResult is the raw outcome of one inverse-match search. Output holds
// the listing the tool printed on stdout; Stderr holds its diagnostics.
type SearchResult struct {
	Output   []string `json:"output"`
	Stderr   []string `json:"stderr,omitempty"`
	ExitCode int      `json:"exit_code"`
}

// ManifestReader extracts the declared license from a package manifest.
// The boolean is false when the manifest exists but declares no license.
type ManifestReader interface {
	License(path string) (string, bool, error)
}

// ConfigLoader reads the project configuration for a repository root.
type ConfigLoader interface {
	Load(projectPath string) (Config, error)
}

// GitInfo provides repository metadata.
type GitInfo interface {
	CommitHash(projectPath string) (string, error)
	Branch(projectPath string) (string, error)
}

// RunHistory persists verification runs.
type RunHistory interface {
	Save(projectPath string, entry RunEntry) error
	Load(projectPath string) ([]RunEntry, error)
}
