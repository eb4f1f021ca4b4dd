package domain

import (
	"errors"
	"strings"
	"time"
)

const (
	DefaultLicenseFile  = "LICENSE"
	DefaultReadmeFile   = "README.md"
	DefaultManifestFile = "Cargo.toml"
	DefaultFileType     = "rust"
	DefaultDetector     = "licensee"
	DefaultSearcher     = "rg"
)

// Policy holds the match-count thresholds for one scope variant.
type Policy struct {
	MinMatches int `yaml:"min_matches" json:"min_matches"`
	MaxMatches int `yaml:"max_matches" json:"max_matches"`
}

// PolicyConfig holds the thresholds for the root and for workspace members.
type PolicyConfig struct {
	Root   Policy `yaml:"root"   json:"root"`
	Member Policy `yaml:"member" json:"member"`
}

// DetectorConfig describes how the license detector is invoked.
// A non-empty DockerImage runs the detector inside that image.
type DetectorConfig struct {
	Command     string        `yaml:"command"      json:"command,omitempty"`
	DockerImage string        `yaml:"docker_image" json:"docker_image,omitempty"`
	Timeout     time.Duration `yaml:"timeout"      json:"timeout,omitempty"`
}

// CoverageConfig describes the source coverage search.
type CoverageConfig struct {
	Command  string        `yaml:"command"   json:"command,omitempty"`
	FileType string        `yaml:"file_type" json:"file_type,omitempty"`
	Timeout  time.Duration `yaml:"timeout"   json:"timeout,omitempty"`
}

// Config is the immutable run configuration, loaded once per run and passed
// explicitly to every component.
type Config struct {
	Workspace    bool           `yaml:"workspace"     json:"workspace"`
	Members      []string       `yaml:"members"       json:"members,omitempty"`
	Organization string         `yaml:"organization"  json:"organization"`
	LicenseFile  string         `yaml:"license_file"  json:"license_file,omitempty"`
	ReadmeFile   string         `yaml:"readme_file"   json:"readme_file,omitempty"`
	ManifestFile string         `yaml:"manifest_file" json:"manifest_file,omitempty"`
	Policy       PolicyConfig   `yaml:"policy"        json:"policy"`
	Detector     DetectorConfig `yaml:"detector"      json:"detector"`
	Coverage     CoverageConfig `yaml:"coverage"      json:"coverage"`
}

// DefaultConfig returns the built-in configuration. Organization is left
// empty because it has no sensible default.
func DefaultConfig() Config {
	return Config{
		LicenseFile:  DefaultLicenseFile,
		ReadmeFile:   DefaultReadmeFile,
		ManifestFile: DefaultManifestFile,
		Policy: PolicyConfig{
			Root:   Policy{MinMatches: 2, MaxMatches: 3},
			Member: Policy{MinMatches: 1, MaxMatches: 2},
		},
		Detector: DetectorConfig{Command: DefaultDetector},
		Coverage: CoverageConfig{Command: DefaultSearcher, FileType: DefaultFileType},
	}
}

// ParseMembers splits a space-delimited member list, dropping empty entries.
func ParseMembers(s string) []string {
	return strings.Fields(s)
}

// Validate checks the config and returns a config-category error describing
// the first problem found.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Organization) == "" {
		return Wrap(errors.New("organization name is required"), CategoryConfig, "missing_organization",
			"set organization in .licensekraft.yaml, the company-name input, or --organization")
	}

	if c.Workspace && len(c.Members) == 0 {
		return Wrap(errors.New("workspace mode requires a space-delimited list of members"), CategoryConfig, "missing_members",
			"set members in .licensekraft.yaml, the crates input, or --members")
	}

	for i, m := range c.Members {
		if strings.TrimSpace(m) == "" {
			return Errorf(CategoryConfig, "invalid_member", "members[%d] must not be empty", i)
		}
	}

	if err := c.Policy.Root.validate("root"); err != nil {
		return err
	}
	if err := c.Policy.Member.validate("member"); err != nil {
		return err
	}

	required := []struct{ name, value string }{
		{"license_file", c.LicenseFile},
		{"readme_file", c.ReadmeFile},
		{"manifest_file", c.ManifestFile},
		{"detector.command", c.Detector.Command},
		{"coverage.command", c.Coverage.Command},
		{"coverage.file_type", c.Coverage.FileType},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return Errorf(CategoryConfig, "missing_field", "%s must not be empty", f.name)
		}
	}

	if c.Detector.Timeout < 0 || c.Coverage.Timeout < 0 {
		return Errorf(CategoryConfig, "invalid_timeout", "timeouts must not be negative")
	}

	return nil
}

func (p Policy) validate(name string) error {
	if p.MinMatches < 0 {
		return Errorf(CategoryConfig, "invalid_policy", "policy.%s.min_matches must be >= 0 (got %d)", name, p.MinMatches)
	}
	if p.MaxMatches < p.MinMatches {
		return Errorf(CategoryConfig, "invalid_policy", "policy.%s.max_matches (%d) must be >= min_matches (%d)", name, p.MaxMatches, p.MinMatches)
	}
	return nil
}
