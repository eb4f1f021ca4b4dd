package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openkraft/licensekraft/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileName is the per-repository configuration file.
const FileName = ".licensekraft.yaml"

// CI action inputs, as exported to the environment by the runner.
const (
	EnvWorkspace    = "INPUT_CARGO-WORKSPACE"
	EnvMembers      = "INPUT_CRATES"
	EnvOrganization = "INPUT_COMPANY-NAME"
)

// fileConfig mirrors domain.Config with pointers where "not specified" must
// be distinguished from a zero value.
type fileConfig struct {
	Workspace    *bool    `yaml:"workspace"`
	Members      []string `yaml:"members"`
	Organization string   `yaml:"organization"`
	LicenseFile  string   `yaml:"license_file"`
	ReadmeFile   string   `yaml:"readme_file"`
	ManifestFile string   `yaml:"manifest_file"`
	Policy       struct {
		Root   policyOverride `yaml:"root"`
		Member policyOverride `yaml:"member"`
	} `yaml:"policy"`
	Detector struct {
		Command     string        `yaml:"command"`
		DockerImage string        `yaml:"docker_image"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"detector"`
	Coverage struct {
		Command  string        `yaml:"command"`
		FileType string        `yaml:"file_type"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"coverage"`
}

type policyOverride struct {
	MinMatches *int `yaml:"min_matches"`
	MaxMatches *int `yaml:"max_matches"`
}

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// YAMLLoader implements domain.ConfigLoader: built-in defaults, then
// .licensekraft.yaml, then CI action inputs from the environment.
type YAMLLoader struct {
	lookup LookupEnv
}

// New creates a YAMLLoader reading the process environment.
func New() *YAMLLoader { return &YAMLLoader{lookup: os.LookupEnv} }

// NewWithEnv creates a YAMLLoader with a custom environment lookup.
func NewWithEnv(lookup LookupEnv) *YAMLLoader {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	return &YAMLLoader{lookup: lookup}
}

// Load reads .licensekraft.yaml from projectPath. A missing file yields the
// defaults. The result is not validated: flags may still fill required
// fields, so callers validate the final config.
func (l *YAMLLoader) Load(projectPath string) (domain.Config, error) {
	cfg := domain.DefaultConfig()

	data, err := os.ReadFile(filepath.Join(projectPath, FileName))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return domain.Config{}, err
	default:
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return domain.Config{}, domain.Wrap(fmt.Errorf("parsing %s: %w", FileName, err),
				domain.CategoryConfig, "invalid_config_file", "")
		}
		cfg = mergeConfig(cfg, fc)
	}

	if err := l.applyEnv(&cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// mergeConfig overlays explicit file values on top of the defaults.
func mergeConfig(base domain.Config, fc fileConfig) domain.Config {
	result := base

	if fc.Workspace != nil {
		result.Workspace = *fc.Workspace
	}
	if len(fc.Members) > 0 {
		result.Members = fc.Members
	}
	result.Organization = firstNonEmpty(fc.Organization, result.Organization)
	result.LicenseFile = firstNonEmpty(fc.LicenseFile, result.LicenseFile)
	result.ReadmeFile = firstNonEmpty(fc.ReadmeFile, result.ReadmeFile)
	result.ManifestFile = firstNonEmpty(fc.ManifestFile, result.ManifestFile)

	result.Policy.Root = fc.Policy.Root.apply(result.Policy.Root)
	result.Policy.Member = fc.Policy.Member.apply(result.Policy.Member)

	result.Detector.Command = firstNonEmpty(fc.Detector.Command, result.Detector.Command)
	result.Detector.DockerImage = firstNonEmpty(fc.Detector.DockerImage, result.Detector.DockerImage)
	if fc.Detector.Timeout != 0 {
		result.Detector.Timeout = fc.Detector.Timeout
	}

	result.Coverage.Command = firstNonEmpty(fc.Coverage.Command, result.Coverage.Command)
	result.Coverage.FileType = firstNonEmpty(fc.Coverage.FileType, result.Coverage.FileType)
	if fc.Coverage.Timeout != 0 {
		result.Coverage.Timeout = fc.Coverage.Timeout
	}

	return result
}

func (o policyOverride) apply(p domain.Policy) domain.Policy {
	if o.MinMatches != nil {
		p.MinMatches = *o.MinMatches
	}
	if o.MaxMatches != nil {
		p.MaxMatches = *o.MaxMatches
	}
	return p
}

func (l *YAMLLoader) applyEnv(cfg *domain.Config) error {
	if v, ok := l.lookup(EnvWorkspace); ok && v != "" {
		b, err := parseBoolInput(v)
		if err != nil {
			return domain.Wrap(fmt.Errorf("%s: %w", EnvWorkspace, err), domain.CategoryConfig, "invalid_input", "")
		}
		cfg.Workspace = b
	}
	if v, ok := l.lookup(EnvMembers); ok && v != "" {
		cfg.Members = domain.ParseMembers(v)
	}
	if v, ok := l.lookup(EnvOrganization); ok && v != "" {
		cfg.Organization = v
	}
	return nil
}

// parseBoolInput accepts the YAML 1.2 core boolean spellings that CI
// runners use for boolean inputs.
func parseBoolInput(v string) (bool, error) {
	switch v {
	case "true", "True", "TRUE":
		return true, nil
	case "false", "False", "FALSE":
		return false, nil
	}
	return false, fmt.Errorf("input %q is not a boolean (true|True|TRUE|false|False|FALSE)", v)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
