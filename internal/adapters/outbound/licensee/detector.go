// Package licensee adapts the licensee command-line license detector.
package licensee

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kaptinlin/jsonschema"

	"github.com/openkraft/licensekraft/internal/domain"
)

// containerTarget is where the scanned directory is mounted in docker mode.
const containerTarget = "/usr/src/target"

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Detector implements domain.LicenseDetector by running
// `licensee detect <dir> --json`, directly or inside a docker image.
type Detector struct {
	command     string
	dockerImage string
	timeout     time.Duration
	run         Runner
}

// Option configures a Detector.
type Option func(*Detector)

// WithRunner replaces the process runner, mainly for tests.
func WithRunner(r Runner) Option { return func(d *Detector) { d.run = r } }

// New creates a Detector from the detector section of the config.
func New(cfg domain.DetectorConfig, opts ...Option) *Detector {
	d := &Detector{
		command:     cfg.Command,
		dockerImage: cfg.DockerImage,
		timeout:     cfg.Timeout,
		run:         execRunner,
	}
	if d.command == "" {
		d.command = domain.DefaultDetector
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Detect scans dir and returns the typed detection result.
func (d *Detector) Detect(ctx context.Context, dir string) (*domain.DetectionResult, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	name, args := d.commandLine(absDir)
	out, err := d.run(ctx, name, args...)
	if err != nil {
		return nil, domain.Wrap(fmt.Errorf("running %s: %w", name, err),
			domain.CategoryInvocation, "detector_failed", "check that licensee is installed or the docker image is built")
	}

	result, err := Parse(out)
	if err != nil {
		return nil, domain.Wrap(err, domain.CategoryInvocation, "detector_malformed", "")
	}
	result.Dir = absDir
	return result, nil
}

func (d *Detector) commandLine(dir string) (string, []string) {
	if d.dockerImage != "" {
		return "docker", []string{
			"run", "--rm", "--volume", dir + ":" + containerTarget,
			d.dockerImage, "detect", containerTarget, "--json",
		}
	}
	return d.command, []string{"detect", dir, "--json"}
}

type rawOutput struct {
	MatchedFiles []rawMatch `json:"matched_files"`
}

type rawMatch struct {
	Filename       string      `json:"filename"`
	MatchedLicense *string     `json:"matched_license"`
	Attribution    *string     `json:"attribution"`
	Matcher        *rawMatcher `json:"matcher"`
}

type rawMatcher struct {
	Name       string   `json:"name"`
	Confidence *float64 `json:"confidence"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		schema, schemaErr = compiler.Compile([]byte(outputSchema))
	})
	return schema, schemaErr
}

// Parse validates licensee JSON output and decodes it.
func Parse(data []byte) (*domain.DetectionResult, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("detector produced no output")
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("detector output is not JSON: %.200s", data)
	}

	s, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile detector schema: %w", err)
	}
	if res := s.ValidateJSON(data); !res.IsValid() {
		return nil, fmt.Errorf("detector output does not match schema: %v", res.Errors)
	}

	var raw rawOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding detector output: %w", err)
	}

	result := &domain.DetectionResult{Matches: make([]domain.FileMatch, 0, len(raw.MatchedFiles))}
	seen := make(map[string]bool, len(raw.MatchedFiles))
	for _, m := range raw.MatchedFiles {
		if seen[m.Filename] {
			continue
		}
		seen[m.Filename] = true

		fm := domain.FileMatch{Filename: m.Filename}
		if m.MatchedLicense != nil {
			fm.LicenseID = strings.TrimSpace(*m.MatchedLicense)
		}
		if m.Attribution != nil {
			fm.Attribution = *m.Attribution
		}
		if m.Matcher != nil {
			fm.Matcher = m.Matcher.Name
			if m.Matcher.Confidence != nil {
				fm.Confidence = int(*m.Matcher.Confidence)
			}
		}
		result.Matches = append(result.Matches, fm)
	}
	return result, nil
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	// #nosec G204 -- the detector command comes from the run configuration.
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s", ctx.Err(), strings.TrimSpace(stderr.String()))
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
