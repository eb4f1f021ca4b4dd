// Package ripgrep adapts ripgrep as the inverse-match source searcher.
package ripgrep

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/openkraft/licensekraft/internal/domain"
)

// Runner executes name in dir and reports its output and exit status.
// err is only set when the process could not be run at all.
type Runner func(ctx context.Context, dir, name string, args ...string) (stdout, stderr []byte, exitCode int, err error)

// Searcher implements domain.SourceSearcher with
// `rg --files-without-match --fixed-strings --type <type> -- <pattern>`.
// The pattern travels as a single argv element, so quotes and other shell
// metacharacters need no escaping.
type Searcher struct {
	command string
	timeout time.Duration
	run     Runner
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithRunner replaces the process runner, mainly for tests.
func WithRunner(r Runner) Option { return func(s *Searcher) { s.run = r } }

// New creates a Searcher from the coverage section of the config.
func New(cfg domain.CoverageConfig, opts ...Option) *Searcher {
	s := &Searcher{command: cfg.Command, timeout: cfg.Timeout, run: execRunner}
	if s.command == "" {
		s.command = domain.DefaultSearcher
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Args returns the argument vector for a search.
func Args(pattern, fileType string) []string {
	return []string{
		"--files-without-match",
		"--fixed-strings",
		"--type", fileType,
		"--", pattern,
	}
}

// FilesWithout lists the files of fileType under root lacking pattern.
// Only stdout is the listing; stderr is carried separately for diagnostics.
func (s *Searcher) FilesWithout(ctx context.Context, root, pattern, fileType string) (*domain.SearchResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	stdout, stderr, code, err := s.run(ctx, root, s.command, Args(pattern, fileType)...)
	if err != nil {
		return nil, domain.Wrap(fmt.Errorf("running %s: %w", s.command, err),
			domain.CategoryInvocation, "search_failed", "check that ripgrep is installed")
	}

	return &domain.SearchResult{
		Output:   splitLines(stdout),
		Stderr:   splitLines(stderr),
		ExitCode: code,
	}, nil
}

func splitLines(b []byte) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func execRunner(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, int, error) {
	// #nosec G204 -- arguments are passed without a shell.
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return nil, nil, -1, fmt.Errorf("search interrupted: %w", ctx.Err())
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), stderr.Bytes(), exitErr.ExitCode(), nil
		}
		return nil, nil, -1, err
	}
	return stdout.Bytes(), stderr.Bytes(), 0, nil
}
