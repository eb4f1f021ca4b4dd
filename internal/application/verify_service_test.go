package application_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/openkraft/licensekraft/internal/adapters/outbound/manifest"
	"github.com/openkraft/licensekraft/internal/application"
	"github.com/openkraft/licensekraft/internal/domain"
)

type fakeDetector struct {
	results map[string]*domain.DetectionResult
	err     error
	calls   map[string]int
}

func (f *fakeDetector) Detect(_ context.Context, dir string) (*domain.DetectionResult, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[dir]++
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.results[dir]; ok {
		return r, nil
	}
	return &domain.DetectionResult{Dir: dir}, nil
}

type fakeSearcher struct {
	result  *domain.SearchResult
	err     error
	pattern string
	called  bool
}

func (f *fakeSearcher) FilesWithout(_ context.Context, _, pattern, _ string) (*domain.SearchResult, error) {
	f.called = true
	f.pattern = pattern
	if f.err != nil {
		return nil, f.err
	}
	if f.result == nil {
		return &domain.SearchResult{}, nil
	}
	return f.result, nil
}

type fakeManifests map[string]string

func (f fakeManifests) License(path string) (string, bool, error) {
	id, ok := f[path]
	if !ok {
		return "", false, os.ErrNotExist
	}
	return id, id != "", nil
}

const root = "/repo"

var fixedNow = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

func match(name, id string) domain.FileMatch {
	return domain.FileMatch{Filename: name, LicenseID: id}
}

func singlePackageConfig() domain.Config {
	cfg := domain.DefaultConfig()
	cfg.Organization = "Acme"
	return cfg
}

func workspaceConfig(members ...string) domain.Config {
	cfg := singlePackageConfig()
	cfg.Workspace = true
	cfg.Members = members
	return cfg
}

func newService(d *fakeDetector, s *fakeSearcher, m fakeManifests, logger *zap.Logger) *application.VerifyService {
	return application.NewVerifyService(d, s, m,
		application.WithLogger(logger),
		application.WithClock(func() time.Time { return fixedNow }),
		application.WithRunID(func() string { return "run-1" }),
	)
}

func passingRoot() *domain.DetectionResult {
	return &domain.DetectionResult{Matches: []domain.FileMatch{
		{Filename: "LICENSE", LicenseID: "MIT", Attribution: "Copyright (c) 2026 Acme"},
		match("README.md", "MIT"),
		match("Cargo.toml", "MIT"),
	}}
}

func TestVerify_SinglePackagePasses(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	d := &fakeDetector{results: map[string]*domain.DetectionResult{root: passingRoot()}}
	s := &fakeSearcher{}

	report, err := newService(d, s, nil, zap.New(core)).Verify(context.Background(), root, singlePackageConfig())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPass, report.Status)
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, "Copyright (c) 2026 Acme", report.Attribution)
	assert.Equal(t, "Copyright (c) 2026 Acme", s.pattern)
	assert.Empty(t, report.Offenders)

	var stages []domain.Stage
	for _, o := range report.Outcomes {
		stages = append(stages, o.Stage)
	}
	assert.Equal(t, []domain.Stage{
		domain.StageConsistency, domain.StageAgreement, domain.StageAttribution, domain.StageCoverage,
	}, stages)

	assert.Equal(t, 1, logs.FilterMessage("license verification passed").Len())
	detected := logs.FilterMessage("detected license references").All()
	require.Len(t, detected, 1)
	assert.Equal(t, int64(3), detected[0].ContextMap()["count"])
}

func TestVerify_DetectorRunsOncePerScope(t *testing.T) {
	d := &fakeDetector{results: map[string]*domain.DetectionResult{root: passingRoot()}}

	_, err := newService(d, &fakeSearcher{}, nil, nil).Verify(context.Background(), root, singlePackageConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, d.calls[root])
}

func TestVerify_InvalidConfigStopsBeforeInvocation(t *testing.T) {
	d := &fakeDetector{}
	s := &fakeSearcher{}
	cfg := singlePackageConfig()
	cfg.Organization = ""

	report, err := newService(d, s, nil, nil).Verify(context.Background(), root, cfg)
	require.Error(t, err)
	assert.Equal(t, domain.CategoryConfig, domain.CategoryOf(err))
	assert.Empty(t, d.calls)
	assert.False(t, s.called)

	failed, ok := report.Failed()
	require.True(t, ok)
	assert.Equal(t, domain.StageConfig, failed.Stage)
}

func TestVerify_WorkspaceWithoutMembersIsConfigError(t *testing.T) {
	_, err := newService(&fakeDetector{}, &fakeSearcher{}, nil, nil).
		Verify(context.Background(), root, workspaceConfig())
	require.Error(t, err)
	assert.Equal(t, "missing_members", domain.CodeOf(err))
}

func TestVerify_RootConsistencyFailureSkipsLaterStages(t *testing.T) {
	d := &fakeDetector{results: map[string]*domain.DetectionResult{
		root: {Matches: []domain.FileMatch{match("LICENSE", "MIT")}},
	}}
	s := &fakeSearcher{}

	report, err := newService(d, s, nil, nil).Verify(context.Background(), root, singlePackageConfig())
	require.Error(t, err)
	assert.Equal(t, domain.CategoryPolicy, domain.CategoryOf(err))
	assert.Contains(t, err.Error(), "expected at least 2")
	assert.False(t, s.called)
	assert.Equal(t, domain.StatusFail, report.Status)
	assert.Len(t, report.Outcomes, 1)
}

func TestVerify_DetectorErrorIsReported(t *testing.T) {
	detectErr := domain.Wrap(errors.New("docker: not found"), domain.CategoryInvocation, "detector_failed", "")
	d := &fakeDetector{err: detectErr}

	report, err := newService(d, &fakeSearcher{}, nil, nil).Verify(context.Background(), root, singlePackageConfig())
	require.Error(t, err)
	assert.Equal(t, domain.CategoryInvocation, domain.CategoryOf(err))

	failed, ok := report.Failed()
	require.True(t, ok)
	assert.Equal(t, domain.StageConsistency, failed.Stage)
}

func TestVerify_RootDisagreementNamesFiles(t *testing.T) {
	d := &fakeDetector{results: map[string]*domain.DetectionResult{root: {Matches: []domain.FileMatch{
		match("LICENSE", "MIT"),
		match("README.md", "Apache-2.0"),
	}}}}

	report, err := newService(d, &fakeSearcher{}, nil, nil).Verify(context.Background(), root, singlePackageConfig())
	require.Error(t, err)
	assert.Equal(t, "license_mismatch", domain.CodeOf(err))
	assert.Equal(t, "license_mismatch", report.FailureCode)
	assert.Contains(t, domain.HintOf(err), "LICENSE: MIT")
	assert.Contains(t, domain.HintOf(err), "README.md: Apache-2.0")
}

func TestVerify_ManifestFallbackFromReader(t *testing.T) {
	d := &fakeDetector{results: map[string]*domain.DetectionResult{root: {Matches: []domain.FileMatch{
		{Filename: "LICENSE", LicenseID: "MIT", Attribution: "Copyright (c) 2026 Acme"},
		match("README.md", "MIT"),
	}}}}
	m := fakeManifests{filepath.Join(root, "Cargo.toml"): "GPL-3.0"}

	_, err := newService(d, &fakeSearcher{}, m, nil).Verify(context.Background(), root, singlePackageConfig())
	require.Error(t, err)
	assert.Contains(t, domain.HintOf(err), "Cargo.toml: GPL-3.0")
}

func TestVerify_MissingManifestIsAbsent(t *testing.T) {
	d := &fakeDetector{results: map[string]*domain.DetectionResult{root: {Matches: []domain.FileMatch{
		{Filename: "LICENSE", LicenseID: "MIT", Attribution: "Copyright (c) 2026 Acme"},
		match("README.md", "MIT"),
	}}}}

	report, err := newService(d, &fakeSearcher{}, fakeManifests{}, nil).
		Verify(context.Background(), root, singlePackageConfig())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPass, report.Status)
}

func TestVerify_WorkspaceMemberManifestMismatch(t *testing.T) {
	member := filepath.Join(root, "crates/a")
	d := &fakeDetector{results: map[string]*domain.DetectionResult{
		root: {Matches: []domain.FileMatch{
			{Filename: "LICENSE", LicenseID: "MIT", Attribution: "Copyright (c) 2026 Acme"},
			match("README.md", "MIT"),
		}},
		member: {Matches: []domain.FileMatch{
			match("README.md", "MIT"),
			match("Cargo.toml", "Apache-2.0"),
		}},
	}}

	report, err := newService(d, &fakeSearcher{}, nil, nil).
		Verify(context.Background(), root, workspaceConfig("crates/a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crates/a")

	failed, ok := report.Failed()
	require.True(t, ok)
	assert.Equal(t, domain.StageAgreement, failed.Stage)
	assert.Equal(t, "crates/a", failed.Scope)
}

func TestVerify_WorkspaceMemberInheritsLicense(t *testing.T) {
	dir := t.TempDir()
	member := filepath.Join(dir, "crates", "a")
	require.NoError(t, os.MkdirAll(member, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"),
		[]byte("[workspace]\nmembers = [\"crates/a\"]\n\n[workspace.package]\nlicense = \"MIT\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(member, "Cargo.toml"),
		[]byte("[package]\nname = \"a\"\nlicense.workspace = true\n"), 0o644))

	d := &fakeDetector{results: map[string]*domain.DetectionResult{
		dir: {Matches: []domain.FileMatch{
			{Filename: "LICENSE", LicenseID: "MIT", Attribution: "Copyright (c) 2026 Acme"},
			match("README.md", "MIT"),
		}},
		member: {Matches: []domain.FileMatch{match("README.md", "MIT")}},
	}}
	svc := application.NewVerifyService(d, &fakeSearcher{}, manifest.New())

	report, err := svc.Verify(context.Background(), dir, workspaceConfig("crates/a"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPass, report.Status)
}

func TestVerify_WorkspaceMemberMissingReadme(t *testing.T) {
	member := filepath.Join(root, "crates/a")
	d := &fakeDetector{results: map[string]*domain.DetectionResult{
		root:   passingRoot(),
		member: {Matches: []domain.FileMatch{match("Cargo.toml", "MIT")}},
	}}

	report, err := newService(d, &fakeSearcher{}, nil, nil).
		Verify(context.Background(), root, workspaceConfig("crates/a"))
	require.Error(t, err)

	failed, _ := report.Failed()
	assert.Equal(t, domain.StageConsistency, failed.Stage)
	assert.Equal(t, "crates/a", failed.Scope)
}

func TestVerify_DefaultAttributionWhenLicenseHasNone(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	d := &fakeDetector{results: map[string]*domain.DetectionResult{root: {Matches: []domain.FileMatch{
		match("LICENSE", "MIT"),
		match("README.md", "MIT"),
	}}}}
	s := &fakeSearcher{}

	report, err := newService(d, s, nil, zap.New(core)).Verify(context.Background(), root, singlePackageConfig())
	require.NoError(t, err)
	assert.Equal(t, "Copyright (C) 2026 Acme.", report.Attribution)
	assert.Equal(t, "Copyright (C) 2026 Acme.", s.pattern)
	assert.Equal(t, 1, logs.FilterMessageSnippet("no attribution detected").Len())
}

func TestVerify_AmbiguousAttributionFails(t *testing.T) {
	d := &fakeDetector{results: map[string]*domain.DetectionResult{root: {Matches: []domain.FileMatch{
		{Filename: "LICENSE", LicenseID: "MIT", Attribution: "Copyright Foo\nCopyright Bar"},
		match("README.md", "MIT"),
	}}}}
	s := &fakeSearcher{}

	_, err := newService(d, s, nil, nil).Verify(context.Background(), root, singlePackageConfig())
	require.Error(t, err)
	assert.Equal(t, domain.CategoryAttribution, domain.CategoryOf(err))
	assert.False(t, s.called)
}

func TestVerify_CoverageOffenders(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	d := &fakeDetector{results: map[string]*domain.DetectionResult{root: passingRoot()}}
	s := &fakeSearcher{result: &domain.SearchResult{Output: []string{"src/a.rs", "src/b.rs"}}}

	report, err := newService(d, s, nil, zap.New(core)).Verify(context.Background(), root, singlePackageConfig())
	require.Error(t, err)
	assert.Equal(t, domain.CategoryCoverage, domain.CategoryOf(err))
	assert.Contains(t, err.Error(), "src/a.rs")
	assert.Contains(t, err.Error(), "src/b.rs")
	assert.Equal(t, []string{"src/a.rs", "src/b.rs"}, report.Offenders)
	assert.Equal(t, 2, logs.FilterMessage("missing copyright notice").Len())
}

func TestVerify_CoverageInvocationError(t *testing.T) {
	d := &fakeDetector{results: map[string]*domain.DetectionResult{root: passingRoot()}}
	s := &fakeSearcher{result: &domain.SearchResult{Output: []string{"rg: unrecognized file type: rust"}, ExitCode: 2}}

	_, err := newService(d, s, nil, nil).Verify(context.Background(), root, singlePackageConfig())
	require.Error(t, err)
	assert.Equal(t, domain.CategoryInvocation, domain.CategoryOf(err))
}

func TestVerify_EmptyOutputNonZeroExitPasses(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	d := &fakeDetector{results: map[string]*domain.DetectionResult{root: passingRoot()}}
	s := &fakeSearcher{result: &domain.SearchResult{Stderr: []string{"rg: No files were searched"}, ExitCode: 2}}

	report, err := newService(d, s, nil, zap.New(core)).Verify(context.Background(), root, singlePackageConfig())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPass, report.Status)

	warned := logs.FilterMessageSnippet("non-zero status").All()
	require.Len(t, warned, 1)
	assert.Equal(t, []interface{}{"rg: No files were searched"}, warned[0].ContextMap()["stderr"])
}

type fakeGit struct{ hash, branch string }

func (f fakeGit) CommitHash(string) (string, error) { return f.hash, nil }
func (f fakeGit) Branch(string) (string, error)     { return f.branch, nil }

func TestVerify_StampsCommitHash(t *testing.T) {
	d := &fakeDetector{results: map[string]*domain.DetectionResult{root: passingRoot()}}
	svc := application.NewVerifyService(d, &fakeSearcher{}, nil,
		application.WithGitInfo(fakeGit{hash: "abc123", branch: "main"}))

	report, err := svc.Verify(context.Background(), root, singlePackageConfig())
	require.NoError(t, err)
	assert.Equal(t, "abc123", report.CommitHash)
	assert.Equal(t, "main", report.Branch)
	assert.Empty(t, report.FailureCode)
	assert.NotEmpty(t, report.RunID)
}

func TestCheckManifest(t *testing.T) {
	m := fakeManifests{
		"/a/Cargo.toml": "MIT",
		"/b/Cargo.toml": "",
		"/c/Cargo.toml": "Apache-2.0",
	}
	svc := application.NewVerifyService(nil, nil, m)

	out, err := svc.CheckManifest("/a/Cargo.toml", "MIT")
	require.NoError(t, err)
	assert.True(t, out.Passed())

	out, err = svc.CheckManifest("/b/Cargo.toml", "MIT")
	require.Error(t, err)
	assert.Contains(t, out.Reason, "does not contain a license")

	out, err = svc.CheckManifest("/c/Cargo.toml", "MIT")
	require.Error(t, err)
	assert.Equal(t, domain.CategoryPolicy, domain.CategoryOf(err))
	assert.Contains(t, out.Details, "The actual value is 'Apache-2.0'.")

	_, err = svc.CheckManifest("/missing/Cargo.toml", "MIT")
	require.Error(t, err)
	assert.Equal(t, domain.CategoryInvocation, domain.CategoryOf(err))
}
