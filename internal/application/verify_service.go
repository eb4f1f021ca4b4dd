package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openkraft/licensekraft/internal/domain"
	"github.com/openkraft/licensekraft/internal/domain/verify"
)

// VerifyService orchestrates the verification pipeline:
// config -> consistency (root, members) -> agreement (root, members) ->
// attribution -> source coverage.
//
// Stages run strictly in order and the first failure ends the run.
type VerifyService struct {
	detector  domain.LicenseDetector
	searcher  domain.SourceSearcher
	manifests domain.ManifestReader
	git       domain.GitInfo
	logger    *zap.Logger
	now       func() time.Time
	newRunID  func() string
}

// Option configures a VerifyService.
type Option func(*VerifyService)

// WithLogger sets the logger used for progress and diagnostic lines.
func WithLogger(l *zap.Logger) Option {
	return func(s *VerifyService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGitInfo stamps reports with the HEAD commit and branch.
func WithGitInfo(g domain.GitInfo) Option { return func(s *VerifyService) { s.git = g } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *VerifyService) { s.now = now } }

// WithRunID replaces the run identifier generator.
func WithRunID(f func() string) Option { return func(s *VerifyService) { s.newRunID = f } }

func NewVerifyService(
	detector domain.LicenseDetector,
	searcher domain.SourceSearcher,
	manifests domain.ManifestReader,
	opts ...Option,
) *VerifyService {
	s := &VerifyService{
		detector:  detector,
		searcher:  searcher,
		manifests: manifests,
		logger:    zap.NewNop(),
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// run carries the state of one verification.
type run struct {
	cfg     domain.Config
	log     *zap.Logger
	report  *domain.Report
	results map[string]*domain.DetectionResult
}

// Verify runs every stage against the repository at root. The returned
// report is never nil and holds the outcomes produced up to the first
// failure. The error is non-nil exactly when the run failed, and its code
// is stamped on the report.
func (s *VerifyService) Verify(ctx context.Context, root string, cfg domain.Config) (*domain.Report, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	r := &run{
		cfg: cfg,
		report: &domain.Report{
			RunID:     s.newRunID(),
			Timestamp: s.now().UTC(),
			Root:      absRoot,
			Status:    domain.StatusPass,
		},
		results: make(map[string]*domain.DetectionResult),
	}
	r.log = s.logger.With(zap.String("run_id", r.report.RunID))

	if err := s.runStages(ctx, r, absRoot); err != nil {
		r.report.FailureCode = domain.CodeOf(err)
		return r.report, err
	}

	r.log.Info("license verification passed")
	return r.report, nil
}

func (s *VerifyService) runStages(ctx context.Context, r *run, absRoot string) error {
	cfg := r.cfg
	r.log.Debug("configuration",
		zap.Bool("workspace", cfg.Workspace),
		zap.Strings("members", cfg.Members),
		zap.String("organization", cfg.Organization),
	)

	if err := cfg.Validate(); err != nil {
		r.report.Add(domain.Fail(domain.StageConfig, domain.RootScopeName, err.Error()))
		r.log.Error("invalid configuration", zap.Error(err))
		return err
	}

	if s.git != nil {
		if hash, err := s.git.CommitHash(absRoot); err == nil {
			r.report.CommitHash = hash
		}
		if branch, err := s.git.Branch(absRoot); err == nil {
			r.report.Branch = branch
		}
	}

	scopes := domain.BuildScopes(absRoot, cfg)

	for _, sc := range scopes {
		if err := s.checkConsistency(ctx, r, sc); err != nil {
			return err
		}
	}

	for _, sc := range scopes {
		if err := s.checkAgreement(ctx, r, sc); err != nil {
			return err
		}
	}

	attribution, err := s.resolveAttribution(r, scopes[0])
	if err != nil {
		return err
	}

	return s.checkCoverage(ctx, r, absRoot, attribution)
}

// detect returns the detection result for a scope, running the detector at
// most once per directory within a run.
func (s *VerifyService) detect(ctx context.Context, r *run, sc domain.Scope) (*domain.DetectionResult, error) {
	if res, ok := r.results[sc.Path]; ok {
		return res, nil
	}

	res, err := s.detector.Detect(ctx, sc.Path)
	if err != nil {
		return nil, fmt.Errorf("detecting licenses in %s: %w", sc.Name, err)
	}
	r.results[sc.Path] = res

	r.log.Info("detected license references",
		zap.String("scope", sc.Name),
		zap.Int("count", len(res.Matches)),
		zap.Strings("files", res.Filenames()),
		zap.Strings("licenses", res.LicenseIDs()),
	)
	return res, nil
}

func (s *VerifyService) checkConsistency(ctx context.Context, r *run, sc domain.Scope) error {
	res, err := s.detect(ctx, r, sc)
	if err != nil {
		return s.abort(r, domain.StageConsistency, sc.Name, err)
	}

	out := verify.VerifyConsistency(res.Filenames(), sc, r.cfg)
	return s.record(r, out, domain.CategoryPolicy, "inconsistent_license_files")
}

func (s *VerifyService) checkAgreement(ctx context.Context, r *run, sc domain.Scope) error {
	res, err := s.detect(ctx, r, sc)
	if err != nil {
		return s.abort(r, domain.StageAgreement, sc.Name, err)
	}

	refs, err := s.licenseRefs(r, sc, res)
	if err != nil {
		return s.abort(r, domain.StageAgreement, sc.Name, err)
	}

	out := verify.CheckAgreement(sc.Name, refs)
	return s.record(r, out, domain.CategoryPolicy, "license_mismatch")
}

// licenseRefs selects the files compared for a scope: LICENSE and README at
// the root, plus the manifest for a single-package repository; README and
// manifest for a member.
func (s *VerifyService) licenseRefs(r *run, sc domain.Scope, res *domain.DetectionResult) ([]verify.LicenseRef, error) {
	cfg := r.cfg
	var refs []verify.LicenseRef

	if sc.IsRoot() {
		id, _ := res.LicenseFor(cfg.LicenseFile)
		refs = append(refs, verify.Ref(cfg.LicenseFile, id))
	}

	id, _ := res.LicenseFor(cfg.ReadmeFile)
	refs = append(refs, verify.Ref(cfg.ReadmeFile, id))

	if sc.IsRoot() && cfg.Workspace {
		return refs, nil
	}

	manifestID, err := s.manifestLicense(r, sc, res)
	if err != nil {
		return nil, err
	}
	return append(refs, verify.Ref(cfg.ManifestFile, manifestID)), nil
}

// manifestLicense prefers the detector's reading of the manifest and falls
// back to parsing it when the detector did not match it.
func (s *VerifyService) manifestLicense(r *run, sc domain.Scope, res *domain.DetectionResult) (string, error) {
	if id, ok := res.LicenseFor(r.cfg.ManifestFile); ok {
		return id, nil
	}
	if s.manifests == nil {
		return "", nil
	}

	path := filepath.Join(sc.Path, r.cfg.ManifestFile)
	id, ok, err := s.manifests.License(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", nil
	case err != nil:
		return "", domain.Wrap(err, domain.CategoryInvocation, "manifest_unreadable", "")
	case !ok:
		r.log.Debug("manifest declares no license", zap.String("scope", sc.Name), zap.String("path", path))
		return "", nil
	}

	r.log.Info("read manifest license",
		zap.String("scope", sc.Name),
		zap.String("manifest", r.cfg.ManifestFile),
		zap.String("license", id),
	)
	return id, nil
}

func (s *VerifyService) resolveAttribution(r *run, root domain.Scope) (string, error) {
	raw := r.results[root.Path].AttributionFor(r.cfg.LicenseFile)
	if strings.TrimSpace(raw) == "" {
		r.log.Warn("no attribution detected in license file, using default",
			zap.String("file", r.cfg.LicenseFile))
	}

	attribution, err := verify.ResolveAttribution(raw, r.cfg.Organization, s.now())
	if err != nil {
		return "", s.abort(r, domain.StageAttribution, root.Name, err)
	}

	r.report.Attribution = attribution
	r.report.Add(domain.Pass(domain.StageAttribution, root.Name, attribution))
	r.log.Info("resolved attribution", zap.String("attribution", attribution))
	return attribution, nil
}

func (s *VerifyService) checkCoverage(ctx context.Context, r *run, root, attribution string) error {
	res, err := s.searcher.FilesWithout(ctx, root, attribution, r.cfg.Coverage.FileType)
	if err != nil {
		return s.abort(r, domain.StageCoverage, domain.RootScopeName, err)
	}

	if len(res.Output) == 0 && res.ExitCode != 0 {
		r.log.Warn("search produced no output with a non-zero status, treating as no offenders",
			zap.Int("exit_code", res.ExitCode),
			zap.Strings("stderr", res.Stderr))
	}

	offenders, err := verify.InterpretSearch(res)
	if err != nil {
		return s.abort(r, domain.StageCoverage, domain.RootScopeName, err)
	}

	r.report.Offenders = offenders
	r.log.Info("source coverage",
		zap.String("file_type", r.cfg.Coverage.FileType),
		zap.Int("offenders", len(offenders)),
	)

	out := verify.CoverageOutcome(attribution, offenders)
	if out.Passed() {
		return s.record(r, out, domain.CategoryCoverage, "")
	}

	r.report.Add(out)
	for _, f := range offenders {
		r.log.Error("missing copyright notice", zap.String("file", f))
	}
	return domain.Wrap(
		fmt.Errorf("%s: %s", out.Reason, strings.Join(offenders, ", ")),
		domain.CategoryCoverage, "missing_copyright", "add the copyright notice to every listed file",
	)
}

// record adds a rule outcome to the report and turns a failure into a
// classified error.
func (s *VerifyService) record(r *run, out domain.Outcome, category domain.Category, code string) error {
	r.report.Add(out)
	if out.Passed() {
		r.log.Info(string(out.Stage)+" check passed", zap.String("scope", out.Scope))
		return nil
	}

	r.log.Error(string(out.Stage)+" check failed",
		zap.String("scope", out.Scope),
		zap.String("reason", out.Reason),
		zap.Strings("details", out.Details),
	)
	return domain.Wrap(fmt.Errorf("%s: %s", out.Scope, out.Reason), category, code, strings.Join(out.Details, "\n"))
}

// abort records err as the failing outcome of stage.
func (s *VerifyService) abort(r *run, stage domain.Stage, scope string, err error) error {
	r.report.Add(domain.Fail(stage, scope, err.Error()))
	r.log.Error(string(stage)+" stage aborted", zap.String("scope", scope), zap.Error(err))
	return err
}

// CheckManifest verifies that the manifest at path declares expected as its
// license.
func (s *VerifyService) CheckManifest(path, expected string) (domain.Outcome, error) {
	name := filepath.Base(path)

	license, ok, err := s.manifests.License(path)
	if err != nil {
		return domain.Outcome{}, domain.Wrap(err, domain.CategoryInvocation, "manifest_unreadable", "")
	}

	var out domain.Outcome
	switch {
	case !ok:
		out = domain.Fail(domain.StageManifest, name, "the manifest does not contain a license for the package")
	case license != expected:
		out = domain.Fail(domain.StageManifest, name,
			fmt.Sprintf("the license in the manifest was expected to be '%s'", expected),
			fmt.Sprintf("The actual value is '%s'.", license),
			fmt.Sprintf("Update the manifest to use '%s' for the license.", expected),
		)
	default:
		out = domain.Pass(domain.StageManifest, name, license)
	}

	if !out.Passed() {
		s.logger.Error("manifest check failed", zap.String("manifest", path), zap.String("reason", out.Reason))
		return out, domain.Wrap(errors.New(out.Reason), domain.CategoryPolicy, "manifest_license", strings.Join(out.Details, "\n"))
	}
	s.logger.Info("manifest check passed", zap.String("manifest", path), zap.String("license", license))
	return out, nil
}
