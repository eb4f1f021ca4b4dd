package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openkraft/licensekraft/internal/adapters/outbound/config"
	"github.com/openkraft/licensekraft/internal/adapters/outbound/gitinfo"
	"github.com/openkraft/licensekraft/internal/adapters/outbound/history"
	"github.com/openkraft/licensekraft/internal/adapters/outbound/licensee"
	"github.com/openkraft/licensekraft/internal/adapters/outbound/logging"
	"github.com/openkraft/licensekraft/internal/adapters/outbound/manifest"
	"github.com/openkraft/licensekraft/internal/adapters/outbound/ripgrep"
	"github.com/openkraft/licensekraft/internal/adapters/outbound/tui"
	"github.com/openkraft/licensekraft/internal/application"
	"github.com/openkraft/licensekraft/internal/domain"
)

// runOptions holds the flags shared by verify and watch.
type runOptions struct {
	workspace    bool
	members      string
	organization string
	fileType     string
	dockerImage  string
	jsonOutput   bool
	noHistory    bool
	logLevel     string
	logFormat    string
}

func (o *runOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.workspace, "workspace", false, "Treat the repository as a multi-package workspace")
	cmd.Flags().StringVar(&o.members, "members", "", "Space-delimited workspace member directories")
	cmd.Flags().StringVar(&o.organization, "organization", "", "Organization named in the copyright notice")
	cmd.Flags().StringVar(&o.fileType, "file-type", "", "Source file type to scan for the copyright notice")
	cmd.Flags().StringVar(&o.dockerImage, "docker-image", "", "Run the license detector inside this docker image")
	cmd.Flags().BoolVar(&o.jsonOutput, "json", false, "Output the report as canonical JSON")
	cmd.Flags().BoolVar(&o.noHistory, "no-history", false, "Do not record the run in .licensekraft/history")
	cmd.Flags().StringVar(&o.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&o.logFormat, "log-format", string(logging.FormatConsole), "Log format (console, json)")
}

// loadConfig layers flags over the file and environment configuration.
func (o *runOptions) loadConfig(cmd *cobra.Command, root string) (domain.Config, error) {
	var loader domain.ConfigLoader = config.New()
	cfg, err := loader.Load(root)
	if err != nil {
		return domain.Config{}, err
	}

	if cmd.Flags().Changed("workspace") {
		cfg.Workspace = o.workspace
	}
	if cmd.Flags().Changed("members") {
		cfg.Members = domain.ParseMembers(o.members)
	}
	if o.organization != "" {
		cfg.Organization = o.organization
	}
	if o.fileType != "" {
		cfg.Coverage.FileType = o.fileType
	}
	if o.dockerImage != "" {
		cfg.Detector.DockerImage = o.dockerImage
	}
	return cfg, nil
}

func (o *runOptions) logger(w io.Writer) (*zap.Logger, error) {
	return logging.New(logging.Config{Level: o.logLevel, Format: logging.Format(o.logFormat)}, w)
}

func newVerifyService(cfg domain.Config, logger *zap.Logger) *application.VerifyService {
	return application.NewVerifyService(
		licensee.New(cfg.Detector),
		ripgrep.New(cfg.Coverage),
		manifest.New(),
		application.WithLogger(logger),
		application.WithGitInfo(gitinfo.New()),
	)
}

func newVerifyCmd() *cobra.Command {
	var (
		opts        runOptions
		showHistory bool
	)

	cmd := &cobra.Command{
		Use:   "verify [path]",
		Short: "Verify license consistency and copyright coverage",
		Long: "Check that LICENSE, README and manifests declare the same license at the repository root " +
			"and in every workspace member, then check that every source file carries the copyright notice.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			logger, err := opts.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cfg, err := opts.loadConfig(cmd, absPath)
			if err != nil {
				return err
			}

			report, runErr := newVerifyService(cfg, logger).Verify(cmd.Context(), absPath, cfg)
			if report == nil {
				return runErr
			}

			var hist domain.RunHistory = history.New()
			if !opts.noHistory {
				if err := hist.Save(absPath, domain.EntryFor(report)); err != nil {
					logger.Warn("could not record run history", zap.Error(err))
				}
			}

			if err := renderReport(cmd.OutOrStdout(), report, opts.jsonOutput); err != nil {
				return err
			}

			if showHistory {
				entries, err := hist.Load(absPath)
				if err != nil {
					return fmt.Errorf("loading history: %w", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderHistory(entries))
			}

			return runErr
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&showHistory, "history", false, "Show previous runs after the report")

	return cmd
}

func renderReport(w io.Writer, report *domain.Report, jsonOutput bool) error {
	if !jsonOutput {
		_, err := fmt.Fprint(w, tui.RenderReport(report))
		return err
	}
	data, err := tui.RenderJSON(report)
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	_, err = w.Write(data)
	return err
}
