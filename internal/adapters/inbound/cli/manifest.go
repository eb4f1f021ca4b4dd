package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openkraft/licensekraft/internal/adapters/outbound/manifest"
	"github.com/openkraft/licensekraft/internal/adapters/outbound/tui"
	"github.com/openkraft/licensekraft/internal/application"
	"github.com/openkraft/licensekraft/internal/domain"
)

func newManifestCmd() *cobra.Command {
	var (
		license   string
		logLevel  string
		logFormat string
	)

	cmd := &cobra.Command{
		Use:   "manifest [Cargo.toml]",
		Short: "Check the license declared in a Cargo manifest",
		Long:  "Fail unless the manifest's package.license equals the expected license identifier.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := domain.DefaultManifestFile
			if len(args) > 0 {
				path = args[0]
			}

			opts := runOptions{logLevel: logLevel, logFormat: logFormat}
			logger, err := opts.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			svc := application.NewVerifyService(nil, nil, manifest.New(), application.WithLogger(logger))
			out, err := svc.CheckManifest(path, license)
			if domain.CategoryOf(err) == domain.CategoryInvocation {
				return fmt.Errorf("reading manifest: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), tui.RenderManifestOutcome(path, license, out))
			return err
		},
	}

	cmd.Flags().StringVar(&license, "license", "", "Expected license identifier (e.g. MIT)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormat, "log-format", "console", "Log format (console, json)")
	_ = cmd.MarkFlagRequired("license")

	return cmd
}
