package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openkraft/licensekraft/internal/adapters/outbound/config"
	"github.com/openkraft/licensekraft/internal/domain"
)

const configHeader = `# licensekraft configuration
# CI inputs (INPUT_CARGO-WORKSPACE, INPUT_CRATES, INPUT_COMPANY-NAME) and
# command-line flags override the values below.

`

func newInitCmd() *cobra.Command {
	var (
		organization string
		members      string
		workspace    bool
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Generate a .licensekraft.yaml configuration file",
		Long:  "Create a .licensekraft.yaml holding the default policy for your repository.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			dest := filepath.Join(absPath, config.FileName)

			if !force {
				if _, err := os.Stat(dest); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", config.FileName)
				}
			}

			cfg := domain.DefaultConfig()
			cfg.Organization = organization
			cfg.Workspace = workspace
			cfg.Members = domain.ParseMembers(members)
			if workspace && len(cfg.Members) == 0 {
				return fmt.Errorf("--workspace requires --members")
			}

			content, err := generateConfig(cfg)
			if err != nil {
				return err
			}

			if err := os.WriteFile(dest, content, 0644); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", config.FileName)
			return nil
		},
	}

	cmd.Flags().StringVar(&organization, "organization", "", "Organization named in the copyright notice")
	cmd.Flags().StringVar(&members, "members", "", "Space-delimited workspace member directories")
	cmd.Flags().BoolVar(&workspace, "workspace", false, "Configure a multi-package workspace")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing .licensekraft.yaml")

	return cmd
}

func generateConfig(cfg domain.Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(configHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}
