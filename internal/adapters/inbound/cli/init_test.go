package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkraft/licensekraft/internal/adapters/inbound/cli"
	"github.com/openkraft/licensekraft/internal/adapters/outbound/config"
)

func TestInitCmd_CreatesConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	root := cli.NewRootCmdForTest()
	root.SetArgs([]string{"init", tmpDir, "--organization", "Acme"})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(filepath.Join(tmpDir, ".licensekraft.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "organization: Acme")
	assert.Contains(t, string(data), "min_matches: 2")
}

func TestInitCmd_RoundTripsThroughLoader(t *testing.T) {
	clearInputs(t)
	tmpDir := t.TempDir()

	root := cli.NewRootCmdForTest()
	root.SetArgs([]string{"init", tmpDir, "--organization", "Acme", "--workspace", "--members", "crates/a crates/b"})
	require.NoError(t, root.Execute())

	cfg, err := config.New().Load(tmpDir)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Acme", cfg.Organization)
	assert.True(t, cfg.Workspace)
	assert.Equal(t, []string{"crates/a", "crates/b"}, cfg.Members)
	assert.Equal(t, 3, cfg.Policy.Root.MaxMatches)
}

func TestInitCmd_WorkspaceRequiresMembers(t *testing.T) {
	root := cli.NewRootCmdForTest()
	root.SetArgs([]string{"init", t.TempDir(), "--workspace"})
	err := root.Execute()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "--members")
}

func TestInitCmd_FailsIfExists(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".licensekraft.yaml"), []byte("existing"), 0644))

	root := cli.NewRootCmdForTest()
	root.SetArgs([]string{"init", tmpDir})
	err := root.Execute()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitCmd_ForceOverwrites(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".licensekraft.yaml"), []byte("old"), 0644))

	root := cli.NewRootCmdForTest()
	root.SetArgs([]string{"init", tmpDir, "--force"})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(filepath.Join(tmpDir, ".licensekraft.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "policy:")
	assert.NotEqual(t, "old", string(data))
}
