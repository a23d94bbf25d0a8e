package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand_Version(t *testing.T) {
	out, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev")
}

func TestRootCommand_UnknownSubcommand(t *testing.T) {
	_, err := executeCommand(t, "frobnicate")
	assert.Error(t, err)
}

func TestDockCommand_RequiredFlags(t *testing.T) {
	t.Run("missing smiles", func(t *testing.T) {
		_, err := executeCommand(t, "dock", "--target", "DRD2")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--smiles")
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := executeCommand(t, "dock", "--smiles", "CCO")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--target")
	})

	t.Run("bad output format", func(t *testing.T) {
		_, err := executeCommand(t, "dock", "--smiles", "CCO", "--target", "DRD2", "-o", "yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "output format")
	})
}

func TestTargetsCommand(t *testing.T) {
	root := t.TempDir()
	targetsDir := filepath.Join(root, "targets")
	require.NoError(t, os.MkdirAll(targetsDir, 0o755))
	for _, name := range []string{"DRD2_target.pdbqt", "MAOB_target.pdbqt", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(targetsDir, name), []byte("x"), 0o644))
	}
	t.Setenv("MOLDOCK_STORAGE_ROOT", root)

	out, err := executeCommand(t, "targets")
	require.NoError(t, err)
	assert.Equal(t, "DRD2\nMAOB\n", out)
}

func TestTargetsCommand_EmptyRoot(t *testing.T) {
	t.Setenv("MOLDOCK_STORAGE_ROOT", t.TempDir())

	out, err := executeCommand(t, "targets")
	require.NoError(t, err)
	assert.Contains(t, out, "no targets")
}
