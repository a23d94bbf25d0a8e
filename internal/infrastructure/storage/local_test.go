package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/moldock/pkg/errors"
)

func TestLocalStore_WriteReadExists(t *testing.T) {
	s := NewLocalStore(t.TempDir(), true)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "results/abc.pdb")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Write(ctx, "results/abc.pdb", []byte("ATOM")))

	ok, err = s.Exists(ctx, "results/abc.pdb")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := s.Read(ctx, "results/abc.pdb")
	require.NoError(t, err)
	assert.Equal(t, []byte("ATOM"), data)
}

func TestLocalStore_ReadMissing(t *testing.T) {
	s := NewLocalStore(t.TempDir(), true)
	_, err := s.Read(context.Background(), "nope.pdb")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestLocalStore_MoveRename(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(root, true)
	ctx := context.Background()
	assert.True(t, s.CanRename())

	require.NoError(t, s.Write(ctx, "tmp/docked.pdb", []byte("content")))
	require.NoError(t, s.Move(ctx, "tmp/docked.pdb", "results/t/final.pdb"))

	_, err := os.Stat(filepath.Join(root, "tmp", "docked.pdb"))
	assert.True(t, os.IsNotExist(err))

	data, err := s.Read(ctx, "results/t/final.pdb")
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), data)
}

func TestLocalStore_MoveCopyDelete(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(root, false)
	ctx := context.Background()
	assert.False(t, s.CanRename())

	require.NoError(t, s.Write(ctx, "tmp/docked.pdb", []byte("content")))
	require.NoError(t, s.Move(ctx, "tmp/docked.pdb", "results/t/final.pdb"))

	_, err := os.Stat(filepath.Join(root, "tmp", "docked.pdb"))
	assert.True(t, os.IsNotExist(err))

	data, err := s.Read(ctx, "results/t/final.pdb")
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), data)
}

func TestLocalStore_RemoveMissingIsNoop(t *testing.T) {
	s := NewLocalStore(t.TempDir(), true)
	assert.NoError(t, s.Remove(context.Background(), "never-written.pdb"))
}

func TestLocalStore_WriteOverwrites(t *testing.T) {
	s := NewLocalStore(t.TempDir(), true)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "k.pdb", []byte("first")))
	require.NoError(t, s.Write(ctx, "k.pdb", []byte("second")))

	data, err := s.Read(ctx, "k.pdb")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestLocalStore_PathEscapeRejected(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "store")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.pdb"), []byte("outside the store"), 0o644))

	s := NewLocalStore(root, true)
	ctx := context.Background()

	data, err := s.Read(ctx, "../secret.pdb")
	require.Error(t, err)
	assert.Nil(t, data)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetCode(err))

	assert.Error(t, s.Write(ctx, "../evil.pdb", []byte("x")))
	assert.NoFileExists(t, filepath.Join(parent, "evil.pdb"))

	assert.Error(t, s.Move(ctx, "../secret.pdb", "in.pdb"))
	assert.Error(t, s.Move(ctx, "in.pdb", "../out.pdb"))
	assert.Error(t, s.Remove(ctx, "../secret.pdb"))
	_, err = s.Exists(ctx, "docking_results/../../secret.pdb")
	assert.Error(t, err)

	// Parent references that stay inside the root are still fine.
	require.NoError(t, s.Write(ctx, "a/../b.pdb", []byte("inside")))
	data, err = s.Read(ctx, "b.pdb")
	require.NoError(t, err)
	assert.Equal(t, []byte("inside"), data)
}
