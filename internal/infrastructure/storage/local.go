package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/turtacn/moldock/pkg/errors"
)

// LocalStore is a Store rooted at a directory on the local filesystem.
//
// Rename support is configurable: network mounts and FUSE volumes commonly
// reject cross-directory rename, so a store on such a volume is constructed
// with rename disabled and Move degrades to copy+delete.
type LocalStore struct {
	root   string
	rename bool
}

// NewLocalStore returns a store rooted at root.  allowRename should be false
// when root lives on a volume that does not support rename.
func NewLocalStore(root string, allowRename bool) *LocalStore {
	return &LocalStore{root: filepath.Clean(root), rename: allowRename}
}

// abs resolves a store path to an absolute filesystem path.  Joining
// collapses parent references, so the result is checked against the root:
// a path that climbs out of the store is rejected, never resolved.
func (s *LocalStore) abs(path string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(path))
	if p != s.root && !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", apperrors.New(apperrors.ErrCodeValidation, "path escapes store root: "+path)
	}
	return p, nil
}

func (s *LocalStore) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "existence check cancelled")
	}
	abs, err := s.abs(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(abs)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "stat "+path)
}

func (s *LocalStore) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "read cancelled")
	}
	abs, err := s.abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NotFound("no content at " + path)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "read "+path)
	}
	return data, nil
}

func (s *LocalStore) Write(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "write cancelled")
	}
	dst, err := s.abs(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "create directory for "+path)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "write "+path)
	}
	return nil
}

func (s *LocalStore) Move(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "move cancelled")
	}
	absSrc, err := s.abs(src)
	if err != nil {
		return err
	}
	absDst, err := s.abs(dst)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(absDst), 0o755); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "create directory for "+dst)
	}
	if s.rename {
		if err := os.Rename(absSrc, absDst); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "rename "+src+" to "+dst)
		}
		return nil
	}
	if err := s.copyFile(absSrc, absDst); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "copy "+src+" to "+dst)
	}
	// Source cleanup after a successful copy is best effort.
	_ = os.Remove(absSrc)
	return nil
}

func (s *LocalStore) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "remove cancelled")
	}
	abs, err := s.abs(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "remove "+path)
	}
	return nil
}

func (s *LocalStore) CanRename() bool { return s.rename }

func (s *LocalStore) copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
