// Package storage provides path-addressed byte stores with eventual
// read-after-write visibility, plus the polling reader that bridges the
// propagation lag between a writer and a reader of the same path.
package storage

import "context"

// Store is a path-addressed byte store.  Paths are forward-slash separated
// and relative to the store's root (or bucket).
//
// Visibility is eventual: a successful Write does not guarantee that an
// immediately following Exists or Read from another process observes the
// content.  Callers that need to consume a path produced elsewhere should go
// through Awaiter.
type Store interface {
	// Exists reports whether path currently resolves to stored content.
	Exists(ctx context.Context, path string) (bool, error)

	// Read returns the full content at path.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write stores data at path, creating intermediate directories or
	// prefixes as needed and overwriting any previous content.
	Write(ctx context.Context, path string, data []byte) error

	// Move relocates content from src to dst.  Implementations that cannot
	// rename atomically fall back to copy followed by delete; a failure to
	// delete the source after a successful copy is not an error.
	Move(ctx context.Context, src, dst string) error

	// Remove deletes the content at path.  Removing a missing path is not
	// an error.
	Remove(ctx context.Context, path string) error

	// CanRename reports whether Move is backed by an atomic rename.  When
	// false, Move is copy+delete and a concurrent reader may observe the
	// destination mid-copy.
	CanRename() bool
}
