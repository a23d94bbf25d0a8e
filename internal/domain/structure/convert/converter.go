// Package convert turns target structures stored in docking-engine native
// formats into plain structure-record files the parser understands.
package convert

import (
	"context"
	"io"
)

// Converter rewrites a target structure from an engine-native format into a
// plain structure-record stream.
type Converter interface {
	// Convert reads an engine-native structure from r and writes the
	// converted plain-format equivalent to w.
	Convert(ctx context.Context, r io.Reader, w io.Writer) error
}
