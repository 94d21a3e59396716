//go:build !cgo

package source

import (
	"context"
	"errors"
)

// ErrNoCGO is returned when source extraction is unavailable due to missing CGO.
var ErrNoCGO = errors.New("source parsing requires CGO (tree-sitter)")

// Extractor parses source files into Units.
// This is a stub implementation for non-CGO builds.
type Extractor struct{}

// NewExtractor creates a new source extractor.
// Returns nil when CGO is disabled.
func NewExtractor(markers Markers) *Extractor {
	return nil
}

// Supports reports whether the file extension maps to a supported language.
func (e *Extractor) Supports(path string) bool {
	return false
}

// ParseFile parses a single file into a Unit.
// Stub implementation returns an error.
func (e *Extractor) ParseFile(ctx context.Context, absPath, canonicalPath string) (*Unit, error) {
	return nil, ErrNoCGO
}

// ParseSource parses source bytes into a Unit.
// Stub implementation returns an error.
func (e *Extractor) ParseSource(ctx context.Context, canonicalPath string, src []byte, lang Language) (*Unit, error) {
	return nil, ErrNoCGO
}

// IsAvailable returns whether source extraction is available.
// Returns false when CGO is disabled.
func IsAvailable() bool {
	return false
}
