// Package paths normalizes filesystem paths into the canonical
// root-relative, forward-slash form used throughout the generated document.
package paths

import (
	"path/filepath"
	"strings"
)

// Canonicalize converts an absolute path to a root-relative canonical path
// with forward slashes. Paths outside root are returned absolute (still
// forward-slashed) so they remain identifiable in diagnostics.
func Canonicalize(absolutePath, root string) string {
	rel, err := filepath.Rel(root, absolutePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(absolutePath)
	}
	return filepath.ToSlash(rel)
}

// Namespace converts a root-relative source path into a dotted namespace,
// dropping the file extension. Used for languages without an in-file
// namespace declaration.
func Namespace(canonicalPath string) string {
	p := canonicalPath
	if ext := filepath.Ext(p); ext != "" {
		p = strings.TrimSuffix(p, ext)
	}
	p = strings.TrimPrefix(p, "./")
	return strings.ReplaceAll(p, "/", ".")
}
