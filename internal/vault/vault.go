// Package vault implements confined file access over a set of allowed
// root directories. Every path handed to an operation is resolved through
// Validate, which guarantees the result lies inside one of the roots.
package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NoteExt is the file extension recognized as a note.
const NoteExt = ".md"

// AppDir is the per-root directory holding vgate's own config and state.
// Its leading dot already excludes it from every operation; walks skip it
// without a diagnostic so the audit database does not warn on each call.
const AppDir = ".vgate"

// Sentinel errors returned by Validate. Callers match with errors.Is.
var (
	// ErrAccessDenied is returned for hidden path segments and for paths
	// that resolve (directly or through a symlink) outside all roots.
	ErrAccessDenied = fmt.Errorf("access denied")
	// ErrNotFound is returned when neither the candidate nor its parent
	// directory exists.
	ErrNotFound = fmt.Errorf("not found")
)

// Vault holds the immutable set of allowed roots. Construct once at startup
// with New and share by pointer; it is safe for concurrent use.
type Vault struct {
	roots     []string // absolute
	normRoots []string // normalized forms of roots, same order
}

// New builds a Vault from one or more root directories. Roots are made
// absolute here; existence checks belong to startup validation, not to New.
// The first root is the primary root used for relative reporting.
func New(roots ...string) (*Vault, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("vault: at least one root required")
	}
	v := &Vault{}
	for _, r := range roots {
		abs, err := filepath.Abs(expandHome(r))
		if err != nil {
			return nil, fmt.Errorf("vault root %q: %w", r, err)
		}
		// Roots are compared against real paths later, so resolve the root
		// itself through any symlinks now (e.g. /tmp on macOS).
		if real, rerr := filepath.EvalSymlinks(abs); rerr == nil {
			abs = real
		}
		v.roots = append(v.roots, abs)
		v.normRoots = append(v.normRoots, normalizePath(abs))
	}
	return v, nil
}

// Roots returns the absolute allowed roots.
func (v *Vault) Roots() []string {
	out := make([]string, len(v.roots))
	copy(out, v.roots)
	return out
}

// PrimaryRoot returns the first configured root.
func (v *Vault) PrimaryRoot() string {
	return v.roots[0]
}

// normalizePath produces the comparable form used for containment checks:
// cleaned, forward slashes, lower case. Case folding applies even on
// case-sensitive filesystems so containment decisions are uniform across
// platforms. Pure function, no I/O.
func normalizePath(p string) string {
	return strings.ToLower(filepath.ToSlash(filepath.Clean(p)))
}

// inRoots reports whether the normalized form of p has one of the allowed
// roots as a normalized string prefix. Deliberately a plain prefix
// comparison, matching the reference containment semantics.
func (v *Vault) inRoots(p string) bool {
	norm := normalizePath(p)
	for _, root := range v.normRoots {
		if strings.HasPrefix(norm, root) {
			return true
		}
	}
	return false
}

// hasHiddenSegment reports whether any path segment starts with a dot.
// This covers dotfiles and dot-directories anywhere in the path, and as a
// side effect also rejects "." and ".." traversal segments.
func hasHiddenSegment(p string) bool {
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == '\\'
	}) {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// expandHome replaces a leading ~ with the invoking user's home directory.
func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err == nil && home != "" {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}

// Validate resolves a candidate path to a real filesystem location
// guaranteed to lie inside one of the allowed roots, or fails with
// ErrAccessDenied / ErrNotFound.
//
// For targets that do not exist yet (the write-new-file case), the parent
// directory is resolved instead and the original absolute candidate is
// returned. Relative candidates resolve against the process working
// directory, independent of the roots — reference behavior, kept as is.
func (v *Vault) Validate(candidate string) (string, error) {
	if strings.ContainsRune(candidate, 0) {
		return "", fmt.Errorf("%w: invalid path", ErrAccessDenied)
	}
	if hasHiddenSegment(candidate) {
		return "", fmt.Errorf("%w: hidden path segment", ErrAccessDenied)
	}

	abs, err := filepath.Abs(expandHome(candidate))
	if err != nil {
		return "", fmt.Errorf("%w: invalid path", ErrAccessDenied)
	}
	if !v.inRoots(abs) {
		return "", fmt.Errorf("%w: outside allowed directories", ErrAccessDenied)
	}

	real, err := filepath.EvalSymlinks(abs)
	if err == nil {
		if !v.inRoots(real) {
			return "", fmt.Errorf("%w: symlink target outside allowed directories", ErrAccessDenied)
		}
		return real, nil
	}

	// Target does not exist — expected for write destinations. Confine via
	// the parent directory, but return the original absolute path: the file
	// itself has no real path yet.
	realParent, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return "", fmt.Errorf("%w: parent directory does not exist", ErrNotFound)
	}
	if !v.inRoots(realParent) {
		return "", fmt.Errorf("%w: symlink target outside allowed directories", ErrAccessDenied)
	}
	return abs, nil
}
