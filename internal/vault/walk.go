package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// VisitFunc decides what to do with a validated directory entry: descend
// into it (directories only) and/or report its full path as a match.
type VisitFunc func(entry fs.DirEntry, fullPath string) (descend, report bool)

// Walk recursively visits the subtree rooted at dir, which must already be
// a validated path, and returns the full paths the visit function reported.
// Every entry is re-validated before it is visited, so a symlink planted
// inside an otherwise-confined tree cannot widen the walk. Validation and
// read failures on individual entries are recorded as diagnostics and
// skipped; they never abort the walk. The AppDir state directory is
// skipped silently.
//
// Known limitation: a symlink cycle inside the roots can recurse without
// bound. No depth limit or visited-set is applied.
func (v *Vault) Walk(dir string, visit VisitFunc) (matches, diags []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.Name() == AppDir {
			continue
		}
		full := filepath.Join(dir, entry.Name())
		if _, verr := v.Validate(full); verr != nil {
			diags = append(diags, fmt.Sprintf("skipped %s: %v", full, verr))
			continue
		}
		descend, report := visit(entry, full)
		if report {
			matches = append(matches, full)
		}
		if descend && entry.IsDir() {
			sub, subDiags, serr := v.Walk(full, visit)
			matches = append(matches, sub...)
			diags = append(diags, subDiags...)
			if serr != nil {
				diags = append(diags, serr.Error())
			}
		}
	}
	return matches, diags, nil
}
