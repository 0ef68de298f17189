package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// SearchLimit caps the number of matches a search reports. Matches beyond
// the cap are counted, not returned.
const SearchLimit = 200

// SearchResult holds the outcome of a note search across all roots.
type SearchResult struct {
	Matches []string // root-relative paths, at most SearchLimit
	Omitted int      // matches beyond SearchLimit
	Diags   []string // non-fatal per-entry diagnostics
}

// SearchNotes finds note files whose name matches the query, walking every
// allowed root. A name matches when the query is a case-insensitive
// substring, or when the query (with * as a wildcard) matches the whole
// name case-insensitively. An invalid pattern silently degrades to the
// substring check alone.
func (v *Vault) SearchNotes(query string) (SearchResult, error) {
	var res SearchResult
	for _, root := range v.roots {
		matches, diags, err := v.Walk(root, func(entry fs.DirEntry, full string) (bool, bool) {
			if entry.IsDir() {
				return true, false
			}
			name := entry.Name()
			return false, strings.HasSuffix(name, NoteExt) && matchesQuery(name, query)
		})
		res.Diags = append(res.Diags, diags...)
		if err != nil {
			return res, err
		}
		for _, full := range matches {
			rel, rerr := filepath.Rel(root, full)
			if rerr != nil {
				rel = full
			}
			if len(res.Matches) < SearchLimit {
				res.Matches = append(res.Matches, rel)
			} else {
				res.Omitted++
			}
		}
	}
	return res, nil
}

// matchesQuery applies the case-insensitive substring-or-pattern rule.
func matchesQuery(name, query string) bool {
	lowerName := strings.ToLower(name)
	lowerQuery := strings.ToLower(query)
	if strings.Contains(lowerName, lowerQuery) {
		return true
	}
	// path.Match returns ErrBadPattern for malformed patterns; treat that
	// as "no pattern match" rather than an error.
	ok, err := path.Match(lowerQuery, lowerName)
	return err == nil && ok
}

// ReadResult is the per-item outcome of a batch read.
type ReadResult struct {
	Path    string // path as requested
	Content string // file content when Err is nil
	Err     error  // validation or read failure for this item only
}

// readWorkers bounds the fan-out of a batch read.
const readWorkers = 4

// ReadNotes reads each path independently and returns results in input
// order. A failure on one path is captured inline in its ReadResult; the
// batch itself never fails.
func (v *Vault) ReadNotes(paths []string) []ReadResult {
	results := make([]ReadResult, len(paths))

	type job struct {
		idx  int
		path string
	}
	jobs := make(chan job, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < readWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.idx] = v.readOne(j.path)
			}
		}()
	}
	for i, p := range paths {
		jobs <- job{idx: i, path: p}
	}
	close(jobs)
	wg.Wait()

	return results
}

func (v *Vault) readOne(p string) ReadResult {
	resolved, err := v.Validate(p)
	if err != nil {
		return ReadResult{Path: p, Err: err}
	}
	content, err := os.ReadFile(resolved)
	if err != nil {
		return ReadResult{Path: p, Err: err}
	}
	return ReadResult{Path: p, Content: string(content)}
}

// ListDirectories walks the subtree rooted at the validated path and
// returns directories (never files) as paths relative to the primary root,
// along with non-fatal diagnostics.
func (v *Vault) ListDirectories(p string) (dirs, diags []string, err error) {
	resolved, err := v.Validate(p)
	if err != nil {
		return nil, nil, err
	}
	matches, diags, err := v.Walk(resolved, func(entry fs.DirEntry, full string) (bool, bool) {
		return entry.IsDir(), entry.IsDir()
	})
	if err != nil {
		return nil, diags, err
	}
	for _, full := range matches {
		rel, rerr := filepath.Rel(v.PrimaryRoot(), full)
		if rerr != nil {
			rel = full
		}
		dirs = append(dirs, rel)
	}
	return dirs, diags, nil
}

// WriteStatus classifies the outcome of WriteNote.
type WriteStatus int

const (
	// WriteOK means the content was written.
	WriteOK WriteStatus = iota
	// WriteDenied means confinement rejected the path. This is a soft
	// failure: Guidance carries a user-facing message listing the allowed
	// roots so the caller can retry with a corrected path.
	WriteDenied
	// WriteFailed means the path validated but the filesystem write
	// failed. Err carries the underlying error.
	WriteFailed
)

// WriteResult is the three-state outcome of WriteNote.
type WriteResult struct {
	Status   WriteStatus
	Path     string // resolved target on WriteOK
	Guidance string // set on WriteDenied
	Err      error  // set on WriteFailed
}

// WriteNote writes content to the given path, overwriting any existing
// file. A new file's path validates through the parent-directory fallback.
// Confinement rejections are reported as soft failures with guidance, not
// as hard errors.
func (v *Vault) WriteNote(p, content string) WriteResult {
	resolved, err := v.Validate(p)
	if err != nil {
		return WriteResult{
			Status: WriteDenied,
			Guidance: fmt.Sprintf(
				"Cannot write to %s: %v. Paths must stay within the allowed directories: %s",
				p, err, strings.Join(v.roots, ", ")),
		}
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return WriteResult{Status: WriteFailed, Err: err}
	}
	return WriteResult{Status: WriteOK, Path: resolved}
}
