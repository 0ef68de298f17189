// Package watcher monitors the vault for file changes and flags events that
// resolve outside the confinement boundary.
package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sgx-labs/vaultgate/internal/guard"
	"github.com/sgx-labs/vaultgate/internal/vault"
)

// Watch starts watching every confined directory of the vault's roots and
// reports note changes on stderr. Event paths are re-validated through the
// vault: an event whose path no longer resolves inside the roots (a planted
// symlink, a moved directory) is reported as a warning and audited. audit
// may be nil. Blocks until an unrecoverable watcher error occurs.
func Watch(v *vault.Vault, audit *guard.AuditStore) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	total := 0
	for _, root := range v.Roots() {
		dirs := walkDirs(v, root)
		for _, d := range dirs {
			if err := w.Add(d); err != nil {
				fmt.Fprintf(os.Stderr, "  [WARN] Could not watch %s: %v\n", d, err)
			}
		}
		total += len(dirs)
	}

	fmt.Fprintf(os.Stderr, "Watching %d directories under %s\n", total, strings.Join(v.Roots(), ", "))
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop.\n\n")

	// Debounce: collect changed notes over a window before reporting.
	var (
		mu      sync.Mutex
		pending = make(map[string]bool)
		timer   *time.Timer
	)
	const debounceDelay = 2 * time.Second

	flush := func() {
		mu.Lock()
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		pending = make(map[string]bool)
		mu.Unlock()

		for _, p := range paths {
			fmt.Fprintf(os.Stderr, "  Changed: %s\n", p)
		}
	}

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}

			// vgate's own state directory is not a change worth reporting.
			if filepath.Base(event.Name) == vault.AppDir {
				continue
			}

			if _, verr := v.Validate(event.Name); verr != nil {
				fmt.Fprintf(os.Stderr, "  [WARN] unconfined change ignored: %s: %v\n", event.Name, verr)
				if audit != nil {
					audit.Record(guard.AuditEntry{
						Operation: "watch",
						Path:      event.Name,
						Allowed:   false,
						Reason:    verr.Error(),
					})
				}
				continue
			}

			// Watch directories as they appear.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.Add(event.Name); err != nil {
						fmt.Fprintf(os.Stderr, "  [WARN] Could not watch %s: %v\n", event.Name, err)
					}
					continue
				}
			}

			if !strings.HasSuffix(event.Name, vault.NoteExt) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				mu.Lock()
				pending[event.Name] = true
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounceDelay, flush)
				mu.Unlock()
			}

			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				fmt.Fprintf(os.Stderr, "  Removed: %s\n", event.Name)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "  [WARN] Watch error: %v\n", err)
		}
	}
}

// walkDirs collects the directories under root that pass confinement
// validation. Hidden directories and symlinks escaping the roots fail
// validation and are skipped along with their subtrees.
func walkDirs(v *vault.Vault, root string) []string {
	dirs := []string{root}
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root || !d.IsDir() {
			return nil
		}
		if _, verr := v.Validate(path); verr != nil {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs
}
