package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// --- SearchNotes ---

func TestSearchNotes_SubstringAndPattern(t *testing.T) {
	v, root := newTestVault(t)
	os.WriteFile(filepath.Join(root, "Foo Bar.md"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(root, "foo.txt"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(root, "other.md"), []byte("x"), 0o644)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"case-insensitive substring", "foo", []string{"Foo Bar.md"}},
		{"wildcard pattern", "f*.md", []string{"Foo Bar.md"}},
		{"substring matches all notes", ".md", []string{"Foo Bar.md", "other.md"}},
		{"no match", "zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.SearchNotes(tt.query)
			if err != nil {
				t.Fatalf("SearchNotes: %v", err)
			}
			if len(res.Matches) != len(tt.want) {
				t.Fatalf("got %v, want %v", res.Matches, tt.want)
			}
			for i, w := range tt.want {
				if res.Matches[i] != w {
					t.Errorf("match %d = %q, want %q", i, res.Matches[i], w)
				}
			}
		})
	}
}

func TestSearchNotes_InvalidPatternDegradesToSubstring(t *testing.T) {
	v, root := newTestVault(t)
	os.WriteFile(filepath.Join(root, "a[1].md"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(root, "plain.md"), []byte("x"), 0o644)

	// "[" is a malformed pattern; the substring check must still apply.
	res, err := v.SearchNotes("[")
	if err != nil {
		t.Fatalf("SearchNotes: %v", err)
	}
	if len(res.Matches) != 1 || res.Matches[0] != "a[1].md" {
		t.Errorf("got %v, want [a[1].md]", res.Matches)
	}
}

func TestSearchNotes_CapAndOmittedCount(t *testing.T) {
	v, root := newTestVault(t)
	for i := 0; i < 250; i++ {
		name := fmt.Sprintf("note-%03d.md", i)
		os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644)
	}

	res, err := v.SearchNotes("note-")
	if err != nil {
		t.Fatalf("SearchNotes: %v", err)
	}
	if len(res.Matches) != SearchLimit {
		t.Errorf("got %d matches, want %d", len(res.Matches), SearchLimit)
	}
	if res.Omitted != 50 {
		t.Errorf("omitted = %d, want 50", res.Omitted)
	}
}

func TestSearchNotes_SpansAllRoots(t *testing.T) {
	r1 := t.TempDir()
	r2 := t.TempDir()
	v, err := New(r1, r2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	os.WriteFile(filepath.Join(r1, "one.md"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(r2, "two.md"), []byte("x"), 0o644)

	res, err := v.SearchNotes("o")
	if err != nil {
		t.Fatalf("SearchNotes: %v", err)
	}
	// Paths come back relative to the root each was found under.
	if len(res.Matches) != 2 || res.Matches[0] != "one.md" || res.Matches[1] != "two.md" {
		t.Errorf("got %v, want [one.md two.md]", res.Matches)
	}
}

// --- ReadNotes ---

func TestReadNotes_PartialFailurePreservesOrder(t *testing.T) {
	v, root := newTestVault(t)
	os.WriteFile(filepath.Join(root, "a.md"), []byte("alpha"), 0o644)

	results := v.ReadNotes([]string{
		filepath.Join(root, "a.md"),
		filepath.Join(root, "missing.md"),
	})
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Err != nil || results[0].Content != "alpha" {
		t.Errorf("first result = %+v, want content alpha", results[0])
	}
	if results[1].Err == nil {
		t.Error("second result should carry an inline error")
	}
}

func TestReadNotes_ConfinementErrorIsPerItem(t *testing.T) {
	v, root := newTestVault(t)
	os.WriteFile(filepath.Join(root, "ok.md"), []byte("fine"), 0o644)
	outside := filepath.Join(t.TempDir(), "secret.md")

	results := v.ReadNotes([]string{outside, filepath.Join(root, "ok.md")})
	if !errors.Is(results[0].Err, ErrAccessDenied) {
		t.Errorf("outside path should fail with ErrAccessDenied, got %v", results[0].Err)
	}
	if results[1].Err != nil || results[1].Content != "fine" {
		t.Errorf("confined path should still read: %+v", results[1])
	}
}

func TestReadNotes_ManyPathsKeepOrder(t *testing.T) {
	v, root := newTestVault(t)
	var paths []string
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("n%02d.md", i)
		os.WriteFile(filepath.Join(root, name), []byte(name), 0o644)
		paths = append(paths, filepath.Join(root, name))
	}
	results := v.ReadNotes(paths)
	for i, r := range results {
		want := fmt.Sprintf("n%02d.md", i)
		if r.Content != want {
			t.Fatalf("result %d = %q, want %q", i, r.Content, want)
		}
	}
}

// --- ListDirectories ---

func TestListDirectories_DirsOnly(t *testing.T) {
	v, root := newTestVault(t)
	os.MkdirAll(filepath.Join(root, "sub1"), 0o755)
	os.MkdirAll(filepath.Join(root, "sub2"), 0o755)
	os.WriteFile(filepath.Join(root, "readme.md"), []byte("x"), 0o644)

	dirs, diags, err := v.ListDirectories(root)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if len(dirs) != 2 || dirs[0] != "sub1" || dirs[1] != "sub2" {
		t.Errorf("got %v, want [sub1 sub2]", dirs)
	}
}

func TestListDirectories_NestedRelativeToPrimaryRoot(t *testing.T) {
	v, root := newTestVault(t)
	os.MkdirAll(filepath.Join(root, "notes", "sub1"), 0o755)

	dirs, _, err := v.ListDirectories(filepath.Join(root, "notes"))
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	want := filepath.Join("notes", "sub1")
	if len(dirs) != 1 || dirs[0] != want {
		t.Errorf("got %v, want [%s]", dirs, want)
	}
}

func TestListDirectories_RejectsOutsidePath(t *testing.T) {
	v, _ := newTestVault(t)
	_, _, err := v.ListDirectories(t.TempDir())
	if !errors.Is(err, ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
}

// --- WriteNote ---

func TestWriteNote_RoundTrip(t *testing.T) {
	v, root := newTestVault(t)
	p := filepath.Join(root, "new.md")

	res := v.WriteNote(p, "round trip content")
	if res.Status != WriteOK {
		t.Fatalf("WriteNote status = %v (%v %q)", res.Status, res.Err, res.Guidance)
	}
	read := v.ReadNotes([]string{p})
	if read[0].Err != nil || read[0].Content != "round trip content" {
		t.Errorf("read back = %+v", read[0])
	}
}

func TestWriteNote_Overwrites(t *testing.T) {
	v, root := newTestVault(t)
	p := filepath.Join(root, "a.md")
	os.WriteFile(p, []byte("old"), 0o644)

	if res := v.WriteNote(p, "new"); res.Status != WriteOK {
		t.Fatalf("WriteNote: %+v", res)
	}
	data, _ := os.ReadFile(p)
	if string(data) != "new" {
		t.Errorf("content = %q, want overwrite", data)
	}
}

func TestWriteNote_SoftDenialCarriesGuidance(t *testing.T) {
	v, root := newTestVault(t)
	res := v.WriteNote(filepath.Join(t.TempDir(), "escape.md"), "x")
	if res.Status != WriteDenied {
		t.Fatalf("status = %v, want WriteDenied", res.Status)
	}
	if !strings.Contains(res.Guidance, root) {
		t.Errorf("guidance should list the allowed roots, got %q", res.Guidance)
	}
	if res.Err != nil {
		t.Error("soft denial must not set a hard error")
	}
}

func TestWriteNote_MissingParentIsSoftDenied(t *testing.T) {
	v, root := newTestVault(t)
	res := v.WriteNote(filepath.Join(root, "no-such-dir", "new.md"), "x")
	if res.Status != WriteDenied {
		t.Fatalf("status = %v, want WriteDenied", res.Status)
	}
	if res.Guidance == "" {
		t.Error("denial should carry guidance")
	}
}
