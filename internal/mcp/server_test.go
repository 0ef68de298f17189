package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sgx-labs/vaultgate/internal/guard"
	"github.com/sgx-labs/vaultgate/internal/vault"
)

// setupTestVault wires the package-level vault and audit store to a fresh
// temp directory for the duration of one test.
func setupTestVault(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	v, err := vault.New(root)
	if err != nil {
		t.Fatalf("vault.New: %v", err)
	}
	a, err := guard.OpenAuditMemory()
	if err != nil {
		t.Fatalf("OpenAuditMemory: %v", err)
	}
	oldVlt, oldAudit := vlt, audit
	vlt, audit = v, a
	t.Cleanup(func() {
		a.Close()
		vlt, audit = oldVlt, oldAudit
	})
	return root
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", res.Content[0])
	}
	return tc.Text
}

// --- search_notes ---

func TestHandleSearchNotes_Basic(t *testing.T) {
	root := setupTestVault(t)
	os.WriteFile(filepath.Join(root, "Foo Bar.md"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(root, "foo.txt"), []byte("x"), 0o644)

	res, _, err := handleSearchNotes(context.Background(), nil, searchInput{Query: "foo"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "Foo Bar.md") {
		t.Errorf("missing match in %q", text)
	}
	if strings.Contains(text, "foo.txt") {
		t.Errorf("non-note file reported in %q", text)
	}
}

func TestHandleSearchNotes_OmittedCount(t *testing.T) {
	root := setupTestVault(t)
	for i := 0; i < 250; i++ {
		os.WriteFile(filepath.Join(root, fmt.Sprintf("note-%03d.md", i)), []byte("x"), 0o644)
	}

	res, _, err := handleSearchNotes(context.Background(), nil, searchInput{Query: "note-"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "50 more matches omitted") {
		t.Error("expected omission notice in result")
	}
	if got := strings.Count(text, vault.NoteExt); got != 200 {
		t.Errorf("got %d listed paths, want 200", got)
	}
}

func TestHandleSearchNotes_NoMatches(t *testing.T) {
	setupTestVault(t)
	res, _, err := handleSearchNotes(context.Background(), nil, searchInput{Query: "zzz"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if text := resultText(t, res); !strings.Contains(text, "No matching notes") {
		t.Errorf("got %q", text)
	}
}

func TestHandleSearchNotes_WalkFailureSetsErrorFlag(t *testing.T) {
	root := setupTestVault(t)
	// Removing the root makes the walk itself fail, not just one entry.
	if err := os.RemoveAll(root); err != nil {
		t.Fatal(err)
	}

	res, _, err := handleSearchNotes(context.Background(), nil, searchInput{Query: "foo"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Error("walk failure should carry the error flag")
	}
	if text := resultText(t, res); !strings.Contains(text, "Search error") {
		t.Errorf("got %q", text)
	}
}

// --- read_notes ---

func TestHandleReadNotes_OrderAndInlineErrors(t *testing.T) {
	root := setupTestVault(t)
	os.WriteFile(filepath.Join(root, "a.md"), []byte("alpha"), 0o644)

	res, _, err := handleReadNotes(context.Background(), nil, readInput{Paths: []string{
		filepath.Join(root, "a.md"),
		filepath.Join(root, "missing.md"),
	}})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Error("partial failure must not mark the whole call as an error")
	}
	text := resultText(t, res)
	alphaAt := strings.Index(text, "alpha")
	errAt := strings.Index(text, "Error -")
	if alphaAt == -1 || errAt == -1 || alphaAt > errAt {
		t.Errorf("results out of order or missing: %q", text)
	}
}

// --- list_directories ---

func TestHandleListDirectories_DirsOnly(t *testing.T) {
	root := setupTestVault(t)
	os.MkdirAll(filepath.Join(root, "notes", "sub1"), 0o755)
	os.WriteFile(filepath.Join(root, "readme.md"), []byte("x"), 0o644)

	res, _, err := handleListDirectories(context.Background(), nil, listInput{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "notes") || !strings.Contains(text, filepath.Join("notes", "sub1")) {
		t.Errorf("missing directories in %q", text)
	}
	if strings.Contains(text, "readme.md") {
		t.Errorf("file reported as directory: %q", text)
	}
}

func TestHandleListDirectories_OutsidePathIsError(t *testing.T) {
	setupTestVault(t)
	res, _, err := handleListDirectories(context.Background(), nil, listInput{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Error("outside path should produce an error result")
	}
}

// --- write_note ---

func TestHandleWriteNote_RoundTrip(t *testing.T) {
	root := setupTestVault(t)
	target := filepath.Join(root, "new.md")

	res, _, err := handleWriteNote(context.Background(), nil, writeInput{Path: target, Content: "written"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("write failed: %q", resultText(t, res))
	}

	read, _, _ := handleReadNotes(context.Background(), nil, readInput{Paths: []string{target}})
	if text := resultText(t, read); !strings.Contains(text, "written") {
		t.Errorf("round trip lost content: %q", text)
	}
}

func TestHandleWriteNote_SoftDenialGuidance(t *testing.T) {
	root := setupTestVault(t)
	outside := filepath.Join(t.TempDir(), "escape.md")

	res, _, err := handleWriteNote(context.Background(), nil, writeInput{Path: outside, Content: "x"})
	if err != nil {
		t.Fatal("soft denial must not surface as a transport error")
	}
	if !res.IsError {
		t.Error("denial should set the error flag")
	}
	if text := resultText(t, res); !strings.Contains(text, root) {
		t.Errorf("guidance should list the allowed roots: %q", text)
	}
}

func TestHandleWriteNote_RecordsAudit(t *testing.T) {
	setupTestVault(t)
	handleWriteNote(context.Background(), nil, writeInput{Path: filepath.Join(t.TempDir(), "x.md"), Content: "x"})

	denials, err := audit.Denials(10)
	if err != nil {
		t.Fatalf("Denials: %v", err)
	}
	if len(denials) != 1 || denials[0].Operation != "write_note" {
		t.Errorf("expected one write_note denial, got %+v", denials)
	}
}
