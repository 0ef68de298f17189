package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunSearch_FindsAndPrintsMatches(t *testing.T) {
	root := setupCmdVault(t)
	os.WriteFile(filepath.Join(root, "Standup Notes.md"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(root, "unrelated.md"), []byte("x"), 0o644)

	out, err := captureStdout(t, func() error { return runSearch("standup", false) })
	if err != nil {
		t.Fatalf("runSearch: %v", err)
	}
	if !strings.Contains(out, "Standup Notes.md") {
		t.Errorf("output missing match: %q", out)
	}
	if strings.Contains(out, "unrelated.md") {
		t.Errorf("output has non-match: %q", out)
	}
}

func TestRunSearch_NoMatches(t *testing.T) {
	setupCmdVault(t)
	out, err := captureStdout(t, func() error { return runSearch("nothing-here", false) })
	if err != nil {
		t.Fatalf("runSearch: %v", err)
	}
	if !strings.Contains(out, "No matching notes") {
		t.Errorf("expected no-match message, got %q", out)
	}
}

func TestRunSearch_EmptyQueryIsUserError(t *testing.T) {
	setupCmdVault(t)
	if err := runSearch("   ", false); err == nil {
		t.Error("expected user error for blank query")
	}
}

func TestRunSearch_JSONOutput(t *testing.T) {
	root := setupCmdVault(t)
	os.WriteFile(filepath.Join(root, "a.md"), []byte("x"), 0o644)

	out, err := captureStdout(t, func() error { return runSearch("a", true) })
	if err != nil {
		t.Fatalf("runSearch: %v", err)
	}
	if !strings.Contains(out, `"Matches"`) {
		t.Errorf("expected JSON output, got %q", out)
	}
}
