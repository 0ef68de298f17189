package guard

import (
	"context"
	"io/fs"
	"os"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/mdombrov-33/go-promptguard/detector"

	"github.com/sgx-labs/vaultgate/internal/vault"
)

// DefaultScanThreshold is the injection score above which a note is flagged.
// Stricter than the detector's own default of 0.7 since vault notes feed
// agent context.
const DefaultScanThreshold = 0.6

// injectionDetector is the package-level detector instance. Initialized once
// at import time with all pattern-matching and statistical detectors enabled,
// no LLM judge, so every scan stays sub-millisecond per note.
var injectionDetector = detector.New(
	detector.WithThreshold(DefaultScanThreshold),
	detector.WithAllDetectors(),        // role injection, prompt leak, instruction override, obfuscation, normalization, delimiter
	detector.WithMaxInputLength(10000), // notes can be long; cap what the detector sees
)

// SetScanThreshold replaces the detector with one using the given threshold.
// Values <= 0 restore the default. Not safe to call concurrently with a scan.
func SetScanThreshold(threshold float64) {
	if threshold <= 0 {
		threshold = DefaultScanThreshold
	}
	injectionDetector = detector.New(
		detector.WithThreshold(threshold),
		detector.WithAllDetectors(),
		detector.WithMaxInputLength(10000),
	)
}

// noteMeta holds the frontmatter fields the scan report uses.
type noteMeta struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
}

// ScanFinding describes one flagged note.
type ScanFinding struct {
	Path  string // relative to the root it was found under
	Title string // frontmatter title, empty if none
}

// ScanReport summarizes a vault scan.
type ScanReport struct {
	Scanned  int
	Findings []ScanFinding
	Diags    []string
}

// ScanVault walks every allowed root and runs the injection detector over
// each note's body. Frontmatter is parsed off first so metadata keys do not
// trip the detector and the report can show the note's title. Unreadable
// notes become diagnostics, not failures.
func ScanVault(v *vault.Vault) (*ScanReport, error) {
	report := &ScanReport{}
	for _, root := range v.Roots() {
		matches, diags, err := v.Walk(root, func(entry fs.DirEntry, full string) (bool, bool) {
			if entry.IsDir() {
				return true, false
			}
			return false, strings.HasSuffix(entry.Name(), vault.NoteExt)
		})
		report.Diags = append(report.Diags, diags...)
		if err != nil {
			return report, err
		}
		for _, full := range matches {
			content, rerr := os.ReadFile(full)
			if rerr != nil {
				report.Diags = append(report.Diags, "unreadable "+full+": "+rerr.Error())
				continue
			}
			report.Scanned++

			var meta noteMeta
			body, perr := frontmatter.Parse(strings.NewReader(string(content)), &meta)
			if perr != nil {
				// No usable frontmatter; scan the whole content.
				body = content
			}
			if detectInjection(string(body)) {
				rel := strings.TrimPrefix(strings.TrimPrefix(full, root), string(os.PathSeparator))
				report.Findings = append(report.Findings, ScanFinding{Path: rel, Title: meta.Title})
			}
		}
	}
	return report, nil
}

// detectInjection runs the multi-detector against text. Returns true when an
// injection attempt is detected (i.e. the input is NOT safe).
func detectInjection(text string) bool {
	if len(text) == 0 {
		return false
	}
	result := injectionDetector.Detect(context.Background(), text)
	return !result.Safe
}
