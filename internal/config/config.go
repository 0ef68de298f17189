// Package config provides configuration for the vgate binary.
// Loads from: CLI flags > env vars > .vgate/config.toml > built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/sgx-labs/vaultgate/internal/vault"
)

// Config holds all vgate configuration, loaded from TOML + env + flags.
type Config struct {
	Vault VaultConfig `toml:"vault"`
	Scan  ScanConfig  `toml:"scan"`
	Audit AuditConfig `toml:"audit"`
}

// VaultConfig holds the allowed-roots settings.
type VaultConfig struct {
	// Roots are the directories file operations are confined to. The first
	// entry is the primary root. A single "path" key is also accepted.
	Roots []string `toml:"roots"`
	Path  string   `toml:"path"`
}

// ScanConfig tunes the prompt-injection scanner.
type ScanConfig struct {
	Threshold float64 `toml:"threshold"` // 0 = detector default
}

// AuditConfig controls the tool-call audit trail.
type AuditConfig struct {
	Enabled bool `toml:"enabled"`
}

// RootsOverride is set by the --root global flag (repeatable).
var RootsOverride []string

// DefaultConfig returns a Config with all built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Audit: AuditConfig{Enabled: true},
	}
}

// LoadConfig merges all configuration sources: defaults < TOML file < env vars.
// CLI flags (RootsOverride) are applied by ResolveRoots.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if configPath := findConfigFile(); configPath != "" {
		meta, err := toml.DecodeFile(configPath, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", configPath, err)
		}
		warnUnknownKeys(meta, configPath)
	}

	if v := os.Getenv("VAULT_PATH"); v != "" {
		cfg.Vault.Path = v
	}
	if v := os.Getenv("VGATE_ROOTS"); v != "" {
		cfg.Vault.Roots = splitList(v)
	}

	return cfg, nil
}

// ResolveRoots produces the immutable allowed-roots list for this process,
// in priority order: --root flags, then VGATE_ROOTS/VAULT_PATH, then the
// config file. Every root must be an existing, readable directory; roots
// that are dangerously broad (/, /home, ...) are rejected.
func ResolveRoots() ([]string, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	var roots []string
	switch {
	case len(RootsOverride) > 0:
		roots = RootsOverride
	case len(cfg.Vault.Roots) > 0:
		roots = cfg.Vault.Roots
	case cfg.Vault.Path != "":
		roots = []string{cfg.Vault.Path}
	}
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}

	out := make([]string, 0, len(roots))
	for _, r := range roots {
		abs, err := filepath.Abs(expandHome(r))
		if err != nil {
			return nil, fmt.Errorf("root %q: %w", r, err)
		}
		if isDangerousRoot(abs) {
			return nil, fmt.Errorf("root %q is too broad to confine", abs)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("root %q: %w", r, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("root %q is not a directory", abs)
		}
		out = append(out, abs)
	}
	return out, nil
}

// ErrNoRoots is returned when no allowed root can be resolved.
var ErrNoRoots = fmt.Errorf("no vault root configured — pass --root, set VAULT_PATH, or add [vault] roots to .vgate/config.toml")

// isDangerousRoot rejects roots that would confine nothing worth confining.
// A root this broad turns every search into a filesystem-wide walk and makes
// the containment guarantee meaningless.
func isDangerousRoot(abs string) bool {
	dangerous := []string{"/", "/home", "/Users", "/tmp", "/var", "/etc", "/opt"}
	if runtime.GOOS == "windows" && len(abs) >= 3 {
		driveRoot := abs[:3] // e.g. "C:\"
		dangerous = append(dangerous, driveRoot,
			filepath.Join(driveRoot, "Users"), filepath.Join(driveRoot, "Windows"))
	}
	for _, d := range dangerous {
		if abs == d {
			return true
		}
	}
	return false
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// findConfigFile looks for .vgate/config.toml under the first configured
// root candidate, then the CWD.
func findConfigFile() string {
	candidates := append([]string{}, RootsOverride...)
	if v := os.Getenv("VAULT_PATH"); v != "" {
		candidates = append(candidates, v)
	}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, cwd)
	}
	for _, c := range candidates {
		p := ConfigFilePath(expandHome(c))
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// ConfigFilePath returns the config file location under a root.
func ConfigFilePath(root string) string {
	return filepath.Join(root, vault.AppDir, "config.toml")
}

// DataDir returns the directory for vgate's own state (audit database),
// kept under the primary root's .vgate directory.
func DataDir(primaryRoot string) string {
	return filepath.Join(primaryRoot, vault.AppDir, "data")
}

// AuditDBPath returns the path to the audit log database.
func AuditDBPath(primaryRoot string) string {
	return filepath.Join(DataDir(primaryRoot), "audit.db")
}

// configSuggestions maps common wrong keys to the correct TOML key name.
var configSuggestions = map[string]string{
	"root":       "roots",
	"dirs":       "roots",
	"vaults":     "roots",
	"directory":  "path",
	"dir":        "path",
	"threshhold": "threshold",
	"enable":     "enabled",
}

// warnUnknownKeys prints warnings for unrecognized config keys.
func warnUnknownKeys(meta toml.MetaData, configPath string) {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return
	}
	fname := filepath.Base(configPath)
	for _, key := range undecoded {
		keyStr := key.String()
		lastPart := key[len(key)-1]
		if suggestion, ok := configSuggestions[lastPart]; ok {
			fmt.Fprintf(os.Stderr, "vgate: WARNING: unknown key %q in %s — did you mean %q?\n",
				keyStr, fname, suggestion)
		} else {
			fmt.Fprintf(os.Stderr, "vgate: WARNING: unknown key %q in %s (will be ignored)\n",
				keyStr, fname)
		}
	}
}

// ShowConfig renders the effective merged configuration as TOML, with the
// resolved roots filled in so the output reflects what operations will use.
func ShowConfig() string {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Sprintf("# Error loading config: %v\n", err)
	}
	if roots, rerr := ResolveRoots(); rerr == nil {
		cfg.Vault.Roots = roots
		cfg.Vault.Path = ""
	}

	var b strings.Builder
	b.WriteString("# Effective vgate configuration (merged from all sources)\n\n")
	enc := toml.NewEncoder(&b)
	enc.Encode(cfg)
	return b.String()
}

// GenerateConfig writes a default .vgate/config.toml for the given root.
func GenerateConfig(root string) error {
	configPath := ConfigFilePath(root)
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var b strings.Builder
	b.WriteString("# vgate configuration\n")
	b.WriteString("#\n")
	b.WriteString("# Priority: CLI flags > environment variables > this file > built-in defaults\n")
	b.WriteString("# Environment variables: VAULT_PATH, VGATE_ROOTS\n\n")
	b.WriteString("[vault]\n")
	b.WriteString(fmt.Sprintf("roots = [%q]\n\n", root))
	b.WriteString("[scan]\n")
	b.WriteString("# threshold = 0.6  # injection score above which a note is flagged\n\n")
	b.WriteString("[audit]\n")
	b.WriteString("enabled = true\n")

	return os.WriteFile(configPath, []byte(b.String()), 0o600)
}
