// Package guard provides the audit trail and content scanning around
// confined vault access.
package guard

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// AuditEntry is one recorded access decision.
type AuditEntry struct {
	Timestamp string `json:"timestamp"`
	Operation string `json:"operation"` // tool or command name
	Path      string `json:"path"`      // path or query as supplied by the caller
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason,omitempty"` // denial reason, empty when allowed
}

// AuditStore is an append-mostly SQLite log of access decisions.
type AuditStore struct {
	conn *sql.DB
	mu   sync.Mutex // serialize writes
}

// OpenAudit opens or creates the audit database at the given path.
func OpenAudit(path string) (*AuditStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	s := &AuditStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}
	return s, nil
}

// OpenAuditMemory opens an in-memory audit store for testing.
func OpenAuditMemory() (*AuditStore, error) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	s := &AuditStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *AuditStore) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS audit_log (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			operation TEXT NOT NULL,
			path      TEXT NOT NULL,
			allowed   INTEGER NOT NULL,
			reason    TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_log(timestamp);
	`)
	return err
}

// Close closes the underlying database.
func (s *AuditStore) Close() error {
	return s.conn.Close()
}

// Record appends one entry. The timestamp is filled in if empty.
func (s *AuditStore) Record(e AuditEntry) error {
	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.Exec(
		`INSERT INTO audit_log (timestamp, operation, path, allowed, reason) VALUES (?, ?, ?, ?, ?)`,
		e.Timestamp, e.Operation, e.Path, boolToInt(e.Allowed), e.Reason,
	)
	return err
}

// Recent returns the newest n entries, newest first.
func (s *AuditStore) Recent(n int) ([]AuditEntry, error) {
	if n <= 0 {
		n = 50
	}
	rows, err := s.conn.Query(
		`SELECT timestamp, operation, path, allowed, reason FROM audit_log ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var allowed int
		if err := rows.Scan(&e.Timestamp, &e.Operation, &e.Path, &allowed, &e.Reason); err != nil {
			return nil, err
		}
		e.Allowed = allowed != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// Denials returns the newest n denied entries, newest first.
func (s *AuditStore) Denials(n int) ([]AuditEntry, error) {
	if n <= 0 {
		n = 50
	}
	rows, err := s.conn.Query(
		`SELECT timestamp, operation, path, allowed, reason FROM audit_log WHERE allowed = 0 ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var allowed int
		if err := rows.Scan(&e.Timestamp, &e.Operation, &e.Path, &allowed, &e.Reason); err != nil {
			return nil, err
		}
		e.Allowed = allowed != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
