// Package mcp implements the MCP server for vgate.
package mcp

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sgx-labs/vaultgate/internal/config"
	"github.com/sgx-labs/vaultgate/internal/guard"
	"github.com/sgx-labs/vaultgate/internal/vault"
)

var (
	vlt   *vault.Vault
	audit *guard.AuditStore
)

// Version is set by the caller (main) before calling Serve.
var Version = "dev"

// Serve starts the MCP server on stdio. The allowed roots are resolved once
// here and shared with every handler for the life of the process.
func Serve() error {
	roots, err := config.ResolveRoots()
	if err != nil {
		return err
	}
	vlt, err = vault.New(roots...)
	if err != nil {
		return err
	}

	// The audit trail is best-effort: a failed open degrades to no auditing
	// rather than blocking file access.
	cfg, _ := config.LoadConfig()
	if cfg == nil || cfg.Audit.Enabled {
		audit, err = guard.OpenAudit(config.AuditDBPath(vlt.PrimaryRoot()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "vgate: WARNING: audit log unavailable: %v\n", err)
			audit = nil
		} else {
			defer audit.Close()
		}
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "vgate",
		Version: Version,
	}, nil)

	registerTools(server)

	return server.Run(context.Background(), &mcp.StdioTransport{})
}

func registerTools(server *mcp.Server) {
	// search_notes
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_notes",
		Description: "Search the vault for notes by filename. Use this to locate notes before reading them.\n\nArgs:\n  query: Case-insensitive substring of the filename, or a wildcard pattern (* matches any characters, e.g. 'meeting-*.md')\n\nReturns up to 200 matching note paths relative to the vault root. If more matches exist, the count of omitted matches is reported.",
	}, handleSearchNotes)

	// read_notes
	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_notes",
		Description: "Read the full content of one or more notes. Paths are relative to the vault root (as returned by search_notes) or absolute paths inside the vault.\n\nArgs:\n  paths: List of note paths to read\n\nReturns each note's content in input order. A path that cannot be read reports an inline error for that item without failing the rest.",
	}, handleReadNotes)

	// list_directories
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_directories",
		Description: "List the directories under a path in the vault, recursively. Use this to understand how the vault is organized.\n\nArgs:\n  path: Directory to list, relative to the vault root or absolute inside the vault\n\nReturns directory paths relative to the vault root. Files are not included.",
	}, handleListDirectories)

	// write_note
	mcp.AddTool(server, &mcp.Tool{
		Name:        "write_note",
		Description: "Create or overwrite a note in the vault. The parent directory must already exist.\n\nArgs:\n  path: Target note path inside the vault\n  content: Full content to write (replaces any existing content)\n\nReturns a confirmation, or guidance listing the allowed directories if the path is rejected.",
	}, handleWriteNote)
}

// Tool input types

type searchInput struct {
	Query string `json:"query" jsonschema:"Filename substring or wildcard pattern"`
}

type readInput struct {
	Paths []string `json:"paths" jsonschema:"Note paths to read, in order"`
}

type listInput struct {
	Path string `json:"path" jsonschema:"Directory to list, relative to the vault root"`
}

type writeInput struct {
	Path    string `json:"path" jsonschema:"Target note path inside the vault"`
	Content string `json:"content" jsonschema:"Full note content to write"`
}

// Tool handlers

func handleSearchNotes(ctx context.Context, req *mcp.CallToolRequest, input searchInput) (*mcp.CallToolResult, any, error) {
	res, err := vlt.SearchNotes(input.Query)
	recordAudit("search_notes", input.Query, err == nil, err)
	if err != nil {
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}
	for _, d := range res.Diags {
		fmt.Fprintf(os.Stderr, "vgate: [WARN] %s\n", d)
	}
	if len(res.Matches) == 0 {
		return textResult("No matching notes found."), nil, nil
	}

	var b strings.Builder
	b.WriteString(strings.Join(res.Matches, "\n"))
	if res.Omitted > 0 {
		fmt.Fprintf(&b, "\n\n... %d more matches omitted. Narrow the query to see them.", res.Omitted)
	}
	return textResult(b.String()), nil, nil
}

func handleReadNotes(ctx context.Context, req *mcp.CallToolRequest, input readInput) (*mcp.CallToolResult, any, error) {
	results := vlt.ReadNotes(input.Paths)

	fragments := make([]string, 0, len(results))
	for _, r := range results {
		recordAudit("read_notes", r.Path, r.Err == nil, r.Err)
		if r.Err != nil {
			fragments = append(fragments, fmt.Sprintf("%s: Error - %v", r.Path, r.Err))
			continue
		}
		fragments = append(fragments, fmt.Sprintf("%s:\n%s", r.Path, r.Content))
	}
	return textResult(strings.Join(fragments, "\n---\n")), nil, nil
}

func handleListDirectories(ctx context.Context, req *mcp.CallToolRequest, input listInput) (*mcp.CallToolResult, any, error) {
	// An empty path lists the whole primary root.
	p := input.Path
	if p == "" {
		p = vlt.PrimaryRoot()
	}
	dirs, diags, err := vlt.ListDirectories(p)
	recordAudit("list_directories", p, err == nil, err)
	if err != nil {
		return errorResult(fmt.Sprintf("Cannot list %s: %v", input.Path, err)), nil, nil
	}
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "vgate: [WARN] %s\n", d)
	}
	if len(dirs) == 0 {
		return textResult("No subdirectories."), nil, nil
	}
	return textResult(strings.Join(dirs, "\n")), nil, nil
}

func handleWriteNote(ctx context.Context, req *mcp.CallToolRequest, input writeInput) (*mcp.CallToolResult, any, error) {
	res := vlt.WriteNote(input.Path, input.Content)
	recordAudit("write_note", input.Path, res.Status == vault.WriteOK, res.Err)

	switch res.Status {
	case vault.WriteOK:
		return textResult(fmt.Sprintf("Wrote %s", input.Path)), nil, nil
	case vault.WriteDenied:
		// Soft failure: guidance text with the error flag set, so the
		// caller can correct the path and retry.
		return errorResult(res.Guidance), nil, nil
	default:
		return errorResult(fmt.Sprintf("Write failed: %v", res.Err)), nil, nil
	}
}

// Helpers

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

func recordAudit(op, path string, allowed bool, err error) {
	if audit == nil {
		return
	}
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	if aerr := audit.Record(guard.AuditEntry{
		Operation: op,
		Path:      path,
		Allowed:   allowed,
		Reason:    reason,
	}); aerr != nil {
		fmt.Fprintf(os.Stderr, "vgate: [WARN] audit write failed: %v\n", aerr)
	}
}
