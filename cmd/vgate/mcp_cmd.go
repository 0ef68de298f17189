package main

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/sgx-labs/vaultgate/internal/mcp"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the AI tool integration server (MCP)",
		Long: `Serve the vault over MCP on stdio.

Available MCP tools:
  search_notes      Find notes by filename substring or wildcard
  read_notes        Read one or more notes
  list_directories  List vault directories
  write_note        Create or overwrite a note`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mcpserver.Version = Version
			return mcpserver.Serve()
		},
	}
}
