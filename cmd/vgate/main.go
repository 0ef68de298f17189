// Package main is the entrypoint for the vgate CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/vaultgate/internal/config"
	"github.com/sgx-labs/vaultgate/internal/vault"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "vgate",
		Short: "Confined file access for markdown vaults",
		Long:  "vgate — tool-callable, confinement-checked file access for markdown vaults, over MCP or the command line.",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.AddCommand(initCmd())
	root.AddCommand(configCmd())
	root.AddCommand(versionCmd())
	root.AddCommand(mcpCmd())
	root.AddCommand(searchCmd())
	root.AddCommand(readCmd())
	root.AddCommand(dirsCmd())
	root.AddCommand(writeCmd())
	root.AddCommand(scanCmd())
	root.AddCommand(watchCmd())
	root.AddCommand(auditCmd())

	// Global --root flag (repeatable)
	root.PersistentFlags().StringArrayVar(&config.RootsOverride, "root", nil,
		"Allowed root directory (repeatable; overrides config and environment)")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the vgate version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("vgate %s\n", Version)
			return nil
		},
	}
}

// openVault resolves the configured roots and builds the shared Vault.
// A missing or invalid root is fatal here, before any operation runs.
func openVault() (*vault.Vault, error) {
	roots, err := config.ResolveRoots()
	if err != nil {
		return nil, err
	}
	return vault.New(roots...)
}

// ---------- error helpers ----------

type vgateError struct {
	message string
	hint    string
}

func (e *vgateError) Error() string {
	return fmt.Sprintf("%s\n  Hint: %s", e.message, e.hint)
}

func userError(message, hint string) error {
	return &vgateError{message: message, hint: hint}
}
