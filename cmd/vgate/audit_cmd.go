package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/vaultgate/internal/cli"
	"github.com/sgx-labs/vaultgate/internal/config"
	"github.com/sgx-labs/vaultgate/internal/guard"
)

func auditCmd() *cobra.Command {
	var (
		lastN      int
		deniedOnly bool
		jsonOut    bool
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recorded access decisions",
		Long:  "Print the audit trail of tool calls and confinement decisions, newest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(lastN, deniedOnly, jsonOut)
		},
	}
	cmd.Flags().IntVar(&lastN, "last", 50, "Number of entries to show")
	cmd.Flags().BoolVar(&deniedOnly, "denied", false, "Show only denied operations")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func runAudit(lastN int, deniedOnly, jsonOut bool) error {
	v, err := openVault()
	if err != nil {
		return err
	}

	dbPath := config.AuditDBPath(v.PrimaryRoot())
	if _, err := os.Stat(dbPath); err != nil {
		return userError("No audit log found",
			"The audit log is created when 'vgate mcp' or 'vgate watch' runs with auditing enabled")
	}
	store, err := guard.OpenAudit(dbPath)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer store.Close()

	var entries []guard.AuditEntry
	if deniedOnly {
		entries, err = store.Denials(lastN)
	} else {
		entries, err = store.Recent(lastN)
	}
	if err != nil {
		return fmt.Errorf("read audit log: %w", err)
	}

	if jsonOut {
		data, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("No audit entries.")
		return nil
	}
	for _, e := range entries {
		verdict := cli.Green + "allow" + cli.Reset
		if !e.Allowed {
			verdict = cli.Red + "deny " + cli.Reset
		}
		line := fmt.Sprintf("%s  %s  %-16s  %s", e.Timestamp, verdict, e.Operation, cli.ShortenHome(e.Path))
		if e.Reason != "" {
			line += cli.Dim + "  (" + e.Reason + ")" + cli.Reset
		}
		fmt.Println(line)
	}
	return nil
}
