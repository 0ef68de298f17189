package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/vaultgate/internal/cli"
	"github.com/sgx-labs/vaultgate/internal/config"
	"github.com/sgx-labs/vaultgate/internal/guard"
)

func scanCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan vault notes for prompt-injection content",
		Long: `Walk every allowed root and run the injection detector over each
note's body. Flagged notes are worth reviewing before an agent reads them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func runScan(jsonOut bool) error {
	v, err := openVault()
	if err != nil {
		return err
	}
	if cfg, cerr := config.LoadConfig(); cerr == nil && cfg.Scan.Threshold > 0 {
		guard.SetScanThreshold(cfg.Scan.Threshold)
	}

	report, err := guard.ScanVault(v)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	for _, d := range report.Diags {
		cli.Warn("%s", d)
	}

	if jsonOut {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Scanned %d %s.\n", report.Scanned, cli.Plural(report.Scanned, "note", "notes"))
	if len(report.Findings) == 0 {
		fmt.Println("No injection content found.")
		return nil
	}
	fmt.Printf("%s%d flagged:%s\n", cli.Red, len(report.Findings), cli.Reset)
	for _, f := range report.Findings {
		if f.Title != "" {
			fmt.Printf("  %s (%s)\n", f.Path, f.Title)
		} else {
			fmt.Printf("  %s\n", f.Path)
		}
	}
	return nil
}
