package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/vaultgate/internal/cli"
)

func searchCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Find notes by filename",
		Long: `Find notes whose filename contains the query, or matches it as a
wildcard pattern.

Examples:
  vgate search standup
  vgate search 'meeting-*.md'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(strings.Join(args, " "), jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func runSearch(query string, jsonOut bool) error {
	if strings.TrimSpace(query) == "" {
		return userError("Empty search query", `Provide a filename or pattern: vgate search "standup"`)
	}
	v, err := openVault()
	if err != nil {
		return err
	}

	res, err := v.SearchNotes(query)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	for _, d := range res.Diags {
		cli.Warn("%s", d)
	}

	if jsonOut {
		data, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(res.Matches) == 0 {
		fmt.Println("No matching notes.")
		return nil
	}
	for _, m := range res.Matches {
		fmt.Println(m)
	}
	if res.Omitted > 0 {
		fmt.Printf("\n... %d more %s omitted.\n", res.Omitted, cli.Plural(res.Omitted, "match", "matches"))
	}
	return nil
}
