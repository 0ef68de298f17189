package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/vaultgate/internal/cli"
)

func readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read [path]...",
		Short: "Print the content of one or more notes",
		Long: `Read notes through the confinement check. A path that cannot be read
reports an inline error without failing the rest of the batch.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(args)
		},
	}
}

func runRead(paths []string) error {
	v, err := openVault()
	if err != nil {
		return err
	}

	for i, r := range v.ReadNotes(paths) {
		if i > 0 {
			fmt.Println("---")
		}
		if r.Err != nil {
			fmt.Printf("%s: %serror%s - %v\n", r.Path, cli.Red, cli.Reset, r.Err)
			continue
		}
		fmt.Printf("%s:\n%s\n", r.Path, r.Content)
	}
	return nil
}
