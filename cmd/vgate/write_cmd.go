package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/vaultgate/internal/vault"
)

func writeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write [path] [content]",
		Short: "Create or overwrite a note",
		Long: `Write a note inside the vault, replacing any existing content.
With no content argument, content is read from stdin.

Examples:
  vgate write notes/idea.md "A one-line note"
  cat draft.md | vgate write notes/draft.md`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := ""
			if len(args) == 2 {
				content = args[1]
			} else {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				content = string(data)
			}
			return runWrite(args[0], content)
		},
	}
}

func runWrite(path, content string) error {
	v, err := openVault()
	if err != nil {
		return err
	}

	res := v.WriteNote(path, content)
	switch res.Status {
	case vault.WriteOK:
		fmt.Printf("Wrote %s\n", res.Path)
		return nil
	case vault.WriteDenied:
		// Soft failure by contract: print the guidance, exit nonzero.
		return fmt.Errorf("%s", res.Guidance)
	default:
		return fmt.Errorf("write %s: %w", path, res.Err)
	}
}
