package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/vaultgate/internal/cli"
)

func dirsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dirs [path]",
		Short: "List vault directories",
		Long:  "Recursively list the directories under a vault path (default: the whole primary root). Files are not listed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runDirs(path)
		},
	}
}

func runDirs(path string) error {
	v, err := openVault()
	if err != nil {
		return err
	}
	if path == "" {
		path = v.PrimaryRoot()
	}

	dirs, diags, err := v.ListDirectories(path)
	if err != nil {
		return fmt.Errorf("list %s: %w", path, err)
	}
	for _, d := range diags {
		cli.Warn("%s", d)
	}
	if len(dirs) == 0 {
		fmt.Println("No subdirectories.")
		return nil
	}
	for _, d := range dirs {
		fmt.Println(d)
	}
	return nil
}
