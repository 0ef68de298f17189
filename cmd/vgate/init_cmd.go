package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/vaultgate/internal/cli"
	"github.com/sgx-labs/vaultgate/internal/config"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config for a vault",
		Long:  "Create .vgate/config.toml under the given directory (default: current directory), making it the allowed root.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) == 1 {
				target = args[0]
			}
			return runInit(target)
		},
	}
}

func runInit(target string) error {
	abs, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", target, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return userError(fmt.Sprintf("Directory %s does not exist", abs),
			"Create the vault directory first, then run vgate init again")
	}
	if !info.IsDir() {
		return userError(fmt.Sprintf("%s is not a directory", abs),
			"Point vgate init at the vault directory, not a file")
	}

	if err := config.GenerateConfig(abs); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("Initialized vault at %s\n", cli.ShortenHome(abs))
	fmt.Printf("Config written to %s\n", cli.ShortenHome(config.ConfigFilePath(abs)))
	return nil
}
