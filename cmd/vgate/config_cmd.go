package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/vaultgate/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vgate configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print path to config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigPath()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Open config file in $EDITOR",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigEdit()
		},
	})

	return cmd
}

func runConfigShow() error {
	fmt.Println(config.ShowConfig())
	return nil
}

func runConfigPath() error {
	p, err := effectiveConfigPath()
	if err != nil {
		return err
	}
	fmt.Println(p)
	return nil
}

func runConfigEdit() error {
	configPath, err := effectiveConfigPath()
	if err != nil {
		return err
	}
	if _, serr := os.Stat(configPath); os.IsNotExist(serr) {
		fmt.Println("No config file found. Generating default...")
		roots, rerr := config.ResolveRoots()
		if rerr != nil {
			return rerr
		}
		if gerr := config.GenerateConfig(roots[0]); gerr != nil {
			return gerr
		}
	}
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	fmt.Printf("Opening %s in %s...\n", configPath, editor)
	return runEditor(editor, configPath)
}

// effectiveConfigPath locates the config file under the primary root.
func effectiveConfigPath() (string, error) {
	roots, err := config.ResolveRoots()
	if err != nil {
		return "", userError("No vault root configured",
			"Run 'vgate init <dir>', pass --root, or set VAULT_PATH")
	}
	return config.ConfigFilePath(roots[0]), nil
}

func runEditor(editor, path string) error {
	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
