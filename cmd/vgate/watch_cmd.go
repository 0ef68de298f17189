package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/vaultgate/internal/config"
	"github.com/sgx-labs/vaultgate/internal/guard"
	"github.com/sgx-labs/vaultgate/internal/watcher"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the vault and report note changes",
		Long: `Monitor the allowed roots for note changes. Changes that resolve
outside the confinement boundary (planted symlinks, moved directories)
are reported and recorded in the audit log.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch()
		},
	}
}

func runWatch() error {
	v, err := openVault()
	if err != nil {
		return err
	}

	var audit *guard.AuditStore
	cfg, _ := config.LoadConfig()
	if cfg == nil || cfg.Audit.Enabled {
		audit, err = guard.OpenAudit(config.AuditDBPath(v.PrimaryRoot()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "vgate: WARNING: audit log unavailable: %v\n", err)
			audit = nil
		} else {
			defer audit.Close()
		}
	}

	return watcher.Watch(v, audit)
}
