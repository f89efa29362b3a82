package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/scriptvault/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a config file template in the scriptvault home",
		// A broken config file must not prevent writing a fresh one.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := config.ResolveHome(flagHome)
			if err != nil {
				return err
			}

			path, written, err := config.WriteTemplate(home)
			if err != nil {
				return err
			}
			if !written {
				printMessage("Config file already exists at " + path)
				return nil
			}
			printMessage("Config file created at " + path)
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := current.cfg

			secret := "(not set)"
			if cfg.Storage.Secret != "" {
				secret = "****"
			}

			if flagJSON {
				printJSON(map[string]interface{}{
					"home":               cfg.Home,
					"config_file":        cfg.File,
					"username":           cfg.Executor(),
					"confirm_before_run": cfg.ConfirmBeforeRun,
					"ci":                 cfg.CI,
					"scratch_dir":        cfg.ScratchDir,
					"storage": map[string]string{
						"kind":   string(cfg.Storage.Kind),
						"path":   cfg.Storage.Path,
						"dsn":    maskDSN(cfg.Storage.DSN),
						"bucket": cfg.Storage.Bucket,
						"secret": secret,
					},
					"history_path": cfg.History.Path,
					"log_level":    cfg.Log.Level,
					"log_file":     cfg.Log.File,
					"server":       cfg.Server.Addr(),
				})
				return nil
			}

			printMessage(fmt.Sprintf("Home:             %s", cfg.Home))
			printMessage(fmt.Sprintf("Username:         %s", cfg.Executor()))
			printMessage(fmt.Sprintf("Confirm runs:     %t", cfg.ConfirmBeforeRun))
			printMessage(fmt.Sprintf("CI mode:          %t", cfg.CI))
			printMessage(fmt.Sprintf("Scratch dir:      %s", cfg.ScratchDir))
			printMessage(fmt.Sprintf("Storage kind:     %s", cfg.Storage.Kind))
			switch {
			case cfg.Storage.Kind.IsSQL():
				printMessage(fmt.Sprintf("Storage DSN:      %s", maskDSN(cfg.Storage.DSN)))
			case cfg.Storage.Kind.IsRemote():
				printMessage(fmt.Sprintf("Storage bucket:   %s", cfg.Storage.Bucket))
				printMessage(fmt.Sprintf("Storage secret:   %s", secret))
			default:
				printMessage(fmt.Sprintf("Storage path:     %s", cfg.Storage.Path))
			}
			printMessage(fmt.Sprintf("History:          %s", cfg.History.Path))
			printMessage(fmt.Sprintf("Log level:        %s", cfg.Log.Level))
			if cfg.Log.File != "" {
				printMessage(fmt.Sprintf("Log file:         %s", cfg.Log.File))
			}
			printMessage(fmt.Sprintf("Server:           %s", cfg.Server.Addr()))

			if cfg.File != "" {
				printMessage(fmt.Sprintf("Config file:      %s", cfg.File))
			} else {
				printMessage("Config file:      (none)")
			}
			return nil
		},
	}
}
