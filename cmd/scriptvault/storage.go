package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/scriptvault/storage"
)

func newStorageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Inspect the storage backend",
	}

	cmd.AddCommand(newStorageStatusCmd())
	cmd.AddCommand(newStorageInfoCmd())
	cmd.AddCommand(newStorageTestCmd())
	cmd.AddCommand(newStorageSyncCmd())
	return cmd
}

// storageLocation describes where the configured backend keeps its data, without secrets.
func storageLocation(cfg storage.Config) string {
	switch {
	case cfg.Kind.IsSQL():
		return maskDSN(cfg.DSN)
	case cfg.Kind.IsRemote():
		if cfg.Container != "" {
			return cfg.Container
		}
		return cfg.Bucket
	default:
		return cfg.Path
	}
}

func newStorageStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configured backend and whether it is healthy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := current.cfg.Storage

			healthy := false
			b, err := current.openBackend(cmd.Context())
			if err == nil {
				healthy = b.HealthCheck(cmd.Context())
			}

			if flagJSON {
				out := map[string]interface{}{
					"kind":     cfg.Kind,
					"location": storageLocation(cfg),
					"healthy":  healthy,
				}
				if err != nil {
					out["error"] = err.Error()
				}
				printJSON(out)
				return nil
			}

			printMessage(fmt.Sprintf("Kind:     %s", cfg.Kind))
			printMessage(fmt.Sprintf("Location: %s", storageLocation(cfg)))
			if err != nil {
				printMessage(fmt.Sprintf("Status:   unavailable (%v)", err))
				return nil
			}
			if healthy {
				printMessage("Status:   healthy")
			} else {
				printMessage("Status:   unhealthy")
			}
			return nil
		},
	}
}

func newStorageInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show storage statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := current.openBackend(cmd.Context())
			if err != nil {
				return err
			}

			meta, err := b.Metadata(cmd.Context())
			if err != nil {
				return err
			}

			if flagJSON {
				printJSON(meta)
				return nil
			}

			printMessage(fmt.Sprintf("Backend:    %s", meta.BackendType))
			printMessage(fmt.Sprintf("Scripts:    %s", humanize.Comma(int64(meta.TotalScripts))))
			printMessage(fmt.Sprintf("Total size: %s", humanize.Bytes(meta.TotalSizeBytes)))
			if meta.LastSync != nil {
				printMessage(fmt.Sprintf("Last sync:  %s", humanize.Time(*meta.LastSync)))
			} else {
				printMessage("Last sync:  Never")
			}
			return nil
		},
	}
}

func newStorageTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Open the backend, probe it and list its scripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			b, err := current.openBackend(ctx)
			if err != nil {
				return fmt.Errorf("backend creation failed: %w", err)
			}
			printMessage(fmt.Sprintf("Backend created: %s", b.BackendType()))

			if !b.HealthCheck(ctx) {
				return fmt.Errorf("health check failed for %s backend", b.BackendType())
			}
			printMessage("Health check passed")

			scripts, err := b.List(ctx)
			if err != nil {
				return fmt.Errorf("list failed: %w", err)
			}
			printMessage(fmt.Sprintf("Listed %d scripts", len(scripts)))
			return nil
		},
	}
}

func newStorageSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile with the remote backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			b, err := current.openBackend(ctx)
			if err != nil {
				return err
			}

			pushed, err := b.SyncPush(ctx)
			if err != nil {
				return fmt.Errorf("sync push failed: %w", err)
			}
			pulled, err := b.SyncPull(ctx)
			if err != nil {
				return fmt.Errorf("sync pull failed: %w", err)
			}

			if flagJSON {
				printJSON(map[string][]string{"pushed": pushed, "pulled": pulled})
				return nil
			}

			if len(pushed) == 0 && len(pulled) == 0 {
				printMessage(fmt.Sprintf("Nothing to sync for %s storage.", b.BackendType()))
				return nil
			}
			printMessage(fmt.Sprintf("Pushed %d: %s", len(pushed), strings.Join(pushed, ", ")))
			printMessage(fmt.Sprintf("Pulled %d: %s", len(pulled), strings.Join(pulled, ", ")))
			return nil
		},
	}
}
