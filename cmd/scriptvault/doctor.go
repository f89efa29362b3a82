package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/scriptvault/storage"
)

type check struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the local installation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := current.cfg
			var checks []check

			if cfg.File != "" {
				checks = append(checks, check{Name: "config file", OK: true, Detail: cfg.File})
			} else {
				checks = append(checks, check{Name: "config file", Detail: "not found, run 'sv config init'"})
			}

			vaultDir := cfg.Home
			switch storage.Kind(strings.ToLower(string(cfg.Storage.Kind))) {
			case storage.KindLocal:
				vaultDir = cfg.Storage.Path
			case storage.KindSQLite:
				vaultDir = filepath.Dir(cfg.Storage.DSN)
			}
			if info, err := os.Stat(vaultDir); err == nil && info.IsDir() {
				checks = append(checks, check{Name: "vault directory", OK: true, Detail: vaultDir})
			} else {
				checks = append(checks, check{Name: "vault directory", Detail: vaultDir + " is missing"})
			}

			if b, err := current.openBackend(cmd.Context()); err != nil {
				checks = append(checks, check{Name: "storage backend", Detail: err.Error()})
			} else if b.HealthCheck(cmd.Context()) {
				checks = append(checks, check{Name: "storage backend", OK: true, Detail: b.BackendType()})
			} else {
				checks = append(checks, check{Name: "storage backend", Detail: b.BackendType() + " is unhealthy"})
			}

			for _, bin := range []string{"bash", "sh", "git"} {
				if path, err := exec.LookPath(bin); err == nil {
					checks = append(checks, check{Name: bin, OK: true, Detail: path})
				} else {
					checks = append(checks, check{Name: bin, Detail: "not found on PATH"})
				}
			}

			checks = append(checks, diskCheck(existingParent(vaultDir)))

			if flagJSON {
				printJSON(checks)
				return nil
			}

			rows := make([][]string, len(checks))
			for i, c := range checks {
				status := "ok"
				if !c.OK {
					status = "missing"
				}
				rows[i] = []string{c.Name, status, c.Detail}
			}
			printTable([]string{"CHECK", "STATUS", "DETAIL"}, rows)
			return nil
		},
	}
}

func diskCheck(dir string) check {
	usage, err := disk.Usage(dir)
	if err != nil {
		return check{Name: "disk space", Detail: err.Error()}
	}
	return check{
		Name:   "disk space",
		OK:     usage.Free > 0,
		Detail: fmt.Sprintf("%s free of %s (%.1f%% used)", humanize.Bytes(usage.Free), humanize.Bytes(usage.Total), usage.UsedPercent),
	}
}

// existingParent walks up from dir until it finds a path that exists.
func existingParent(dir string) string {
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

func newContextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "context",
		Short: "Show the detected working context",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := current.detector().Detect(cmd.Context())
			if err != nil {
				return err
			}

			if flagJSON {
				printJSON(snap)
				return nil
			}

			printMessage(fmt.Sprintf("Directory: %s", snap.Directory))
			if snap.GitRepo != "" {
				printMessage(fmt.Sprintf("Git repo:  %s", snap.GitRepo))
				printMessage(fmt.Sprintf("Branch:    %s", snap.GitBranch))
			} else {
				printMessage("Git repo:  (none)")
			}
			for _, key := range []string{"SHELL", "USER", "OS"} {
				if v, ok := snap.Environment[key]; ok {
					printMessage(fmt.Sprintf("%-10s %s", key+":", v))
				}
			}
			return nil
		},
	}
}
