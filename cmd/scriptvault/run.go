package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/scriptvault/execution"
	"github.com/hairizuan-noorazman/scriptvault/internal/uuidutil"
)

// errDangerousJSON keeps --json from becoming a way around the dangerous-script confirmation.
var errDangerousJSON = errors.New("dangerous script requires --ci in --json mode")

func newRunCmd() *cobra.Command {
	var (
		dryRun bool
		ci     bool
	)

	cmd := &cobra.Command{
		Use:   "run <name> [-- args...]",
		Short: "Run a script from the vault",
		Long:  "Run a script after a safety check and preview. Arguments after -- are passed to the script.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unattended := ci || current.cfg.CI

			// In JSON mode stdout carries only the result document.
			var out io.Writer = os.Stdout
			if flagJSON {
				out = os.Stderr
			}
			presenter := &terminalPresenter{out: out, errOut: os.Stderr}

			if flagJSON && !unattended && !dryRun {
				svc, err := current.catalog(cmd.Context())
				if err != nil {
					return err
				}
				s, err := svc.Info(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if matches := s.DangerousMatches(); len(matches) > 0 {
					presenter.Warn(s, matches)
					return fmt.Errorf("%w: %s", errDangerousJSON, s.Name)
				}
			}

			engine, err := current.engine(cmd.Context(), newPromptConfirmer(os.Stdin, out), presenter)
			if err != nil {
				return err
			}

			outcome, err := engine.Run(cmd.Context(), args[0], execution.RunOptions{
				Args:       args[1:],
				DryRun:     dryRun,
				Unattended: unattended,
			})
			if err != nil {
				return err
			}

			if flagJSON {
				printJSON(map[string]interface{}{
					"state":  outcome.State,
					"record": outcome.Record,
				})
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the preview without executing")
	cmd.Flags().BoolVar(&ci, "ci", false, "Skip all confirmations (also SCRIPTVAULT_CI)")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var q execution.HistoryQuery

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show execution history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := current.historyService(cmd.Context())
			if err != nil {
				return err
			}

			entries, err := svc.Query(cmd.Context(), q)
			if err != nil {
				return err
			}

			if flagJSON {
				printJSON(entries)
				return nil
			}
			if len(entries) == 0 {
				printMessage("No executions found.")
				return nil
			}

			headers := []string{"ID", "SCRIPT", "EXIT", "DURATION", "BY", "WHEN"}
			rows := make([][]string, len(entries))
			for i, e := range entries {
				name := e.ScriptName
				if name == "" {
					name = "(deleted) " + uuidutil.Short(e.Record.ScriptID)
				}
				rows[i] = []string{
					uuidutil.Short(e.Record.ID),
					name,
					fmt.Sprintf("%d", e.Record.ExitCode),
					seconds(e.Record.DurationMS),
					e.Record.ExecutedBy,
					e.Record.ExecutedAt.Local().Format("2006-01-02 15:04:05"),
				}
			}
			printTable(headers, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&q.ScriptName, "script", "", "Only runs of this script")
	cmd.Flags().BoolVar(&q.FailedOnly, "failed", false, "Only failed runs")
	cmd.Flags().BoolVar(&q.Recent, "recent", false, "Only the most recent runs")
	return cmd
}
