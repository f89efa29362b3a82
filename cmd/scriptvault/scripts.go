package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/scriptvault/internal/uuidutil"
	"github.com/hairizuan-noorazman/scriptvault/script"
	"github.com/hairizuan-noorazman/scriptvault/vault"
)

func newSaveCmd() *cobra.Command {
	var (
		tags        string
		description string
		visibility  string
	)

	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Save a script file into the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vis, err := script.ParseVisibility(visibility)
			if err != nil {
				return fmt.Errorf("%w: %q", err, visibility)
			}

			svc, err := current.catalog(cmd.Context())
			if err != nil {
				return err
			}

			s, err := svc.SaveFile(cmd.Context(), vault.SaveRequest{
				Path:        args[0],
				Tags:        tags,
				Description: description,
				Visibility:  vis,
			})
			if err != nil {
				return err
			}

			if flagJSON {
				printJSON(s)
				return nil
			}
			printMessage(fmt.Sprintf("Saved %s (%s, %s, %d lines)", s.Name, s.Language.Label(), humanize.Bytes(s.Metadata.SizeBytes), s.Metadata.LineCount))
			if !s.IsSafe() {
				printMessage("Warning: script contains potentially dangerous commands")
			}
			if caution := s.CautionMatches(); len(caution) > 0 {
				printMessage("Note: review before running: " + strings.Join(caution, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&tags, "tags", "t", "", "Space separated tags")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Script description")
	cmd.Flags().StringVar(&visibility, "visibility", "private", "Visibility (private, team, public)")
	return cmd
}

func newFindCmd() *cobra.Command {
	var q vault.FindQuery

	cmd := &cobra.Command{
		Use:   "find [query]",
		Short: "Search scripts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				q.Query = args[0]
			}

			svc, err := current.catalog(cmd.Context())
			if err != nil {
				return err
			}

			res, err := svc.Find(cmd.Context(), q)
			if err != nil {
				return err
			}

			if flagJSON {
				printJSON(res)
				return nil
			}
			if len(res.Scripts) == 0 {
				printMessage("No scripts found.")
				return nil
			}
			printScripts(res.Scripts)
			if res.Total > len(res.Scripts) {
				fmt.Printf("\nShowing %d of %d scripts\n", len(res.Scripts), res.Total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&q.Here, "here", false, "Only scripts saved in a related directory or repository")
	cmd.Flags().StringVar(&q.Tag, "tag", "", "Filter by tag")
	cmd.Flags().StringVar(&q.Language, "language", "", "Filter by language")
	cmd.Flags().BoolVar(&q.Team, "team", false, "Only team scripts")
	cmd.Flags().StringVar(&q.GitRepo, "repo", "", "Filter by git repository")
	cmd.Flags().IntVar(&q.Limit, "limit", vault.DefaultFindLimit, "Maximum number of results")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all scripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := current.catalog(cmd.Context())
			if err != nil {
				return err
			}

			scripts, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}

			if flagJSON {
				printJSON(scripts)
				return nil
			}
			if len(scripts) == 0 {
				printMessage("No scripts found.")
				return nil
			}
			printScripts(scripts)
			return nil
		},
	}
}

func printScripts(scripts []*script.Script) {
	headers := []string{"NAME", "LANGUAGE", "TAGS", "RUNS", "LAST RUN", "DESCRIPTION"}
	rows := make([][]string, len(scripts))
	for i, s := range scripts {
		rows[i] = []string{
			s.Name,
			s.Language.Label(),
			truncate(strings.Join(s.Tags, ","), 30),
			fmt.Sprintf("%d", s.Metadata.UseCount),
			lastRun(s.Metadata.LastRun),
			truncate(s.Description, 40),
		}
	}
	printTable(headers, rows)
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Show script details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := current.catalog(cmd.Context())
			if err != nil {
				return err
			}

			s, err := svc.Info(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if flagJSON {
				printJSON(s)
				return nil
			}

			fmt.Printf("ID:          %s\n", s.ID)
			fmt.Printf("Name:        %s\n", s.Name)
			fmt.Printf("Version:     %s\n", s.Version)
			fmt.Printf("Language:    %s\n", s.Language.Label())
			fmt.Printf("Author:      %s\n", s.Author)
			fmt.Printf("Visibility:  %s\n", s.Visibility)
			fmt.Printf("Tags:        %s\n", strings.Join(s.Tags, ", "))
			if s.Description != "" {
				fmt.Printf("Description: %s\n", s.Description)
			}
			fmt.Printf("Size:        %s (%d lines)\n", humanize.Bytes(s.Metadata.SizeBytes), s.Metadata.LineCount)
			fmt.Printf("Hash:        %s\n", s.Metadata.Hash)
			fmt.Printf("Created:     %s\n", s.CreatedAt.Format("2006-01-02 15:04"))
			fmt.Printf("Updated:     %s\n", humanize.Time(s.UpdatedAt))
			if s.Context.Directory != "" {
				fmt.Printf("Directory:   %s\n", s.Context.Directory)
			}
			if s.Context.GitRepo != "" {
				fmt.Printf("Git:         %s (%s)\n", s.Context.GitRepo, s.Context.GitBranch)
			}
			fmt.Printf("Runs:        %d (%d ok, %d failed)\n", s.Metadata.UseCount, s.Metadata.SuccessCount, s.Metadata.FailureCount)
			if s.Metadata.UseCount > 0 {
				fmt.Printf("Success:     %.1f%%\n", s.SuccessRate())
			}
			fmt.Printf("Last run:    %s\n", lastRun(s.Metadata.LastRun))
			if s.Metadata.AvgRuntimeMS != nil {
				fmt.Printf("Avg runtime: %s\n", seconds(*s.Metadata.AvgRuntimeMS))
			}
			if matches := s.DangerousMatches(); len(matches) > 0 {
				fmt.Printf("Dangerous:   %s\n", strings.Join(matches, ", "))
			}
			if caution := s.CautionMatches(); len(caution) > 0 {
				fmt.Printf("Caution:     %s\n", strings.Join(caution, ", "))
			}
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a script from the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := current.catalog(cmd.Context())
			if err != nil {
				return err
			}

			if !yes {
				confirmed, err := newPromptConfirmer(os.Stdin, os.Stdout).Confirm(cmd.Context(), fmt.Sprintf("Delete script %q?", args[0]), false)
				if err != nil {
					return err
				}
				if !confirmed {
					printMessage("Cancelled.")
					return nil
				}
			}

			s, err := svc.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if flagJSON {
				printJSON(map[string]string{"deleted": s.ID, "name": s.Name})
				return nil
			}
			printMessage(fmt.Sprintf("Deleted %s (%s)", s.Name, uuidutil.Short(s.ID)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}
