package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/hairizuan-noorazman/scriptvault/execution"
	"github.com/hairizuan-noorazman/scriptvault/script"
)

// terminalPresenter renders engine events for a person at a terminal.
type terminalPresenter struct {
	out    io.Writer
	errOut io.Writer
}

func (p *terminalPresenter) Warn(s *script.Script, patterns []string) {
	fmt.Fprintf(p.out, "WARNING: %s contains potentially dangerous commands:\n", s.Name)
	for _, pattern := range patterns {
		fmt.Fprintf(p.out, "  - %s\n", pattern)
	}
	fmt.Fprintln(p.out)
}

func (p *terminalPresenter) Preview(pv execution.Preview) {
	fmt.Fprintf(p.out, "Script:      %s (%s)\n", pv.Name, pv.Version)
	fmt.Fprintf(p.out, "Language:    %s\n", pv.Language.Label())
	if len(pv.Tags) > 0 {
		fmt.Fprintf(p.out, "Tags:        %s\n", strings.Join(pv.Tags, ", "))
	}
	if pv.Description != "" {
		fmt.Fprintf(p.out, "Description: %s\n", pv.Description)
	}
	if pv.Directory != "" {
		fmt.Fprintf(p.out, "Saved from:  %s\n", pv.Directory)
	}
	if pv.UseCount > 0 {
		fmt.Fprintf(p.out, "Runs:        %d (%.1f%% success)\n", pv.UseCount, pv.SuccessRate)
	}
	fmt.Fprintln(p.out)
}

func (p *terminalPresenter) Output(stdout, stderr string) {
	if stdout != "" {
		fmt.Fprint(p.out, stdout)
	}
	if stderr != "" {
		fmt.Fprint(p.errOut, stderr)
	}
}

func (p *terminalPresenter) Result(o *execution.Outcome) {
	switch o.State {
	case execution.StateCancelled:
		fmt.Fprintln(p.out, "Execution cancelled.")
	case execution.StateDryRunStopped:
		fmt.Fprintln(p.out, "Dry run - script would execute with these settings")
	case execution.StateRecorded:
		if o.Record.Succeeded() {
			fmt.Fprintf(p.out, "\nScript completed successfully in %s\n", seconds(o.Record.DurationMS))
		} else {
			fmt.Fprintf(p.out, "\nScript failed with exit code %d in %s\n", o.Record.ExitCode, seconds(o.Record.DurationMS))
		}
	}
}
