package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
)

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to marshal JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printTable(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

func printMessage(msg string) {
	fmt.Println(msg)
}

// truncate shortens s to at most max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func lastRun(t *time.Time) string {
	if t == nil {
		return "Never"
	}
	return humanize.Time(*t)
}

func seconds(ms uint64) string {
	return fmt.Sprintf("%.2fs", float64(ms)/1000)
}

var dsnPassword = regexp.MustCompile(`(password=)\S+`)

// maskDSN hides the password of a URL, MySQL or key=value style DSN.
func maskDSN(dsn string) string {
	if at := strings.LastIndex(dsn, "@"); at > 0 {
		userinfo := dsn[:at]
		if colon := strings.LastIndex(userinfo, ":"); colon >= 0 && !strings.HasPrefix(userinfo[colon:], "://") {
			return userinfo[:colon+1] + "****" + dsn[at:]
		}
	}
	return dsnPassword.ReplaceAllString(dsn, "${1}****")
}

// promptConfirmer asks yes/no questions on the terminal.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm returns defaultYes on an empty answer and false when input is closed.
func (p *promptConfirmer) Confirm(ctx context.Context, prompt string, defaultYes bool) (bool, error) {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	fmt.Fprintf(p.out, "%s %s: ", prompt, hint)

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return false, nil
	}

	switch strings.TrimSpace(strings.ToLower(line)) {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
