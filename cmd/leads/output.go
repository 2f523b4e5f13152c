package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/alfredjeanlab/leadconsole/internal/model"
	"github.com/alfredjeanlab/leadconsole/internal/ui"
)

const messageWidth = 48

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// truncate shortens s to n runes, marking the cut with "...". Newlines are
// flattened so a row stays on one line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func printLeadTable(w io.Writer, leads []model.Lead, total int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tNAME\tEMAIL\tAI MESSAGE")
	for _, l := range leads {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			l.ID,
			ui.RenderStatus(l.Status),
			l.Name,
			l.Email,
			truncate(l.AIMessage, messageWidth),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d leads (%d total)\n", len(leads), total)
}

func printLead(w io.Writer, l model.Lead) {
	fmt.Fprintf(w, "ID:          %s\n", l.ID)
	fmt.Fprintf(w, "Name:        %s\n", l.Name)
	fmt.Fprintf(w, "Email:       %s\n", l.Email)
	fmt.Fprintf(w, "Status:      %s\n", ui.RenderStatus(l.Status))
	if l.AIMessage != "" {
		fmt.Fprintf(w, "AI message:  %s\n", l.AIMessage)
	}
}

func printStats(w io.Writer, s model.Stats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total\t%d\n", s.Total)
	for _, row := range []struct {
		status model.Status
		n      int
	}{
		{model.StatusNew, s.New},
		{model.StatusContacted, s.Contacted},
		{model.StatusQualified, s.Qualified},
		{model.StatusLost, s.Lost},
	} {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", ui.RenderStatus(row.status), row.n, bar(row.n, s.Total))
	}
	tw.Flush()
}

// bar draws a proportional bar up to 30 cells wide.
func bar(n, total int) string {
	if total == 0 || n == 0 {
		return ""
	}
	width := n * 30 / total
	if width == 0 {
		width = 1
	}
	return ui.RenderMuted(strings.Repeat("#", width))
}
