package main

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/leadconsole/internal/model"
	"github.com/alfredjeanlab/leadconsole/internal/ui"
)

var (
	// Unindented section titles such as "Leads:" or "Flags:".
	reSection = regexp.MustCompile(`(?m)^([A-Z][^\n]*:)\s*$`)

	// Two-space indented command name followed by its description.
	reSubcommand = regexp.MustCompile(`(?m)^(  )(\S+)(  )`)

	// Flag value types, e.g. "--status string", "--every duration".
	reValueType = regexp.MustCompile(`(--?\S+\s+)(string|bool|duration)\b`)

	// Cobra's (default "...") suffix.
	reDefaultValue = regexp.MustCompile(`\(default "[^"]*"\)`)

	// Status names where help text lists them, e.g. "new|contacted|qualified|lost".
	reStatusList = regexp.MustCompile(`\b(` + statusAlternation() + `)\b`)
)

func statusAlternation() string {
	names := make([]string, 0, len(model.Statuses()))
	for _, s := range model.Statuses() {
		names = append(names, regexp.QuoteMeta(string(s)))
	}
	return strings.Join(names, "|")
}

// colorizedHelpFunc renders cobra's usage text and, on a color terminal,
// styles it before writing.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}

		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		fmt.Fprint(out, colorizeHelp(buf.String()))
	}
}

func colorizeHelp(s string) string {
	s = reSection.ReplaceAllStringFunc(s, func(m string) string {
		return ui.RenderAccent(strings.TrimSpace(m))
	})
	s = reSubcommand.ReplaceAllStringFunc(s, func(m string) string {
		p := reSubcommand.FindStringSubmatch(m)
		return p[1] + ui.RenderCommand(p[2]) + p[3]
	})
	s = reValueType.ReplaceAllStringFunc(s, func(m string) string {
		p := reValueType.FindStringSubmatch(m)
		return p[1] + ui.RenderMuted(p[2])
	})
	s = reDefaultValue.ReplaceAllStringFunc(s, ui.RenderMuted)
	s = reStatusList.ReplaceAllStringFunc(s, func(m string) string {
		return ui.RenderStatus(model.Status(m))
	})
	return s
}
