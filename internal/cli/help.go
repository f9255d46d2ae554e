package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/law-makers/leadcrawl/internal/ui"
)

// minFlagColumn keeps descriptions aligned across commands.
const minFlagColumn = 28

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", ui.Heading(title))
}

// renderHelp writes colorized help for cmd. The short form is used when a
// command is invoked with bad arguments and skips the descriptions and examples.
func renderHelp(w io.Writer, cmd *cobra.Command, full bool) {
	if full {
		fmt.Fprintf(w, "\n%s\n", ui.Title(strings.ToUpper(cmd.Name())))
		if cmd.Short != "" {
			fmt.Fprintln(w, cmd.Short)
		}
		if cmd.Long != "" && cmd.Long != cmd.Short {
			fmt.Fprintf(w, "\n%s\n", strings.TrimSpace(cmd.Long))
		}
	}

	heading(w, "Usage")
	if cmd.Runnable() {
		fmt.Fprintf(w, "  %s\n", ui.Command(cmd.UseLine()))
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "  %s %s %s\n",
			ui.Command(cmd.CommandPath()), ui.Placeholder("<command>"), ui.Dim("[flags]"))
	}

	if full && cmd.HasExample() {
		heading(w, "Examples")
		writeExamples(w, cmd.Example)
	}

	if cmd.HasAvailableSubCommands() {
		heading(w, "Commands")
		writeCommands(w, cmd.Commands())
	}

	if cmd.HasAvailableLocalFlags() {
		heading(w, "Flags")
		writeFlags(w, cmd.LocalFlags().FlagUsages())
	}
	if full && cmd.HasAvailableInheritedFlags() {
		heading(w, "Global Flags")
		writeFlags(w, cmd.InheritedFlags().FlagUsages())
	}

	hint := cmd.CommandPath()
	if cmd.HasAvailableSubCommands() {
		hint += " <command>"
	}
	fmt.Fprintf(w, "\n%s\n\n", ui.Dim(fmt.Sprintf("Run \"%s --help\" for more information.", hint)))
}

// writeExamples prints "#" lines as dim comments and the rest as commands,
// with a blank line before each new comment block.
func writeExamples(w io.Writer, example string) {
	afterCommand := false
	for _, line := range strings.Split(example, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "#"):
			if afterCommand {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "  %s\n", ui.Dim(line))
			afterCommand = false
		default:
			fmt.Fprintf(w, "  %s\n", ui.Flag("$ "+line))
			afterCommand = true
		}
	}
}

func writeCommands(w io.Writer, cmds []*cobra.Command) {
	var shown []*cobra.Command
	width := 0
	for _, c := range cmds {
		if !c.IsAvailableCommand() || c.Name() == "help" {
			continue
		}
		shown = append(shown, c)
		width = max(width, len(c.Name()))
	}
	for _, c := range shown {
		fmt.Fprintf(w, "  %s  %s\n", ui.Command(fmt.Sprintf("%-*s", width, c.Name())), ui.Dim(c.Short))
	}
}

// writeFlags recolors pflag's usage block. pflag separates the flag column
// from the description with at least two spaces.
func writeFlags(w io.Writer, usages string) {
	type row struct{ flag, desc string }
	var rows []row
	width := minFlagColumn
	for _, line := range strings.Split(usages, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "-") {
			// Continuation of a multi-line description.
			rows = append(rows, row{desc: trimmed})
			continue
		}
		flag, desc, _ := strings.Cut(trimmed, "  ")
		rows = append(rows, row{flag: flag, desc: strings.TrimSpace(desc)})
		width = max(width, len(flag))
	}

	for _, r := range rows {
		fmt.Fprintf(w, "  %s  %s\n", ui.Flag(fmt.Sprintf("%-*s", width, r.flag)), ui.Dim(r.desc))
	}
}
