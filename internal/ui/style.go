// Package ui styles terminal output for the CLI.
package ui

import (
	"fmt"
	"os"
)

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	cyan   = "\033[36m"
	green  = "\033[32m"
	yellow = "\033[33m"
	white  = "\033[97m"
	red    = "\033[31m"
)

// Enabled turns styling on or off. It starts off when NO_COLOR is set.
var Enabled = os.Getenv("NO_COLOR") == ""

func paint(style, s string) string {
	if !Enabled || s == "" {
		return s
	}
	return style + s + reset
}

func Bold(s string) string    { return paint(bold, s) }
func Dim(s string) string     { return paint(dim, s) }
func Value(s string) string   { return paint(white, s) }
func Success(s string) string { return paint(green, s) }
func Error(s string) string   { return paint(red, s) }

// Info marks notices that are not results.
func Info(s string) string { return paint(dim+yellow, s) }

// Command styles command names and usage lines.
func Command(s string) string { return paint(cyan, s) }

// Flag styles flag names and example invocations.
func Flag(s string) string { return paint(green, s) }

// Placeholder styles argument placeholders such as <command>.
func Placeholder(s string) string { return paint(yellow, s) }

// Heading styles a section heading.
func Heading(s string) string { return paint(bold+white, s) }

// Title styles the command banner at the top of help output.
func Title(s string) string { return paint(bold+cyan, s) }

// Field formats one "label: value" summary line.
func Field(label, value string) string {
	return fmt.Sprintf("  %s %s", Bold(label+":"), Value(value))
}
