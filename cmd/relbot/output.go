package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// stderr is where status output goes. Tests replace it.
var stderr io.Writer = os.Stderr

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
	stepColor    = color.New(color.FgCyan)
	labelColor   = color.New(color.Bold)
)

func printSuccess(format string, args ...any) {
	successColor.Fprintln(stderr, "✓ "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	errorColor.Fprintln(stderr, "✗ "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	warningColor.Fprintln(stderr, "⚠ "+fmt.Sprintf(format, args...))
}

func printStatus(label string, format string, args ...any) {
	fmt.Fprintf(stderr, "  %s %s\n", labelColor.Sprint(label+":"), fmt.Sprintf(format, args...))
}

func printStep(format string, args ...any) {
	stepColor.Fprintln(stderr, "→ "+fmt.Sprintf(format, args...))
}
