// Command material-updater re-encodes compiled .material.bin shader files,
// bare or inside zip resource packs, to a chosen game version.
//
// Usage:
//
//	material-updater [convert] FILE -t VERSION -o OUTPUT [flags]
//	material-updater inspect FILE [--format text|yaml|cbor]
//	material-updater versions
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/oy3o/materialbin/internal/version"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// usageError marks failures caused by the invocation rather than the input.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{fmt.Errorf(format, args...)}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// Handle --version before anything else.
	for _, arg := range args {
		if arg == "--version" {
			fmt.Fprintf(stdout, "material-updater %s\n", version.Info())
			return exitOK
		}
	}

	command, rest := "convert", args
	if len(args) > 0 {
		switch args[0] {
		case "convert", "inspect", "versions":
			command, rest = args[0], args[1:]
		case "help":
			printUsage(stdout)
			return exitOK
		}
	}

	var err error
	switch command {
	case "convert":
		err = runConvert(ctx, rest, stdout, stderr)
	case "inspect":
		err = runInspect(rest, stdout, stderr)
	case "versions":
		err = runVersions(rest, stdout)
	}

	var usage *usageError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errHelp):
		return exitOK
	case errors.As(err, &usage):
		fmt.Fprintf(stderr, "error: %v\n", err)
		printUsage(stderr)
		return exitUsage
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage:
  material-updater [convert] FILE -t VERSION -o OUTPUT [flags]
  material-updater inspect FILE [--format text|yaml|cbor]
  material-updater versions

Run a command with --help for its flags.
`)
}
