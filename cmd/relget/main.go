package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/ZebulonRouseFrantzich/relget/internal/archive"
	"github.com/ZebulonRouseFrantzich/relget/internal/platform"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

// exitInterrupted is the conventional status for a run stopped by SIGINT
const exitInterrupted = 130

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := &app{
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		detector:    platform.NewDetector(),
		interactive: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
	}
	code := a.execute(ctx, os.Args[1:])

	interrupted := ctx.Err() != nil
	stop()
	if interrupted {
		// Extraction removes its own scratch directories on cancellation;
		// this catches any that a killed backend left registered.
		archive.CleanupScratch()
		fmt.Fprintln(os.Stderr, "Interrupted")
		code = exitInterrupted
	}
	os.Exit(code)
}

// exitError carries a process exit status through cobra's RunE
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// usageError is a configuration or argument problem found before any network activity
func usageError(err error) error {
	return &exitError{code: 2, err: err}
}

// exitCode maps an error from a command to the process exit status
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}
