package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	// ErrBackendFailure marks a single backend attempt that failed; the next backend is tried
	ErrBackendFailure = errors.New("extraction backend failed")
	// ErrExtractionExhausted means every backend in the chain failed
	ErrExtractionExhausted = errors.New("all extraction backends failed")
	// ErrBackendUnavailable means the backend's tool is missing or cannot handle the format
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// Backend expands an archive into a directory
type Backend interface {
	// Name identifies the backend in logs and errors
	Name() string
	// Supports reports whether the backend can run here and handle the format
	Supports(format Format) bool
	// Expand unpacks the whole archive into dir, which already exists
	Expand(ctx context.Context, archivePath, dir string) error
}

// Runner executes external programs. ExecRunner is the production implementation.
type Runner interface {
	LookPath(name string) (string, error)
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// LookPath searches PATH for an executable
func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executes the command and returns an error carrying its output on failure
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	//nolint:gosec // G204: program names come from the fixed backend tables
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(out.String())
		if detail != "" {
			return fmt.Errorf("%s: %w: %s", name, err, detail)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// CommandBackend expands archives with an external program
type CommandBackend struct {
	name    string
	program string
	formats []Format
	args    func(archivePath, dir string) []string
	runner  Runner
}

// Name identifies the backend in logs and errors
func (b *CommandBackend) Name() string {
	return b.name
}

// Supports reports whether the program is on PATH and understands the format
func (b *CommandBackend) Supports(format Format) bool {
	handles := false
	for _, f := range b.formats {
		if f == format {
			handles = true
			break
		}
	}
	if !handles {
		return false
	}
	_, err := b.runner.LookPath(b.program)
	return err == nil
}

// Expand runs the program; a non-zero exit status is returned as an error
func (b *CommandBackend) Expand(ctx context.Context, archivePath, dir string) error {
	return b.runner.Run(ctx, b.program, b.args(archivePath, dir)...)
}

// BackendError records one failed attempt
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Backend, e.Err)
}

// Unwrap exposes both ErrBackendFailure and the cause
func (e *BackendError) Unwrap() []error {
	return []error{ErrBackendFailure, e.Err}
}

// ExhaustedError is returned when no backend could extract the archive
type ExhaustedError struct {
	Archive  string
	Failures []*BackendError
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("extract %s: all extraction backends failed: %s", e.Archive, strings.Join(parts, "; "))
}

// Unwrap allows errors.Is(err, ErrExtractionExhausted)
func (e *ExhaustedError) Unwrap() error {
	return ErrExtractionExhausted
}
