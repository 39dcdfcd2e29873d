package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/ZebulonRouseFrantzich/relget/internal/placement"
)

// Options configures an Extractor
type Options struct {
	// Chain is tried in order. Defaults to DefaultChain for the host OS.
	// The built-in backend is appended when the chain does not end with one.
	Chain []Backend
	// Qualifier selects the files that are placed. Defaults to executables
	// for the host OS.
	Qualifier placement.Qualifier
	Logger    *slog.Logger
	Clock     Clock
}

// Outcome describes a successful extraction
type Outcome struct {
	Placed  []string // final paths of the placed files
	Backend string   // backend that produced them
}

// Extractor unpacks archives through a backend chain and places qualifying files
type Extractor struct {
	chain     []Backend
	qualifier placement.Qualifier
	logger    *slog.Logger
	clock     Clock
}

// NewExtractor creates an extractor from opts
func NewExtractor(opts Options) *Extractor {
	chain := opts.Chain
	if chain == nil {
		chain = DefaultChain(runtime.GOOS, ExecRunner{})
	}
	if len(chain) == 0 || !isBuiltin(chain[len(chain)-1]) {
		chain = append(append([]Backend(nil), chain...), NewBuiltin())
	}

	e := &Extractor{
		chain:     chain,
		qualifier: opts.Qualifier,
		logger:    opts.Logger,
		clock:     opts.Clock,
	}
	if e.qualifier == nil {
		e.qualifier = placement.ExecutableQualifier(runtime.GOOS)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.clock == nil {
		e.clock = RealClock{}
	}
	return e
}

// Backends returns the names of the configured chain, in order
func (e *Extractor) Backends() []string {
	names := make([]string, 0, len(e.chain))
	for _, b := range e.chain {
		names = append(names, b.Name())
	}
	return names
}

// Extract places the qualifying files of archivePath into destDir and
// returns how many were placed. Zero is a success.
func (e *Extractor) Extract(ctx context.Context, archivePath, destDir string, force bool) (int, error) {
	out, err := e.ExtractWithOutcome(ctx, archivePath, destDir, force)
	if err != nil {
		return 0, err
	}
	return len(out.Placed), nil
}

// ExtractWithOutcome is Extract, also reporting the placed paths and the backend used
func (e *Extractor) ExtractWithOutcome(ctx context.Context, archivePath, destDir string, force bool) (*Outcome, error) {
	if _, err := os.Stat(archivePath); err != nil {
		return nil, fmt.Errorf("extract %s: %w", archivePath, err)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}

	format := DetectFormat(archivePath)
	policy := placement.Policy{Force: force}
	exhausted := &ExhaustedError{Archive: archivePath}

	for _, backend := range e.chain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !backend.Supports(format) {
			e.logger.Debug("extraction backend unavailable", "backend", backend.Name(), "format", format.String())
			exhausted.Failures = append(exhausted.Failures, &BackendError{Backend: backend.Name(), Err: ErrBackendUnavailable})
			continue
		}

		placed, err := e.attempt(ctx, backend, archivePath, destDir, policy)
		if err == nil {
			e.logger.Debug("archive extracted", "archive", archivePath, "backend", backend.Name(), "placed", len(placed))
			return &Outcome{Placed: placed, Backend: backend.Name()}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		e.logger.Warn("extraction backend failed, trying next", "backend", backend.Name(), "error", err)
		exhausted.Failures = append(exhausted.Failures, &BackendError{Backend: backend.Name(), Err: err})
	}

	return nil, exhausted
}

// attempt runs one backend inside a fresh scratch directory. The scratch
// directory is removed on every path. A failed drain leaves the destination
// as it was, so the next backend starts from the same state.
func (e *Extractor) attempt(ctx context.Context, backend Backend, archivePath, destDir string, policy placement.Policy) ([]string, error) {
	scratch, err := newScratchDir(destDir, e.clock)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := removeScratchDir(scratch); err != nil {
			e.logger.Warn("scratch cleanup failed", "dir", scratch, "error", err)
		}
	}()

	if err := backend.Expand(ctx, archivePath, scratch); err != nil {
		return nil, err
	}

	return placement.Drain(scratch, destDir, e.qualifier, policy)
}

func isBuiltin(b Backend) bool {
	_, ok := b.(*Builtin)
	return ok
}
