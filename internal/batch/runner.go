package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/relget/internal/archive"
	"github.com/ZebulonRouseFrantzich/relget/internal/catalog"
	"github.com/ZebulonRouseFrantzich/relget/internal/download"
	"github.com/ZebulonRouseFrantzich/relget/internal/platform"
	"github.com/ZebulonRouseFrantzich/relget/internal/release"
)

// AllProducts expands to every product in the catalog
const AllProducts = "all"

// Catalog provides product and release listings
type Catalog interface {
	Products(ctx context.Context) ([]string, error)
	Releases(ctx context.Context, product string) ([]catalog.Release, error)
}

// Downloader fetches archives into a directory
type Downloader interface {
	FetchWithResult(ctx context.Context, url, destDir string, force bool) (*download.Result, error)
}

// Extractor places the executables of an archive into a directory
type Extractor interface {
	ExtractWithOutcome(ctx context.Context, archivePath, destDir string, force bool) (*archive.Outcome, error)
}

// Options are the per-run settings shared by every product
type Options struct {
	Version         string
	AllowPrerelease bool
	Target          platform.Target
	Dest            string
	Extract         bool
	Force           bool
	ListOnly        bool // select only; no download
	SortVersions    bool // order releases by semver instead of trusting the feed
}

// Runner processes products sequentially
type Runner struct {
	catalog    Catalog
	downloader Downloader
	extractor  Extractor
	prompter   Prompter
	opts       Options
	logger     *slog.Logger
}

// NewRunner creates a batch runner. The extractor may be nil when
// opts.Extract is false.
func NewRunner(c Catalog, d Downloader, e Extractor, opts Options) *Runner {
	if opts.Version == "" {
		opts.Version = release.Latest
	}
	return &Runner{
		catalog:    c,
		downloader: d,
		extractor:  e,
		opts:       opts,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithPrompter asks p before every extraction. nil disables confirmation.
func (r *Runner) WithPrompter(p Prompter) *Runner {
	r.prompter = p
	return r
}

// WithLogger sets the logger for progress messages
func (r *Runner) WithLogger(logger *slog.Logger) *Runner {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Run processes every product and returns one Result per product.
// "all" is replaced by the catalog's product list. Cancelling ctx marks
// the products not yet started as failed.
func (r *Runner) Run(ctx context.Context, products []string) *Report {
	report := &Report{}

	expanded, err := r.expand(ctx, products)
	if err != nil {
		report.Results = append(report.Results, Result{Product: AllProducts, Status: StatusFailed, Err: err})
		return report
	}

	for _, product := range expanded {
		if err := ctx.Err(); err != nil {
			report.Results = append(report.Results, Result{Product: product, Status: StatusFailed, Err: err})
			continue
		}

		res := r.process(ctx, product)
		switch res.Status {
		case StatusFailed:
			r.logger.Info("product failed", "product", product, "error", res.Err)
		case StatusSkipped:
			r.logger.Info("product skipped", "product", product, "reason", res.Err)
		default:
			r.logger.Info("product done", "product", product, "version", res.Version, "duration", res.Duration)
		}
		report.Results = append(report.Results, res)
	}
	return report
}

// expand replaces "all" with the catalog's products, keeping request order
// and dropping duplicates
func (r *Runner) expand(ctx context.Context, products []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range products {
		if !strings.EqualFold(p, AllProducts) {
			add(p)
			continue
		}
		all, err := r.catalog.Products(ctx)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		for _, name := range all {
			add(name)
		}
	}
	return out, nil
}

// process runs one product to completion. Every error ends up in the Result.
func (r *Runner) process(ctx context.Context, product string) Result {
	start := time.Now()
	res := Result{Product: product, Status: StatusFailed}

	fail := func(err error) Result {
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	releases, err := r.catalog.Releases(ctx, product)
	if err != nil {
		return fail(err)
	}
	if r.opts.SortVersions {
		releases = release.SortByVersion(releases)
	}

	sel, err := release.Select(releases, release.Request{
		Version:         r.opts.Version,
		AllowPrerelease: r.opts.AllowPrerelease,
		OS:              r.opts.Target.OS,
		Arch:            r.opts.Target.Arch,
	})
	if err != nil {
		return fail(fmt.Errorf("select %s: %w", product, err))
	}
	res.Version = sel.Release.Version
	res.Platform = sel.Build.Platform()
	res.URL = sel.Build.URL
	r.logger.Debug("release selected", "product", product, "version", res.Version, "url", res.URL)

	if r.opts.ListOnly {
		res.Status = StatusSucceeded
		res.Duration = time.Since(start)
		return res
	}

	dl, err := r.downloader.FetchWithResult(ctx, sel.Build.URL, r.opts.Dest, r.opts.Force)
	if err != nil {
		return fail(err)
	}
	res.Archive = dl.Path
	res.Cached = dl.Skipped

	if !r.opts.Extract {
		res.Status = StatusSucceeded
		res.Duration = time.Since(start)
		return res
	}
	if r.extractor == nil {
		return fail(fmt.Errorf("extract %s: no extractor configured", product))
	}

	if r.prompter != nil {
		question := fmt.Sprintf("Extract executables from %s into %s?", filepath.Base(dl.Path), r.opts.Dest)
		ok, err := r.prompter.Confirm(ctx, question)
		if err != nil {
			return fail(fmt.Errorf("confirm extraction: %w", err))
		}
		if !ok {
			res.Status = StatusSkipped
			res.Err = ErrUserDeclined
			res.Duration = time.Since(start)
			return res
		}
	}

	out, err := r.extractor.ExtractWithOutcome(ctx, dl.Path, r.opts.Dest, r.opts.Force)
	if err != nil {
		return fail(err)
	}
	res.Extracted = len(out.Placed)
	res.Placed = out.Placed
	res.Backend = out.Backend
	res.Status = StatusSucceeded
	res.Duration = time.Since(start)
	return res
}
