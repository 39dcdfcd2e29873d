package main

import (
	"errors"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/relget/internal/archive"
	"github.com/ZebulonRouseFrantzich/relget/internal/batch"
	"github.com/ZebulonRouseFrantzich/relget/internal/config"
	"github.com/ZebulonRouseFrantzich/relget/internal/download"
	"github.com/ZebulonRouseFrantzich/relget/internal/placement"
)

// downloadFlags mirrors config.Config for the values settable on the command line
type downloadFlags struct {
	products     []string
	version      string
	prerelease   bool
	os           string
	arch         string
	licenseClass string
	dest         string
	extract      bool
	force        bool
	list         bool
	yes          bool
	sortVersions bool
	baseURL      string
}

func (a *app) newRootCmd() *cobra.Command {
	f := &downloadFlags{}
	defaults := config.Defaults()

	root := &cobra.Command{
		Use:   "relget [product|all]...",
		Short: "Download HashiCorp-style releases and extract their executables",
		Long: `relget picks a release of each product from a release catalog, downloads
the build for the target platform and, with --extract, places the
executables it contains into the destination directory.

Examples:
  relget terraform                     # latest stable terraform for this host
  relget -p vault -v 1.17.2 -x         # exact version, extracted
  relget consul nomad -o windows -a amd64
  relget all --list                    # resolve every product, download nothing`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDownload(cmd, f, args)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Lua config file (default $RELGET_CONFIG or ~/.config/relget/config.lua)")
	pf.BoolVar(&a.debug, "debug", false, "enable debug logging (also $"+EnvDebug+")")
	pf.StringVarP(&f.licenseClass, "license-class", "l", defaults.LicenseClass, "catalog license class filter; empty disables it")
	pf.StringVar(&f.baseURL, "base-url", defaults.BaseURL, "release catalog API root")
	pf.StringVarP(&f.dest, "filepath", "f", defaults.Dest, "destination directory")
	pf.BoolVar(&f.yes, "yes", false, "do not ask for confirmation")

	fl := root.Flags()
	fl.StringSliceVarP(&f.products, "product", "p", nil, `product name, or "all" (repeatable)`)
	fl.StringVarP(&f.version, "product-version", "v", defaults.Version, `exact version or "latest"`)
	fl.BoolVar(&f.prerelease, "prerelease", false, "allow prereleases when selecting the latest version")
	fl.StringVarP(&f.os, "os", "o", defaults.OS, `target operating system, or "auto"`)
	fl.StringVarP(&f.arch, "arch", "a", defaults.Arch, `target architecture, or "auto"`)
	fl.BoolVarP(&f.extract, "extract", "x", false, "extract executables from the downloaded archive")
	fl.BoolVar(&f.force, "force", false, "re-download and replace existing files")
	fl.BoolVar(&f.list, "list", false, "only resolve and print the download URLs")
	fl.BoolVar(&f.sortVersions, "sort-versions", false, "order releases by semantic version instead of catalog order")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
	root.AddCommand(a.newListCmd(f), a.newCleanCmd(f), a.newVersionCmd())
	return root
}

// applyFlags overrides config values with the flags the user actually set
func applyFlags(cmd *cobra.Command, f *downloadFlags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("license-class") {
		cfg.LicenseClass = f.licenseClass
	}
	if changed("base-url") {
		cfg.BaseURL = f.baseURL
	}
	if changed("filepath") {
		cfg.Dest = f.dest
	}
	if changed("yes") {
		cfg.Yes = f.yes
	}
	if changed("product-version") {
		cfg.Version = f.version
	}
	if changed("prerelease") {
		cfg.Prerelease = f.prerelease
	}
	if changed("os") {
		cfg.OS = f.os
	}
	if changed("arch") {
		cfg.Arch = f.arch
	}
	if changed("extract") {
		cfg.Extract = f.extract
	}
	if changed("force") {
		cfg.Force = f.force
	}
	if changed("sort-versions") {
		cfg.SortVersions = f.sortVersions
	}
}

func (a *app) runDownload(cmd *cobra.Command, f *downloadFlags, args []string) error {
	cfg, err := a.setup(cmd)
	if err != nil {
		return err
	}
	applyFlags(cmd, f, cfg)

	products := append(append([]string(nil), args...), f.products...)
	if len(products) == 0 {
		products = cfg.Products
	}
	if len(products) == 0 {
		return usageError(errors.New(`a product name or "all" is required`))
	}
	if err := cfg.Validate(); err != nil {
		return usageError(err)
	}

	target, err := a.resolveTarget(cmd, cfg)
	if err != nil {
		return err
	}
	client, err := a.newCatalogClient(cfg)
	if err != nil {
		return err
	}

	extractor := archive.NewExtractor(archive.Options{
		Chain:     archive.DefaultChain(runtime.GOOS, archive.ExecRunner{}),
		Qualifier: placement.ExecutableQualifier(target.OS),
		Logger:    a.logger,
	})

	runner := batch.NewRunner(client, download.NewManager(a.logger), extractor, batch.Options{
		Version:         cfg.Version,
		AllowPrerelease: cfg.Prerelease,
		Target:          target,
		Dest:            cfg.Dest,
		Extract:         cfg.Extract,
		Force:           cfg.Force,
		ListOnly:        f.list,
		SortVersions:    cfg.SortVersions,
	}).WithLogger(a.logger)

	if cfg.Extract && !cfg.Yes && a.interactive {
		runner.WithPrompter(batch.NewLinePrompter(a.stdin, a.stderr))
	}

	report := runner.Run(cmd.Context(), products)
	newStyles(a.stdout).renderReport(a.stdout, report, f.list)

	if code := report.ExitCode(); code != 0 {
		// The report already describes every failure
		return &exitError{code: code}
	}
	return nil
}
