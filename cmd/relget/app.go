package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/relget/internal/catalog"
	"github.com/ZebulonRouseFrantzich/relget/internal/config"
	"github.com/ZebulonRouseFrantzich/relget/internal/platform"
)

// EnvDebug turns on debug logging when set to anything but "", "0" or "false"
const EnvDebug = "RELGET_DEBUG"

// app holds the process-level collaborators shared by every command
type app struct {
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	detector    platform.Detector
	interactive bool // stdin is a terminal, so confirmations can be asked

	// global flags
	configPath string
	debug      bool

	logger *slog.Logger
}

// execute builds the command tree, runs it and returns the exit status
func (a *app) execute(ctx context.Context, args []string) int {
	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(a.stderr, "Error: %s\n", msg)
		}
	}
	return exitCode(err)
}

// setup runs before every command: logging, then the config file
func (a *app) setup(cmd *cobra.Command) (*config.Config, error) {
	a.logger = newLogger(a.stderr, a.debug || debugFromEnv())

	cfg, err := config.NewParser(a.detector).WithLogger(a.logger).Load(cmd.Context(), a.configPath)
	if err != nil {
		return nil, usageError(fmt.Errorf("load config: %w", err))
	}
	if cfg.Source != "" {
		a.logger.Debug("config loaded", "path", cfg.Source)
	}
	return cfg, nil
}

func (a *app) newCatalogClient(cfg *config.Config) (*catalog.Client, error) {
	client, err := catalog.NewClient(cfg.BaseURL,
		catalog.WithLicenseClass(cfg.LicenseClass),
		catalog.WithUserAgent("relget/"+strings.TrimPrefix(Version, "v")),
		catalog.WithLogger(a.logger),
	)
	if err != nil {
		return nil, usageError(err)
	}
	return client, nil
}

// resolveTarget turns the configured os/arch into catalog names
func (a *app) resolveTarget(cmd *cobra.Command, cfg *config.Config) (platform.Target, error) {
	info, err := a.detector.Detect(cmd.Context())
	if err != nil {
		return platform.Target{}, usageError(fmt.Errorf("detect platform: %w", err))
	}
	target, err := platform.Resolve(cfg.OS, cfg.Arch, info)
	if err != nil {
		return platform.Target{}, usageError(err)
	}
	a.logger.Debug("target platform", "target", target.String(), "host", info.OS+"/"+info.Arch, "distro", info.Distro())
	return target, nil
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func debugFromEnv() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvDebug))) {
	case "", "0", "false":
		return false
	default:
		return true
	}
}
