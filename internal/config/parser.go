package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/ZebulonRouseFrantzich/relget/internal/platform"
)

const (
	// EnvConfig names a config file to use when --config is not given
	EnvConfig = "RELGET_CONFIG"

	luaGlobal = "relget"

	// maxConfigSize bounds the size of a config file
	maxConfigSize = 1 << 20
	// defaultParseTimeout applies when the caller's context has no deadline
	defaultParseTimeout = 5 * time.Second
)

// Parser runs Lua config files with platform detection
type Parser struct {
	detector platform.Detector
	logger   *slog.Logger
}

// NewParser creates a config parser. A nil detector leaves the platform
// table out of the Lua environment.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithLogger sets the logger used for parse tracing
func (p *Parser) WithLogger(logger *slog.Logger) *Parser {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// ParseError is a config problem reported to the user
type ParseError struct {
	Source  string // file name, or "<string>"
	Message string // what is wrong
	Detail  string // raw Lua error or offending value
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Source, e.Message, e.Detail)
}

// ParseFile reads and runs a config file
func (p *Parser) ParseFile(ctx context.Context, path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, &ParseError{Source: path, Message: "config file too large", Detail: fmt.Sprintf("%d bytes", info.Size())}
	}

	//nolint:gosec // G304: the path is chosen by the user
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := p.parse(ctx, string(code), path)
	if err != nil {
		return nil, err
	}
	cfg.Source = path
	return cfg, nil
}

// ParseString runs config code held in memory
func (p *Parser) ParseString(ctx context.Context, code string) (*Config, error) {
	return p.parse(ctx, code, "<string>")
}

func (p *Parser) parse(ctx context.Context, code, source string) (*Config, error) {
	if len(code) > maxConfigSize {
		return nil, &ParseError{Source: source, Message: "config too large", Detail: fmt.Sprintf("%d bytes", len(code))}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultParseTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	p.logger.Debug("running config", "source", source)
	if err := L.DoString(code); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("run config %s: %w", source, ctxErr)
		}
		return nil, &ParseError{Source: source, Message: "Lua error", Detail: trimTraceback(err.Error())}
	}

	cfg, err := extractConfig(L, source)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ParseError{Source: source, Message: "config validation failed", Detail: err.Error()}
	}
	return cfg, nil
}

// field applies one Lua value to the config
type field func(cfg *Config, v lua.LValue) error

func stringField(set func(*Config, string)) field {
	return func(cfg *Config, v lua.LValue) error {
		s, ok := v.(lua.LString)
		if !ok {
			return fmt.Errorf("expected string, got %s", v.Type())
		}
		set(cfg, string(s))
		return nil
	}
}

func boolField(set func(*Config, bool)) field {
	return func(cfg *Config, v lua.LValue) error {
		b, ok := v.(lua.LBool)
		if !ok {
			return fmt.Errorf("expected boolean, got %s", v.Type())
		}
		set(cfg, bool(b))
		return nil
	}
}

// productsField accepts a single name or an array of names
func productsField(cfg *Config, v lua.LValue) error {
	switch val := v.(type) {
	case lua.LString:
		cfg.Products = []string{string(val)}
		return nil
	case *lua.LTable:
		var products []string
		var bad error
		val.ForEach(func(_, item lua.LValue) {
			if bad != nil {
				return
			}
			s, ok := item.(lua.LString)
			if !ok {
				bad = fmt.Errorf("expected product names, found %s", item.Type())
				return
			}
			products = append(products, string(s))
		})
		if bad != nil {
			return bad
		}
		cfg.Products = products
		return nil
	default:
		return fmt.Errorf("expected string or list of strings, got %s", v.Type())
	}
}

var fields = map[string]field{
	"product":       productsField,
	"version":       stringField(func(c *Config, s string) { c.Version = s }),
	"prerelease":    boolField(func(c *Config, b bool) { c.Prerelease = b }),
	"os":            stringField(func(c *Config, s string) { c.OS = s }),
	"arch":          stringField(func(c *Config, s string) { c.Arch = s }),
	"license_class": stringField(func(c *Config, s string) { c.LicenseClass = s }),
	"dest":          stringField(func(c *Config, s string) { c.Dest = s }),
	"extract":       boolField(func(c *Config, b bool) { c.Extract = b }),
	"force":         boolField(func(c *Config, b bool) { c.Force = b }),
	"base_url":      stringField(func(c *Config, s string) { c.BaseURL = s }),
	"yes":           boolField(func(c *Config, b bool) { c.Yes = b }),
	"sort_versions": boolField(func(c *Config, b bool) { c.SortVersions = b }),
}

// Keys returns the recognized keys of the relget table, sorted
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// extractConfig reads the relget global over the defaults. A file that
// never assigns relget yields the defaults.
func extractConfig(L *lua.LState, source string) (*Config, error) {
	cfg := Defaults()

	global := L.GetGlobal(luaGlobal)
	if global.Type() == lua.LTNil {
		return cfg, nil
	}
	table, ok := global.(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Source:  source,
			Message: fmt.Sprintf("invalid '%s' value", luaGlobal),
			Detail:  fmt.Sprintf("expected table, got %s", global.Type()),
		}
	}

	var parseErr *ParseError
	table.ForEach(func(key, value lua.LValue) {
		if parseErr != nil {
			return
		}
		name, isString := key.(lua.LString)
		if !isString {
			parseErr = &ParseError{Source: source, Message: "unexpected array entry in relget table", Detail: value.String()}
			return
		}
		apply, known := fields[string(name)]
		if !known {
			parseErr = &ParseError{
				Source:  source,
				Message: fmt.Sprintf("unknown key %q", string(name)),
				Detail:  "valid keys: " + strings.Join(Keys(), ", "),
			}
			return
		}
		if err := apply(cfg, value); err != nil {
			parseErr = &ParseError{Source: source, Message: fmt.Sprintf("invalid value for %q", string(name)), Detail: err.Error()}
		}
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return cfg, nil
}

// trimTraceback drops the stack traceback gopher-lua appends to errors
func trimTraceback(detail string) string {
	if idx := strings.Index(detail, "stack traceback"); idx > 0 {
		return strings.TrimSpace(detail[:idx])
	}
	return detail
}

// DefaultPath returns the per-user config file location
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "relget", "config.lua"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", "relget", "config.lua"), nil
}

// Load resolves and parses the config file. explicit comes from --config.
// When no file is named and the per-user file does not exist, the
// defaults are returned.
func (p *Parser) Load(ctx context.Context, explicit string) (*Config, error) {
	if explicit != "" {
		return p.ParseFile(ctx, explicit)
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return p.ParseFile(ctx, env)
	}

	path, err := DefaultPath()
	if err != nil {
		p.logger.Debug("no per-user config location", "error", err)
		return Defaults(), nil
	}
	cfg, err := p.ParseFile(ctx, path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	return cfg, err
}
