package config

import (
	"fmt"

	"github.com/ZebulonRouseFrantzich/relget/internal/catalog"
	"github.com/ZebulonRouseFrantzich/relget/internal/platform"
	"github.com/ZebulonRouseFrantzich/relget/internal/release"
)

const (
	// DefaultLicenseClass is the catalog license filter used when none is configured
	DefaultLicenseClass = "oss"
	// DefaultDest is where archives and executables are written
	DefaultDest = "./downloads"
)

// Config holds run settings. Zero values are never meaningful on their
// own; start from Defaults.
type Config struct {
	Products     []string `yaml:"products,omitempty"`
	Version      string   `yaml:"version"`
	Prerelease   bool     `yaml:"prerelease"`
	OS           string   `yaml:"os"`
	Arch         string   `yaml:"arch"`
	LicenseClass string   `yaml:"license_class"`
	Dest         string   `yaml:"dest"`
	Extract      bool     `yaml:"extract"`
	Force        bool     `yaml:"force"`
	BaseURL      string   `yaml:"base_url"`
	Yes          bool     `yaml:"yes"`
	SortVersions bool     `yaml:"sort_versions"`

	// Source is the file the values came from; empty for built-in defaults
	Source string `yaml:"-"`
}

// Defaults returns the built-in settings
func Defaults() *Config {
	return &Config{
		Version:      release.Latest,
		OS:           platform.Auto,
		Arch:         platform.Auto,
		LicenseClass: DefaultLicenseClass,
		Dest:         DefaultDest,
		BaseURL:      catalog.DefaultBaseURL,
	}
}

// Validate checks the values that cannot be fixed up later
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version cannot be empty")
	}
	if c.Dest == "" {
		return fmt.Errorf("dest cannot be empty")
	}
	for i, p := range c.Products {
		if p == "" {
			return fmt.Errorf("product %d is empty", i+1)
		}
	}
	return nil
}
