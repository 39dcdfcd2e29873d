// Package release picks exactly one build out of a product's release catalog.
//
// Selection is a pure function of its inputs. "latest" resolution relies on
// the catalog being ordered newest first; use SortByVersion to impose a
// semantic version order when the feed cannot be trusted.
package release

import (
	"fmt"

	"github.com/ZebulonRouseFrantzich/relget/internal/catalog"
)

// Latest is the version request that selects the most recent release
const Latest = "latest"

// Request describes which build to select
type Request struct {
	Version         string // exact version string or "latest"
	AllowPrerelease bool
	OS              string // catalog OS vocabulary, e.g. "darwin"
	Arch            string // catalog arch vocabulary, e.g. "amd64"
}

// Selection is the outcome of a successful Select
type Selection struct {
	Release catalog.Release
	Build   catalog.Build
}

// Select resolves req against releases
func Select(releases []catalog.Release, req Request) (*Selection, error) {
	rel, err := selectRelease(releases, req)
	if err != nil {
		return nil, err
	}

	build, err := selectBuild(rel, req.OS, req.Arch)
	if err != nil {
		return nil, err
	}

	return &Selection{Release: rel, Build: build}, nil
}

// Supported filters releases down to those in the supported lifecycle state, keeping order
func Supported(releases []catalog.Release) []catalog.Release {
	supported := make([]catalog.Release, 0, len(releases))
	for _, r := range releases {
		if r.State() == catalog.StateSupported {
			supported = append(supported, r)
		}
	}
	return supported
}

// Platforms lists the os/arch pairs of a release in build order
func Platforms(r catalog.Release) []string {
	platforms := make([]string, 0, len(r.Builds))
	for _, b := range r.Builds {
		platforms = append(platforms, b.Platform())
	}
	return platforms
}

func selectRelease(releases []catalog.Release, req Request) (catalog.Release, error) {
	if len(releases) == 0 {
		return catalog.Release{}, ErrProductNotFound
	}

	supported := Supported(releases)
	if len(supported) == 0 {
		return catalog.Release{}, ErrNoSupportedVersion
	}

	if req.Version != "" && req.Version != Latest {
		for _, r := range supported {
			if r.Version == req.Version {
				return r, nil
			}
		}
		return catalog.Release{}, fmt.Errorf("version '%s': %w", req.Version, ErrVersionNotFound)
	}

	if req.AllowPrerelease {
		return supported[0], nil
	}
	for _, r := range supported {
		if !r.IsPrerelease {
			return r, nil
		}
	}
	return catalog.Release{}, ErrNoSuitableVersion
}

func selectBuild(r catalog.Release, goos, arch string) (catalog.Build, error) {
	for _, b := range r.Builds {
		if b.OS == goos && b.Arch == arch {
			return b, nil
		}
	}
	return catalog.Build{}, &NoCompatibleBuildError{
		Version:   r.Version,
		OS:        goos,
		Arch:      arch,
		Available: Platforms(r),
	}
}
