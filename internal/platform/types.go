// Package platform detects the host platform and translates host OS and
// architecture identifiers into the release catalog's vocabulary.
//
// Host detection uses runtime.GOOS/GOARCH, plus gopsutil for Linux
// distribution details. Translation goes through static tables that are
// never mutated after package initialization.
package platform

import "context"

// Info contains platform detection information.
type Info struct {
	OS       string // host GOOS, e.g. "linux", "darwin", "windows"
	Arch     string // host GOARCH, e.g. "amd64", "arm64"
	Platform string // distro ID (Linux only, e.g. "ubuntu")
	Family   string // distro family as reported by gopsutil (Linux only)
	Version  string // distro version (Linux only, e.g. "22.04")
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// Distro returns a human readable distro string, or "" off Linux.
func (i *Info) Distro() string {
	if i.OS != "linux" || i.Platform == "" {
		return ""
	}
	if i.Version == "" {
		return i.Platform
	}
	return i.Platform + " " + i.Version
}

// Target is a resolved catalog platform.
type Target struct {
	OS   string // catalog OS name, e.g. "darwin"
	Arch string // catalog arch name, e.g. "amd64"
}

// String returns the "os/arch" form used in catalog diagnostics.
func (t Target) String() string {
	return t.OS + "/" + t.Arch
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
