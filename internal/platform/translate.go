package platform

import (
	"fmt"
	"sort"
)

// Auto asks Resolve to use the detected host value.
const Auto = "auto"

// osTable maps host OS identifiers to catalog OS names.
// Go's GOOS values map to themselves; "macos" is accepted for Rust-style hosts.
var osTable = map[string]string{
	"linux":   "linux",
	"darwin":  "darwin",
	"macos":   "darwin",
	"windows": "windows",
	"freebsd": "freebsd",
	"openbsd": "openbsd",
	"netbsd":  "netbsd",
	"solaris": "solaris",
}

// archTable maps host architecture identifiers to catalog arch names.
var archTable = map[string]string{
	"amd64":   "amd64",
	"x86_64":  "amd64",
	"arm64":   "arm64",
	"aarch64": "arm64",
	"arm":     "arm",
	"386":     "386",
	"i686":    "386",
}

// UnsupportedError reports a host OS or architecture with no catalog equivalent.
type UnsupportedError struct {
	Kind  string // "operating system" or "architecture"
	Value string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported %s: %s (supported: %v)", e.Kind, e.Value, e.supported())
}

func (e *UnsupportedError) supported() []string {
	table := archTable
	if e.Kind == "operating system" {
		table = osTable
	}
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TranslateOS maps a host OS identifier to the catalog name.
func TranslateOS(hostOS string) (string, error) {
	if v, ok := osTable[normalize(hostOS)]; ok {
		return v, nil
	}
	return "", &UnsupportedError{Kind: "operating system", Value: hostOS}
}

// TranslateArch maps a host architecture identifier to the catalog name.
func TranslateArch(hostArch string) (string, error) {
	if v, ok := archTable[normalize(hostArch)]; ok {
		return v, nil
	}
	return "", &UnsupportedError{Kind: "architecture", Value: hostArch}
}

// Resolve turns the requested OS and arch into a catalog Target.
// "auto" (or empty) translates the detected host value, which must have a
// table entry. Any other value is passed through lowercased, so builds for
// platforms the table does not know about can still be requested explicitly.
func Resolve(requestedOS, requestedArch string, info *Info) (Target, error) {
	var target Target

	switch v := normalize(requestedOS); v {
	case "", Auto:
		if info == nil {
			return Target{}, fmt.Errorf("platform info is required to resolve %q", Auto)
		}
		v, err := TranslateOS(info.OS)
		if err != nil {
			return Target{}, err
		}
		target.OS = v
	default:
		target.OS = v
	}

	switch arch := normalize(requestedArch); arch {
	case "", Auto:
		if info == nil {
			return Target{}, fmt.Errorf("platform info is required to resolve %q", Auto)
		}
		v, err := TranslateArch(info.Arch)
		if err != nil {
			return Target{}, err
		}
		target.Arch = v
	default:
		target.Arch = arch
	}

	return target, nil
}
