package release

import (
	"errors"
	"fmt"
	"strings"
)

// Selection failures. Every error returned by Select matches one of these with errors.Is.
var (
	ErrProductNotFound    = errors.New("product not found or has no releases")
	ErrNoSupportedVersion = errors.New("no supported versions found")
	ErrVersionNotFound    = errors.New("version not found or is not supported")
	ErrNoSuitableVersion  = errors.New("no suitable version found, try allowing prereleases")
	ErrNoCompatibleBuild  = errors.New("no compatible build found")
)

// NoCompatibleBuildError reports a release without a build for the requested platform.
// Available lists every os/arch pair of the release in catalog order.
type NoCompatibleBuildError struct {
	Version   string
	OS        string
	Arch      string
	Available []string
}

func (e *NoCompatibleBuildError) Error() string {
	available := "none"
	if len(e.Available) > 0 {
		available = strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("no compatible build found for platform '%s/%s'; available platforms for v%s: %s",
		e.OS, e.Arch, e.Version, available)
}

// Unwrap allows errors.Is(err, ErrNoCompatibleBuild)
func (e *NoCompatibleBuildError) Unwrap() error {
	return ErrNoCompatibleBuild
}
