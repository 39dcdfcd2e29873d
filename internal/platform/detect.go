package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect reports the host OS and architecture.
//
// On Linux, distribution details come from gopsutil. If that lookup fails
// the distro fields stay empty and detection still succeeds; only a
// cancelled context is treated as a failure.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	if runtime.GOOS == "linux" {
		platform, family, version, err := host.PlatformInformationWithContext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
			}
			return info, nil
		}

		platform = normalize(platform)
		if platform != "" {
			info.Platform = platform
			info.Family = normalize(family)
			info.Version = normalize(version)
		}
	}

	return info, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
