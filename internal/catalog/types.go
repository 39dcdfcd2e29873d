package catalog

// LifecycleState classifies a release's support status.
type LifecycleState int

const (
	// StateOther covers any status string the catalog may add in the future
	StateOther LifecycleState = iota
	// StateSupported marks a release that is maintained and selectable
	StateSupported
	// StateUnsupported marks an end-of-life release
	StateUnsupported
)

// String returns the string representation of the lifecycle state
func (s LifecycleState) String() string {
	switch s {
	case StateSupported:
		return "supported"
	case StateUnsupported:
		return "unsupported"
	default:
		return "other"
	}
}

// Status is the release status object as sent by the catalog
type Status struct {
	State string `json:"state" yaml:"state"`
}

// Build is one platform-specific downloadable artifact of a release
type Build struct {
	OS   string `json:"os" yaml:"os"`
	Arch string `json:"arch" yaml:"arch"`
	URL  string `json:"url" yaml:"url"`
}

// Platform returns the build's "os/arch" pair
func (b Build) Platform() string {
	return b.OS + "/" + b.Arch
}

// Release is a single version of a product
type Release struct {
	Version      string  `json:"version" yaml:"version"`
	Status       Status  `json:"status" yaml:"status"`
	Builds       []Build `json:"builds" yaml:"builds"`
	IsPrerelease bool    `json:"is_prerelease" yaml:"is_prerelease"`
}

// State maps the raw status string to a LifecycleState
func (r Release) State() LifecycleState {
	switch r.Status.State {
	case "supported":
		return StateSupported
	case "unsupported":
		return StateUnsupported
	default:
		return StateOther
	}
}
