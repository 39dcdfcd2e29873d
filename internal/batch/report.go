package batch

import (
	"time"
)

// Status is the outcome of one product
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Result records what happened to one product
type Result struct {
	Product   string
	Version   string // selected release version, empty if selection failed
	Platform  string // "os/arch" of the selected build
	URL       string
	Archive   string // local path of the downloaded archive
	Cached    bool   // archive was already present and not re-downloaded
	Extracted int    // executables placed
	Backend   string // extraction backend that succeeded
	Placed    []string
	Duration  time.Duration
	Status    Status
	Err       error
}

// Report collects the results of a batch, in request order
type Report struct {
	Results []Result
}

func (r *Report) count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Succeeded returns the number of products that completed
func (r *Report) Succeeded() int { return r.count(StatusSucceeded) }

// Failed returns the number of products that failed
func (r *Report) Failed() int { return r.count(StatusFailed) }

// Skipped returns the number of products the user declined
func (r *Report) Skipped() int { return r.count(StatusSkipped) }

// ExitCode is 1 when any product failed, whatever else succeeded
func (r *Report) ExitCode() int {
	if r.Failed() > 0 {
		return 1
	}
	return 0
}
