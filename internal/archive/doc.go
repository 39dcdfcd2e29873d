// Package archive unpacks the executable payload of a release archive.
//
// Extraction runs an ordered chain of backends. Each attempt expands the
// whole archive into a private scratch directory under the destination,
// then hands the scratch tree to the placement package, which moves only
// qualifying files to the destination root. A backend that is missing or
// fails is logged and skipped; the built-in Go parser always ends the chain,
// so extraction only fails when every backend, including it, has failed.
//
// # Backend chains
//
//   - windows: powershell Expand-Archive, 7z, tar (bsdtar), built-in
//   - darwin:  ditto, unzip, 7z, tar (bsdtar), built-in
//   - others:  unzip, 7z, bsdtar, tar, built-in
//
// Chains are plain slices, so callers and tests can substitute their own.
//
// # Scratch directories
//
// Scratch directories are named from the current time plus a random UUID
// fragment and are removed before Extract returns on every path. They are
// also tracked in a process-wide registry so a signal handler can remove
// them through CleanupScratch if the process is interrupted mid-extraction.
package archive
