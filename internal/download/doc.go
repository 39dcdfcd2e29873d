// Package download retrieves a build artifact to a deterministic local path.
//
// The file name is the final path segment of the artifact URL. An existing
// file is reused unless overwriting is forced. Bodies are streamed into a
// temporary file next to the destination and renamed into place only after
// the whole response has been received, so an interrupted or failed
// transfer never leaves something that looks like a finished download.
package download
