// Package catalog is a read-only client for a HashiCorp-style release catalog.
//
// The catalog exposes two endpoints:
//
//	GET {base}/products[?license_class=X]          -> ["consul", "nomad", ...]
//	GET {base}/releases/{product}[?license_class=X] -> [{version, status, builds, is_prerelease}, ...]
//
// Releases are returned in the order the catalog sends them. The catalog is
// expected to list releases newest first; this package does not re-sort.
package catalog
