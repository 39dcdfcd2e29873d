package release

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/ZebulonRouseFrantzich/relget/internal/catalog"
)

// SortByVersion returns a copy of releases ordered newest first by semantic version.
// Versions that are not valid semver keep their feed order and sort after the valid ones.
func SortByVersion(releases []catalog.Release) []catalog.Release {
	sorted := append([]catalog.Release(nil), releases...)
	sort.SliceStable(sorted, func(i, j int) bool {
		vi, vj := canonical(sorted[i].Version), canonical(sorted[j].Version)
		switch {
		case vi == "" && vj == "":
			return false
		case vi == "":
			return false
		case vj == "":
			return true
		}
		return semver.Compare(vi, vj) > 0
	})
	return sorted
}

// canonical converts a catalog version ("1.9.3", "v1.9.3+ent") to semver form, or "" if invalid
func canonical(version string) string {
	v := strings.TrimSpace(version)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}
