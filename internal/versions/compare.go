package versions

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Compare orders two version strings, returning -1, 0 or 1. Semantic versions
// (with or without a leading "v") compare by precedence. A semantic version
// sorts after anything that is not one, and two non-semantic strings compare
// lexically after trimming.
func Compare(a, b string) int {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)

	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

// IsNewerVersion reports whether newVersion is strictly greater than oldVersion
func IsNewerVersion(newVersion, oldVersion string) bool {
	return Compare(newVersion, oldVersion) > 0
}
