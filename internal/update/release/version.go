package release

import "strings"

// NormalizeVersion strips a leading "v" from a release tag.
func NormalizeVersion(tag string) string {
	trimmed := strings.TrimSpace(tag)
	if len(trimmed) > 1 && (trimmed[0] == 'v' || trimmed[0] == 'V') {
		return trimmed[1:]
	}
	return trimmed
}

// parseVersionParts splits a version string on every non-digit run
// and keeps the numeric components. "1.2.0-beta.3" yields [1 2 0 3].
func parseVersionParts(version string) []int {
	var parts []int
	current := -1
	for _, r := range version {
		if r >= '0' && r <= '9' {
			if current < 0 {
				current = 0
			}
			current = current*10 + int(r-'0')
			continue
		}
		if current >= 0 {
			parts = append(parts, current)
			current = -1
		}
	}
	if current >= 0 {
		parts = append(parts, current)
	}
	return parts
}

// CompareVersions compares two version strings component-wise,
// padding missing trailing components with zero. It returns -1, 0, or
// 1. When either side yields no numeric components the answer is 0:
// an unparseable version is treated as equal rather than as an error,
// so a garbage tag can never trigger a download loop.
func CompareVersions(a, b string) int {
	pa := parseVersionParts(NormalizeVersion(a))
	pb := parseVersionParts(NormalizeVersion(b))
	if len(pa) == 0 || len(pb) == 0 {
		return 0
	}

	n := len(pa)
	if len(pb) > n {
		n = len(pb)
	}
	for i := 0; i < n; i++ {
		va, vb := 0, 0
		if i < len(pa) {
			va = pa[i]
		}
		if i < len(pb) {
			vb = pb[i]
		}
		if va < vb {
			return -1
		}
		if va > vb {
			return 1
		}
	}
	return 0
}
