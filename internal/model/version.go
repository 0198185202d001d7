package model

import "strings"

// ParseVersion extracts leading numeric dotted components, tolerating a
// "v" prefix and trailing metadata like "-rc1" or "+k3s".
func ParseVersion(raw string) ([]int, bool) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "v")
	if raw == "" {
		return nil, false
	}

	var parts []int
	for _, field := range strings.Split(raw, ".") {
		digits := field
		for i, r := range field {
			if r < '0' || r > '9' {
				digits = field[:i]
				break
			}
		}
		if digits == "" {
			break
		}
		n := 0
		for _, r := range digits {
			n = n*10 + int(r-'0')
		}
		parts = append(parts, n)
		if digits != field {
			break
		}
	}

	if len(parts) == 0 {
		return nil, false
	}
	return parts, true
}

// VersionSatisfies reports compatibility: the observed version matches the
// desired one on every component the desired version specifies. A desired
// "1.7" accepts any observed "1.7.x".
func VersionSatisfies(observed, desired []int) bool {
	if len(observed) < len(desired) {
		return false
	}
	for i := range desired {
		if observed[i] != desired[i] {
			return false
		}
	}
	return true
}

// VersionCompatible is the string-level convenience used by install-step
// postconditions. An empty desired version accepts anything; an
// unparsable version on either side is incompatible, so the step runs.
func VersionCompatible(observed, desired string) bool {
	if desired == "" {
		return true
	}
	obs, ok := ParseVersion(observed)
	if !ok {
		return false
	}
	want, ok := ParseVersion(desired)
	if !ok {
		return false
	}
	return VersionSatisfies(obs, want)
}
