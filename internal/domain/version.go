package domain

import "strings"

// VersionRelation classifies version a relative to version b.
type VersionRelation int

const (
	VersionEqual VersionRelation = iota
	VersionNewer
	VersionOlder
	VersionIncomparable
)

func (r VersionRelation) String() string {
	switch r {
	case VersionNewer:
		return "newer"
	case VersionOlder:
		return "older"
	case VersionIncomparable:
		return "incomparable"
	default:
		return "equal"
	}
}

// Invert returns the relation as seen from the other operand.
func (r VersionRelation) Invert() VersionRelation {
	switch r {
	case VersionNewer:
		return VersionOlder
	case VersionOlder:
		return VersionNewer
	default:
		return r
	}
}

// versionRun is a maximal all-digit or all-non-digit substring.
type versionRun struct {
	text    string
	numeric bool
}

// CompareVersions orders two free-form version strings and reports how a
// stands relative to b. Versions are split into maximal digit and non-digit
// runs; digit runs compare by numeric value, non-digit runs lexicographically,
// and the first unequal run pair decides. A digit run aligned against a
// non-digit run means the two schemes cannot be ordered: VersionIncomparable.
// When one run sequence is a strict prefix of the other, the longer version
// is newer. An empty version is older than any non-empty one.
func CompareVersions(a, b string) VersionRelation {
	av := normalizeVersion(a)
	bv := normalizeVersion(b)
	switch {
	case av == "" && bv == "":
		return VersionEqual
	case av == "":
		return VersionOlder
	case bv == "":
		return VersionNewer
	}

	ar := splitVersionRuns(av)
	br := splitVersionRuns(bv)
	for i := 0; i < len(ar) && i < len(br); i++ {
		if ar[i].numeric != br[i].numeric {
			return VersionIncomparable
		}
		var c int
		if ar[i].numeric {
			c = compareNumericRuns(ar[i].text, br[i].text)
		} else {
			c = strings.Compare(ar[i].text, br[i].text)
		}
		switch {
		case c > 0:
			return VersionNewer
		case c < 0:
			return VersionOlder
		}
	}

	switch {
	case len(ar) > len(br):
		return VersionNewer
	case len(ar) < len(br):
		return VersionOlder
	}
	return VersionEqual
}

// normalizeVersion trims space, folds case, and strips a single leading "v"
// when it prefixes a digit ("v1.2" and "1.2" name the same version).
func normalizeVersion(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if len(v) >= 2 && v[0] == 'v' && v[1] >= '0' && v[1] <= '9' {
		v = v[1:]
	}
	return v
}

func splitVersionRuns(v string) []versionRun {
	var runs []versionRun
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || isDigit(v[i]) != isDigit(v[start]) {
			runs = append(runs, versionRun{text: v[start:i], numeric: isDigit(v[start])})
			start = i
		}
	}
	return runs
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// compareNumericRuns compares two all-digit strings by numeric value without
// integer conversion, so arbitrarily long runs cannot overflow.
func compareNumericRuns(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) > len(b) {
			return 1
		}
		return -1
	}
	return strings.Compare(a, b)
}
