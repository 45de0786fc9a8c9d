package artifact

import (
	"regexp"
)

// versionPattern matches the first N.N.N token embedded in a file name.
var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+`)

// Candidate is a file found in the artifact directory.
type Candidate struct {
	// Name is the base file name.
	Name string
	// Version is the embedded version; valid only when HasVersion is true.
	Version VersionTag
	// HasVersion is false when the name carries no N.N.N token.
	HasVersion bool
}

// ExtractVersion returns the first N.N.N token found anywhere in name.
func ExtractVersion(name string) (VersionTag, bool) {
	token := versionPattern.FindString(name)
	if token == "" {
		return VersionTag{}, false
	}

	v, err := ParseVersionTag(token)
	if err != nil {
		// Digits overflowing int are the only way to get here.
		return VersionTag{}, false
	}

	return v, true
}

// NewCandidate builds a Candidate from a file name.
func NewCandidate(name string) Candidate {
	v, ok := ExtractVersion(name)

	return Candidate{
		Name:       name,
		Version:    v,
		HasVersion: ok,
	}
}

// SelectMax returns the candidate with the greatest version.
// Unversioned candidates are skipped. On equal versions the first one seen
// wins, so the result depends on iteration order.
func SelectMax(candidates []Candidate) (Candidate, bool) {
	var (
		best  Candidate
		found bool
	)

	for _, c := range candidates {
		if !c.HasVersion {
			continue
		}

		if !found || IsSmaller(best.Version, c.Version) {
			best, found = c, true
		}
	}

	return best, found
}

// FileName renders the conventional "<prefix>-<version>.<ext>" name.
func FileName(prefix string, version VersionTag, ext string) string {
	return prefix + "-" + version.String() + "." + ext
}
