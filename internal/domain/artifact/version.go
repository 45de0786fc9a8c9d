package artifact

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// errEmptyVersion is returned when parsing an empty version string.
	errEmptyVersion = errors.New("version is empty")
	// errInvalidSegment is returned when a version segment is not a non-negative integer.
	errInvalidSegment = errors.New("invalid version segment")
)

// VersionTag is a parsed dotted version such as "4.10.0" -> [4 10 0].
// A VersionTag is never mutated after creation.
type VersionTag struct {
	// segments holds the numeric components in order.
	segments []int
}

// NewVersionTag creates a tag from already validated segments.
// The input slice is copied.
func NewVersionTag(segments ...int) VersionTag {
	return VersionTag{
		segments: append([]int(nil), segments...),
	}
}

// ParseVersionTag parses a dotted string of non-negative integers.
func ParseVersionTag(s string) (VersionTag, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return VersionTag{}, errEmptyVersion
	}

	parts := strings.Split(s, ".")
	segments := make([]int, 0, len(parts))

	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || strings.HasPrefix(part, "+") {
			return VersionTag{}, fmt.Errorf("%q in %q: %w", part, s, errInvalidSegment)
		}

		segments = append(segments, n)
	}

	return VersionTag{segments: segments}, nil
}

// MustParseVersionTag is like ParseVersionTag but panics on error.
// Intended for constants and tests.
func MustParseVersionTag(s string) VersionTag {
	v, err := ParseVersionTag(s)
	if err != nil {
		panic(err)
	}

	return v
}

// Segments returns a copy of the numeric components.
func (v VersionTag) Segments() []int {
	return append([]int(nil), v.segments...)
}

// IsZero reports whether the tag has no segments.
func (v VersionTag) IsZero() bool {
	return len(v.segments) == 0
}

// String renders the tag in dotted form.
func (v VersionTag) String() string {
	parts := make([]string, len(v.segments))
	for i, n := range v.segments {
		parts[i] = strconv.Itoa(n)
	}

	return strings.Join(parts, ".")
}

// Equal reports whether neither tag is smaller than the other,
// so "1.2" equals "1.2.0".
func (v VersionTag) Equal(other VersionTag) bool {
	return !IsSmaller(v, other) && !IsSmaller(other, v)
}

// IsSmaller reports whether a is strictly smaller than b.
// Missing trailing segments count as zero.
func IsSmaller(a, b VersionTag) bool {
	size := max(len(a.segments), len(b.segments))

	for i := range size {
		left, right := segmentAt(a, i), segmentAt(b, i)

		if left < right {
			return true
		}

		if left > right {
			return false
		}
	}

	return false
}

func segmentAt(v VersionTag, i int) int {
	if i < len(v.segments) {
		return v.segments[i]
	}

	return 0
}
