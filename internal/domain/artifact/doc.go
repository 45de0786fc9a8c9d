// Package artifact contains core domain types for versioned server artifacts.
//
// It defines VersionTag (a parsed dotted version with zero-padded comparison)
// and Candidate (a file name with an optional embedded version), plus the
// selector that picks the newest candidate from a directory listing.
package artifact
