// Package artifact implements the on-disk store of downloaded server archives.
//
// The FileStore lists versioned archives in a directory and persists new ones
// atomically with go-update, so a half-written download never shows up as a
// candidate.
package artifact
