// Package artifact provides the Selenium server archive to launch.
//
// Resolve is used on every launch: it prefers an archive already on disk and
// only warns when a newer release exists. Download is the explicit refresh: it
// skips the fetch when the newest release is already on disk and downloads it
// otherwise.
package artifact
