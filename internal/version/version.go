package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is set via ldflags at release time.
	Version = "0.1.0-dev"
	// Commit is the short git SHA of the build.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Short returns the launcher version.
func Short() string {
	return Version
}

// Full renders the launcher version with build metadata and the Go platform.
func Full() string {
	return fmt.Sprintf("selenium-launcher %s (commit %s, built %s, %s %s/%s)",
		Version, Commit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
