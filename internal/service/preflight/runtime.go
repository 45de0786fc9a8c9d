package preflight

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/oshokin/selenium-launcher/internal/logger"
)

// versionCommandTimeout bounds the runtime version probe.
const versionCommandTimeout = 10 * time.Second

var (
	// ErrRuntimeMissing is returned when the Java executable cannot be started.
	ErrRuntimeMissing = errors.New("java runtime is not installed or not in PATH")

	// javaVersionPattern captures the quoted version of `java -version` output,
	// e.g. `openjdk version "17.0.2" 2022-01-18`.
	javaVersionPattern = regexp.MustCompile(`version "([^"]+)"`)
	// numericPrefixPattern keeps the leading dotted digits of a version.
	numericPrefixPattern = regexp.MustCompile(`^\d+(\.\d+)*`)
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// execRunner is the default Runner backed by os/exec.
func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CheckRuntime invokes `<java> -version`. Any process that starts counts as an
// available runtime, whatever its exit status. The detected version is returned
// when it can be parsed, and a warning is logged when it is below the minimum.
func (c *Checker) CheckRuntime(ctx context.Context) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, versionCommandTimeout)
	defer cancel()

	output, err := c.run(cmdCtx, c.java, "-version")
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("%s: %w: %w", c.java, ErrRuntimeMissing, err)
		}

		logger.WarnKV(ctx, "Java version probe exited with an error", "java", c.java, "error", err)
	}

	version := ParseJavaVersion(string(output))
	if version == "" {
		logger.DebugKV(ctx, "Could not detect Java version", "output", strings.TrimSpace(string(output)))
		return "", nil
	}

	logger.InfoKV(ctx, "Java runtime detected", "java", c.java, "version", version)

	supported, err := meetsMinimum(version, c.minJavaVersion)
	if err != nil {
		logger.DebugKV(ctx, "Skipping Java version check", "error", err)
		return version, nil
	}

	if !supported {
		logger.WarnKV(ctx, "Java runtime is older than recommended",
			"version", version, "minimum", c.minJavaVersion)
	}

	return version, nil
}

// ParseJavaVersion extracts the feature version from `java -version` output.
// Legacy "1.x" versions are mapped to "x", so "1.8.0_301" becomes "8.0".
func ParseJavaVersion(output string) string {
	match := javaVersionPattern.FindStringSubmatch(output)
	if match == nil {
		return ""
	}

	numeric := numericPrefixPattern.FindString(match[1])
	if numeric == "" {
		return ""
	}

	segments := strings.Split(numeric, ".")
	if segments[0] == "1" && len(segments) > 1 {
		segments = segments[1:]
	}

	return strings.Join(segments, ".")
}

// meetsMinimum reports whether version satisfies ">= minimum".
func meetsMinimum(version, minimum string) (bool, error) {
	if strings.TrimSpace(minimum) == "" {
		return true, nil
	}

	constraint, err := semver.NewConstraint(">= " + minimum)
	if err != nil {
		return false, fmt.Errorf("parse minimum java version: %w", err)
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("parse java version: %w", err)
	}

	return constraint.Check(v), nil
}
