// Package preflight holds the checks that must pass before the server is launched:
// the Java runtime is callable and the server port is not already taken.
package preflight
