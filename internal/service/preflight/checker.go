package preflight

import (
	"github.com/mitchellh/go-ps"
)

// Checker runs the preflight checks.
type Checker struct {
	// java is the Java executable name or path.
	java string
	// minJavaVersion is the recommended minimum Java version; empty disables the warning.
	minJavaVersion string

	run         Runner
	connections ConnectionLister
	findProcess ProcessFinder
	probe       PortProbe
}

// Option configures a Checker.
type Option func(*Checker)

// WithRunner replaces the command runner used for the runtime probe.
func WithRunner(run Runner) Option {
	return func(c *Checker) {
		if run != nil {
			c.run = run
		}
	}
}

// WithConnectionLister replaces the connection table source.
func WithConnectionLister(list ConnectionLister) Option {
	return func(c *Checker) {
		if list != nil {
			c.connections = list
		}
	}
}

// WithProcessFinder replaces the PID lookup used in port conflict messages.
func WithProcessFinder(find ProcessFinder) Option {
	return func(c *Checker) {
		if find != nil {
			c.findProcess = find
		}
	}
}

// WithPortProbe replaces the bind probe used when the connection table is unavailable.
func WithPortProbe(probe PortProbe) Option {
	return func(c *Checker) {
		if probe != nil {
			c.probe = probe
		}
	}
}

// New creates a Checker for the given Java executable.
func New(java, minJavaVersion string, opts ...Option) *Checker {
	c := &Checker{
		java:           java,
		minJavaVersion: minJavaVersion,
		run:            execRunner,
		connections:    inetConnections,
		findProcess:    ps.FindProcess,
		probe:          listenProbe,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}
