// Package launcher builds the Selenium server command line and runs it as a
// child process, forwarding the standard streams and the exit status.
//
// Run is the entry point used by the CLI: it chains settings, preflight
// checks, the parameters document and the archive provider before launching.
package launcher
