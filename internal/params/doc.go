// Package params loads the Selenium server parameters document (params.toml).
//
// Every top-level key becomes a command-line flag of the launched server, in
// document order, with key and value lower-cased. The reserved key "port"
// defaults to 4444 and is also used by the port preflight check.
package params
