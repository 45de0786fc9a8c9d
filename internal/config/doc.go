// Package config defines the launcher's own settings: where artifacts live,
// where releases are fetched from, which Java executable to run and how long
// network calls may take.
//
// Settings are read from an optional YAML file, overlaid with SELENIUM_LAUNCHER_*
// environment variables (a .env file in the working directory is honored) and
// validated with defaults filled in. Selenium server parameters are not part of
// these settings; see package params.
package config
