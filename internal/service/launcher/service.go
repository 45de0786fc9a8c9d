package launcher

import (
	"context"
	"fmt"

	"github.com/oshokin/selenium-launcher/internal/config"
	"github.com/oshokin/selenium-launcher/internal/logger"
	"github.com/oshokin/selenium-launcher/internal/params"
	"github.com/oshokin/selenium-launcher/internal/service/artifact"
	"github.com/oshokin/selenium-launcher/internal/service/preflight"
)

// Options are inputs accepted by the launcher entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// ParamsPath overrides the parameters file from settings.
	ParamsPath string
	// LogLevel overrides the log level from settings.
	LogLevel string
	// Streams are handed to the server process; zero value means the launcher's own.
	Streams *Streams
	// Preflight customizes the preflight checker.
	Preflight []preflight.Option
}

// Run checks preconditions, resolves the server archive and launches it.
// It returns the server's exit code. Any failure before the launch is returned
// as an error with exit code 1.
func Run(ctx context.Context, opts *Options) (int, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "selenium-launcher")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return 1, fmt.Errorf("load settings: %w", err)
	}

	if err = logger.ApplyLevel(opts.LogLevel, cfg.LogLevel); err != nil {
		return 1, fmt.Errorf("log level: %w", err)
	}

	checker := preflight.New(cfg.Java, cfg.MinJavaVersion, opts.Preflight...)

	logger.Info(ctx, "Checking Java runtime")

	if _, err = checker.CheckRuntime(ctx); err != nil {
		return 1, err
	}

	paramsPath := cfg.ParamsFile
	if opts.ParamsPath != "" {
		paramsPath = opts.ParamsPath
	}

	logger.InfoKV(ctx, "Loading server parameters", "path", paramsPath)

	serverParams, err := params.Load(paramsPath)
	if err != nil {
		return 1, err
	}

	port := serverParams.Port()
	ctx = logger.WithKV(ctx, "port", port)

	logger.Info(ctx, "Checking server port")

	if err = checker.CheckPort(ctx, port); err != nil {
		return 1, err
	}

	archivePath, err := artifact.NewFromConfig(cfg).Resolve(ctx)
	if err != nil {
		return 1, err
	}

	command := BuildCommand(cfg.Java, archivePath, cfg.Mode, serverParams)

	streams := StdStreams()
	if opts.Streams != nil {
		streams = *opts.Streams
	}

	logger.InfoKV(ctx, "Starting Selenium server", "command", command.String())

	code, err := Execute(ctx, command, streams)
	if err != nil {
		return code, err
	}

	logger.InfoKV(ctx, "Selenium server exited", "exit_code", code)

	return code, nil
}
