package artifact

import (
	"context"
	"fmt"

	"github.com/oshokin/selenium-launcher/internal/config"
	"github.com/oshokin/selenium-launcher/internal/logger"
	repository "github.com/oshokin/selenium-launcher/internal/repository/artifact"
)

// Options are inputs accepted by the download entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// LogLevel overrides the log level from settings.
	LogLevel string
}

// NewFromConfig wires a Provider with the file store and release client described by cfg.
func NewFromConfig(cfg *config.Config) *Provider {
	store := repository.NewFileStore(cfg.ArtifactDir, cfg.ArtifactPrefix, cfg.ArtifactExt)
	releases := NewReleaseClient(cfg.LatestReleaseURL, cfg.DownloadBaseURL, cfg.Timeout)

	return NewProvider(store, releases, cfg.ArtifactPrefix, cfg.ArtifactExt)
}

// Run downloads the latest server archive unless it is already present.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "selenium-download")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.ApplyLevel(opts.LogLevel, cfg.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	path, err := NewFromConfig(cfg).Download(ctx)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Server archive ready", "path", path)

	return nil
}
