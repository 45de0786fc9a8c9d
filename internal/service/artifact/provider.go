package artifact

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	domain "github.com/oshokin/selenium-launcher/internal/domain/artifact"
	"github.com/oshokin/selenium-launcher/internal/logger"
	repository "github.com/oshokin/selenium-launcher/internal/repository/artifact"
)

// Provider decides whether to reuse a local archive or fetch a new one.
type Provider struct {
	// store holds archives on disk.
	store repository.Repository
	// releases looks up and fetches remote releases.
	releases Releases
	// prefix is the archive name prefix.
	prefix string
	// ext is the archive extension without the dot.
	ext string
}

// NewProvider creates a Provider.
func NewProvider(store repository.Repository, releases Releases, prefix, ext string) *Provider {
	return &Provider{
		store:    store,
		releases: releases,
		prefix:   prefix,
		ext:      ext,
	}
}

// Resolve returns the path of an archive to launch.
//
// The newest local archive is always preferred: when a newer release exists a
// warning is logged and the local archive is still used, and when the latest
// lookup fails the local archive is used as well. Without a local archive the
// latest release is downloaded; any failure then is fatal.
func (p *Provider) Resolve(ctx context.Context) (string, error) {
	ctx = logger.WithName(ctx, "artifact")

	release, lookupErr := p.releases.Latest(ctx)

	local, hasLocal, err := p.newestLocal(ctx)
	if err != nil {
		return "", err
	}

	if !hasLocal {
		if lookupErr != nil {
			return "", lookupErr
		}

		logger.InfoKV(ctx, "No local server archive found, downloading the latest release",
			"version", release.Version.String())

		return p.fetch(ctx, release)
	}

	localPath := p.store.Path(local.Name)

	switch {
	case lookupErr != nil:
		logger.WarnKV(ctx, "Could not check for a newer server version, using the local archive",
			"artifact", localPath, "error", lookupErr)
	case domain.IsSmaller(local.Version, release.Version):
		logger.WarnKV(ctx, "A newer server version is available, run the download command to update",
			"local", local.Version.String(), "latest", release.Version.String(), "artifact", localPath)
	case local.Version.Equal(release.Version):
		logger.InfoKV(ctx, "Server archive is up to date",
			"version", local.Version.String(), "artifact", localPath)
	default:
		logger.InfoKV(ctx, "Local server archive is newer than the latest release",
			"local", local.Version.String(), "latest", release.Version.String(), "artifact", localPath)
	}

	return localPath, nil
}

// Download makes sure the latest release is on disk and returns its path.
// An archive with exactly the latest name is reused; otherwise it is fetched.
func (p *Provider) Download(ctx context.Context) (string, error) {
	ctx = logger.WithName(ctx, "artifact")

	release, err := p.releases.Latest(ctx)
	if err != nil {
		return "", err
	}

	name := domain.FileName(p.prefix, release.Version, p.ext)

	exists, err := p.store.Exists(ctx, name)
	if err != nil {
		return "", err
	}

	if exists {
		logger.InfoKV(ctx, "Latest server archive already present, skipping download",
			"artifact", p.store.Path(name))

		return p.store.Path(name), nil
	}

	return p.fetch(ctx, release)
}

// newestLocal returns the highest-versioned archive on disk.
func (p *Provider) newestLocal(ctx context.Context) (domain.Candidate, bool, error) {
	candidates, err := p.store.List(ctx)
	if err != nil {
		return domain.Candidate{}, false, err
	}

	best, ok := domain.SelectMax(candidates)
	if ok {
		logger.DebugKV(ctx, "Selected local server archive", "artifact", best.Name, "candidates", len(candidates))
	}

	return best, ok, nil
}

// fetch downloads a release and persists it under the conventional name.
func (p *Provider) fetch(ctx context.Context, release Release) (string, error) {
	name := domain.FileName(p.prefix, release.Version, p.ext)

	logger.InfoKV(ctx, "Downloading server archive", "artifact", name, "release", release.Tag)

	body, err := p.releases.Fetch(ctx, release, name)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = body.Close()
	}()

	path, written, err := p.store.Save(ctx, name, body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}

	logger.InfoKV(ctx, "Downloaded server archive", "path", path, "size", humanize.Bytes(uint64(written)))

	return path, nil
}
