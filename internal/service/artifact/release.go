package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	domain "github.com/oshokin/selenium-launcher/internal/domain/artifact"
)

const (
	// maxErrorBody limits how much of an error response is kept for messages.
	maxErrorBody = 4096

	userAgent = "selenium-launcher"
)

var (
	// ErrDownload is returned when the latest release cannot be looked up or fetched.
	ErrDownload = errors.New("download failed")
	// errBadHTTPStatus is returned for any non-200 response.
	errBadHTTPStatus = errors.New("unexpected http status")
	// errNoVersionInURL is returned when the resolved release URL carries no version.
	errNoVersionInURL = errors.New("no version in release URL")
)

// Release identifies a published server release.
type Release struct {
	// Tag is the final path segment of the release URL, e.g. "selenium-4.21.0".
	Tag string
	// Version is the N.N.N version parsed from Tag.
	Version domain.VersionTag
}

// Releases looks up and fetches published releases.
type Releases interface {
	Latest(ctx context.Context) (Release, error)
	Fetch(ctx context.Context, release Release, name string) (io.ReadCloser, error)
}

// ReleaseClient talks to a GitHub-style release site over HTTP.
type ReleaseClient struct {
	// httpClient follows the "latest" redirect and downloads assets.
	httpClient *http.Client
	// latestURL redirects to the newest release page.
	latestURL string
	// downloadBaseURL is the root of "<tag>/<asset>" download URLs.
	downloadBaseURL string
	// timeout bounds the latest lookup and the wait for download headers.
	timeout time.Duration
}

// NewReleaseClient creates a client. The timeout bounds the whole latest lookup
// and the time until download response headers arrive; the archive body itself
// may take longer.
func NewReleaseClient(latestURL, downloadBaseURL string, timeout time.Duration) *ReleaseClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
	}

	return &ReleaseClient{
		httpClient:      &http.Client{Transport: transport},
		latestURL:       latestURL,
		downloadBaseURL: downloadBaseURL,
		timeout:         timeout,
	}
}

// Latest follows the "latest release" redirect and parses the version from
// the final path segment of the resolved URL.
func (c *ReleaseClient) Latest(ctx context.Context) (Release, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	response, err := c.get(ctx, c.latestURL)
	if err != nil {
		return Release{}, fmt.Errorf("look up latest release: %w: %w", ErrDownload, err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxErrorBody))
		_ = response.Body.Close()
	}()

	release, err := releaseFromURL(response.Request.URL)
	if err != nil {
		return Release{}, fmt.Errorf("look up latest release: %w: %w", ErrDownload, err)
	}

	return release, nil
}

// Fetch starts downloading the named asset of a release. The caller closes the body.
func (c *ReleaseClient) Fetch(ctx context.Context, release Release, name string) (io.ReadCloser, error) {
	assetURL, err := url.Parse(c.downloadBaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse download URL: %w", ErrDownload, err)
	}

	// Use path.Join to normalize duplicate slashes when composing the URL path.
	assetURL.Path = path.Join(assetURL.Path, release.Tag, name)

	response, err := c.get(ctx, assetURL.String())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w: %w", name, ErrDownload, err)
	}

	return response.Body, nil
}

// get performs a GET and fails on any status other than 200, closing the body in that case.
func (c *ReleaseClient) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)

	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
		_ = response.Body.Close()

		return nil, fmt.Errorf("%s, %s: %s: %w",
			rawURL, response.Status, strings.TrimSpace(string(body)), errBadHTTPStatus)
	}

	return response, nil
}

// releaseFromURL takes the version from the last path segment, e.g. ".../tag/selenium-4.21.0".
func releaseFromURL(u *url.URL) (Release, error) {
	tag := path.Base(strings.TrimSuffix(u.Path, "/"))

	version, ok := domain.ExtractVersion(tag)
	if !ok {
		return Release{}, fmt.Errorf("%s: %w", u.String(), errNoVersionInURL)
	}

	return Release{
		Tag:     tag,
		Version: version,
	}, nil
}
