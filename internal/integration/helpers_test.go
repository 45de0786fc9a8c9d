package integration

import (
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/selenium-launcher/internal/config"
)

// fakeJava answers -version like OpenJDK 17 and otherwise records its arguments and exits with 7.
const fakeJava = `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo 'openjdk version "17.0.2" 2022-01-18' >&2
  exit 0
fi
echo "$@" > "$(dirname "$0")/java-args.txt"
echo "Selenium Server is up and running"
exit 7
`

// releaseSite serves a "latest" redirect to the given version and its server archive.
type releaseSite struct {
	*httptest.Server

	downloads atomic.Int32
}

func newReleaseSite(t *testing.T, version string) *releaseSite {
	t.Helper()

	site := new(releaseSite)
	tag := "selenium-" + version

	mux := http.NewServeMux()
	mux.HandleFunc("/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/releases/tag/"+tag, http.StatusFound)
	})
	mux.HandleFunc("/releases/tag/"+tag, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/releases/download/"+tag+"/selenium-server-"+version+".jar",
		func(w http.ResponseWriter, _ *http.Request) {
			site.downloads.Add(1)
			_, _ = w.Write([]byte("PK-fake-selenium-server"))
		})

	site.Server = httptest.NewServer(mux)
	t.Cleanup(site.Close)

	return site
}

// workspace is a temporary working directory with settings pointing at a release site.
type workspace struct {
	dir          string
	settingsPath string
	paramsPath   string
	artifactDir  string
	javaPath     string
}

func newWorkspace(t *testing.T, site *releaseSite) *workspace {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake java runtime is a POSIX shell script")
	}

	dir := t.TempDir()
	t.Chdir(dir)

	ws := &workspace{
		dir:          dir,
		settingsPath: filepath.Join(dir, config.DefaultConfigFilename),
		paramsPath:   filepath.Join(dir, config.DefaultParamsFilename),
		artifactDir:  filepath.Join(dir, "artifacts"),
		javaPath:     filepath.Join(dir, "java"),
	}

	require.NoError(t, os.WriteFile(ws.javaPath, []byte(fakeJava), 0o700)) //nolint:gosec // Test executable.

	settings := config.Default()
	settings.ArtifactDir = ws.artifactDir
	settings.Java = ws.javaPath
	settings.LatestReleaseURL = site.URL + "/releases/latest"
	settings.DownloadBaseURL = site.URL + "/releases/download"
	settings.Timeout = 5 * time.Second

	require.NoError(t, config.Save(ws.settingsPath, settings, false))

	return ws
}

func (ws *workspace) writeParams(t *testing.T, contents string) {
	t.Helper()

	require.NoError(t, os.WriteFile(ws.paramsPath, []byte(contents), 0o600))
}

func (ws *workspace) javaArgs(t *testing.T) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(ws.dir, "java-args.txt"))
	require.NoError(t, err)

	return string(data)
}

// reservePort returns a port that was free a moment ago.
func reservePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	_, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)

	_ = l.Close()

	n, err := strconv.Atoi(port)
	require.NoError(t, err)

	return n
}
