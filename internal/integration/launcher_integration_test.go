package integration

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/selenium-launcher/internal/params"
	"github.com/oshokin/selenium-launcher/internal/service/artifact"
	"github.com/oshokin/selenium-launcher/internal/service/launcher"
	"github.com/oshokin/selenium-launcher/internal/service/preflight"
)

func runLauncher(t *testing.T, ws *workspace, stdout *bytes.Buffer) (int, error) {
	t.Helper()

	return launcher.Run(context.Background(), &launcher.Options{
		ConfigPath: ws.settingsPath,
		Streams:    &launcher.Streams{Stdout: stdout, Stderr: stdout},
	})
}

// TestLauncher_Run_DownloadsAndLaunches fetches the archive into an empty directory,
// launches it with the expanded parameters and returns the child's exit code.
func TestLauncher_Run_DownloadsAndLaunches(t *testing.T) {
	site := newReleaseSite(t, "4.21.0")
	ws := newWorkspace(t, site)
	port := reservePort(t)

	ws.writeParams(t, fmt.Sprintf("Port = %d\nlog-level = \"FINE\"\nmax-sessions = 2\n", port))

	var out bytes.Buffer

	code, err := runLauncher(t, ws, &out)
	require.NoError(t, err)
	require.Equal(t, 7, code)
	require.Contains(t, out.String(), "Selenium Server is up and running")
	require.EqualValues(t, 1, site.downloads.Load())

	archive := filepath.Join(ws.artifactDir, "selenium-server-4.21.0.jar")
	_, err = os.Stat(archive)
	require.NoError(t, err)

	want := fmt.Sprintf("-jar %s standalone --port %d --log-level fine --max-sessions 2\n", archive, port)
	require.Equal(t, want, ws.javaArgs(t))

	// A second run reuses the archive.
	code, err = runLauncher(t, ws, &out)
	require.NoError(t, err)
	require.Equal(t, 7, code)
	require.EqualValues(t, 1, site.downloads.Load())
}

// TestLauncher_Run_DefaultPortAndStaleArchive launches an older local archive without downloading.
func TestLauncher_Run_DefaultPortAndStaleArchive(t *testing.T) {
	site := newReleaseSite(t, "4.21.0")
	ws := newWorkspace(t, site)

	require.NoError(t, os.MkdirAll(ws.artifactDir, 0o755))

	archive := filepath.Join(ws.artifactDir, "selenium-server-4.20.0.jar")
	require.NoError(t, os.WriteFile(archive, []byte("old"), 0o600))

	ws.writeParams(t, "# defaults only\n")

	var out bytes.Buffer

	code, err := launcher.Run(context.Background(), &launcher.Options{
		ConfigPath: ws.settingsPath,
		Streams:    &launcher.Streams{Stdout: &out, Stderr: &out},
		// The default port may be taken on the test host.
		Preflight: []preflight.Option{preflight.WithPortProbe(func(context.Context, int) error { return nil })},
	})
	if err != nil {
		require.ErrorIs(t, err, preflight.ErrPortInUse)
		t.Skipf("default port %d is busy on this host", params.DefaultPort)
	}

	require.Equal(t, 7, code)
	require.Zero(t, site.downloads.Load())
	require.Equal(t, fmt.Sprintf("-jar %s standalone\n", archive), ws.javaArgs(t))
}

// TestLauncher_Run_Preconditions covers the fatal failures before launch.
func TestLauncher_Run_Preconditions(t *testing.T) {
	site := newReleaseSite(t, "4.21.0")
	ws := newWorkspace(t, site)

	var out bytes.Buffer

	// Missing parameters file.
	_, err := runLauncher(t, ws, &out)
	require.ErrorIs(t, err, params.ErrConfigMissing)

	// Malformed parameters file.
	ws.writeParams(t, "port = [\n")

	code, err := runLauncher(t, ws, &out)
	require.ErrorIs(t, err, params.ErrConfigMalformed)
	require.Equal(t, 1, code)

	// Port held by this test.
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	defer func() {
		_ = busy.Close()
	}()

	_, busyPort, err := net.SplitHostPort(busy.Addr().String())
	require.NoError(t, err)

	ws.writeParams(t, "port = "+busyPort+"\n")

	_, err = runLauncher(t, ws, &out)
	require.ErrorIs(t, err, preflight.ErrPortInUse)

	// Nothing was downloaded or launched.
	require.Zero(t, site.downloads.Load())
	_, err = os.Stat(filepath.Join(ws.dir, "java-args.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)

	// Missing runtime.
	require.NoError(t, os.Remove(ws.javaPath))
	ws.writeParams(t, "port = "+strconv.Itoa(reservePort(t))+"\n")

	_, err = runLauncher(t, ws, &out)
	require.ErrorIs(t, err, preflight.ErrRuntimeMissing)
}

// TestArtifact_Run_DownloadCommand refreshes the archive and then skips the fetch when up to date.
func TestArtifact_Run_DownloadCommand(t *testing.T) {
	site := newReleaseSite(t, "4.21.0")
	ws := newWorkspace(t, site)

	opts := &artifact.Options{ConfigPath: ws.settingsPath}

	require.NoError(t, artifact.Run(context.Background(), opts))
	require.EqualValues(t, 1, site.downloads.Load())

	require.NoError(t, artifact.Run(context.Background(), opts))
	require.EqualValues(t, 1, site.downloads.Load())

	_, err := os.Stat(filepath.Join(ws.artifactDir, "selenium-server-4.21.0.jar"))
	require.NoError(t, err)
}
