package preflight

import (
	"context"
	"errors"
	"testing"

	"github.com/mitchellh/go-ps"
	gopsnet "github.com/shirou/gopsutil/v3/net"
	"github.com/stretchr/testify/require"
)

var (
	errTableUnavailable = errors.New("permission denied")
	errBindFailed       = errors.New("address already in use")
)

// fakeProcess implements ps.Process for owner lookups.
type fakeProcess struct {
	pid  int
	name string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.name }

func staticTable(table ...gopsnet.ConnectionStat) ConnectionLister {
	return func(context.Context) ([]gopsnet.ConnectionStat, error) {
		return table, nil
	}
}

func listening(ip string, port uint32, pid int32) gopsnet.ConnectionStat {
	return gopsnet.ConnectionStat{
		Laddr:  gopsnet.Addr{IP: ip, Port: port},
		Status: "LISTEN",
		Pid:    pid,
	}
}

// TestCheckPort_InUse fails when the table has an entry on the target port and names its owner.
func TestCheckPort_InUse(t *testing.T) {
	t.Parallel()

	c := New("java", "",
		WithConnectionLister(staticTable(
			listening("127.0.0.1", 5432, 10),
			listening("0.0.0.0", 4444, 4242),
		)),
		WithProcessFinder(func(pid int) (ps.Process, error) {
			return fakeProcess{pid: pid, name: "java"}, nil
		}),
	)

	err := c.CheckPort(context.Background(), 4444)
	require.ErrorIs(t, err, ErrPortInUse)
	require.Contains(t, err.Error(), ":4444")
	require.Contains(t, err.Error(), "java (pid 4242)")
}

// TestCheckPort_ExactMatchOnly ignores ports that merely contain the target digits.
func TestCheckPort_ExactMatchOnly(t *testing.T) {
	t.Parallel()

	c := New("java", "", WithConnectionLister(staticTable(
		listening("0.0.0.0", 8080, 0),
		listening("::", 44445, 0),
	)))

	require.NoError(t, c.CheckPort(context.Background(), 80))
	require.NoError(t, c.CheckPort(context.Background(), 4444))
	require.ErrorIs(t, c.CheckPort(context.Background(), 8080), ErrPortInUse)
}

// TestCheckPort_UnknownOwner still reports the conflict without a PID.
func TestCheckPort_UnknownOwner(t *testing.T) {
	t.Parallel()

	c := New("java", "",
		WithConnectionLister(staticTable(listening("::1", 4444, 77))),
		WithProcessFinder(func(int) (ps.Process, error) { return nil, nil }),
	)

	err := c.CheckPort(context.Background(), 4444)
	require.ErrorIs(t, err, ErrPortInUse)
	require.Contains(t, err.Error(), "pid 77")
	require.Contains(t, err.Error(), "[::1]:4444")
}

// TestCheckPort_FallsBackToProbe uses the bind probe when the table cannot be read.
func TestCheckPort_FallsBackToProbe(t *testing.T) {
	t.Parallel()

	broken := func(context.Context) ([]gopsnet.ConnectionStat, error) {
		return nil, errTableUnavailable
	}

	c := New("java", "",
		WithConnectionLister(broken),
		WithPortProbe(func(context.Context, int) error { return nil }),
	)
	require.NoError(t, c.CheckPort(context.Background(), 4444))

	c = New("java", "",
		WithConnectionLister(broken),
		WithPortProbe(func(context.Context, int) error { return errBindFailed }),
	)
	require.ErrorIs(t, c.CheckPort(context.Background(), 4444), ErrPortInUse)
}

// TestCheckPort_InvalidPort rejects out-of-range ports before inspecting anything.
func TestCheckPort_InvalidPort(t *testing.T) {
	t.Parallel()

	c := New("java", "", WithConnectionLister(staticTable()))

	require.ErrorIs(t, c.CheckPort(context.Background(), 0), errInvalidPort)
	require.ErrorIs(t, c.CheckPort(context.Background(), 70000), errInvalidPort)
}

// TestFindLocalPort matches on the local address only.
func TestFindLocalPort(t *testing.T) {
	t.Parallel()

	remoteOnly := gopsnet.ConnectionStat{
		Laddr: gopsnet.Addr{IP: "10.0.0.2", Port: 51000},
		Raddr: gopsnet.Addr{IP: "10.0.0.3", Port: 4444},
	}

	_, found := FindLocalPort([]gopsnet.ConnectionStat{remoteOnly}, 4444)
	require.False(t, found)

	conn, found := FindLocalPort([]gopsnet.ConnectionStat{remoteOnly, listening("0.0.0.0", 4444, 1)}, 4444)
	require.True(t, found)
	require.Equal(t, "0.0.0.0", conn.Laddr.IP)
}
