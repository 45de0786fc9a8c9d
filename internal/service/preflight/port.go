package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/mitchellh/go-ps"
	gopsnet "github.com/shirou/gopsutil/v3/net"

	"github.com/oshokin/selenium-launcher/internal/logger"
)

const maxPort = 65535

var (
	// ErrPortInUse is returned when the server port is already bound.
	ErrPortInUse = errors.New("port is already in use")
	// errInvalidPort is returned for ports outside 1..65535.
	errInvalidPort = errors.New("invalid port")
)

// ConnectionLister returns the host's connection table.
type ConnectionLister func(ctx context.Context) ([]gopsnet.ConnectionStat, error)

// ProcessFinder resolves a PID to a process; it returns nil when there is none.
type ProcessFinder func(pid int) (ps.Process, error)

// PortProbe tries to bind the port; a non-nil error means it is taken.
type PortProbe func(ctx context.Context, port int) error

func inetConnections(ctx context.Context) ([]gopsnet.ConnectionStat, error) {
	return gopsnet.ConnectionsWithContext(ctx, "inet")
}

func listenProbe(ctx context.Context, port int) error {
	var lc net.ListenConfig

	lis, err := lc.Listen(ctx, "tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return err
	}

	return lis.Close()
}

// CheckPort fails with ErrPortInUse when any connection's local port equals port.
// Only exact port numbers match: checking 80 ignores a listener on 8080.
// If the connection table cannot be read, a bind probe decides instead.
func (c *Checker) CheckPort(ctx context.Context, port int) error {
	if port < 1 || port > maxPort {
		return fmt.Errorf("%d: %w", port, errInvalidPort)
	}

	table, err := c.connections(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Could not read connection table, probing the port instead", "error", err)

		if probeErr := c.probe(ctx, port); probeErr != nil {
			return fmt.Errorf("port %d: %w: %w", port, ErrPortInUse, probeErr)
		}

		return nil
	}

	conn, found := FindLocalPort(table, port)
	if !found {
		logger.DebugKV(ctx, "Port is free", "port", port)
		return nil
	}

	return fmt.Errorf("port %d held by %s (local address %s, status %s): %w",
		port, c.describeOwner(conn.Pid), formatAddr(conn.Laddr), conn.Status, ErrPortInUse)
}

// FindLocalPort returns the first connection whose local port equals port.
func FindLocalPort(table []gopsnet.ConnectionStat, port int) (gopsnet.ConnectionStat, bool) {
	for _, conn := range table {
		if int(conn.Laddr.Port) == port {
			return conn, true
		}
	}

	return gopsnet.ConnectionStat{}, false
}

// describeOwner names the process owning a connection, when known.
func (c *Checker) describeOwner(pid int32) string {
	if pid <= 0 {
		return "an unknown process"
	}

	process, err := c.findProcess(int(pid))
	if err != nil || process == nil {
		return fmt.Sprintf("pid %d", pid)
	}

	return fmt.Sprintf("%s (pid %d)", process.Executable(), pid)
}

func formatAddr(addr gopsnet.Addr) string {
	return net.JoinHostPort(addr.IP, strconv.FormatUint(uint64(addr.Port), 10))
}
