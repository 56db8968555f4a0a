package unix

import (
	"fmt"
	"os"
	"sync"

	"github.com/ValentinKolb/eKV/rpc/transport"
	"github.com/ValentinKolb/eKV/rpc/transport/base"
	"golang.org/x/sys/unix"
)

// serverConnector implements the IServerConnector interface for Unix sockets
type serverConnector struct {
	mu    sync.Mutex
	paths map[int]string
}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return "unix"
}

func (c *serverConnector) Listen(socketPath string) (int, error) {
	// Remove stale socket file
	if err := os.RemoveAll(socketPath); err != nil {
		return -1, fmt.Errorf("failed to remove existing socket: %w", err)
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("failed to create unix socket: %w", err)
	}

	fail := func(format string, err error) (int, error) {
		_ = unix.Close(fd)
		return -1, fmt.Errorf(format, err)
	}
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: socketPath}); err != nil {
		return fail("failed to bind unix socket: %w", err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		_ = os.Remove(socketPath)
		return fail("failed to listen on unix socket: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = os.Remove(socketPath)
		return fail("failed to make unix socket non-blocking: %w", err)
	}

	c.mu.Lock()
	c.paths[fd] = socketPath
	c.mu.Unlock()
	return fd, nil
}

func (c *serverConnector) Addr(fd int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paths[fd]
}

func (c *serverConnector) UpgradeConnection(int) error {
	return nil
}

func (c *serverConnector) Close(fd int) error {
	c.mu.Lock()
	path, ok := c.paths[fd]
	delete(c.paths, fd)
	c.mu.Unlock()

	err := unix.Close(fd)
	if ok {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
			err = rmErr
		}
	}
	return err
}

// --------------------------------------------------------------------------
// Server Transport Factory Method
// --------------------------------------------------------------------------

// NewUnixServerTransport creates a new Unix socket server transport
func NewUnixServerTransport() transport.IRPCServerTransport {
	return base.NewBaseServerTransport(&serverConnector{paths: make(map[int]string)})
}
