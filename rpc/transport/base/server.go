package base

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/ValentinKolb/eKV/rpc/protocol"
	"github.com/ValentinKolb/eKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/sys/unix"
)

var Logger = logger.GetLogger("transport")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a non-blocking listening socket for endpoint
	Listen(endpoint string) (fd int, err error)

	// Addr returns the printable address of a listening socket
	Addr(fd int) string

	// UpgradeConnection applies protocol-specific options to an accepted socket
	UpgradeConnection(fd int) error

	// Close closes the listening socket and releases what Listen created
	Close(fd int) error

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport is a single-threaded, level-triggered event loop.
//
// Each iteration polls the listener, a wake-up pipe and every connection
// (read interest in stateRequest, write interest in stateResponse), waits
// at most until the next idle timeout or handler deadline, services ready
// sockets and finally runs the timer sweep.
type serverTransport struct {
	connector IServerConnector
	handler   transport.IServerHandler
	observer  transport.IConnObserver
	config    common.ServerConfig

	listenFd int
	wakeFds  [2]int
	addr     string

	conns   map[int]*conn
	idle    idleList
	readBuf []byte
	writer  *protocol.ResponseWriter

	// reused between iterations
	pollFds   []unix.PollFd
	pollConns []*conn

	mu      sync.Mutex
	state   serverState
	closing bool
	done    chan struct{}
}

type serverState uint8

const (
	stateNew serverState = iota
	stateListening
	stateServing
	stateClosed
)

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new event loop server transport with the specified connector
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	t := &serverTransport{
		connector: connector,
		listenFd:  -1,
		wakeFds:   [2]int{-1, -1},
		conns:     make(map[int]*conn),
		done:      make(chan struct{}),
	}
	t.idle.init()
	return t
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.IServerHandler) {
	t.handler = handler
	t.observer, _ = handler.(transport.IConnObserver)
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != stateNew {
		return fmt.Errorf("%s server already started", t.connector.GetName())
	}
	if config.ReadBufferSize <= 0 {
		config.ReadBufferSize = common.DefaultReadBufferSize
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = common.DefaultMaxMessageSize
	}
	if config.MaxResponseSize <= 0 {
		config.MaxResponseSize = common.DefaultMaxResponseSize
	}
	if config.IdleTimeoutMs == 0 {
		config.IdleTimeoutMs = common.DefaultIdleTimeoutMs
	}
	t.config = config
	t.readBuf = make([]byte, config.ReadBufferSize)
	t.writer = protocol.NewResponseWriter(config.MaxResponseSize)

	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return fmt.Errorf("failed to create wake-up pipe: %w", err)
	}
	for _, fd := range p {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(p[0])
			_ = unix.Close(p[1])
			return fmt.Errorf("failed to make wake-up pipe non-blocking: %w", err)
		}
	}

	fd, err := t.connector.Listen(config.Endpoint)
	if err != nil {
		_ = unix.Close(p[0])
		_ = unix.Close(p[1])
		return fmt.Errorf("failed to create listener: %w", err)
	}

	t.wakeFds = p
	t.listenFd = fd
	t.addr = t.connector.Addr(fd)
	t.state = stateListening

	Logger.Infof("Listening for %s connections on %s", t.connector.GetName(), t.addr)
	return nil
}

func (t *serverTransport) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addr
}

func (t *serverTransport) Serve() error {
	t.mu.Lock()
	switch {
	case t.state == stateClosed:
		t.mu.Unlock()
		return nil
	case t.state != stateListening:
		t.mu.Unlock()
		return fmt.Errorf("server is not listening")
	case t.handler == nil:
		t.mu.Unlock()
		return fmt.Errorf("no handler registered")
	}
	t.state = stateServing
	t.mu.Unlock()

	defer close(t.done)
	defer t.shutdown()

	for !t.isClosing() {
		if err := t.iterate(); err != nil {
			Logger.Errorf("event loop failed: %v", err)
			return err
		}
	}
	return nil
}

func (t *serverTransport) Close() error {
	t.mu.Lock()
	switch t.state {
	case stateServing:
		t.closing = true
		t.wake()
		t.mu.Unlock()
		<-t.done
		return nil
	case stateListening:
		t.closeSockets()
	}
	t.state = stateClosed
	t.mu.Unlock()
	return nil
}

// --------------------------------------------------------------------------
// Event Loop
// --------------------------------------------------------------------------

// iterate runs one loop iteration. Only a failing poll is returned as error.
func (t *serverTransport) iterate() error {
	t.pollFds = append(t.pollFds[:0],
		unix.PollFd{Fd: int32(t.listenFd), Events: unix.POLLIN},
		unix.PollFd{Fd: int32(t.wakeFds[0]), Events: unix.POLLIN},
	)
	t.pollConns = t.pollConns[:0]
	for _, c := range t.conns {
		t.pollFds = append(t.pollFds, unix.PollFd{Fd: int32(c.fd), Events: c.pollEvents()})
		t.pollConns = append(t.pollConns, c)
	}

	if _, err := unix.Poll(t.pollFds, t.pollTimeout()); err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil
		}
		return fmt.Errorf("poll: %w", err)
	}

	now := t.handler.Now()

	if t.pollFds[0].Revents&unix.POLLIN != 0 {
		if err := t.accept(now); err != nil {
			return err
		}
	}
	if t.pollFds[1].Revents&unix.POLLIN != 0 {
		t.drainWake()
	}

	for i, c := range t.pollConns {
		if revents := t.pollFds[i+2].Revents; revents != 0 {
			t.serviceConn(c, revents, now)
		}
	}

	t.sweep()
	return nil
}

// pollTimeout returns the poll timeout in milliseconds, -1 for none.
func (t *serverTransport) pollTimeout() int {
	var deadline uint64
	has := false
	if c := t.idle.front(); c != nil {
		deadline = c.lastActive + t.config.IdleTimeoutMs
		has = true
	}
	if d, ok := t.handler.NextDeadline(); ok && (!has || d < deadline) {
		deadline = d
		has = true
	}
	if !has {
		return -1
	}
	now := t.handler.Now()
	if deadline <= now {
		return 0
	}
	if wait := deadline - now; wait < math.MaxInt32 {
		return int(wait)
	}
	return math.MaxInt32
}

// serviceConn handles the readiness events of one connection
func (t *serverTransport) serviceConn(c *conn, revents int16, now uint64) {
	if revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
		Logger.Debugf("socket error on connection %d", c.fd)
		t.destroy(c, transport.CloseIOError)
		return
	}

	t.idle.touch(c, now)

	// POLLHUP is handled by the read or write that observes it
	switch {
	case c.state == stateRequest && revents&(unix.POLLIN|unix.POLLHUP) != 0:
		t.handleRead(c)
	case c.state == stateResponse && revents&(unix.POLLOUT|unix.POLLHUP) != 0:
		t.handleWrite(c)
	}

	if c.state == stateEnd {
		t.destroy(c, c.reason)
	}
}

// accept accepts one connection. Only failing to configure it is fatal.
func (t *serverTransport) accept(now uint64) error {
	fd, _, err := unix.Accept(t.listenFd)
	if err != nil {
		if !isTransient(err) && !errors.Is(err, unix.ECONNABORTED) {
			Logger.Errorf("accept failed: %v", err)
		}
		return nil
	}
	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return fmt.Errorf("failed to make connection non-blocking: %w", err)
	}
	if err := t.connector.UpgradeConnection(fd); err != nil {
		Logger.Warningf("failed to upgrade connection %d: %v", fd, err)
	}

	c := newConn(fd)
	c.lastActive = now
	t.conns[fd] = c
	t.idle.pushBack(c)
	if t.observer != nil {
		t.observer.ConnOpened()
	}
	Logger.Debugf("accepted connection %d", fd)
	return nil
}

// destroy closes a connection and forgets everything about it.
// Unsent output is discarded.
func (t *serverTransport) destroy(c *conn, reason transport.CloseReason) {
	if err := unix.Close(c.fd); err != nil {
		Logger.Debugf("close of connection %d failed: %v", c.fd, err)
	}
	t.idle.remove(c)
	delete(t.conns, c.fd)
	c.incoming, c.outgoing = nil, nil
	c.state = stateEnd
	if t.observer != nil {
		t.observer.ConnClosed(reason)
	}
	Logger.Debugf("closed connection %d (%s)", c.fd, reason)
}

// sweep evicts idle connections and lets the handler run its timers.
func (t *serverTransport) sweep() {
	now := t.handler.Now()
	for c := t.idle.front(); c != nil && c.lastActive+t.config.IdleTimeoutMs <= now; c = t.idle.front() {
		Logger.Debugf("connection %d idle for %d ms", c.fd, now-c.lastActive)
		t.destroy(c, transport.CloseIdle)
	}
	t.handler.ProcessTimers()
}

// --------------------------------------------------------------------------
// Shutdown Helpers
// --------------------------------------------------------------------------

func (t *serverTransport) isClosing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closing
}

// wake interrupts a blocking poll, must be called with t.mu held
func (t *serverTransport) wake() {
	if _, err := unix.Write(t.wakeFds[1], []byte{1}); err != nil && !isTransient(err) {
		Logger.Warningf("failed to wake event loop: %v", err)
	}
}

func (t *serverTransport) drainWake() {
	var buf [64]byte
	for {
		if n, err := unix.Read(t.wakeFds[0], buf[:]); err != nil || n < len(buf) {
			return
		}
	}
}

// shutdown closes all connections and sockets once the loop has stopped
func (t *serverTransport) shutdown() {
	for _, c := range t.conns {
		t.destroy(c, transport.CloseShutdown)
	}
	t.mu.Lock()
	t.closeSockets()
	t.state = stateClosed
	t.mu.Unlock()
	Logger.Infof("%s server on %s stopped", t.connector.GetName(), t.addr)
}

// closeSockets must be called with t.mu held
func (t *serverTransport) closeSockets() {
	if t.listenFd >= 0 {
		if err := t.connector.Close(t.listenFd); err != nil {
			Logger.Warningf("failed to close listener: %v", err)
		}
		t.listenFd = -1
	}
	for i, fd := range t.wakeFds {
		if fd >= 0 {
			_ = unix.Close(fd)
			t.wakeFds[i] = -1
		}
	}
}
