package base

import (
	"bufio"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/ValentinKolb/eKV/rpc/protocol"
	"github.com/ValentinKolb/eKV/rpc/transport"
)

// defaultClientMaxMessageSize bounds response payloads if the config does not
const defaultClientMaxMessageSize = 64 << 20

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to endpoint
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientConnection is a single connection. The server answers requests in
// order and never reads while responding, so a request holds the connection
// until its response has been read.
type clientConnection struct {
	mu       sync.Mutex
	conn     net.Conn
	reader   *bufio.Reader
	endpoint string
	buf      []byte
	parent   *clientTransport
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex uint64 // Atomic counter for Round Robin
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{connector: connector}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = defaultClientMaxMessageSize
	}

	t.closeConnections()
	t.config = config

	connectionsPerEP := 1
	if config.ConnectionsPerEndpoint > 0 {
		connectionsPerEP = config.ConnectionsPerEndpoint
	}

	connections := make([]*clientConnection, 0, len(config.Endpoints)*connectionsPerEP)
	for _, endpoint := range config.Endpoints {
		for i := 0; i < connectionsPerEP; i++ {
			c := &clientConnection{endpoint: endpoint, parent: t}
			if err := c.reconnect(); err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
				continue
			}
			connections = append(connections, c)
		}
	}

	if len(connections) == 0 {
		return fmt.Errorf("failed to connect to any endpoint")
	}

	t.connectionsMu.Lock()
	t.connections = connections
	t.connectionsMu.Unlock()

	Logger.Infof("Connected %d out of %d connections to %d endpoints using %s transport",
		len(connections), len(config.Endpoints)*connectionsPerEP, len(config.Endpoints), t.connector.GetName())
	return nil
}

func (t *clientTransport) Send(args ...[]byte) (protocol.Value, error) {
	maxRetries := t.config.RetryCount
	if maxRetries < 1 {
		maxRetries = 1
	}

	// Initial backoff duration in milliseconds
	backoffMs := 50
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		c := t.getNextConnection()
		if c == nil {
			return protocol.Value{}, fmt.Errorf("no active connections available")
		}

		v, err := c.roundTrip(args)
		if err == nil {
			return v, nil
		}
		lastErr = err
		Logger.Debugf("Request attempt %d/%d failed: %v", i+1, maxRetries, err)

		if i+1 < maxRetries {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}
	}

	return protocol.Value{}, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, lastErr)
}

func (t *clientTransport) Close() error {
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// getNextConnection selects the next connection via Round Robin
func (t *clientTransport) getNextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	switch len(t.connections) {
	case 0:
		return nil
	case 1:
		return t.connections[0]
	}
	index := atomic.AddUint64(&t.nextConnIndex, 1) % uint64(len(t.connections))
	return t.connections[index]
}

// closeConnections closes all active connections
func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	connections := t.connections
	t.connections = nil
	t.connectionsMu.Unlock()

	for _, c := range connections {
		c.mu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
			c.conn = nil
		}
		c.mu.Unlock()
	}
}

// roundTrip writes one request and reads its response. Any I/O or protocol
// error drops the connection, the next request reconnects.
func (c *clientConnection) roundTrip(args [][]byte) (protocol.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.reconnectLocked(); err != nil {
			return protocol.Value{}, err
		}
	}

	if timeout := c.parent.config.TimeoutSecond; timeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(time.Duration(timeout) * time.Second))
	}

	c.buf = protocol.AppendRequest(c.buf[:0], args...)
	if _, err := c.conn.Write(c.buf); err != nil {
		c.dropLocked()
		return protocol.Value{}, fmt.Errorf("error writing request to %s: %w", c.endpoint, err)
	}

	payload, err := protocol.ReadFrame(c.reader, c.parent.config.MaxMessageSize)
	if err != nil {
		c.dropLocked()
		return protocol.Value{}, fmt.Errorf("error reading response from %s: %w", c.endpoint, err)
	}

	v, err := protocol.DecodeValue(payload)
	if err != nil {
		c.dropLocked()
		return protocol.Value{}, fmt.Errorf("error decoding response from %s: %w", c.endpoint, err)
	}
	return v, nil
}

// reconnect establishes or restores the connection to the endpoint
func (c *clientConnection) reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconnectLocked()
}

func (c *clientConnection) reconnectLocked() error {
	c.dropLocked()

	conn, err := c.parent.connector.Connect(c.endpoint)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

func (c *clientConnection) dropLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
}
