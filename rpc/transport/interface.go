package transport

import (
	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/ValentinKolb/eKV/rpc/protocol"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// IServerHandler processes requests on behalf of a server transport.
// All methods are called from the goroutine running Serve, one at a time.
type IServerHandler interface {
	// Handle processes one request and writes exactly one value to w.
	// args alias the connection buffer and are only valid during the call.
	Handle(args [][]byte, w *protocol.ResponseWriter)
	// Now returns the current time in milliseconds of a monotonic clock.
	// The transport uses it for idle timeouts as well.
	Now() uint64
	// NextDeadline returns the earliest time at which ProcessTimers has work to do.
	NextDeadline() (deadline uint64, ok bool)
	// ProcessTimers runs the work that is due, called once per loop iteration.
	ProcessTimers()
}

// CloseReason tells why a connection was closed by the server
type CloseReason uint8

const (
	CloseEOF           CloseReason = iota // peer closed between frames
	CloseUnexpectedEOF                    // peer closed in the middle of a frame
	CloseIOError                          // read, write or socket error
	CloseProtocolError                    // oversized or malformed frame
	CloseIdle                             // idle timeout
	CloseShutdown                         // server shut down
)

func (r CloseReason) String() string {
	switch r {
	case CloseEOF:
		return "eof"
	case CloseUnexpectedEOF:
		return "unexpected_eof"
	case CloseIOError:
		return "io_error"
	case CloseProtocolError:
		return "protocol_error"
	case CloseIdle:
		return "idle"
	case CloseShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// IConnObserver can be implemented by an IServerHandler to be informed about
// the connection lifecycle.
type IConnObserver interface {
	ConnOpened()
	ConnClosed(reason CloseReason)
}

// IRPCServerTransport is the interface for the RPC server transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers the handler for all requests. Must be called before Serve.
	RegisterHandler(handler IServerHandler)
	// Listen creates the listening socket described by the config.
	Listen(config common.ServerConfig) error
	// Serve runs the event loop until Close is called or a fatal error occurs.
	// A nil return means the server was closed.
	Serve() error
	// Addr returns the address the server listens on.
	Addr() string
	// Close stops the event loop, closes all connections and waits for Serve to return.
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request made of args and returns the decoded response
	Send(args ...[]byte) (resp protocol.Value, err error)
	// Close closes the transport connection
	Close() error
}
