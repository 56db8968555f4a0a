package base

import (
	"errors"

	"github.com/ValentinKolb/eKV/rpc/protocol"
	"github.com/ValentinKolb/eKV/rpc/transport"
	"golang.org/x/sys/unix"
)

// connState is the state of the per connection protocol state machine
type connState uint8

const (
	stateRequest  connState = iota // waiting for requests
	stateResponse                  // flushing responses, no reads until done
	stateEnd                       // to be destroyed by the loop
)

func (s connState) String() string {
	switch s {
	case stateRequest:
		return "request"
	case stateResponse:
		return "response"
	default:
		return "end"
	}
}

// maxRetainedOutput is the largest output buffer a connection keeps once drained
const maxRetainedOutput = 16 << 10

// conn is a client connection owned by the event loop
type conn struct {
	fd         int
	state      connState
	incoming   []byte // received bytes not yet processed
	outgoing   []byte // responses not yet written
	lastActive uint64
	idle       idleNode
	reason     transport.CloseReason
}

func newConn(fd int) *conn {
	return &conn{fd: fd, state: stateRequest}
}

func (c *conn) end(reason transport.CloseReason) {
	c.state = stateEnd
	c.reason = reason
}

// pollEvents returns the readiness events the loop waits for
func (c *conn) pollEvents() int16 {
	events := int16(unix.POLLERR)
	switch c.state {
	case stateRequest:
		events |= unix.POLLIN
	case stateResponse:
		events |= unix.POLLOUT
	}
	return events
}

func isTransient(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR)
}

// --------------------------------------------------------------------------
// Read / Write handling
// --------------------------------------------------------------------------

// handleRead performs one read, processes every complete frame and
// tries to flush the responses right away.
func (t *serverTransport) handleRead(c *conn) {
	n, err := unix.Read(c.fd, t.readBuf)
	switch {
	case err != nil && isTransient(err):
		return
	case err != nil:
		Logger.Warningf("read error on connection %d: %v", c.fd, err)
		c.end(transport.CloseIOError)
		return
	case n == 0:
		if len(c.incoming) == 0 {
			Logger.Debugf("connection %d closed by peer", c.fd)
			c.end(transport.CloseEOF)
		} else {
			Logger.Infof("unexpected EOF on connection %d with %d bytes pending", c.fd, len(c.incoming))
			c.end(transport.CloseUnexpectedEOF)
		}
		return
	}

	c.incoming = append(c.incoming, t.readBuf[:n]...)

	consumed := 0
	for c.state != stateEnd {
		size, ok := t.processFrame(c, c.incoming[consumed:])
		if !ok {
			break
		}
		consumed += size
	}
	if c.state == stateEnd {
		return
	}
	c.incoming = c.incoming[:copy(c.incoming, c.incoming[consumed:])]

	if len(c.outgoing) > 0 {
		c.state = stateResponse
		t.handleWrite(c)
	}
}

// processFrame handles the frame at the start of buf and returns its size.
// ok is false if no complete frame is buffered or the connection ended.
func (t *serverTransport) processFrame(c *conn, buf []byte) (size int, ok bool) {
	payloadLen, complete, err := protocol.PeekFrame(buf, t.config.MaxMessageSize)
	if err != nil {
		Logger.Warningf("closing connection %d: %v", c.fd, err)
		c.end(transport.CloseProtocolError)
		return 0, false
	}
	if !complete {
		return 0, false
	}

	payload := buf[protocol.HeaderSize : protocol.HeaderSize+payloadLen]
	args, err := protocol.ParseRequest(payload)
	if err != nil {
		Logger.Warningf("closing connection %d: %v", c.fd, err)
		c.end(transport.CloseProtocolError)
		return 0, false
	}

	t.writer.Begin(c.outgoing)
	t.handler.Handle(args, t.writer)
	var tooBig bool
	c.outgoing, tooBig = t.writer.Finish()
	if tooBig {
		Logger.Warningf("response on connection %d exceeded %d bytes", c.fd, t.config.MaxResponseSize)
	}

	return protocol.HeaderSize + payloadLen, true
}

// handleWrite performs one write of the pending output.
func (t *serverTransport) handleWrite(c *conn) {
	n, err := unix.Write(c.fd, c.outgoing)
	if err != nil {
		if isTransient(err) {
			return
		}
		Logger.Warningf("write error on connection %d: %v", c.fd, err)
		c.end(transport.CloseIOError)
		return
	}

	c.outgoing = c.outgoing[:copy(c.outgoing, c.outgoing[n:])]
	if len(c.outgoing) == 0 {
		c.state = stateRequest
		if cap(c.outgoing) > maxRetainedOutput {
			c.outgoing = nil
		}
	}
}
