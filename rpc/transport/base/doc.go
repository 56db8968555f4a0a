// Package base provides the transport layer of the key-value server independent
// of the socket family (TCP, Unix sockets). Protocol specific parts are injected
// as connectors.
//
// Key Components:
//
//   - IServerConnector/IClientConnector: Interfaces for socket family specific
//     operations like creating the listening socket or dialing an endpoint.
//
//   - serverTransport: A single-threaded event loop built on poll(2). All
//     sockets are non-blocking. Each connection runs a small state machine:
//     in the request state the loop waits for readable data and handles every
//     complete frame, in the response state it waits until the buffered
//     responses are written. A connection is never read while it still has
//     output pending, so a client that does not read its responses cannot make
//     the server buffer unbounded output.
//
//   - idleList: Intrusive list of connections ordered by last activity. The
//     head is the next connection to time out, which lets the loop compute its
//     poll timeout and evict idle connections in O(1) per connection.
//
//   - clientTransport: Blocking client with a pool of connections per endpoint,
//     round-robin selection, reconnects and retries with exponential backoff.
//
// Timers:
//
// The poll timeout is the earlier of the idle deadline of the head of the idle
// list and the deadline reported by the handler (the earliest key expiry).
// After servicing the ready sockets the loop evicts idle connections and calls
// the handler's ProcessTimers, so expired keys are removed even if no client
// sends any requests.
//
// Thread Safety:
//
//	The server loop and the handler run on the goroutine calling Serve. Close
//	may be called from any goroutine and wakes the loop through a pipe. The
//	client transport is safe for concurrent use.
package base
