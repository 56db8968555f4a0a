// Package tcp implements the TCP connectors of the key-value server's transport.
//
// The server side creates its listening socket directly with socket(2), bind(2)
// and listen(2), because the event loop in package base polls raw file
// descriptors. Accepted connections get TCP_NODELAY. The client side dials with
// the net package.
//
// An endpoint is a host:port pair. Port 0 picks a free port, the actual address
// is available through Addr after Listen.
package tcp
