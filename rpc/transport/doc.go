// Package transport defines the interfaces between the RPC layer and the
// socket level. The server side is a single-threaded event loop that calls an
// IServerHandler for every request; the client side sends one request at a
// time per connection and returns the decoded response.
//
// Implementations live in transport/base (protocol independent logic) and in
// transport/tcp and transport/unix (socket creation for each address family).
package transport
