// Package unix implements the Unix domain socket connectors of the key-value
// server's transport, for clients running on the same machine.
//
// The endpoint is the path of the socket file. A stale file at that path is
// removed on Listen and the file is removed again when the listener is closed.
package unix
