// Package rpc contains the network side of the key-value server.
//
// The package is organized into several subpackages:
//
//   - common: Configuration structures, the command table and logging.
//
//   - protocol: The binary wire format. Frames are length prefixed (little
//     endian), requests are lists of byte strings and responses are tagged
//     values (nil, err, str, int, arr).
//
//   - transport: The poll based event loop of the server and a blocking client,
//     with connectors for TCP and Unix sockets.
//
//   - server: Executes commands against the local store and drives key expiration
//     from the event loop's timer hooks.
//
//   - client: A store.IStore implementation talking to a remote server.
//
//   - metrics: Hooks for server activity with VictoriaMetrics and Prometheus exporters.
package rpc
