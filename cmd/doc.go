// Package cmd implements the command-line interface of eKV. It provides a
// hierarchical command structure for running the server and for talking to it
// as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts the server and, optionally, a metrics endpoint
//   - kv: Client commands (get, set, del, keys, expire) and a load generator (perf)
//   - util: Shared helpers for flags and configuration (internal use)
//
// Every flag can also be set through an environment variable EKV_<FLAG> with
// dashes replaced by underscores (e.g. EKV_IDLE_TIMEOUT=10000), and through
// .env / .env.local files in the working directory.
//
// See ekv --help for a list of all commands.
package cmd
