// Package common provides core data structures and utilities shared by the
// server, the client and the command line tools.
//
// Key Components:
//
//   - CommandType: the exhaustive enumeration of commands (get, set, del, keys,
//     expire). A compile-time checked table maps each command to its wire name
//     and arity, ParseCommand resolves requests against it and returns
//     CmdUnknown for everything else.
//
//   - ServerConfig: configuration of the server loop, the store and observability,
//     with defaults, validation and a printable summary.
//
//   - ClientConfig: endpoints, timeouts, retries and pool size of the client.
//
//   - Logger: a logger factory for dragonboats logger package that prints
//     "LEVEL | package | message" lines. All packages obtain their loggers via
//     logger.GetLogger, InitLoggers installs the factory and sets levels.
package common
