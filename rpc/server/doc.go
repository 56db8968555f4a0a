// Package server implements the RPC server of the key-value store. It glues a
// transport (package transport) to a local store (package lstore) backed by the
// progressive hash map engine.
//
// Key Components:
//
//   - RPCServer: Implements transport.IServerHandler. It parses the command of
//     each request, reports it to the metrics sink and lets the adapter execute
//     it. Its timer hooks expose the earliest key expiry to the event loop and
//     remove expired keys during the sweep.
//
//   - IRPCServerAdapter: Translates a command into store calls and writes the
//     response value.
//
// Commands:
//
//	get KEY           -> str value or nil
//	set KEY VALUE     -> nil
//	del KEY           -> int 1 if the key existed, else 0
//	keys              -> arr of all keys
//	expire KEY TTL_MS -> str value or nil if the key does not exist;
//	                     a negative TTL removes the expiration,
//	                     a TTL that is not an integer is error 3
//
// Any other command name or argument count is answered with error 1.
//
// Usage Example:
//
//	s := server.NewRPCServer(common.DefaultServerConfig(), tcp.NewTCPServerTransport(), nil)
//	go func() {
//	  if err := s.Serve(); err != nil {
//	    log.Fatal(err)
//	  }
//	}()
//	defer s.Close()
package server
