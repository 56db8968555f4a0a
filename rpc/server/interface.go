package server

import (
	"github.com/ValentinKolb/eKV/lib/store"
	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/ValentinKolb/eKV/rpc/protocol"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It translates a parsed request into calls on the store and writes
// exactly one response value to w.
type IRPCServerAdapter interface {
	// Handle executes cmd with args (args[0] is the command name).
	// Failures are written to w as error values, never returned.
	Handle(cmd common.CommandType, args [][]byte, store store.ILocalStore, w *protocol.ResponseWriter)
}
