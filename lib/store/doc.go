// Package store defines the key-value store abstraction shared by the server
// and its clients.
//
// IStore is the command surface of the server (set, get, del, keys, expire).
// The lstore package implements ILocalStore, which extends IStore with what the
// server loop needs to schedule expirations, on top of any db.KVDB. The RPC
// client in rpc/client implements IStore over the wire protocol.
//
// Errors that a command can produce are returned as *Error carrying a RetCode.
// The codes 1 (unknown command), 2 (response too big) and 3 (bad argument)
// travel over the wire unchanged.
package store
