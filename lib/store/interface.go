package store

import (
	"fmt"

	"github.com/ValentinKolb/eKV/lib/db"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new db used by the store.
// This is used to abstract the creation of the db from the store implementation.
type DBFactory func() db.KVDB

// IStore is the generic interface for interacting with a key–value store.
// It is implemented by the local store behind the server and by the RPC client.
// Command level failures are returned as *Error.
type IStore interface {
	// Set inserts or updates a key–value pair. An existing expiration is kept.
	Set(key string, value []byte) (err error)
	// Get returns the value for a key. The boolean return value indicates whether a value for the key was found.
	Get(key string) (value []byte, loaded bool, err error)
	// Delete removes a key–value pair and its expiration and reports whether it existed.
	Delete(key string) (deleted bool, err error)
	// Keys returns all keys in unspecified order.
	Keys() (keys []string, err error)
	// Expire sets the time to live of an existing key in milliseconds.
	// A negative ttl removes the expiration. loaded is false if the key does not exist.
	Expire(key string, ttlMs int64) (value []byte, loaded bool, err error)
}

// ILocalStore is the store driven by the server loop. It owns the clock
// used for expirations and is not safe for concurrent use.
type ILocalStore interface {
	IStore
	// Len returns the number of keys.
	Len() int
	// ForEachKey calls fn for every key without copying the keys.
	ForEachKey(fn func(key string) bool) (err error)
	// Now returns the current time of the store clock in milliseconds.
	Now() uint64
	// NextExpiry returns the earliest expiration deadline, if any.
	NextExpiry() (deadline uint64, ok bool)
	// ExpireDue removes keys whose deadline has passed, at most the configured
	// number per call, and returns how many were removed.
	ExpireDue() (removed int)
	// GetDBInfo returns metadata about the database underlying the store.
	GetDBInfo() (info db.DatabaseInfo, err error)
	// Close releases the database.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("KVStoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new KVStoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

// RetCode values 1 to 3 are part of the wire protocol and must not change.
type RetCode uint32

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCUnknownCommand                      // 1: Unknown command name or wrong number of arguments.
	RetCResponseTooBig                      // 2: The response exceeded the maximum response size.
	RetCBadArgument                         // 3: An argument could not be parsed.
	RetCUnsupportedOperation                // 4: Operation is not supported by underlying database.
	RetCInternalError                       // 5: Command failed due to an internal error.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCUnknownCommand:
		return "UnknownCommand"
	case RetCResponseTooBig:
		return "ResponseTooBig"
	case RetCBadArgument:
		return "BadArgument"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInternalError:
		return "InternalError"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(c))
	}
}
