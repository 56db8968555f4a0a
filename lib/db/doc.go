// Package db provides the interface for the key-value engines behind the server.
//
// KVDB implementations are not safe for concurrent use. The server runs one
// event loop and calls into the engine from that loop only. Time is passed in
// as absolute milliseconds by the caller.
//
// Key Components:
//
//   - KVDB Interface: Set, Get, Delete, Keys and Len for the data itself, and
//     SetTTL, ClearTTL, NextExpiry and ExpireDue for per-key expiration.
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     advertise through SupportsFeature.
//
//   - Database Information: DatabaseInfo reports entry counts, an estimated size
//     and implementation-specific metadata (for example hash chain statistics).
//
// Related Packages:
//
// The engines/pmap package (github.com/ValentinKolb/eKV/lib/db/engines/pmap) implements
// KVDB on a progressively rehashed hash table with a TTL min-heap.
//
// The util package (github.com/ValentinKolb/eKV/lib/db/util) contains the hash
// function, the TTL heap, clocks and statistics helpers.
//
// The testing package (github.com/ValentinKolb/eKV/lib/db/testing) provides
// RunKVDBTests and RunKVDBBenchmarks for any KVDB implementation.
package db
