// Package lstore implements store.ILocalStore, the in-memory store driven by the
// server loop. It wraps any db.KVDB and adds the two things the engine does not
// own itself: a clock and a bound on expiration work.
//
// Implementation Details:
//
//   - Time: Expire converts a relative TTL in milliseconds into an absolute deadline
//     of the store clock. The clock defaults to the process monotonic clock, tests
//     inject util.ManualClock.
//
//   - Expiration: ExpireDue removes due keys earliest first and stops after
//     MaxExpirePerSweep keys (default 2000), so a burst of expirations is spread
//     over several loop iterations.
//
//   - Feature Detection: before executing operations, the store checks if the underlying
//     db.KVDB supports the requested feature. Unsupported operations return
//     store.RetCUnsupportedOperation.
//
// Thread Safety:
//
//	None. The store is owned by a single goroutine.
//
// Usage Example:
//
//	factory := func() db.KVDB { return pmap.NewPMapDB(nil) }
//	s := lstore.NewLocalStore(factory, nil)
//	_ = s.Set("session:123", data)
//	_, _, _ = s.Expire("session:123", 300_000)
package lstore
