// Package util provides utility components for
// database implementations that satisfy the db.KVDB interface.
//
// The package contains:
//   - functions: the seeded FNV-1a hash and power-of-two helpers
//   - ttlheap: an expiration min-heap that keeps back-references in its owners up to date
//   - clock: the millisecond clock abstraction, a monotonic and a manual implementation
//   - statistics: summary statistics and a SizeHistogram reported through GetInfo
//
// All components are single-threaded except the clocks.
package util
