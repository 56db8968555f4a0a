// Package pmap implements the db.KVDB interface for a single-threaded server loop.
//
// Key Components:
//
//   - pmapImpl: the database. It owns an arena of entries, a progressively rehashed
//     hash map over the arena and a TTL min-heap over the same entries.
//
//   - Arena (internal): a slab of entries addressed by 32-bit handles with a free list.
//     Hash chains and heap slots store handles instead of pointers.
//
//   - HashMap (internal): a chained hash table with two generations. Growing the table
//     never blocks for more than a bounded amount of work: once the newer generation
//     exceeds the maximum load factor, it becomes the older one and every following
//     operation drains up to RehashWork non-empty buckets into a table twice the size.
//     Lookups and removals search both generations while a migration runs.
//
//   - TTL heap (util.TTLHeap): every entry with an expiration owns exactly one heap
//     slot and stores the slot index. Deleting or overwriting an entry's TTL
//     repairs the heap in O(log n).
//
// Expired entries are not filtered on read. They are removed by ExpireDue, which
// the server calls from its timer sweep, at the latest when the poll timeout
// computed from NextExpiry elapses.
//
// Usage:
//
//	kv := pmap.NewPMapDB(nil)
//	kv.Set("key", []byte("value"))
//	kv.SetTTL("key", now+1000)
//	kv.ExpireDue(now+1000, 2000) // removes "key"
package pmap
