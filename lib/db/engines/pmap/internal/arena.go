package internal

// --------------------------------------------------------------------------
// Entry Arena
// --------------------------------------------------------------------------

// Ref is a handle of an entry in the Arena. The zero Ref is never allocated
// and is used as "no entry" in hash chains.
type Ref uint32

const Nil Ref = 0

// Entry is a single key/value pair stored in the database
type Entry struct {
	Key     string
	Value   []byte
	HCode   uint64 // cached hash of Key
	Next    Ref    // next entry in the same hash chain
	HeapIdx int    // slot in the TTL heap, -1 if the entry has no expiration
}

// Arena owns all entries. Entries refer to each other by Ref, so the
// hash chains and the TTL heap never hold Go pointers into the slice.
type Arena struct {
	entries []Entry
	free    []Ref
}

func NewArena() *Arena {
	return &Arena{entries: make([]Entry, 1)}
}

// Alloc stores a new entry and returns its handle.
// Pointers obtained from At before the call may be invalidated.
func (a *Arena) Alloc(key string, value []byte, hcode uint64) Ref {
	e := Entry{Key: key, Value: value, HCode: hcode, HeapIdx: -1}
	if n := len(a.free); n > 0 {
		ref := a.free[n-1]
		a.free = a.free[:n-1]
		a.entries[ref] = e
		return ref
	}
	a.entries = append(a.entries, e)
	return Ref(len(a.entries) - 1)
}

// At returns the entry for ref.
func (a *Arena) At(ref Ref) *Entry {
	return &a.entries[ref]
}

// Free releases ref for reuse. The entry must be unlinked from every structure.
func (a *Arena) Free(ref Ref) {
	a.entries[ref] = Entry{HeapIdx: -1}
	a.free = append(a.free, ref)
}

// Len returns the number of allocated entries.
func (a *Arena) Len() int {
	return len(a.entries) - 1 - len(a.free)
}

// Reset releases all entries at once.
func (a *Arena) Reset() {
	a.entries = make([]Entry, 1)
	a.free = nil
}
