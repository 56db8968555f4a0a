package internal

// --------------------------------------------------------------------------
// Single Generation Table
// --------------------------------------------------------------------------

// table is a chained hash table with a power-of-two number of buckets.
// A table without buckets is the empty generation.
type table struct {
	buckets []Ref
	mask    uint64
	size    int
}

func newTable(n int) table {
	return table{buckets: make([]Ref, n), mask: uint64(n - 1)}
}

func (t *table) empty() bool { return t.buckets == nil }

func (t *table) insert(a *Arena, ref Ref) {
	e := a.At(ref)
	pos := e.HCode & t.mask
	e.Next = t.buckets[pos]
	t.buckets[pos] = ref
	t.size++
}

// lookup returns the entry for key and its predecessor in the chain.
func (t *table) lookup(a *Arena, key string, hcode uint64) (ref, prev Ref) {
	if t.empty() {
		return Nil, Nil
	}
	for ref = t.buckets[hcode&t.mask]; ref != Nil; ref = a.At(ref).Next {
		if e := a.At(ref); e.HCode == hcode && e.Key == key {
			return ref, prev
		}
		prev = ref
	}
	return Nil, Nil
}

// detach unlinks ref, whose chain predecessor is prev (Nil for the head).
func (t *table) detach(a *Arena, ref, prev Ref) {
	e := a.At(ref)
	if prev == Nil {
		t.buckets[e.HCode&t.mask] = e.Next
	} else {
		a.At(prev).Next = e.Next
	}
	e.Next = Nil
	t.size--
}

// --------------------------------------------------------------------------
// Progressive Hash Map
// --------------------------------------------------------------------------

// HashMap is a hash table that grows without ever rehashing all entries at once.
//
// When the newer generation exceeds the maximum load factor it becomes the older
// generation and an empty newer one of twice the size takes its place. Every
// Lookup, Insert and Remove then drains a bounded number of buckets from the
// older to the newer generation until the older one is drained.
type HashMap struct {
	arena         *Arena
	newer         table
	older         table
	migratePos    int
	maxLoadFactor int
	rehashWork    int // non-empty older buckets drained per operation
}

// NewHashMap creates a map with initialBuckets buckets (must be a power of two).
func NewHashMap(arena *Arena, initialBuckets, maxLoadFactor, rehashWork int) *HashMap {
	return &HashMap{
		arena:         arena,
		newer:         newTable(initialBuckets),
		maxLoadFactor: maxLoadFactor,
		rehashWork:    rehashWork,
	}
}

// Lookup returns the entry for key or Nil.
func (m *HashMap) Lookup(key string, hcode uint64) Ref {
	m.migrate()
	if ref, _ := m.newer.lookup(m.arena, key, hcode); ref != Nil {
		return ref
	}
	ref, _ := m.older.lookup(m.arena, key, hcode)
	return ref
}

// Insert links an entry whose key is not yet present.
func (m *HashMap) Insert(ref Ref) {
	m.newer.insert(m.arena, ref)
	if m.older.empty() && m.newer.size > len(m.newer.buckets)*m.maxLoadFactor {
		m.grow()
	}
	m.migrate()
}

// Remove unlinks the entry for key and returns it, or Nil if absent.
// The entry itself stays allocated.
func (m *HashMap) Remove(key string, hcode uint64) Ref {
	m.migrate()
	if ref, prev := m.newer.lookup(m.arena, key, hcode); ref != Nil {
		m.newer.detach(m.arena, ref, prev)
		return ref
	}
	if ref, prev := m.older.lookup(m.arena, key, hcode); ref != Nil {
		m.older.detach(m.arena, ref, prev)
		return ref
	}
	return Nil
}

// Len returns the number of linked entries in both generations.
func (m *HashMap) Len() int {
	return m.newer.size + m.older.size
}

// Resizing reports whether a migration is in progress.
func (m *HashMap) Resizing() bool {
	return !m.older.empty()
}

// Buckets returns the bucket count of the newer generation.
func (m *HashMap) Buckets() int {
	return len(m.newer.buckets)
}

// Iterate calls fn for every entry until fn returns false.
// fn must not insert or remove entries.
func (m *HashMap) Iterate(fn func(ref Ref) bool) {
	for _, t := range [2]*table{&m.newer, &m.older} {
		for _, head := range t.buckets {
			for ref := head; ref != Nil; ref = m.arena.At(ref).Next {
				if !fn(ref) {
					return
				}
			}
		}
	}
}

// ChainLengths returns the length of every chain of the newer generation.
func (m *HashMap) ChainLengths() []float64 {
	lengths := make([]float64, len(m.newer.buckets))
	for i, head := range m.newer.buckets {
		for ref := head; ref != Nil; ref = m.arena.At(ref).Next {
			lengths[i]++
		}
	}
	return lengths
}

// Reset drops both generations and starts over with n buckets.
func (m *HashMap) Reset(n int) {
	m.newer = newTable(n)
	m.older = table{}
	m.migratePos = 0
}

func (m *HashMap) grow() {
	m.older = m.newer
	m.newer = newTable(len(m.older.buckets) * 2)
	m.migratePos = 0
}

// migrate drains up to rehashWork non-empty buckets of the older generation.
func (m *HashMap) migrate() {
	for drained := 0; drained < m.rehashWork && m.older.size > 0; m.migratePos++ {
		if m.older.buckets[m.migratePos] == Nil {
			continue
		}
		for head := m.older.buckets[m.migratePos]; head != Nil; head = m.older.buckets[m.migratePos] {
			m.older.detach(m.arena, head, Nil)
			m.newer.insert(m.arena, head)
		}
		drained++
	}
	if m.older.size == 0 && !m.older.empty() {
		m.older = table{}
	}
}
