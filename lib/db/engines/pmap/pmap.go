package pmap

import (
	"github.com/ValentinKolb/eKV/lib/db"
	"github.com/ValentinKolb/eKV/lib/db/engines/pmap/internal"
	"github.com/ValentinKolb/eKV/lib/db/util"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultInitialBuckets = 1024
	defaultMaxLoadFactor  = 8
	defaultRehashWork     = 128
)

// allFeatures are the features supported by pmapImpl
const allFeatures = db.FeatureSet | db.FeatureGet | db.FeatureDelete | db.FeatureKeys | db.FeatureTTL

// --------------------------------------------------------------------------
// Core PMap database structure
// --------------------------------------------------------------------------

// pmapImpl implements db.KVDB on a progressively rehashed hash map and a TTL heap
type pmapImpl struct {
	seed           uint64
	initialBuckets int
	arena          *internal.Arena
	index          *internal.HashMap
	ttl            *util.TTLHeap

	// statistics
	values   *util.SizeHistogram
	keyBytes int
}

// DBOptions configures the pmapImpl behavior during initialization
type DBOptions struct {
	InitialBuckets int // Buckets of the first generation, rounded up to a power of two
	MaxLoadFactor  int // Entries per bucket that trigger a resize
	RehashWork     int // Non-empty buckets drained per operation during a resize
}

// DefaultOptions returns the default pmapImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		InitialBuckets: defaultInitialBuckets,
		MaxLoadFactor:  defaultMaxLoadFactor,
		RehashWork:     defaultRehashWork,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewPMapDB creates a new database with the specified options (optional).
// Zero option values fall back to their defaults.
func NewPMapDB(opts *DBOptions) db.KVDB {
	if opts == nil {
		opts = DefaultOptions()
	}
	initialBuckets := opts.InitialBuckets
	if initialBuckets <= 0 {
		initialBuckets = defaultInitialBuckets
	}
	initialBuckets = int(util.NextPow2(uint64(initialBuckets)))
	maxLoadFactor := opts.MaxLoadFactor
	if maxLoadFactor <= 0 {
		maxLoadFactor = defaultMaxLoadFactor
	}
	rehashWork := opts.RehashWork
	if rehashWork <= 0 {
		rehashWork = defaultRehashWork
	}

	arena := internal.NewArena()
	return &pmapImpl{
		seed:           util.GenerateSeed(),
		initialBuckets: initialBuckets,
		arena:          arena,
		index:          internal.NewHashMap(arena, initialBuckets, maxLoadFactor, rehashWork),
		ttl: util.NewTTLHeap(func(ref uint32, idx int) {
			arena.At(internal.Ref(ref)).HeapIdx = idx
		}),
		values: util.NewSizeHistogram(),
	}
}

func (p *pmapImpl) hash(key string) uint64 {
	return uint64(util.HashString(key, p.seed))
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Set copies value into the database. An existing entry is updated in place
// and keeps its expiration.
func (p *pmapImpl) Set(key string, value []byte) {
	hcode := p.hash(key)
	if ref := p.index.Lookup(key, hcode); ref != internal.Nil {
		e := p.arena.At(ref)
		p.values.RemoveSample(len(e.Value))
		e.Value = append(e.Value[:0], value...)
		p.values.AddSample(len(e.Value))
		return
	}

	ref := p.arena.Alloc(key, append([]byte(nil), value...), hcode)
	p.index.Insert(ref)
	p.values.AddSample(len(value))
	p.keyBytes += len(key)
}

func (p *pmapImpl) Delete(key string) bool {
	ref := p.index.Remove(key, p.hash(key))
	if ref == internal.Nil {
		return false
	}
	p.release(ref)
	return true
}

func (p *pmapImpl) SetTTL(key string, expireAt uint64) ([]byte, bool) {
	ref := p.index.Lookup(key, p.hash(key))
	if ref == internal.Nil {
		return nil, false
	}
	if idx := p.arena.At(ref).HeapIdx; idx >= 0 {
		p.ttl.Update(idx, expireAt)
	} else {
		p.ttl.Insert(util.HeapItem{ExpireAt: expireAt, Ref: uint32(ref)})
	}
	return p.arena.At(ref).Value, true
}

func (p *pmapImpl) ClearTTL(key string) ([]byte, bool) {
	ref := p.index.Lookup(key, p.hash(key))
	if ref == internal.Nil {
		return nil, false
	}
	if idx := p.arena.At(ref).HeapIdx; idx >= 0 {
		p.ttl.Remove(idx)
	}
	return p.arena.At(ref).Value, true
}

// ExpireDue removes due entries in expiration order, at most max of them.
func (p *pmapImpl) ExpireDue(now uint64, max int) int {
	removed := 0
	for removed < max {
		top, ok := p.ttl.Peek()
		if !ok || top.ExpireAt > now {
			break
		}
		p.ttl.PopMin()

		ref := internal.Ref(top.Ref)
		e := p.arena.At(ref)
		p.index.Remove(e.Key, e.HCode)
		p.release(ref)
		removed++
	}
	return removed
}

// release frees an entry that is already unlinked from the hash map.
func (p *pmapImpl) release(ref internal.Ref) {
	e := p.arena.At(ref)
	if e.HeapIdx >= 0 {
		p.ttl.Remove(e.HeapIdx)
	}
	p.values.RemoveSample(len(e.Value))
	p.keyBytes -= len(e.Key)
	p.arena.Free(ref)
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Query Operations
// --------------------------------------------------------------------------

func (p *pmapImpl) Get(key string) ([]byte, bool) {
	ref := p.index.Lookup(key, p.hash(key))
	if ref == internal.Nil {
		return nil, false
	}
	return p.arena.At(ref).Value, true
}

func (p *pmapImpl) Keys(fn func(key string) bool) {
	p.index.Iterate(func(ref internal.Ref) bool {
		return fn(p.arena.At(ref).Key)
	})
}

func (p *pmapImpl) Len() int {
	return p.index.Len()
}

func (p *pmapImpl) NextExpiry() (uint64, bool) {
	top, ok := p.ttl.Peek()
	return top.ExpireAt, ok
}

// --------------------------------------------------------------------------
// Feature Support and Metadata
// --------------------------------------------------------------------------

func (p *pmapImpl) SupportsFeature(feature db.Feature) bool {
	return feature&allFeatures == feature
}

// Metadata is the implementation specific part of db.DatabaseInfo
type Metadata struct {
	Buckets        int                    `json:"buckets"`
	Resizing       bool                   `json:"resizing"`
	ExpiringKeys   int                    `json:"expiring_keys"`
	AvgValueSize   int                    `json:"avg_value_size"`
	P99ValueSize   int                    `json:"p99_value_size"`
	ChainLengths   util.DistributionStats `json:"chain_lengths"`
	AllocatedSlots int                    `json:"allocated_slots"`
}

func (p *pmapImpl) GetInfo() db.DatabaseInfo {
	var features []db.Feature
	for f := db.FeatureSet; f <= db.FeatureTTL; f <<= 1 {
		if p.SupportsFeature(f) {
			features = append(features, f)
		}
	}

	return db.DatabaseInfo{
		Keys:              p.index.Len(),
		SizeBytes:         int(p.values.Sum()) + p.keyBytes,
		DbType:            db.ImplPMap,
		SupportedFeatures: features,
		Metadata: Metadata{
			Buckets:        p.index.Buckets(),
			Resizing:       p.index.Resizing(),
			ExpiringKeys:   p.ttl.Len(),
			AvgValueSize:   p.values.AverageSize(),
			P99ValueSize:   p.values.GetPercentileEstimate(99),
			ChainLengths:   util.NewDistributionStats(p.index.ChainLengths()),
			AllocatedSlots: p.arena.Len(),
		},
	}
}

func (p *pmapImpl) Close() error {
	p.ttl.Reset()
	p.index.Reset(p.initialBuckets)
	p.arena.Reset()
	p.values.Reset()
	p.keyBytes = 0
	return nil
}
