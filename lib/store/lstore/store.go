package lstore

import (
	"github.com/ValentinKolb/eKV/lib/db"
	"github.com/ValentinKolb/eKV/lib/db/util"
	"github.com/ValentinKolb/eKV/lib/store"
)

// DefaultMaxExpirePerSweep bounds the work of a single ExpireDue call
const DefaultMaxExpirePerSweep = 2000

// Options configures the local store
type Options struct {
	Clock             util.Clock // Time source for expirations (nil = monotonic clock)
	MaxExpirePerSweep int        // Keys removed per ExpireDue call at most (0 = default)
}

type storeImpl struct {
	db        db.KVDB
	clock     util.Clock
	maxExpire int
}

// NewLocalStore creates a new local store instance on a db created by factory.
// opts may be nil.
func NewLocalStore(factory store.DBFactory, opts *Options) store.ILocalStore {
	if opts == nil {
		opts = &Options{}
	}
	s := &storeImpl{
		db:        factory(),
		clock:     opts.Clock,
		maxExpire: opts.MaxExpirePerSweep,
	}
	if s.clock == nil {
		s.clock = util.NewMonotonicClock()
	}
	if s.maxExpire <= 0 {
		s.maxExpire = DefaultMaxExpirePerSweep
	}
	return s
}

func (s *storeImpl) unsupported(op string) *store.Error {
	return store.NewError(store.RetCUnsupportedOperation, op+" operation is not supported")
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	if !s.db.SupportsFeature(db.FeatureSet) {
		return s.unsupported("Set")
	}
	s.db.Set(key, value)
	return nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	if !s.db.SupportsFeature(db.FeatureGet) {
		return nil, false, s.unsupported("Get")
	}
	val, ok := s.db.Get(key)
	return val, ok, nil
}

func (s *storeImpl) Delete(key string) (bool, error) {
	if !s.db.SupportsFeature(db.FeatureDelete) {
		return false, s.unsupported("Delete")
	}
	return s.db.Delete(key), nil
}

func (s *storeImpl) Keys() ([]string, error) {
	keys := make([]string, 0, s.db.Len())
	err := s.ForEachKey(func(key string) bool {
		keys = append(keys, key)
		return true
	})
	return keys, err
}

func (s *storeImpl) Expire(key string, ttlMs int64) ([]byte, bool, error) {
	if !s.db.SupportsFeature(db.FeatureTTL) {
		return nil, false, s.unsupported("Expire")
	}
	if ttlMs < 0 {
		val, ok := s.db.ClearTTL(key)
		return val, ok, nil
	}
	val, ok := s.db.SetTTL(key, s.clock.NowMillis()+uint64(ttlMs))
	return val, ok, nil
}

func (s *storeImpl) Len() int {
	return s.db.Len()
}

func (s *storeImpl) ForEachKey(fn func(key string) bool) error {
	if !s.db.SupportsFeature(db.FeatureKeys) {
		return s.unsupported("Keys")
	}
	s.db.Keys(fn)
	return nil
}

func (s *storeImpl) Now() uint64 {
	return s.clock.NowMillis()
}

func (s *storeImpl) NextExpiry() (uint64, bool) {
	if !s.db.SupportsFeature(db.FeatureTTL) {
		return 0, false
	}
	return s.db.NextExpiry()
}

func (s *storeImpl) ExpireDue() int {
	if !s.db.SupportsFeature(db.FeatureTTL) {
		return 0
	}
	return s.db.ExpireDue(s.clock.NowMillis(), s.maxExpire)
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}

func (s *storeImpl) Close() error {
	return s.db.Close()
}
