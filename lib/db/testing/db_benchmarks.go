package testing

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/ValentinKolb/eKV/lib/db"
)

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementation.
// KVDB implementations are single-threaded, so none of the benchmarks run in parallel.
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Set", func(b *testing.B) {
			benchmarkSet(b, factory())
		})

		b.Run("SetExisting", func(b *testing.B) {
			benchmarkSetExisting(b, factory())
		})

		b.Run("SetLargeValue", func(b *testing.B) {
			benchmarkSetLargeValue(b, factory())
		})

		b.Run("SetWithTTL", func(b *testing.B) {
			benchmarkSetWithTTL(b, factory())
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory())
		})

		b.Run("Delete", func(b *testing.B) {
			benchmarkDelete(b, factory())
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("bench-key-%d", i)
	}
	return keys
}

// Benchmark for Set operation with ever new keys, includes every resize
func benchmarkSet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureSet)

	keys := benchKeys(b.N)
	value := []byte("value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.Set(keys[i], value)
	}
}

func benchmarkSetExisting(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureSet)

	keys := benchKeys(1000)
	value := []byte("value")
	for _, k := range keys {
		database.Set(k, value)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.Set(keys[i%len(keys)], value)
	}
}

func benchmarkSetLargeValue(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureSet)

	keys := benchKeys(100)
	value := bytes.Repeat([]byte("x"), 64*1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.Set(keys[i%len(keys)], value)
	}
}

func benchmarkSetWithTTL(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureSet|db.FeatureTTL)

	keys := benchKeys(10_000)
	value := []byte("value")
	rng := rand.New(rand.NewSource(1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := keys[i%len(keys)]
		database.Set(key, value)
		database.SetTTL(key, uint64(rng.Intn(1_000_000)))
	}
}

func benchmarkGet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureSet|db.FeatureGet)

	keys := benchKeys(100_000)
	for _, k := range keys {
		database.Set(k, []byte(k))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := database.Get(keys[i%len(keys)]); !ok {
			b.Fatal("missing key")
		}
	}
}

func benchmarkDelete(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureSet|db.FeatureDelete)

	keys := benchKeys(b.N)
	for _, k := range keys {
		database.Set(k, nil)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.Delete(keys[i])
	}
}

func benchmarkMixedUsage(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete|db.FeatureTTL)

	keys := benchKeys(10_000)
	value := []byte("value")
	rng := rand.New(rand.NewSource(1))
	now := uint64(0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := keys[rng.Intn(len(keys))]
		switch i % 10 {
		case 0, 1, 2:
			database.Set(key, value)
		case 3:
			database.Delete(key)
		case 4:
			database.SetTTL(key, now+100)
		case 5:
			now++
			database.ExpireDue(now, 2000)
		default:
			database.Get(key)
		}
	}
}
