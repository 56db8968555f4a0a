package pmap

import (
	"testing"

	"github.com/ValentinKolb/eKV/lib/db"
	dbtesting "github.com/ValentinKolb/eKV/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "PMapDB", func() db.KVDB {
		return NewPMapDB(nil)
	})
	// tiny tables to keep the suite running during resizes
	dbtesting.RunKVDBTests(t, "PMapDB(small)", func() db.KVDB {
		return NewPMapDB(&DBOptions{InitialBuckets: 2, MaxLoadFactor: 1, RehashWork: 1})
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "PMapDB", func() db.KVDB {
		return NewPMapDB(nil)
	})
}
