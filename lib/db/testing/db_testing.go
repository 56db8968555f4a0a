package testing

import (
	"bytes"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/ValentinKolb/eKV/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Keys", func(t *testing.T) {
			testKeys(t, factory())
		})

		t.Run("TTL", func(t *testing.T) {
			testTTL(t, factory())
		})

		t.Run("ManyExpiringKeys", func(t *testing.T) {
			testManyExpiringKeys(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

func collectKeys(database db.KVDB) []string {
	var keys []string
	database.Keys(func(key string) bool {
		keys = append(keys, key)
		return true
	})
	sort.Strings(keys)
	return keys
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	database.Set(testKey, testValue1)

	result, exists := database.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	database.Set(testKey, testValue2)

	result, exists = database.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}
	if database.Len() != 1 {
		t.Errorf("Expected 1 key after overwrite, got %d", database.Len())
	}

	_, exists = database.Get("nonexistent-key")
	if exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	// the database must own a copy of the value
	input := []byte("original")
	database.Set("copy", input)
	input[0] = 'X'
	if result, _ := database.Get("copy"); string(result) != "original" {
		t.Errorf("Modifying the input after Set changed the stored value to %s", result)
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete)

	database.Set("delete-key", []byte("value"))

	if !database.Delete("delete-key") {
		t.Errorf("Expected Delete to report an existing key")
	}
	if _, exists := database.Get("delete-key"); exists {
		t.Errorf("Expected key to be gone after Delete")
	}
	if database.Delete("delete-key") {
		t.Errorf("Expected second Delete to report a missing key")
	}
	if database.Delete("never-existed") {
		t.Errorf("Expected Delete of unknown key to report a missing key")
	}
	if database.Len() != 0 {
		t.Errorf("Expected empty database, got %d keys", database.Len())
	}

	// a deleted key can be set again
	database.Set("delete-key", []byte("again"))
	if v, _ := database.Get("delete-key"); string(v) != "again" {
		t.Errorf("Expected value again, got %s", v)
	}
}

func testKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureKeys)

	if keys := collectKeys(database); len(keys) != 0 {
		t.Errorf("Expected no keys in empty database, got %v", keys)
	}

	var want []string
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("key-%03d", i)
		database.Set(key, []byte("v"))
		want = append(want, key)
	}
	database.Delete("key-050")
	want = append(want[:50], want[51:]...)

	got := collectKeys(database)
	if len(got) != len(want) {
		t.Fatalf("Expected %d keys, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected key %s at position %d, got %s", want[i], i, got[i])
		}
	}

	n := 0
	database.Keys(func(string) bool {
		n++
		return n < 10
	})
	if n != 10 {
		t.Errorf("Expected iteration to stop after 10 keys, got %d", n)
	}
}

func testTTL(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureTTL)

	if _, ok := database.NextExpiry(); ok {
		t.Errorf("Expected no expiry in empty database")
	}
	if _, ok := database.SetTTL("missing", 10); ok {
		t.Errorf("Expected SetTTL on missing key to fail")
	}
	if _, ok := database.ClearTTL("missing"); ok {
		t.Errorf("Expected ClearTTL on missing key to fail")
	}

	database.Set("a", []byte("va"))
	database.Set("b", []byte("vb"))

	value, ok := database.SetTTL("a", 100)
	if !ok || string(value) != "va" {
		t.Errorf("Expected SetTTL to return va, got %s (%v)", value, ok)
	}
	database.SetTTL("b", 200)

	if exp, ok := database.NextExpiry(); !ok || exp != 100 {
		t.Errorf("Expected next expiry 100, got %d (%v)", exp, ok)
	}

	// not yet due
	if n := database.ExpireDue(99, 100); n != 0 {
		t.Errorf("Expected nothing to expire at 99, got %d", n)
	}
	if _, exists := database.Get("a"); !exists {
		t.Errorf("Expected key a to exist before its deadline")
	}

	// due at exactly the deadline
	if n := database.ExpireDue(100, 100); n != 1 {
		t.Errorf("Expected 1 expiration at 100, got %d", n)
	}
	if _, exists := database.Get("a"); exists {
		t.Errorf("Expected key a to be expired")
	}

	// clearing the TTL keeps the key forever
	value, ok = database.ClearTTL("b")
	if !ok || string(value) != "vb" {
		t.Errorf("Expected ClearTTL to return vb, got %s", value)
	}
	if n := database.ExpireDue(1_000_000, 100); n != 0 {
		t.Errorf("Expected no expiration after ClearTTL, got %d", n)
	}
	if _, exists := database.Get("b"); !exists {
		t.Errorf("Expected key b to survive")
	}
	if _, ok := database.NextExpiry(); ok {
		t.Errorf("Expected no pending expiry")
	}
}

func testManyExpiringKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete|db.FeatureTTL)

	const numKeys = 5000
	rng := rand.New(rand.NewSource(1))
	deadlines := make(map[string]uint64, numKeys)
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("exp-%d", i)
		database.Set(key, []byte(key))
		deadline := uint64(rng.Intn(1000))
		database.SetTTL(key, deadline)
		deadlines[key] = deadline
	}

	// delete and re-key some of them so the heap has to repair itself
	for i := 0; i < numKeys; i += 7 {
		key := fmt.Sprintf("exp-%d", i)
		database.Delete(key)
		delete(deadlines, key)
	}
	for i := 1; i < numKeys; i += 11 {
		key := fmt.Sprintf("exp-%d", i)
		if _, ok := deadlines[key]; !ok {
			continue
		}
		database.SetTTL(key, 2000)
		deadlines[key] = 2000
	}

	var last uint64
	for now := uint64(0); now <= 2000; now += 50 {
		database.ExpireDue(now, 1<<30)
		if exp, ok := database.NextExpiry(); ok && exp <= now {
			t.Fatalf("Expiry %d still pending at %d", exp, now)
		}
		for key, deadline := range deadlines {
			_, exists := database.Get(key)
			if deadline <= now && exists {
				t.Fatalf("Key %s with deadline %d still present at %d", key, deadline, now)
			}
			if deadline > now && !exists {
				t.Fatalf("Key %s with deadline %d missing at %d", key, deadline, now)
			}
		}
		last = now
	}
	if database.Len() != 0 {
		t.Errorf("Expected all keys to expire by %d, %d left", last, database.Len())
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete)

	t.Run("EmptyKey", func(t *testing.T) {
		database.Set("", []byte("empty-key"))
		if v, ok := database.Get(""); !ok || string(v) != "empty-key" {
			t.Errorf("Expected value for empty key, got %s (%v)", v, ok)
		}
		database.Delete("")
	})

	t.Run("EmptyValue", func(t *testing.T) {
		database.Set("empty-value", nil)
		v, ok := database.Get("empty-value")
		if !ok || len(v) != 0 {
			t.Errorf("Expected empty value, got %v (%v)", v, ok)
		}
	})

	t.Run("BinaryKeyAndValue", func(t *testing.T) {
		key := string([]byte{0, 1, 2, 255})
		value := []byte{0, 0, 0}
		database.Set(key, value)
		if v, ok := database.Get(key); !ok || !bytes.Equal(v, value) {
			t.Errorf("Expected binary value to round trip")
		}
	})

	t.Run("LargeValue", func(t *testing.T) {
		large := bytes.Repeat([]byte("x"), 1<<20)
		database.Set("large", large)
		if v, _ := database.Get("large"); len(v) != len(large) {
			t.Errorf("Expected %d bytes, got %d", len(large), len(v))
		}
		// shrinking in place must not keep stale bytes visible
		database.Set("large", []byte("small"))
		if v, _ := database.Get("large"); string(v) != "small" {
			t.Errorf("Expected small, got %d bytes", len(v))
		}
	})
}

func testRealisticUsage(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete|db.FeatureKeys)

	rng := rand.New(rand.NewSource(7))
	model := make(map[string]string)

	for i := 0; i < 50_000; i++ {
		key := fmt.Sprintf("user:%d", rng.Intn(5000))
		switch rng.Intn(10) {
		case 0, 1, 2, 3:
			value := fmt.Sprintf("value-%d", i)
			database.Set(key, []byte(value))
			model[key] = value
		case 4, 5:
			_, want := model[key]
			if got := database.Delete(key); got != want {
				t.Fatalf("Delete(%s) = %v, expected %v", key, got, want)
			}
			delete(model, key)
		default:
			v, ok := database.Get(key)
			want, wantOk := model[key]
			if ok != wantOk || string(v) != want {
				t.Fatalf("Get(%s) = %s (%v), expected %s (%v)", key, v, ok, want, wantOk)
			}
		}
	}

	if database.Len() != len(model) {
		t.Errorf("Expected %d keys, got %d", len(model), database.Len())
	}
	if keys := collectKeys(database); len(keys) != len(model) {
		t.Errorf("Expected %d iterated keys, got %d", len(model), len(keys))
	}
	info := database.GetInfo()
	if info.Keys != len(model) {
		t.Errorf("Expected info to report %d keys, got %d", len(model), info.Keys)
	}
}
