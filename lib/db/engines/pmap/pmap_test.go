package pmap

import (
	"fmt"
	"testing"
)

func TestExpiration(t *testing.T) {
	t.Run("ExpireDueInOrder", func(t *testing.T) {
		kv := NewPMapDB(nil)
		for i := 0; i < 10; i++ {
			kv.Set(fmt.Sprint(i), []byte("v"))
			kv.SetTTL(fmt.Sprint(i), uint64(100-i))
		}
		if exp, ok := kv.NextExpiry(); !ok || exp != 91 {
			t.Fatalf("expected next expiry 91, got %d (%v)", exp, ok)
		}
		if n := kv.ExpireDue(95, 100); n != 5 {
			t.Errorf("expected 5 expirations, got %d", n)
		}
		for i := 5; i < 10; i++ {
			if _, ok := kv.Get(fmt.Sprint(i)); ok {
				t.Errorf("key %d should be expired", i)
			}
		}
		if kv.Len() != 5 {
			t.Errorf("expected 5 keys left, got %d", kv.Len())
		}
	})

	t.Run("SweepCap", func(t *testing.T) {
		kv := NewPMapDB(nil)
		for i := 0; i < 10; i++ {
			kv.Set(fmt.Sprint(i), nil)
			kv.SetTTL(fmt.Sprint(i), 1)
		}
		if n := kv.ExpireDue(1, 3); n != 3 {
			t.Errorf("expected capped 3 expirations, got %d", n)
		}
		if n := kv.ExpireDue(1, 100); n != 7 {
			t.Errorf("expected remaining 7 expirations, got %d", n)
		}
		if _, ok := kv.NextExpiry(); ok {
			t.Error("heap should be empty")
		}
	})

	t.Run("DeleteReleasesHeapSlot", func(t *testing.T) {
		kv := NewPMapDB(nil)
		kv.Set("a", []byte("1"))
		kv.Set("b", []byte("2"))
		kv.SetTTL("a", 10)
		kv.SetTTL("b", 20)
		kv.Delete("a")
		if exp, _ := kv.NextExpiry(); exp != 20 {
			t.Errorf("expected next expiry 20 after delete, got %d", exp)
		}
		if info := kv.GetInfo().Metadata.(Metadata); info.ExpiringKeys != 1 {
			t.Errorf("expected 1 expiring key, got %d", info.ExpiringKeys)
		}
	})

	t.Run("SetKeepsTTL", func(t *testing.T) {
		kv := NewPMapDB(nil)
		kv.Set("a", []byte("1"))
		kv.SetTTL("a", 10)
		kv.Set("a", []byte("22"))
		if n := kv.ExpireDue(10, 10); n != 1 {
			t.Error("overwritten key should keep its TTL")
		}
	})

	t.Run("ReplaceAndClearTTL", func(t *testing.T) {
		kv := NewPMapDB(nil)
		kv.Set("a", []byte("1"))
		kv.SetTTL("a", 10)
		kv.SetTTL("a", 50)
		if kv.ExpireDue(10, 10) != 0 {
			t.Error("TTL should have been replaced")
		}
		if v, ok := kv.ClearTTL("a"); !ok || string(v) != "1" {
			t.Errorf("ClearTTL returned %q, %v", v, ok)
		}
		if kv.ExpireDue(1000, 10) != 0 {
			t.Error("cleared TTL should never expire")
		}
		if _, ok := kv.SetTTL("missing", 1); ok {
			t.Error("SetTTL on missing key should report absence")
		}
	})

	t.Run("ExpireDuringResize", func(t *testing.T) {
		kv := NewPMapDB(&DBOptions{InitialBuckets: 2, MaxLoadFactor: 1, RehashWork: 1})
		for i := 0; i < 100; i++ {
			kv.Set(fmt.Sprint(i), []byte("v"))
			if i%2 == 0 {
				kv.SetTTL(fmt.Sprint(i), uint64(i))
			}
		}
		if n := kv.ExpireDue(1000, 1000); n != 50 {
			t.Errorf("expected 50 expirations, got %d", n)
		}
		if kv.Len() != 50 {
			t.Errorf("expected 50 keys, got %d", kv.Len())
		}
	})
}

func TestInfo(t *testing.T) {
	kv := NewPMapDB(&DBOptions{InitialBuckets: 1000})
	kv.Set("abc", []byte("12345"))
	info := kv.GetInfo()
	if info.Keys != 1 || info.SizeBytes != 8 {
		t.Errorf("unexpected info %+v", info)
	}
	meta := info.Metadata.(Metadata)
	if meta.Buckets != 1024 {
		t.Errorf("bucket count should be rounded to 1024, got %d", meta.Buckets)
	}
	if err := kv.Close(); err != nil {
		t.Fatal(err)
	}
	if kv.Len() != 0 {
		t.Error("closed db should be empty")
	}
}
