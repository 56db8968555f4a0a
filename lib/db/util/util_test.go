package util

import (
	"testing"
	"time"
)

func TestNextPow2(t *testing.T) {
	cases := map[uint64]uint64{0: 1, 1: 1, 2: 2, 3: 4, 1000: 1024, 1024: 1024, 1025: 2048, 1<<63 + 1: 1 << 63}
	for in, want := range cases {
		if got := NextPow2(in); got != want {
			t.Errorf("NextPow2(%d) = %d, want %d", in, got, want)
		}
		if got := NextPow2(in); got&(got-1) != 0 {
			t.Errorf("NextPow2(%d) is not a power of two", in)
		}
	}
}

func TestHashString(t *testing.T) {
	if HashString("key", 1) != HashString("key", 1) {
		t.Error("hash must be deterministic for the same seed")
	}
	if HashString("key", 1) == HashString("key", 2) {
		t.Error("seed should change the hash")
	}
	if HashString("a", 0) == HashString("b", 0) {
		t.Error("different keys should hash differently")
	}
}

func TestClocks(t *testing.T) {
	t.Run("Monotonic", func(t *testing.T) {
		c := NewMonotonicClock()
		first := c.NowMillis()
		if first == 0 {
			t.Error("monotonic clock should never read zero")
		}
		time.Sleep(5 * time.Millisecond)
		if c.NowMillis() < first+5 {
			t.Error("monotonic clock did not advance")
		}
	})

	t.Run("Manual", func(t *testing.T) {
		c := NewManualClock(100)
		c.Advance(50 * time.Millisecond)
		if c.NowMillis() != 150 {
			t.Errorf("expected 150, got %d", c.NowMillis())
		}
		c.Set(10)
		if c.NowMillis() != 10 {
			t.Errorf("expected 10, got %d", c.NowMillis())
		}
	})
}

func TestSizeHistogram(t *testing.T) {
	h := NewSizeHistogram()
	h.AddSample(10)
	h.AddSample(100)
	h.AddSample(100)
	if h.GetCount() != 3 || h.Sum() != 210 {
		t.Fatalf("unexpected count %d / sum %d", h.GetCount(), h.Sum())
	}
	h.RemoveSample(100)
	if h.GetCount() != 2 || h.AverageSize() != 55 {
		t.Errorf("unexpected count %d / avg %d", h.GetCount(), h.AverageSize())
	}
	if p := h.GetPercentileEstimate(100); p != (64+256)/2 {
		t.Errorf("unexpected p100 estimate %d", p)
	}
	h.Reset()
	if h.GetCount() != 0 || h.AverageSize() != 0 {
		t.Error("reset histogram should be empty")
	}
}

func TestDistributionStats(t *testing.T) {
	even := NewDistributionStats([]float64{2, 2, 2, 2})
	if even.DistributionQuality != 1 {
		t.Errorf("even distribution should have quality 1, got %f", even.DistributionQuality)
	}
	skewed := NewDistributionStats([]float64{0, 0, 0, 8})
	if skewed.DistributionQuality >= even.DistributionQuality {
		t.Error("skewed distribution should have lower quality")
	}
	if skewed.Max != 8 || skewed.Mean != 2 {
		t.Errorf("unexpected stats %+v", skewed.Stats)
	}
}
