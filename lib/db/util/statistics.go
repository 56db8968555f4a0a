// Package util
//
// This file implements the statistics reported through db.DatabaseInfo:
// summary statistics over hash chain lengths and a size histogram that
// tracks stored value sizes with exponential buckets.
//
// None of these types are safe for concurrent use. The engines update them
// from the server loop only.
package util

import (
	"math"
)

// ----------------------------------------------------------------------------
// Summary statistics
// ----------------------------------------------------------------------------

type Stats struct {
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// NewStats computes mean, standard deviation, minimum and maximum of values.
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	min, max := values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(values))

	var sumSquaredDiffs float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiffs += diff * diff
	}

	minMaxRatio := 1.0
	if max > 0 {
		minMaxRatio = min / max
	}

	return Stats{
		StdDeviation: math.Sqrt(sumSquaredDiffs / float64(len(values))),
		Min:          min,
		Max:          max,
		Mean:         mean,
		MinMaxRatio:  minMaxRatio,
	}
}

type DistributionStats struct {
	Stats
	DistributionQuality float64 `json:"distribution_quality"`
}

// NewDistributionStats computes quality metrics for a distribution,
// e.g. the lengths of all hash chains. A quality of 1 means perfectly even.
func NewDistributionStats(sizes []float64) DistributionStats {
	stats := NewStats(sizes)

	var cv float64
	if stats.Mean > 0 {
		cv = stats.StdDeviation / stats.Mean
	}

	// lower CV and higher min/max ratio indicate better distribution
	quality := (1.0-math.Min(1.0, cv))*0.5 + stats.MinMaxRatio*0.5

	return DistributionStats{
		Stats:               stats,
		DistributionQuality: quality,
	}
}

// ----------------------------------------------------------------------------
// SizeHistogram
// ----------------------------------------------------------------------------

var sizeBoundaries = []int{
	16, 64, 256, 1024, 4096, // 16B to 4KB
	16384, 65536, 262144, 1048576, // 16KB to 1MB
	4194304, 16777216, 67108864, // 4MB to 64MB
	268435456, 1073741824, 4294967296, // 256MB to 4GB
}

// SizeHistogram tracks the distribution of data sizes.
// Samples can be removed again, so it always describes the live data set.
type SizeHistogram struct {
	buckets []int64
	count   int64
	sum     int64
}

func NewSizeHistogram() *SizeHistogram {
	return &SizeHistogram{buckets: make([]int64, len(sizeBoundaries)+1)}
}

func bucketIndex(size int) int {
	for i, boundary := range sizeBoundaries {
		if size <= boundary {
			return i
		}
	}
	return len(sizeBoundaries)
}

// AddSample records one value of the given size.
func (h *SizeHistogram) AddSample(size int) {
	h.buckets[bucketIndex(size)]++
	h.count++
	h.sum += int64(size)
}

// RemoveSample forgets one value of the given size that was added before.
func (h *SizeHistogram) RemoveSample(size int) {
	h.buckets[bucketIndex(size)]--
	h.count--
	h.sum -= int64(size)
}

func (h *SizeHistogram) GetCount() int64 { return h.count }

// Sum returns the total of all sizes.
func (h *SizeHistogram) Sum() int64 { return h.sum }

func (h *SizeHistogram) AverageSize() int {
	if h.count == 0 {
		return 0
	}
	return int(h.sum / h.count)
}

// GetPercentileEstimate returns an estimate for the given percentile (0-100)
func (h *SizeHistogram) GetPercentileEstimate(percentile int) int {
	if h.count == 0 || percentile < 0 || percentile > 100 {
		return 0
	}

	targetCount := int64(math.Ceil(float64(h.count) * float64(percentile) / 100.0))
	var cumulative int64

	for i, count := range h.buckets {
		cumulative += count
		if cumulative >= targetCount {
			switch {
			case i == 0:
				return sizeBoundaries[0] / 2
			case i < len(sizeBoundaries):
				return (sizeBoundaries[i-1] + sizeBoundaries[i]) / 2
			default:
				return sizeBoundaries[len(sizeBoundaries)-1] * 2
			}
		}
	}
	return int(h.sum / h.count)
}

func (h *SizeHistogram) Reset() {
	h.count = 0
	h.sum = 0
	for i := range h.buckets {
		h.buckets[i] = 0
	}
}
