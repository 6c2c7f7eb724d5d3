// Package util holds the sizing arithmetic shared by the filter and its
// decoders.
package util

import (
	"math"
	"math/bits"
)

// TargetLoadFactor is the table occupancy the sizing aims for. With four
// slots per bucket the eviction walk keeps succeeding up to about 95%.
const TargetLoadFactor = 0.95

// CalculateFingerprintWidth returns the number of fingerprint bits needed so
// that a filter with _bucketSize_ slots per bucket stays under _errorRate_:
// ceil(log2(1/errorRate) + log2(2*bucketSize)).
func CalculateFingerprintWidth(bucketSize uint64, errorRate float64) uint64 {
	return uint64(math.Ceil(math.Log2(1/errorRate) + math.Log2(float64(2*bucketSize))))
}

// CalculateNumBuckets returns the smallest power of two that holds
// _capacity_ fingerprints at TargetLoadFactor.
func CalculateNumBuckets(capacity, bucketSize uint64) uint64 {
	n := uint64(math.Ceil(float64(capacity) / (TargetLoadFactor * float64(bucketSize))))
	return NextPowerOfTwo(n)
}

// NextPowerOfTwo rounds n up to a power of two. Zero rounds to one.
func NextPowerOfTwo(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len64(n-1)
}

// IsPowerOfTwo reports whether n is a non-zero power of two.
func IsPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}
