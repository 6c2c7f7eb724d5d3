// Package hash provides the seeded 64-bit hash functions used to derive
// fingerprints and bucket indices.
package hash

import (
	"github.com/dgryski/go-metro"
	"github.com/zeebo/xxh3"
)

// Func hashes data under seed. Two calls with the same data and seed
// must return the same value, across processes and platforms.
type Func func(data []byte, seed uint64) uint64

// Metro is metrohash64.
func Metro(data []byte, seed uint64) uint64 {
	return metro.Hash64(data, seed)
}

// XXH3 is the 64-bit xxh3 hash.
func XXH3(data []byte, seed uint64) uint64 {
	return xxh3.HashSeed(data, seed)
}

// Murmur3 returns the first half of the seeded murmur3 x64 128-bit hash.
func Murmur3(data []byte, seed uint64) uint64 {
	h1, _ := Sum128(data, seed)
	return h1
}
