package bitcuckoo

import (
	"encoding/binary"

	"github.com/kwertop/bitcuckoo/internal/hash"
)

// fingerprintCodec turns keys into fingerprints and bucket indices.
// Bucket indices are reduced with a mask, which is the same as taking
// them modulo the bucket count because that count is a power of two.
type fingerprintCodec struct {
	hashFunc   hash.Func
	seeds      [3]uint64
	mask       uint64
	bucketMask uint64
}

func newFingerprintCodec(p filterParams) *fingerprintCodec {
	hashFunc, _ := p.hash.hashFunc()
	return &fingerprintCodec{
		hashFunc:   hashFunc,
		seeds:      p.seeds,
		mask:       1<<p.fingerprintWidth - 1,
		bucketMask: p.numBuckets - 1,
	}
}

// fingerprint returns the low bits of the key hash. Zero marks an empty
// slot, so a zero fingerprint is mapped to one.
func (codec *fingerprintCodec) fingerprint(data []byte) uint64 {
	fp := codec.hashFunc(data, codec.seeds[0]) & codec.mask
	if fp == 0 {
		return 1
	}
	return fp
}

func (codec *fingerprintCodec) primaryIndex(data []byte) uint64 {
	return codec.hashFunc(data, codec.seeds[1]) & codec.bucketMask
}

// altIndex maps a bucket to the other candidate bucket of fingerprint fp.
// It is its own inverse: altIndex(altIndex(i, fp), fp) == i.
func (codec *fingerprintCodec) altIndex(bucket uint64, fp uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], fp)
	return (bucket ^ codec.hashFunc(buf[:], codec.seeds[2])) & codec.bucketMask
}
