package bitcuckoo

// getPositions returns the fingerprint of data and its two candidate
// buckets. Every public operation starts here.
func (filter *Filter) getPositions(data []byte) (uint64, uint64, uint64) {
	fp := filter.codec.fingerprint(data)
	first := filter.codec.primaryIndex(data)
	return fp, first, filter.codec.altIndex(first, fp)
}

// candidates returns the two buckets of a fingerprint given either one.
func (filter *Filter) candidates(bucket uint64, fp uint64) [2]uint64 {
	return [2]uint64{bucket, filter.codec.altIndex(bucket, fp)}
}
