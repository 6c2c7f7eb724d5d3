package bitcuckoo

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Filter is a cuckoo filter over a bit-packed table of fingerprints.
// It is not safe for concurrent use; see SyncFilter.
type Filter struct {
	params filterParams
	table  *bucketTable
	codec  *fingerprintCodec
	length uint64
	victim victim
	rng    *rand.Rand
	logger logrus.FieldLogger
}

// victim holds the fingerprint left over by an exhausted eviction walk,
// together with one of its two candidate buckets.
type victim struct {
	used        bool
	bucket      uint64
	fingerPrint uint64
}

// New creates a Filter sized for _capacity_ keys at false positive rate
// _errorRate_, with four slots per bucket.
func New(capacity uint64, errorRate float64) (*Filter, error) {
	return NewWithOptions(capacity, errorRate, Options{})
}

// NewWithBucketSize is New with _bucketSize_ slots per bucket.
func NewWithBucketSize(capacity uint64, errorRate float64, bucketSize uint64) (*Filter, error) {
	if bucketSize == 0 {
		return nil, &ConfigurationError{"bucket size", "must be positive"}
	}
	return NewWithOptions(capacity, errorRate, Options{BucketSize: bucketSize})
}

// NewWithOptions creates a Filter sized for _capacity_ keys at false
// positive rate _errorRate_. The bucket count is the smallest power of two
// that keeps the table at 95% load when full, and the fingerprint width is
// ceil(log2(1/errorRate) + log2(2*bucketSize)).
func NewWithOptions(capacity uint64, errorRate float64, opts Options) (*Filter, error) {
	p, err := opts.params(capacity, errorRate)
	if err != nil {
		return nil, err
	}
	return newFilter(p, opts), nil
}

func newFilter(p filterParams, opts Options) *Filter {
	return &Filter{
		params: p,
		table:  newBucketTable(p.numBuckets, p.bucketSize, p.fingerprintWidth),
		codec:  newFingerprintCodec(p),
		rng:    opts.random(),
		logger: opts.logger(),
	}
}

// Insert stores the fingerprint of _data_. It returns false when the
// eviction walk ran out of kicks; the filter stays consistent and keeps
// answering for every key stored before, but it should be rebuilt larger.
func (filter *Filter) Insert(data []byte) bool {
	fp, first, _ := filter.getPositions(data)
	return filter.insertFingerprint(fp, first)
}

// Add is Insert reporting exhaustion as ErrCapacityExhausted.
func (filter *Filter) Add(data []byte) error {
	if !filter.Insert(data) {
		return ErrCapacityExhausted
	}
	return nil
}

// InsertString is Insert for string keys.
func (filter *Filter) InsertString(data string) bool {
	return filter.Insert([]byte(data))
}

// Contains reports whether _data_ may have been inserted. A false answer
// is definite.
func (filter *Filter) Contains(data []byte) bool {
	fp, first, second := filter.getPositions(data)
	if _, ok := filter.table.find(first, fp); ok {
		return true
	}
	if _, ok := filter.table.find(second, fp); ok {
		return true
	}
	return filter.victimMatches(fp, first, second)
}

// ContainsString is Contains for string keys.
func (filter *Filter) ContainsString(data string) bool {
	return filter.Contains([]byte(data))
}

// Delete clears one slot holding the fingerprint of _data_ and reports
// whether it found one. Only delete keys that were inserted: a key sharing
// both fingerprint and buckets with another key removes that key's entry.
func (filter *Filter) Delete(data []byte) bool {
	fp, first, _ := filter.getPositions(data)
	return filter.deleteFingerprint(fp, first)
}

// DeleteString is Delete for string keys.
func (filter *Filter) DeleteString(data string) bool {
	return filter.Delete([]byte(data))
}

// NumBuckets returns the number of buckets, always a power of two.
func (filter *Filter) NumBuckets() uint64 {
	return filter.params.numBuckets
}

// BucketSize returns the number of slots per bucket.
func (filter *Filter) BucketSize() uint64 {
	return filter.params.bucketSize
}

// FingerprintWidth returns the fingerprint size in bits.
func (filter *Filter) FingerprintWidth() uint64 {
	return filter.params.fingerprintWidth
}

// CellSize returns the total number of slots.
func (filter *Filter) CellSize() uint64 {
	return filter.params.numBuckets * filter.params.bucketSize
}

// MaxKicks returns the bound on relocations per insert.
func (filter *Filter) MaxKicks() uint64 {
	return filter.params.maxKicks
}

// Hash returns the hash family the filter was built with.
func (filter *Filter) Hash() HashKind {
	return filter.params.hash
}

// Length returns the number of stored fingerprints.
func (filter *Filter) Length() uint64 {
	return filter.length
}

// LoadFactor returns Length / CellSize.
func (filter *Filter) LoadFactor() float64 {
	return float64(filter.length) / float64(filter.CellSize())
}

// FalsePositiveRate returns the upper bound 2*bucketSize / 2^width on the
// false positive probability of a full filter.
func (filter *Filter) FalsePositiveRate() float64 {
	return math.Pow(2, math.Log2(float64(2*filter.params.bucketSize))-float64(filter.params.fingerprintWidth))
}

// HasVictim reports whether a fingerprint is parked outside the table
// after an exhausted insert. The next delete, or the next insert that
// needs a walk, tries to move it back.
func (filter *Filter) HasVictim() bool {
	return filter.victim.used
}

// Reset empties the filter.
func (filter *Filter) Reset() {
	filter.table.reset()
	filter.victim = victim{}
	filter.length = 0
}

// Equals checks if two filters have the same layout and content.
func (filter *Filter) Equals(other *Filter) bool {
	if other == nil {
		return false
	}
	return filter.params == other.params &&
		filter.length == other.length &&
		filter.victim == other.victim &&
		filter.table.equal(other.table)
}
