package bitcuckoo

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/kwertop/bitcuckoo/internal/hash"
	"github.com/kwertop/bitcuckoo/internal/util"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultBucketSize is the number of fingerprint slots per bucket.
	DefaultBucketSize = 4
	// DefaultMaxKicks bounds the eviction walk of a single insert.
	DefaultMaxKicks = 500

	maxFingerprintWidth = 64
)

// HashKind selects the seeded hash family used for fingerprints and
// bucket indices. It is part of the serialized state: a filter can only
// be queried with the hash it was built with.
type HashKind int

const (
	// HashMetro is metrohash64, the default.
	HashMetro HashKind = iota
	// HashXXH3 is the 64-bit xxh3 hash.
	HashXXH3
	// HashMurmur3 is the first half of murmur3 x64 128-bit.
	HashMurmur3
)

func (kind HashKind) String() string {
	switch kind {
	case HashMetro:
		return "metro"
	case HashXXH3:
		return "xxh3"
	case HashMurmur3:
		return "murmur3"
	default:
		return fmt.Sprintf("HashKind(%d)", int(kind))
	}
}

func (kind HashKind) hashFunc() (hash.Func, bool) {
	switch kind {
	case HashMetro:
		return hash.Metro, true
	case HashXXH3:
		return hash.XXH3, true
	case HashMurmur3:
		return hash.Murmur3, true
	default:
		return nil, false
	}
}

func parseHashKind(s string) (HashKind, error) {
	for _, kind := range []HashKind{HashMetro, HashXXH3, HashMurmur3} {
		if kind.String() == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown hash %q", ErrCorruptData, s)
}

// defaultSeeds are the seeds for the fingerprint, primary index and
// alternate index hashes, in that order.
var defaultSeeds = [3]uint64{0, 1, 2}

// Options tunes a filter beyond capacity and error rate. The zero value
// gives four slots per bucket, 500 kicks, metrohash with seeds 0, 1, 2, a
// clock-seeded random source and no logging.
type Options struct {
	// BucketSize is the number of slots per bucket.
	BucketSize uint64

	// MaxKicks bounds the eviction walk.
	MaxKicks uint64

	// Hash selects the hash family.
	Hash HashKind

	// Seeds must be nil or hold three values: fingerprint, primary index
	// and alternate index seed.
	Seeds []uint64

	// Rand drives victim selection during eviction. Pass a seeded source
	// for reproducible placement.
	Rand *rand.Rand

	// Logger receives eviction and exhaustion entries. Nil discards them.
	Logger logrus.FieldLogger
}

// filterParams is everything that determines the table layout and the
// position of a key. It is what gets persisted next to the packed table.
type filterParams struct {
	numBuckets       uint64
	bucketSize       uint64
	fingerprintWidth uint64
	maxKicks         uint64
	hash             HashKind
	seeds            [3]uint64
}

func (opts Options) params(capacity uint64, errorRate float64) (filterParams, error) {
	if capacity == 0 {
		return filterParams{}, &ConfigurationError{"capacity", "must be positive"}
	}
	if math.IsNaN(errorRate) || errorRate <= 0 || errorRate >= 1 {
		return filterParams{}, &ConfigurationError{"error rate", fmt.Sprintf("%v is outside (0, 1)", errorRate)}
	}
	p := filterParams{
		bucketSize: opts.BucketSize,
		maxKicks:   opts.MaxKicks,
		hash:       opts.Hash,
		seeds:      defaultSeeds,
	}
	if p.bucketSize == 0 {
		p.bucketSize = DefaultBucketSize
	}
	if p.maxKicks == 0 {
		p.maxKicks = DefaultMaxKicks
	}
	if opts.Seeds != nil {
		if len(opts.Seeds) != len(p.seeds) {
			return filterParams{}, &ConfigurationError{"seeds", fmt.Sprintf("want %d seeds, got %d", len(p.seeds), len(opts.Seeds))}
		}
		copy(p.seeds[:], opts.Seeds)
	}
	p.fingerprintWidth = util.CalculateFingerprintWidth(p.bucketSize, errorRate)
	p.numBuckets = util.CalculateNumBuckets(capacity, p.bucketSize)
	if err := p.validate(); err != nil {
		return filterParams{}, err
	}
	return p, nil
}

func (p filterParams) validate() error {
	if !util.IsPowerOfTwo(p.numBuckets) {
		return &ConfigurationError{"bucket count", fmt.Sprintf("%d is not a power of two", p.numBuckets)}
	}
	if p.bucketSize == 0 {
		return &ConfigurationError{"bucket size", "must be positive"}
	}
	if p.fingerprintWidth == 0 || p.fingerprintWidth > maxFingerprintWidth {
		return &ConfigurationError{"fingerprint width", fmt.Sprintf("%d bits is outside [1, %d]", p.fingerprintWidth, maxFingerprintWidth)}
	}
	if _, ok := p.hash.hashFunc(); !ok {
		return &ConfigurationError{"hash", p.hash.String()}
	}
	cells := p.numBuckets * p.bucketSize
	if cells/p.bucketSize != p.numBuckets || (cells*p.fingerprintWidth)/p.fingerprintWidth != cells {
		return &ConfigurationError{"capacity", "table size overflows"}
	}
	return nil
}

func (opts Options) random() *rand.Rand {
	if opts.Rand != nil {
		return opts.Rand
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func (opts Options) logger() logrus.FieldLogger {
	if opts.Logger != nil {
		return opts.Logger
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
