package bitcuckoo

import (
	"github.com/sirupsen/logrus"
)

// place writes fp into the first empty slot of bucket.
func (filter *Filter) place(bucket uint64, fp uint64) bool {
	slot, ok := filter.table.findEmpty(bucket)
	if !ok {
		return false
	}
	filter.table.write(bucket, slot, fp)
	return true
}

// placeEither writes fp into the first of its two buckets with room.
func (filter *Filter) placeEither(buckets [2]uint64, fp uint64) bool {
	return filter.place(buckets[0], fp) || filter.place(buckets[1], fp)
}

// relocate runs the random walk for fp, starting from one of its two full
// buckets. Each kick swaps the carried fingerprint with a random resident
// of the current bucket and moves on to the alternate bucket of the
// evicted one. Swaps are never undone: every fingerprint only ever moves
// between its own two buckets, so the table stays valid. When the kicks
// run out it returns the fingerprint still carried and the bucket it was
// evicted from.
func (filter *Filter) relocate(buckets [2]uint64, fp uint64) (uint64, uint64, bool) {
	bucket := buckets[filter.rng.Intn(2)]
	carried := fp
	for kick := uint64(1); kick <= filter.params.maxKicks; kick++ {
		slot := uint64(filter.rng.Int63n(int64(filter.params.bucketSize)))
		evicted := filter.table.read(bucket, slot)
		filter.table.write(bucket, slot, carried)
		carried = evicted
		bucket = filter.codec.altIndex(bucket, carried)
		if filter.place(bucket, carried) {
			filter.logger.WithField("kicks", kick).Debug("bitcuckoo: relocated fingerprints")
			return bucket, 0, true
		}
	}
	return bucket, carried, false
}

// insertFingerprint stores fp, whose primary bucket is first. A parked
// victim goes back into the table first; if it does not fit, fp is
// rejected and the victim stays parked.
func (filter *Filter) insertFingerprint(fp uint64, first uint64) bool {
	buckets := filter.candidates(first, fp)
	if filter.placeEither(buckets, fp) {
		filter.length++
		return true
	}
	if filter.victim.used {
		if !filter.rehomeVictim() {
			return false
		}
		if filter.placeEither(buckets, fp) {
			filter.length++
			return true
		}
	}

	bucket, carried, ok := filter.relocate(buckets, fp)
	filter.length++
	if ok {
		return true
	}
	// The walk placed fp but is left holding another fingerprint. Park it
	// so that the key it belongs to is still found.
	filter.victim = victim{used: true, bucket: bucket, fingerPrint: carried}
	filter.logger.WithFields(logrus.Fields{
		"kicks":  filter.params.maxKicks,
		"bucket": bucket,
		"length": filter.length,
	}).Warn("bitcuckoo: eviction walk exhausted, filter is full")
	return false
}

// deleteFingerprint clears one copy of fp from its candidate buckets,
// searching the primary bucket first, then the victim slot.
func (filter *Filter) deleteFingerprint(fp uint64, first uint64) bool {
	buckets := filter.candidates(first, fp)
	for _, bucket := range buckets {
		if slot, ok := filter.table.find(bucket, fp); ok {
			filter.table.write(bucket, slot, 0)
			filter.length--
			filter.rehomeVictim()
			return true
		}
	}
	if filter.victimMatches(fp, buckets[0], buckets[1]) {
		filter.victim = victim{}
		filter.length--
		return true
	}
	return false
}

func (filter *Filter) victimMatches(fp uint64, first, second uint64) bool {
	v := filter.victim
	return v.used && v.fingerPrint == fp && (v.bucket == first || v.bucket == second)
}

// rehomeVictim moves the parked fingerprint back into the table, walking
// if both of its buckets are full. It reports whether the victim slot is
// free afterwards. A failed walk parks whatever fingerprint it ends up
// carrying.
func (filter *Filter) rehomeVictim() bool {
	if !filter.victim.used {
		return true
	}
	v := filter.victim
	filter.victim = victim{}
	buckets := filter.candidates(v.bucket, v.fingerPrint)
	if filter.placeEither(buckets, v.fingerPrint) {
		filter.logger.WithField("bucket", v.bucket).Debug("bitcuckoo: victim moved back into table")
		return true
	}
	bucket, carried, ok := filter.relocate(buckets, v.fingerPrint)
	if !ok {
		filter.victim = victim{used: true, bucket: bucket, fingerPrint: carried}
		filter.logger.WithField("length", filter.length).Debug("bitcuckoo: victim still parked, filter is full")
		return false
	}
	filter.logger.WithField("bucket", bucket).Debug("bitcuckoo: victim moved back into table")
	return true
}
