/*
Package bitcuckoo implements a cuckoo filter whose fingerprints are packed
bit by bit into one fixed-size table.

A Cuckoo filter is a data structure used for approximate set membership queries, similar to a
Bloom filter. Unlike a Bloom filter it supports deletion. Each key is reduced to an f-bit
fingerprint that may live in one of two buckets; the second bucket is derived from the first
and the fingerprint alone (partial-key cuckoo hashing), so entries can be moved and deleted
without knowing their keys. When both buckets of a new key are full, resident fingerprints are
relocated along a random walk of at most MaxKicks steps.
Refer: https://www.cs.cmu.edu/~dga/papers/cuckoo-conext2014.pdf

The table never grows. An insert that cannot find room returns false (or ErrCapacityExhausted
from Add); the filter keeps answering correctly for everything stored before and has to be
rebuilt larger to accept more keys.

Filter is not safe for concurrent use. SyncFilter wraps it with a single lock.

Filters can be written to streams (WriteTo, ReadFrom), marshalled (MarshalBinary, Export) and
persisted to Redis with RedisStore.
*/
package bitcuckoo
