package bitcuckoo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrFilterNotFound is returned by RedisStore.Load when nothing is stored
// under the key.
var ErrFilterNotFound = errors.New("bitcuckoo: no filter stored at key")

// RedisStore persists filters in Redis. The filter metadata is a hash at
// the filter key and the packed table is a string at "<key>:table". Both
// are written in one MULTI/EXEC transaction so a reader never sees a
// table that does not match its metadata.
type RedisStore struct {
	client *redis.Client
	logger logrus.FieldLogger
}

// NewRedisStore creates a RedisStore on top of _client_.
func NewRedisStore(client *redis.Client, logger logrus.FieldLogger) *RedisStore {
	if logger == nil {
		logger = Options{}.logger()
	}
	return &RedisStore{client: client, logger: logger}
}

func tableKey(key string) string {
	return key + ":table"
}

// Save stores _filter_ under _key_, replacing whatever was there.
func (store *RedisStore) Save(ctx context.Context, key string, filter *Filter) error {
	h := filter.header()
	metadata := map[string]interface{}{
		"numBuckets":        h.NumBuckets,
		"bucketSize":        h.BucketSize,
		"fingerprintWidth":  h.FingerprintWidth,
		"maxKicks":          h.MaxKicks,
		"hash":              filter.params.hash.String(),
		"seed0":             h.Seeds[0],
		"seed1":             h.Seeds[1],
		"seed2":             h.Seeds[2],
		"length":            h.Length,
		"victimUsed":        h.VictimUsed,
		"victimBucket":      h.VictimBucket,
		"victimFingerprint": h.VictimFingerprint,
	}
	table := filter.table.bytes()
	_, err := store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key, tableKey(key))
		pipe.HSet(ctx, key, metadata)
		pipe.Set(ctx, tableKey(key), table, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("bitcuckoo: error while saving filter to redis key %s: %w", key, err)
	}
	store.logger.WithFields(logrus.Fields{
		"key":    key,
		"length": h.Length,
		"bytes":  len(table),
	}).Info("bitcuckoo: filter saved to redis")
	return nil
}

// Load reads the filter stored under _key_. Only Rand and Logger of
// _opts_ are used; the layout comes from the stored metadata.
func (store *RedisStore) Load(ctx context.Context, key string, opts Options) (*Filter, error) {
	values, err := store.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("bitcuckoo: error while fetching hash from redis, error: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w %s", ErrFilterNotFound, key)
	}
	table, err := store.client.Get(ctx, tableKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: table missing for key %s", ErrCorruptData, key)
	}
	if err != nil {
		return nil, fmt.Errorf("bitcuckoo: error while fetching table from redis: %w", err)
	}
	h, err := parseRedisMetadata(values)
	if err != nil {
		return nil, err
	}
	h.TableBytes = uint64(len(table))
	filter := &Filter{rng: opts.random(), logger: opts.logger()}
	if err := filter.restore(h, table); err != nil {
		return nil, err
	}
	store.logger.WithFields(logrus.Fields{
		"key":    key,
		"length": filter.length,
	}).Info("bitcuckoo: filter loaded from redis")
	return filter, nil
}

// Delete removes the filter stored under _key_.
func (store *RedisStore) Delete(ctx context.Context, key string) error {
	if err := store.client.Del(ctx, key, tableKey(key)).Err(); err != nil {
		return fmt.Errorf("bitcuckoo: error while deleting redis key %s: %w", key, err)
	}
	return nil
}

func parseRedisMetadata(values map[string]string) (filterHeader, error) {
	var h filterHeader
	fields := []struct {
		name string
		dst  *uint64
	}{
		{"numBuckets", &h.NumBuckets},
		{"bucketSize", &h.BucketSize},
		{"fingerprintWidth", &h.FingerprintWidth},
		{"maxKicks", &h.MaxKicks},
		{"seed0", &h.Seeds[0]},
		{"seed1", &h.Seeds[1]},
		{"seed2", &h.Seeds[2]},
		{"length", &h.Length},
		{"victimUsed", &h.VictimUsed},
		{"victimBucket", &h.VictimBucket},
		{"victimFingerprint", &h.VictimFingerprint},
	}
	for _, field := range fields {
		value, ok := values[field.name]
		if !ok {
			return h, fmt.Errorf("%w: metadata field %s missing", ErrCorruptData, field.name)
		}
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return h, fmt.Errorf("%w: metadata field %s: %v", ErrCorruptData, field.name, err)
		}
		*field.dst = v
	}
	kind, err := parseHashKind(values["hash"])
	if err != nil {
		return h, err
	}
	h.Hash = uint64(kind)
	return h, nil
}
