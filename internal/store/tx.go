package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Tx batches writes into a single MULTI/EXEC so composite index
// updates (hash + sets + geo index) land together. Redis transactions
// are all-or-nothing once queued, which is exactly what the
// "available set and geo index mutate in lockstep" invariant needs.
type Tx struct {
	ctx  context.Context
	pipe redis.Pipeliner
}

// SetFields queues a hash write.
func (t *Tx) SetFields(key string, fields map[string]string) {
	if len(fields) > 0 {
		t.pipe.HSet(t.ctx, key, fields)
	}
}

// AddToSet queues a set insertion.
func (t *Tx) AddToSet(set, member string) {
	t.pipe.SAdd(t.ctx, set, member)
}

// RemoveFromSet queues a set removal.
func (t *Tx) RemoveFromSet(set, member string) {
	t.pipe.SRem(t.ctx, set, member)
}

// MapSet queues a lookup-map write.
func (t *Tx) MapSet(key, field, value string) {
	t.pipe.HSet(t.ctx, key, field, value)
}

// MapDel queues lookup-map field removals.
func (t *Tx) MapDel(key string, fields ...string) {
	t.pipe.HDel(t.ctx, key, fields...)
}

// GeoIndex queues a geo-index insertion.
func (t *Tx) GeoIndex(index, member string, lng, lat float64) {
	t.pipe.GeoAdd(t.ctx, index, &redis.GeoLocation{
		Name:      member,
		Longitude: lng,
		Latitude:  lat,
	})
}

// GeoRemove queues a geo-index removal.
func (t *Tx) GeoRemove(index, member string) {
	t.pipe.ZRem(t.ctx, index, member)
}

// Delete queues key deletions.
func (t *Tx) Delete(keys ...string) {
	t.pipe.Del(t.ctx, keys...)
}

// Update runs fn inside a MULTI/EXEC transaction.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx)) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fn(&Tx{ctx: ctx, pipe: pipe})
		return nil
	})
	return s.wrap("tx", err)
}

// ClaimField is an optimistic compare-and-swap: it WATCHes key, checks
// that field currently holds want, and atomically sets it to next
// along with whatever fn queues. If the field holds a different value,
// the key is missing, or a concurrent writer touched the key first,
// ErrConflict is returned and nothing is written.
func (s *Store) ClaimField(ctx context.Context, key, field, want, next string, fn func(tx *Tx)) error {
	err := s.client.Watch(ctx, func(wtx *redis.Tx) error {
		current, err := wtx.HGet(ctx, key, field).Result()
		if err == redis.Nil {
			return ErrConflict
		}
		if err != nil {
			return err
		}
		if current != want {
			return ErrConflict
		}
		_, err = wtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, field, next)
			fn(&Tx{ctx: ctx, pipe: pipe})
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	if errors.Is(err, ErrConflict) {
		return ErrConflict
	}
	return s.wrap("claim "+key, err)
}
