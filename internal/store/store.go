// Package store wraps the Redis primitives the repositories are built
// on: flat string hashes, membership sets, unique-lookup maps, and a
// geospatial index. All values are strings; type coercion belongs to
// the repository layer.
//
// The handle is injected into each repository rather than held as a
// package global, and connection-level failures are reported as
// ErrUnavailable so callers can degrade instead of crashing.
package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrUnavailable indicates the store could not be reached. Reads
	// should degrade to empty results at the boundary; writes surface
	// as a 5xx.
	ErrUnavailable = errors.New("store unavailable")

	// ErrConflict indicates a compare-and-swap lost: the watched field
	// no longer held the expected value when the transaction ran.
	ErrConflict = errors.New("store conflict")
)

// Store is a typed handle over a Redis connection.
type Store struct {
	client *redis.Client
}

// New connects to Redis at the given URL (redis://host:port).
func New(url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Store{client: redis.NewClient(opts)}, nil
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.wrap("ping", s.client.Ping(ctx).Err())
}

// wrap normalizes errors: connection-level failures become
// ErrUnavailable, everything else keeps its cause.
func (s *Store) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if isUnavailable(err) {
		return fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, redis.ErrClosed) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// --- Hash operations ---

// SetFields sets the given fields on a hash, creating it if absent.
func (s *Store) SetFields(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return s.wrap("hset "+key, s.client.HSet(ctx, key, fields).Err())
}

// GetFields returns all fields of a hash. A missing key yields an
// empty map, not an error.
func (s *Store) GetFields(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, s.wrap("hgetall "+key, err)
	}
	return fields, nil
}

// Delete removes keys entirely.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	return s.wrap("del", s.client.Del(ctx, keys...).Err())
}

// --- Set operations ---

// AddToSet adds a member to a set.
func (s *Store) AddToSet(ctx context.Context, set, member string) error {
	return s.wrap("sadd "+set, s.client.SAdd(ctx, set, member).Err())
}

// RemoveFromSet removes a member from a set. Removing an absent member
// is a no-op.
func (s *Store) RemoveFromSet(ctx context.Context, set, member string) error {
	return s.wrap("srem "+set, s.client.SRem(ctx, set, member).Err())
}

// SetMembers returns all members of a set.
func (s *Store) SetMembers(ctx context.Context, set string) ([]string, error) {
	members, err := s.client.SMembers(ctx, set).Result()
	if err != nil {
		return nil, s.wrap("smembers "+set, err)
	}
	return members, nil
}

// SetCardinality returns the number of members in a set.
func (s *Store) SetCardinality(ctx context.Context, set string) (int64, error) {
	n, err := s.client.SCard(ctx, set).Result()
	if err != nil {
		return 0, s.wrap("scard "+set, err)
	}
	return n, nil
}

// --- Unique-lookup map operations ---

// MapSet records field -> value in a lookup hash.
func (s *Store) MapSet(ctx context.Context, key, field, value string) error {
	return s.wrap("hset "+key, s.client.HSet(ctx, key, field, value).Err())
}

// MapGet returns the value for a field, or "" if the field is absent.
func (s *Store) MapGet(ctx context.Context, key, field string) (string, error) {
	value, err := s.client.HGet(ctx, key, field).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", s.wrap("hget "+key, err)
	}
	return value, nil
}

// MapDel removes fields from a lookup hash.
func (s *Store) MapDel(ctx context.Context, key string, fields ...string) error {
	return s.wrap("hdel "+key, s.client.HDel(ctx, key, fields...).Err())
}

// --- Geospatial index operations ---

// GeoIndex adds (or moves) a member at the given coordinates.
func (s *Store) GeoIndex(ctx context.Context, index, member string, lng, lat float64) error {
	err := s.client.GeoAdd(ctx, index, &redis.GeoLocation{
		Name:      member,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
	return s.wrap("geoadd "+index, err)
}

// GeoRemove drops a member from the index. The geo index is a sorted
// set underneath, so removal is a plain ZREM.
func (s *Store) GeoRemove(ctx context.Context, index, member string) error {
	return s.wrap("zrem "+index, s.client.ZRem(ctx, index, member).Err())
}

// GeoQuery returns members within radiusKm of the given point,
// nearest first. The radius is inclusive at the boundary.
func (s *Store) GeoQuery(ctx context.Context, index string, lng, lat, radiusKm float64) ([]string, error) {
	locs, err := s.client.GeoRadius(ctx, index, lng, lat, &redis.GeoRadiusQuery{
		Radius:   radiusKm,
		Unit:     "km",
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, s.wrap("georadius "+index, err)
	}
	// Sort client-side: nearest first, ties stable in server return order.
	sort.SliceStable(locs, func(i, j int) bool { return locs[i].Dist < locs[j].Dist })
	members := make([]string, len(locs))
	for i, loc := range locs {
		members[i] = loc.Name
	}
	return members, nil
}
