package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewWithClient(client)
}

func TestFieldsRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	err := s.SetFields(ctx, "user:abc", map[string]string{
		"id":    "abc",
		"email": "a@b.com",
	})
	require.NoError(t, err)

	fields, err := s.GetFields(ctx, "user:abc")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", fields["email"])

	// Merge semantics: a second write keeps untouched fields.
	require.NoError(t, s.SetFields(ctx, "user:abc", map[string]string{"phone": "555"}))
	fields, err = s.GetFields(ctx, "user:abc")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", fields["email"])
	assert.Equal(t, "555", fields["phone"])
}

func TestGetFieldsMissingKey(t *testing.T) {
	s := setupStore(t)

	fields, err := s.GetFields(context.Background(), "user:nope")
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestSetOperations(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToSet(ctx, "users:all", "u1"))
	require.NoError(t, s.AddToSet(ctx, "users:all", "u2"))
	require.NoError(t, s.AddToSet(ctx, "users:all", "u2")) // idempotent

	members, err := s.SetMembers(ctx, "users:all")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, members)

	n, err := s.SetCardinality(ctx, "users:all")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, s.RemoveFromSet(ctx, "users:all", "u1"))
	require.NoError(t, s.RemoveFromSet(ctx, "users:all", "missing")) // no-op

	n, err = s.SetCardinality(ctx, "users:all")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestLookupMap(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.MapSet(ctx, "users:email", "a@b.com", "u1"))

	id, err := s.MapGet(ctx, "users:email", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	// Absent field is empty string, not an error.
	id, err = s.MapGet(ctx, "users:email", "nobody@b.com")
	require.NoError(t, err)
	assert.Equal(t, "", id)

	require.NoError(t, s.MapDel(ctx, "users:email", "a@b.com"))
	id, err = s.MapGet(ctx, "users:email", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "", id)
}

func TestGeoQueryOrderAndRadius(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	// Downtown Austin as the query point; members at increasing distance.
	center := struct{ lat, lng float64 }{30.2672, -97.7431}
	require.NoError(t, s.GeoIndex(ctx, "donations:geo", "near", -97.7430, 30.2675))    // ~30 m
	require.NoError(t, s.GeoIndex(ctx, "donations:geo", "mid", -97.7000, 30.3000))     // ~5.5 km
	require.NoError(t, s.GeoIndex(ctx, "donations:geo", "far", -97.6664, 30.1975))     // ~10.5 km
	require.NoError(t, s.GeoIndex(ctx, "donations:geo", "houston", -95.3698, 29.7604)) // ~235 km

	got, err := s.GeoQuery(ctx, "donations:geo", center.lng, center.lat, 15)
	require.NoError(t, err)
	assert.Equal(t, []string{"near", "mid", "far"}, got)

	// Tighter radius excludes the far member.
	got, err = s.GeoQuery(ctx, "donations:geo", center.lng, center.lat, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"near", "mid"}, got)

	// Empty result, not an error, when nothing is in range.
	got, err = s.GeoQuery(ctx, "donations:geo", 0, 0, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGeoRemove(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.GeoIndex(ctx, "donations:geo", "d1", -97.7431, 30.2672))
	require.NoError(t, s.GeoRemove(ctx, "donations:geo", "d1"))

	got, err := s.GeoQuery(ctx, "donations:geo", -97.7431, 30.2672, 100)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateTransaction(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(tx *Tx) {
		tx.SetFields("donation:d1", map[string]string{"status": "available"})
		tx.AddToSet("donations:available", "d1")
		tx.GeoIndex("donations:geo", "d1", -97.7431, 30.2672)
	})
	require.NoError(t, err)

	fields, err := s.GetFields(ctx, "donation:d1")
	require.NoError(t, err)
	assert.Equal(t, "available", fields["status"])

	members, err := s.SetMembers(ctx, "donations:available")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, members)

	got, err := s.GeoQuery(ctx, "donations:geo", -97.7431, 30.2672, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, got)
}

func TestClaimField(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetFields(ctx, "donation:d1", map[string]string{"status": "available"}))
	require.NoError(t, s.AddToSet(ctx, "donations:available", "d1"))

	err := s.ClaimField(ctx, "donation:d1", "status", "available", "picked_up", func(tx *Tx) {
		tx.RemoveFromSet("donations:available", "d1")
		tx.AddToSet("donations:picked_up", "d1")
	})
	require.NoError(t, err)

	fields, err := s.GetFields(ctx, "donation:d1")
	require.NoError(t, err)
	assert.Equal(t, "picked_up", fields["status"])

	n, err := s.SetCardinality(ctx, "donations:available")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	// Second claim loses the compare-and-swap.
	err = s.ClaimField(ctx, "donation:d1", "status", "available", "picked_up", func(tx *Tx) {})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestClaimFieldMissingKey(t *testing.T) {
	s := setupStore(t)

	err := s.ClaimField(context.Background(), "donation:nope", "status", "available", "picked_up", func(tx *Tx) {})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUnavailableStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	s := NewWithClient(client)

	mr.Close()

	_, err := s.GetFields(context.Background(), "user:abc")
	assert.ErrorIs(t, err, ErrUnavailable)

	err = s.SetFields(context.Background(), "user:abc", map[string]string{"a": "b"})
	assert.ErrorIs(t, err, ErrUnavailable)
}
