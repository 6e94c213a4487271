// Package database implements the entity repositories on top of the
// key/value store adapter. Each repository is the sole writer of its
// entity's hash and index memberships; the all-strings representation
// of the store is confined to the encode/decode pair in each file.
package database

import (
	"strconv"
	"time"

	"github.com/fasthelp/fasthelp/internal/geo"
	"github.com/fasthelp/fasthelp/internal/store"
)

// Key namespace. Kept byte-compatible with prior deployments.
const (
	setUsersAll       = "users:all"
	setUsersPending   = "users:pending"
	mapUsersEmail     = "users:email"
	mapUsersUsername  = "users:username"
	setDonationsAll   = "donations:all"
	setDonationsAvail = "donations:available"
	setDonationsTaken = "donations:picked_up"
	idxDonationsGeo   = "donations:geo"
	setPickupsAll     = "pickups:all"
	mapSubscribers    = "notifications:subscribers"
	setActiveEmails   = "notifications:active_emails"
)

func keyUser(id string) string     { return "user:" + id }
func keyDonation(id string) string { return "donation:" + id }
func keyPickup(id string) string   { return "pickup:" + id }
func keySetting(typ string) string { return "setting:" + typ }

// DB bundles the store handle with the configured service area.
type DB struct {
	store *store.Store
	area  geo.Box
}

// New creates the repository layer over an injected store handle.
func New(s *store.Store, area geo.Box) *DB {
	return &DB{store: s, area: area}
}

// Store exposes the underlying handle (health checks, stats).
func (db *DB) Store() *store.Store {
	return db.store
}

// --- string coercion helpers shared by the entity codecs ---

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func encodeFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func decodeFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
