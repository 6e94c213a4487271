package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fasthelp/fasthelp/internal/store"
	"github.com/fasthelp/fasthelp/pkg/models"
)

// Subscribe adds an email to the notification list. Subscribing twice
// is a no-op: the first record stands and created is false.
func (db *DB) Subscribe(ctx context.Context, email string) (created bool, err error) {
	existing, err := db.store.MapGet(ctx, mapSubscribers, email)
	if err != nil {
		return false, err
	}
	if existing != "" {
		return false, nil
	}

	sub := models.Subscriber{
		Email:        email,
		SubscribedAt: time.Now(),
		Active:       true,
	}
	blob, err := json.Marshal(sub)
	if err != nil {
		return false, fmt.Errorf("encode subscriber: %w", err)
	}

	err = db.store.Update(ctx, func(tx *store.Tx) {
		tx.MapSet(mapSubscribers, email, string(blob))
		tx.AddToSet(setActiveEmails, email)
	})
	if err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}
	return true, nil
}

// Unsubscribe removes an email from the notification list. An email
// that is not currently subscribed yields ErrNotFound.
func (db *DB) Unsubscribe(ctx context.Context, email string) error {
	existing, err := db.store.MapGet(ctx, mapSubscribers, email)
	if err != nil {
		return err
	}
	if existing == "" {
		return ErrNotFound
	}
	return db.store.Update(ctx, func(tx *store.Tx) {
		tx.MapDel(mapSubscribers, email)
		tx.RemoveFromSet(setActiveEmails, email)
	})
}

// ActiveSubscriberEmails returns the fan-out recipient list.
func (db *DB) ActiveSubscriberEmails(ctx context.Context) ([]string, error) {
	return db.store.SetMembers(ctx, setActiveEmails)
}
