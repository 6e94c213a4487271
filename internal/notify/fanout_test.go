package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fasthelp/fasthelp/internal/database"
	"github.com/fasthelp/fasthelp/internal/geo"
	"github.com/fasthelp/fasthelp/internal/store"
	"github.com/fasthelp/fasthelp/pkg/models"
)

type mockSender struct {
	mu       sync.Mutex
	messages []Message
	failTo   string
}

func (m *mockSender) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.To == m.failTo {
		return errors.New("backend refused")
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockSender) sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

func setupFanout(t *testing.T, sender Sender, batchSize int) (*Fanout, *database.DB) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	db := database.New(store.NewWithClient(client), geo.AustinBox)
	return NewFanout(db, sender, batchSize, time.Millisecond, "https://fasthelp.test"), db
}

func TestDonationApprovedFanout(t *testing.T) {
	sender := &mockSender{}
	fanout, db := setupFanout(t, sender, 10)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := db.Subscribe(ctx, fmt.Sprintf("sub%02d@example.com", i))
		require.NoError(t, err)
	}

	donation := &models.Donation{
		ID:       "d-1",
		Title:    "Fresh bread",
		Address:  "123 Test St",
		Category: models.CategoryCooked,
	}
	sent := fanout.DonationApproved(ctx, donation)
	assert.Equal(t, 25, sent)

	msgs := sender.sent()
	require.Len(t, msgs, 25)
	assert.Contains(t, msgs[0].Subject, "Fresh bread")
	assert.Contains(t, msgs[0].Body, "123 Test St")
	assert.Contains(t, msgs[0].Body, "/unsubscribe?email="+msgs[0].To)
}

func TestDonationApprovedOneFailureDoesNotAbort(t *testing.T) {
	sender := &mockSender{failTo: "sub01@example.com"}
	fanout, db := setupFanout(t, sender, 2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := db.Subscribe(ctx, fmt.Sprintf("sub%02d@example.com", i))
		require.NoError(t, err)
	}

	sent := fanout.DonationApproved(ctx, &models.Donation{ID: "d-1", Title: "Soup"})
	assert.Equal(t, 4, sent)
	assert.Len(t, sender.sent(), 4)
}

func TestDonationApprovedNoSubscribers(t *testing.T) {
	sender := &mockSender{}
	fanout, _ := setupFanout(t, sender, 10)

	sent := fanout.DonationApproved(context.Background(), &models.Donation{ID: "d-1", Title: "Soup"})
	assert.Equal(t, 0, sent)
	assert.Empty(t, sender.sent())
}

func TestTransactionalEmails(t *testing.T) {
	sender := &mockSender{}
	fanout, _ := setupFanout(t, sender, 10)
	ctx := context.Background()

	user := &models.User{FullName: "Alice Donor", Email: "alice@example.com"}
	fanout.Welcome(ctx, user)
	fanout.AccountApproved(ctx, user)

	pickup := &models.Pickup{ID: "p-1", PickerName: "Pat", PickerEmail: "pat@example.com"}
	fanout.PickupConfirmed(ctx, pickup, &models.Donation{Title: "Bread"})
	fanout.DeliveryThanks(ctx, pickup)

	msgs := sender.sent()
	require.Len(t, msgs, 4)
	assert.Contains(t, msgs[2].Body, "/delivery/p-1")

	// Pickers without an email are skipped quietly.
	fanout.PickupConfirmed(ctx, &models.Pickup{}, &models.Donation{Title: "Bread"})
	assert.Len(t, sender.sent(), 4)
}

func TestFanoutRespectsCancellation(t *testing.T) {
	sender := &mockSender{}
	fanout, db := setupFanout(t, sender, 1)

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 3; i++ {
		_, err := db.Subscribe(ctx, fmt.Sprintf("sub%02d@example.com", i))
		require.NoError(t, err)
	}
	cancel()

	sent := fanout.DonationApproved(ctx, &models.Donation{ID: "d-1", Title: "Soup"})
	assert.LessOrEqual(t, sent, 1)
}

func TestDonationApprovedBodyEscapesNothing(t *testing.T) {
	fanout, _ := setupFanout(t, &mockSender{}, 10)

	body, err := fanout.donationApprovedBody(&models.Donation{
		Title:    "Chips & salsa",
		Category: models.CategoryCooked,
	}, "fan@example.com")
	require.NoError(t, err)
	assert.True(t, strings.Contains(body, "Chips & salsa"))
}
