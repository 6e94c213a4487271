package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fasthelp/fasthelp/pkg/models"
)

func TestConfirmDelivery(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	created, err := db.CreateDonation(ctx, newTestDonation("bread", downtownAustin))
	require.NoError(t, err)
	_, err = db.ApproveDonation(ctx, created.ID, "admin-1")
	require.NoError(t, err)
	pickup, err := db.MarkPickedUp(ctx, created.ID, newTestPickup())
	require.NoError(t, err)

	confirmed, err := db.ConfirmDelivery(ctx, pickup.ID, &models.DeliveryConfirmation{
		Location:    "Community Shelter",
		Notes:       "left with front desk",
		DeliveredTo: "shelter staff",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryDelivered, confirmed.DeliveryStatus)
	require.NotNil(t, confirmed.Delivery)
	assert.False(t, confirmed.Delivery.DeliveredAt.IsZero())

	// Confirmation round-trips through the hash.
	got, err := db.GetPickup(ctx, pickup.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.DeliveryDelivered, got.DeliveryStatus)
	require.NotNil(t, got.Delivery)
	assert.Equal(t, "Community Shelter", got.Delivery.Location)
	assert.Equal(t, "shelter staff", got.Delivery.DeliveredTo)

	_, err = db.ConfirmDelivery(ctx, "missing", &models.DeliveryConfirmation{})
	assert.ErrorIs(t, err, ErrNotFound)
}
