package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fasthelp/fasthelp/pkg/models"
)

func encodePickup(p *models.Pickup) map[string]string {
	fields := map[string]string{
		"id":             p.ID,
		"donationId":     p.DonationID,
		"pickerName":     p.PickerName,
		"pickerEmail":    p.PickerEmail,
		"pickerPhone":    p.PickerPhone,
		"pickedUpAt":     encodeTime(p.PickedUpAt),
		"deliveryStatus": string(p.DeliveryStatus),
		"createdAt":      encodeTime(p.CreatedAt),
		"updatedAt":      encodeTime(p.UpdatedAt),
	}
	if p.Delivery != nil {
		blob, err := json.Marshal(p.Delivery)
		if err == nil {
			fields["deliveryConfirmation"] = string(blob)
		}
	}
	return fields
}

func decodePickup(fields map[string]string) *models.Pickup {
	p := &models.Pickup{
		ID:             fields["id"],
		DonationID:     fields["donationId"],
		PickerName:     fields["pickerName"],
		PickerEmail:    fields["pickerEmail"],
		PickerPhone:    fields["pickerPhone"],
		PickedUpAt:     decodeTime(fields["pickedUpAt"]),
		DeliveryStatus: models.DeliveryStatus(fields["deliveryStatus"]),
		CreatedAt:      decodeTime(fields["createdAt"]),
		UpdatedAt:      decodeTime(fields["updatedAt"]),
	}
	if blob, ok := fields["deliveryConfirmation"]; ok && blob != "" {
		var conf models.DeliveryConfirmation
		if err := json.Unmarshal([]byte(blob), &conf); err == nil {
			p.Delivery = &conf
		}
	}
	return p
}

// GetPickup returns a tracking record, or (nil, nil) on miss.
func (db *DB) GetPickup(ctx context.Context, trackingID string) (*models.Pickup, error) {
	fields, err := db.store.GetFields(ctx, keyPickup(trackingID))
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodePickup(fields), nil
}

// ConfirmDelivery attaches the delivery confirmation to a tracking
// record and moves it to delivered. Tracking records are mutated once
// here and never deleted.
func (db *DB) ConfirmDelivery(ctx context.Context, trackingID string, conf *models.DeliveryConfirmation) (*models.Pickup, error) {
	p, err := db.GetPickup(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}

	conf.DeliveredAt = time.Now()
	p.DeliveryStatus = models.DeliveryDelivered
	p.Delivery = conf
	p.UpdatedAt = conf.DeliveredAt

	if err := db.store.SetFields(ctx, keyPickup(trackingID), encodePickup(p)); err != nil {
		return nil, fmt.Errorf("confirm delivery: %w", err)
	}
	return p, nil
}
