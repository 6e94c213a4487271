package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fasthelp/fasthelp/internal/geo"
	"github.com/fasthelp/fasthelp/internal/store"
	"github.com/fasthelp/fasthelp/pkg/models"
)

func encodeDonation(d *models.Donation) map[string]string {
	fields := map[string]string{
		"id":                  d.ID,
		"donorId":             d.DonorID,
		"title":               d.Title,
		"description":         d.Description,
		"type":                string(d.Category),
		"lat":                 encodeFloat(d.Lat),
		"lng":                 encodeFloat(d.Lng),
		"address":             d.Address,
		"dropoffInstructions": d.DropoffInstructions,
		"image":               d.Image,
		"status":              string(d.Status),
		"approvedBy":          d.ApprovedBy,
		"deniedBy":            d.DeniedBy,
		"createdAt":           encodeTime(d.CreatedAt),
		"updatedAt":           encodeTime(d.UpdatedAt),
	}
	if d.ApprovedAt != nil {
		fields["approvedAt"] = encodeTime(*d.ApprovedAt)
	}
	if d.DeniedAt != nil {
		fields["deniedAt"] = encodeTime(*d.DeniedAt)
	}
	return fields
}

func decodeDonation(fields map[string]string) *models.Donation {
	d := &models.Donation{
		ID:                  fields["id"],
		DonorID:             fields["donorId"],
		Title:               fields["title"],
		Description:         fields["description"],
		Category:            models.Category(fields["type"]),
		Lat:                 decodeFloat(fields["lat"]),
		Lng:                 decodeFloat(fields["lng"]),
		Address:             fields["address"],
		DropoffInstructions: fields["dropoffInstructions"],
		Image:               fields["image"],
		Status:              models.DonationStatus(fields["status"]),
		ApprovedBy:          fields["approvedBy"],
		DeniedBy:            fields["deniedBy"],
		CreatedAt:           decodeTime(fields["createdAt"]),
		UpdatedAt:           decodeTime(fields["updatedAt"]),
	}
	if s, ok := fields["approvedAt"]; ok {
		t := decodeTime(s)
		d.ApprovedAt = &t
	}
	if s, ok := fields["deniedAt"]; ok {
		t := decodeTime(s)
		d.DeniedAt = &t
	}
	return d
}

// CreateDonation validates the coordinates against the service area and
// stores the donation in pending status. Pending donations are kept out
// of the available set and geo index: only approval makes them visible
// to search.
func (db *DB) CreateDonation(ctx context.Context, d *models.Donation) (*models.Donation, error) {
	if !db.area.Contains(geo.Point{Lat: d.Lat, Lng: d.Lng}) {
		return nil, ErrOutOfServiceArea
	}

	now := time.Now()
	d.ID = uuid.New().String()
	d.Status = models.DonationPending
	d.CreatedAt = now
	d.UpdatedAt = now

	err := db.store.Update(ctx, func(tx *store.Tx) {
		tx.SetFields(keyDonation(d.ID), encodeDonation(d))
		tx.AddToSet(setDonationsAll, d.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}
	return d, nil
}

// GetDonationByID returns a donation, or (nil, nil) on miss.
func (db *DB) GetDonationByID(ctx context.Context, id string) (*models.Donation, error) {
	fields, err := db.store.GetFields(ctx, keyDonation(id))
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeDonation(fields), nil
}

// ApproveDonation transitions pending -> available: the hash, the
// available set, and the geo index are written in one transaction so
// the two indexes never diverge.
func (db *DB) ApproveDonation(ctx context.Context, id, adminID string) (*models.Donation, error) {
	d, err := db.GetDonationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotFound
	}

	now := time.Now()
	d.Status = models.DonationAvailable
	d.ApprovedBy = adminID
	d.ApprovedAt = &now
	d.UpdatedAt = now

	err = db.store.Update(ctx, func(tx *store.Tx) {
		tx.SetFields(keyDonation(id), encodeDonation(d))
		tx.AddToSet(setDonationsAvail, id)
		tx.GeoIndex(idxDonationsGeo, id, d.Lng, d.Lat)
	})
	if err != nil {
		return nil, fmt.Errorf("approve donation: %w", err)
	}
	return d, nil
}

// DenyDonation transitions pending -> denied. Denied donations never
// enter the available set or geo index.
func (db *DB) DenyDonation(ctx context.Context, id, adminID string) (*models.Donation, error) {
	d, err := db.GetDonationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotFound
	}

	now := time.Now()
	d.Status = models.DonationDenied
	d.DeniedBy = adminID
	d.DeniedAt = &now
	d.UpdatedAt = now

	if err := db.store.SetFields(ctx, keyDonation(id), encodeDonation(d)); err != nil {
		return nil, fmt.Errorf("deny donation: %w", err)
	}
	return d, nil
}

// AvailableDonations answers the "donations near me" query. With a
// point it searches the geo index within radiusKm (nearest first);
// without one it falls back to the whole available set (newest first).
// Every hit is re-checked against the current status so a stale index
// entry is excluded rather than served.
func (db *DB) AvailableDonations(ctx context.Context, near *geo.Point, radiusKm float64) ([]models.Donation, error) {
	var ids []string
	var err error

	if near != nil {
		ids, err = db.store.GeoQuery(ctx, idxDonationsGeo, near.Lng, near.Lat, radiusKm)
	} else {
		ids, err = db.store.SetMembers(ctx, setDonationsAvail)
	}
	if err != nil {
		return nil, err
	}

	donations := make([]models.Donation, 0, len(ids))
	for _, id := range ids {
		d, err := db.GetDonationByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if d != nil && d.Status == models.DonationAvailable {
			donations = append(donations, *d)
		}
	}

	if near == nil {
		sort.Slice(donations, func(i, j int) bool {
			return donations[i].CreatedAt.After(donations[j].CreatedAt)
		})
	}
	return donations, nil
}

// AllDonations returns every donation, newest first.
func (db *DB) AllDonations(ctx context.Context) ([]models.Donation, error) {
	ids, err := db.store.SetMembers(ctx, setDonationsAll)
	if err != nil {
		return nil, err
	}
	donations := make([]models.Donation, 0, len(ids))
	for _, id := range ids {
		d, err := db.GetDonationByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if d != nil {
			donations = append(donations, *d)
		}
	}
	sort.Slice(donations, func(i, j int) bool {
		return donations[i].CreatedAt.After(donations[j].CreatedAt)
	})
	return donations, nil
}

// DonationsByDonor returns a donor's own donations, newest first.
func (db *DB) DonationsByDonor(ctx context.Context, donorID string) ([]models.Donation, error) {
	all, err := db.AllDonations(ctx)
	if err != nil {
		return nil, err
	}
	mine := make([]models.Donation, 0)
	for _, d := range all {
		if d.DonorID == donorID {
			mine = append(mine, d)
		}
	}
	return mine, nil
}

// MarkPickedUp claims an available donation. The status check and the
// transition run as an optimistic compare-and-swap on the donation key,
// so of two concurrent claims exactly one succeeds; the loser gets
// ErrAlreadyClaimed. The tracking record, the donation's pickup blob,
// and all index updates land in the same transaction.
func (db *DB) MarkPickedUp(ctx context.Context, donationID string, p *models.Pickup) (*models.Pickup, error) {
	d, err := db.GetDonationByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotFound
	}
	if d.Status != models.DonationAvailable {
		return nil, ErrAlreadyClaimed
	}

	now := time.Now()
	p.ID = uuid.New().String()
	p.DonationID = donationID
	p.PickedUpAt = now
	p.DeliveryStatus = models.DeliveryPending
	p.CreatedAt = now
	p.UpdatedAt = now

	pickupBlob, err := json.Marshal(map[string]string{
		"pickerName":  p.PickerName,
		"pickerEmail": p.PickerEmail,
		"pickerPhone": p.PickerPhone,
		"pickedUpAt":  encodeTime(p.PickedUpAt),
	})
	if err != nil {
		return nil, fmt.Errorf("encode pickup blob: %w", err)
	}

	err = db.store.ClaimField(ctx, keyDonation(donationID), "status",
		string(models.DonationAvailable), string(models.DonationPickedUp),
		func(tx *store.Tx) {
			tx.SetFields(keyDonation(donationID), map[string]string{
				"pickup":    string(pickupBlob),
				"updatedAt": encodeTime(now),
			})
			tx.RemoveFromSet(setDonationsAvail, donationID)
			tx.AddToSet(setDonationsTaken, donationID)
			tx.GeoRemove(idxDonationsGeo, donationID)
			tx.SetFields(keyPickup(p.ID), encodePickup(p))
			tx.AddToSet(setPickupsAll, p.ID)
		})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("claim donation: %w", err)
	}
	return p, nil
}

// DeleteDonation removes the donation from every set and index, then
// deletes the hash.
func (db *DB) DeleteDonation(ctx context.Context, id string) error {
	d, err := db.GetDonationByID(ctx, id)
	if err != nil {
		return err
	}
	if d == nil {
		return ErrNotFound
	}
	return db.store.Update(ctx, func(tx *store.Tx) {
		tx.RemoveFromSet(setDonationsAll, id)
		tx.RemoveFromSet(setDonationsAvail, id)
		tx.RemoveFromSet(setDonationsTaken, id)
		tx.GeoRemove(idxDonationsGeo, id)
		tx.Delete(keyDonation(id))
	})
}
