package database

import (
	"context"
	"time"

	"github.com/fasthelp/fasthelp/pkg/models"
)

// SaveSetting stores an admin-configured settings blob under its type
// ("email", etc.). Values are opaque strings to this layer.
func (db *DB) SaveSetting(ctx context.Context, typ string, values map[string]string) error {
	fields := make(map[string]string, len(values)+2)
	for k, v := range values {
		fields[k] = v
	}
	fields["type"] = typ
	fields["updatedAt"] = encodeTime(time.Now())
	return db.store.SetFields(ctx, keySetting(typ), fields)
}

// GetSetting returns a settings blob, or (nil, nil) if never saved.
func (db *DB) GetSetting(ctx context.Context, typ string) (map[string]string, error) {
	fields, err := db.store.GetFields(ctx, keySetting(typ))
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}

// Stats aggregates the admin dashboard counters. Set cardinalities are
// cheap; pending donations need a scan because there is no status set
// for them.
func (db *DB) Stats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{}

	counters := []struct {
		set  string
		dest *int64
	}{
		{setUsersAll, &stats.TotalUsers},
		{setUsersPending, &stats.PendingUsers},
		{setDonationsAll, &stats.TotalDonations},
		{setDonationsAvail, &stats.ActiveDonations},
		{setDonationsTaken, &stats.PickedUpDonations},
		{setPickupsAll, &stats.TotalPickups},
	}
	for _, c := range counters {
		n, err := db.store.SetCardinality(ctx, c.set)
		if err != nil {
			return nil, err
		}
		*c.dest = n
	}

	ids, err := db.store.SetMembers(ctx, setDonationsAll)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		d, err := db.GetDonationByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if d != nil && d.Status == models.DonationPending {
			stats.PendingDonations++
		}
	}
	return stats, nil
}
