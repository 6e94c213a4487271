package models

import "time"

// DonationStatus represents the lifecycle state of a donation.
type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationAvailable DonationStatus = "available"
	DonationPickedUp  DonationStatus = "picked_up"
	DonationDenied    DonationStatus = "denied"
)

// Category describes what kind of item is being donated.
type Category string

const (
	CategoryCooked   Category = "cooked"
	CategoryUncooked Category = "uncooked"
	CategoryClothing Category = "clothing"
	CategoryBedding  Category = "bedding"
	CategoryComfort  Category = "comfort"
	CategoryOther    Category = "other"
)

// Donation is a posted item. Only donations in DonationAvailable status
// appear in the geo index and location queries.
type Donation struct {
	ID                  string         `json:"id"`
	DonorID             string         `json:"donorId"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	Category            Category       `json:"type"`
	Lat                 float64        `json:"lat"`
	Lng                 float64        `json:"lng"`
	Address             string         `json:"address"`
	DropoffInstructions string         `json:"dropoffInstructions"`
	Image               string         `json:"image,omitempty"`
	Status              DonationStatus `json:"status"`
	ApprovedBy          string         `json:"approvedBy,omitempty"`
	ApprovedAt          *time.Time     `json:"approvedAt,omitempty"`
	DeniedBy            string         `json:"deniedBy,omitempty"`
	DeniedAt            *time.Time     `json:"deniedAt,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

// DeliveryStatus is the post-pickup tracking state.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending_delivery"
	DeliveryDelivered DeliveryStatus = "delivered"
)

// DeliveryConfirmation is attached to a pickup once the picker confirms
// where the donation ended up.
type DeliveryConfirmation struct {
	Location    string    `json:"deliveryLocation"`
	Notes       string    `json:"deliveryNotes,omitempty"`
	DeliveredTo string    `json:"deliveredTo,omitempty"`
	Image       string    `json:"deliveryImage,omitempty"`
	DeliveredAt time.Time `json:"deliveredAt"`
}

// Pickup is the tracking record created when a donation is claimed.
// Exactly one exists per successful claim.
type Pickup struct {
	ID             string                `json:"id"`
	DonationID     string                `json:"donationId"`
	PickerName     string                `json:"pickerName"`
	PickerEmail    string                `json:"pickerEmail"`
	PickerPhone    string                `json:"pickerPhone,omitempty"`
	PickedUpAt     time.Time             `json:"pickedUpAt"`
	DeliveryStatus DeliveryStatus        `json:"deliveryStatus"`
	Delivery       *DeliveryConfirmation `json:"deliveryConfirmation,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}
