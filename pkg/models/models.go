package models

import "time"

// Role determines what a user is allowed to do.
type Role string

const (
	RoleDonor     Role = "donor"
	RoleRecipient Role = "recipient"
	RoleAdmin     Role = "admin"
)

// Approval is the admin-gated account state.
type Approval string

const (
	ApprovalPending  Approval = "pending"
	ApprovalApproved Approval = "approved"
	ApprovalDenied   Approval = "denied"
)

// User represents a registered user.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Approval     Approval  `json:"approval"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastLoginAt  time.Time `json:"lastLoginAt"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Subscriber is an email address opted in to donation notifications.
type Subscriber struct {
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribedAt"`
	Active       bool      `json:"active"`
}

// Stats is the admin dashboard counters payload.
type Stats struct {
	TotalUsers        int64 `json:"totalUsers"`
	PendingUsers      int64 `json:"pendingUsers"`
	TotalDonations    int64 `json:"totalDonations"`
	PendingDonations  int64 `json:"pendingDonations"`
	ActiveDonations   int64 `json:"activeDonations"`
	PickedUpDonations int64 `json:"pickedUpDonations"`
	TotalPickups      int64 `json:"totalPickups"`
}
