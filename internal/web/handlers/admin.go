package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fasthelp/fasthelp/internal/database"
	"github.com/fasthelp/fasthelp/internal/store"
	"github.com/fasthelp/fasthelp/pkg/models"
)

// AdminListUsers returns every account, newest first.
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.db.AllUsers(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			jsonResponse(w, []models.User{})
			return
		}
		h.storeError(w, err, "list users")
		return
	}
	jsonResponse(w, users)
}

// AdminApproveUser approves a pending account and emails the user.
func (h *Handler) AdminApproveUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.db.ApproveUser(r.Context(), pathParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			jsonError(w, "User not found", http.StatusNotFound)
			return
		}
		h.storeError(w, err, "approve user")
		return
	}

	h.notify.AccountApproved(r.Context(), user)
	jsonResponse(w, user)
}

// AdminDenyUser denies a pending account.
func (h *Handler) AdminDenyUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.db.DenyUser(r.Context(), pathParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			jsonError(w, "User not found", http.StatusNotFound)
			return
		}
		h.storeError(w, err, "deny user")
		return
	}
	jsonResponse(w, user)
}

// AdminDeleteUser removes an account. Admin accounts cannot be deleted
// through the API.
func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")

	user, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "load user")
		return
	}
	if user == nil {
		jsonError(w, "User not found", http.StatusNotFound)
		return
	}
	if user.IsAdmin() {
		jsonError(w, "Admin accounts cannot be deleted", http.StatusForbidden)
		return
	}

	if err := h.db.DeleteUser(r.Context(), id); err != nil {
		h.storeError(w, err, "delete user")
		return
	}
	jsonResponse(w, map[string]string{"status": "deleted"})
}

// AdminListDonations returns every donation regardless of status.
func (h *Handler) AdminListDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := h.db.AllDonations(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			jsonResponse(w, []models.Donation{})
			return
		}
		h.storeError(w, err, "list donations")
		return
	}
	jsonResponse(w, donations)
}

// AdminApproveDonation makes a pending donation available and fans the
// announcement out to subscribers.
func (h *Handler) AdminApproveDonation(w http.ResponseWriter, r *http.Request) {
	claims, _ := GetClaims(r.Context())

	donation, err := h.db.ApproveDonation(r.Context(), pathParam(r, "id"), claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			jsonError(w, "Donation not found", http.StatusNotFound)
			return
		}
		h.storeError(w, err, "approve donation")
		return
	}

	sent := h.notify.DonationApproved(r.Context(), donation)
	log.Printf("admin: donation %s approved, %d subscribers notified", donation.ID, sent)

	jsonResponse(w, donation)
}

// AdminDenyDonation rejects a pending donation.
func (h *Handler) AdminDenyDonation(w http.ResponseWriter, r *http.Request) {
	claims, _ := GetClaims(r.Context())

	donation, err := h.db.DenyDonation(r.Context(), pathParam(r, "id"), claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			jsonError(w, "Donation not found", http.StatusNotFound)
			return
		}
		h.storeError(w, err, "deny donation")
		return
	}
	jsonResponse(w, donation)
}

// AdminDeleteDonation removes a donation and all its index entries.
func (h *Handler) AdminDeleteDonation(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteDonation(r.Context(), pathParam(r, "id")); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			jsonError(w, "Donation not found", http.StatusNotFound)
			return
		}
		h.storeError(w, err, "delete donation")
		return
	}
	jsonResponse(w, map[string]string{"status": "deleted"})
}

// AdminStats returns the dashboard counters. When the store is down
// the dashboard still renders, with zeroed counts.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.Stats(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			jsonResponse(w, &models.Stats{})
			return
		}
		h.storeError(w, err, "stats")
		return
	}
	jsonResponse(w, stats)
}

// AdminGetSetting returns a settings blob by type.
func (h *Handler) AdminGetSetting(w http.ResponseWriter, r *http.Request) {
	setting, err := h.db.GetSetting(r.Context(), pathParam(r, "type"))
	if err != nil {
		h.storeError(w, err, "get setting")
		return
	}
	if setting == nil {
		setting = map[string]string{}
	}
	jsonResponse(w, setting)
}

// AdminSaveSetting stores a settings blob by type.
func (h *Handler) AdminSaveSetting(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.db.SaveSetting(r.Context(), pathParam(r, "type"), values); err != nil {
		h.storeError(w, err, "save setting")
		return
	}
	jsonResponse(w, map[string]string{"status": "saved"})
}
