// Package handlers implements the Fast Help HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/fasthelp/fasthelp/config"
	"github.com/fasthelp/fasthelp/internal/auth"
	"github.com/fasthelp/fasthelp/internal/database"
	"github.com/fasthelp/fasthelp/internal/geo"
	"github.com/fasthelp/fasthelp/internal/notify"
	"github.com/fasthelp/fasthelp/internal/store"
	"github.com/fasthelp/fasthelp/pkg/models"
)

const defaultRadiusKm = 25

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	db     *database.DB
	cfg    *config.Config
	auth   *auth.Service
	notify *notify.Fanout
}

// New creates a new handler.
func New(db *database.DB, cfg *config.Config, authService *auth.Service, fanout *notify.Fanout) *Handler {
	return &Handler{
		db:     db,
		cfg:    cfg,
		auth:   authService,
		notify: fanout,
	}
}

// Health reports liveness and store reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := h.db.Store().Ping(r.Context()); err != nil {
		status = "degraded"
	}
	jsonResponse(w, map[string]string{"status": status})
}

// Register creates a new pending account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"fullName"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.FullName == "" || req.Username == "" || req.Email == "" || req.Password == "" {
		jsonError(w, "fullName, username, email, and password are required", http.StatusBadRequest)
		return
	}

	role := models.Role(req.Role)
	if role != models.RoleDonor && role != models.RoleRecipient {
		role = models.RoleDonor
	}

	user, err := h.auth.Register(r.Context(), req.FullName, req.Username, req.Email, req.Phone, req.Password, role)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrEmailTaken):
			jsonError(w, "Email is already registered", http.StatusBadRequest)
		case errors.Is(err, database.ErrUsernameTaken):
			jsonError(w, "Username is already taken", http.StatusBadRequest)
		case errors.Is(err, store.ErrUnavailable):
			jsonError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
		default:
			log.Printf("register: %v", err)
			jsonError(w, "Failed to create account", http.StatusInternalServerError)
		}
		return
	}

	h.notify.Welcome(r.Context(), user)

	w.WriteHeader(http.StatusCreated)
	jsonResponse(w, map[string]string{
		"message": "Registration successful! Your account is pending approval.",
		"userId":  user.ID,
	})
}

// Login verifies credentials and returns a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, user, err := h.auth.Login(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			jsonError(w, "Invalid email or password", http.StatusUnauthorized)
		case errors.Is(err, auth.ErrAccountPending):
			jsonError(w, "Your account is pending approval", http.StatusUnauthorized)
		case errors.Is(err, auth.ErrAccountDenied):
			jsonError(w, "Your account has been denied access", http.StatusUnauthorized)
		case errors.Is(err, store.ErrUnavailable):
			jsonError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
		default:
			log.Printf("login: %v", err)
			jsonError(w, "Login failed", http.StatusInternalServerError)
		}
		return
	}

	jsonResponse(w, map[string]interface{}{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	user, err := h.db.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		h.storeError(w, err, "load profile")
		return
	}
	if user == nil {
		jsonError(w, "User not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, map[string]interface{}{"user": user})
}

// ListDonations returns available donations, optionally filtered by
// proximity (lat, lng, radius query parameters, radius in km).
func (h *Handler) ListDonations(w http.ResponseWriter, r *http.Request) {
	var near *geo.Point
	radius := float64(defaultRadiusKm)

	q := r.URL.Query()
	if q.Get("lat") != "" || q.Get("lng") != "" {
		lat, err := strconv.ParseFloat(q.Get("lat"), 64)
		if err != nil {
			jsonError(w, "Invalid lat parameter", http.StatusBadRequest)
			return
		}
		lng, err := strconv.ParseFloat(q.Get("lng"), 64)
		if err != nil {
			jsonError(w, "Invalid lng parameter", http.StatusBadRequest)
			return
		}
		near = &geo.Point{Lat: lat, Lng: lng}
	}
	if s := q.Get("radius"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			jsonError(w, "Invalid radius parameter", http.StatusBadRequest)
			return
		}
		radius = v
	}

	donations, err := h.db.AvailableDonations(r.Context(), near, radius)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			// Reads degrade to an empty listing when the store is down.
			jsonResponse(w, []models.Donation{})
			return
		}
		log.Printf("list donations: %v", err)
		jsonError(w, "Failed to list donations", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, donations)
}

// CreateDonation submits a new donation for admin review.
func (h *Handler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Title               string  `json:"title"`
		Description         string  `json:"description"`
		Type                string  `json:"type"`
		Lat                 float64 `json:"lat"`
		Lng                 float64 `json:"lng"`
		Address             string  `json:"address"`
		DropoffInstructions string  `json:"dropoffInstructions"`
		Image               string  `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		jsonError(w, "title is required", http.StatusBadRequest)
		return
	}

	donation := &models.Donation{
		DonorID:             claims.UserID,
		Title:               req.Title,
		Description:         req.Description,
		Category:            models.Category(req.Type),
		Lat:                 req.Lat,
		Lng:                 req.Lng,
		Address:             req.Address,
		DropoffInstructions: req.DropoffInstructions,
		Image:               req.Image,
	}

	created, err := h.db.CreateDonation(r.Context(), donation)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrOutOfServiceArea):
			jsonError(w, "Location is outside the service area", http.StatusBadRequest)
		case errors.Is(err, store.ErrUnavailable):
			jsonError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
		default:
			log.Printf("create donation: %v", err)
			jsonError(w, "Failed to create donation", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	jsonResponse(w, created)
}

// MyDonations returns the authenticated donor's own donations,
// whatever their status.
func (h *Handler) MyDonations(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	donations, err := h.db.DonationsByDonor(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			jsonResponse(w, []models.Donation{})
			return
		}
		log.Printf("my donations: %v", err)
		jsonError(w, "Failed to list donations", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, donations)
}

// Pickup claims an available donation. No account is needed: the
// picker just leaves contact details and gets a tracking ID back.
func (h *Handler) Pickup(w http.ResponseWriter, r *http.Request) {
	donationID := pathParam(r, "id")

	var req struct {
		PickerName  string `json:"pickerName"`
		PickerEmail string `json:"pickerEmail"`
		PickerPhone string `json:"pickerPhone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PickerName == "" || req.PickerEmail == "" {
		jsonError(w, "Picker name and email are required", http.StatusBadRequest)
		return
	}

	donation, err := h.db.GetDonationByID(r.Context(), donationID)
	if err != nil {
		h.storeError(w, err, "load donation")
		return
	}

	pickup, err := h.db.MarkPickedUp(r.Context(), donationID, &models.Pickup{
		PickerName:  req.PickerName,
		PickerEmail: strings.ToLower(strings.TrimSpace(req.PickerEmail)),
		PickerPhone: req.PickerPhone,
	})
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			jsonError(w, "Donation not found", http.StatusNotFound)
		case errors.Is(err, database.ErrAlreadyClaimed):
			jsonError(w, "Donation is no longer available", http.StatusBadRequest)
		case errors.Is(err, store.ErrUnavailable):
			jsonError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
		default:
			log.Printf("pickup: %v", err)
			jsonError(w, "Failed to claim donation", http.StatusInternalServerError)
		}
		return
	}

	if donation != nil {
		h.notify.PickupConfirmed(r.Context(), pickup, donation)
	}

	jsonResponse(w, map[string]string{
		"message":    "Pickup confirmed successfully! Please confirm delivery location to complete the process.",
		"trackingId": pickup.ID,
	})
}

// ConfirmDelivery records the delivery confirmation for a tracking ID.
func (h *Handler) ConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	trackingID := pathParam(r, "trackingId")

	var req struct {
		Location    string `json:"deliveryLocation"`
		Notes       string `json:"deliveryNotes"`
		DeliveredTo string `json:"deliveredTo"`
		Image       string `json:"deliveryImage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	pickup, err := h.db.ConfirmDelivery(r.Context(), trackingID, &models.DeliveryConfirmation{
		Location:    req.Location,
		Notes:       req.Notes,
		DeliveredTo: req.DeliveredTo,
		Image:       req.Image,
	})
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			jsonError(w, "Tracking record not found", http.StatusNotFound)
		case errors.Is(err, store.ErrUnavailable):
			jsonError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
		default:
			log.Printf("confirm delivery: %v", err)
			jsonError(w, "Failed to confirm delivery", http.StatusInternalServerError)
		}
		return
	}

	h.notify.DeliveryThanks(r.Context(), pickup)
	jsonResponse(w, pickup)
}

// Subscribe registers an email for new-donation alerts. Repeat
// subscriptions are accepted quietly.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		jsonError(w, "A valid email is required", http.StatusBadRequest)
		return
	}

	created, err := h.db.Subscribe(r.Context(), email)
	if err != nil {
		h.storeError(w, err, "subscribe")
		return
	}
	if !created {
		jsonResponse(w, map[string]string{"message": "Already subscribed to notifications"})
		return
	}
	w.WriteHeader(http.StatusCreated)
	jsonResponse(w, map[string]string{"message": "Successfully subscribed to donation notifications!"})
}

// Unsubscribe removes an email from the alert list.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		jsonError(w, "A valid email is required", http.StatusBadRequest)
		return
	}

	if err := h.db.Unsubscribe(r.Context(), email); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			jsonError(w, "Email not found in subscribers list", http.StatusNotFound)
			return
		}
		h.storeError(w, err, "unsubscribe")
		return
	}
	jsonResponse(w, map[string]string{"message": "Successfully unsubscribed from donation notifications"})
}

// UnsubscribeLink handles the one-click unsubscribe URL embedded in
// notification emails. Best effort: an unknown email still gets a
// friendly response.
func (h *Handler) UnsubscribeLink(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	if email != "" && strings.Contains(email, "@") {
		if err := h.db.Unsubscribe(r.Context(), email); err != nil && !errors.Is(err, database.ErrNotFound) {
			h.storeError(w, err, "unsubscribe link")
			return
		}
	}
	jsonResponse(w, map[string]string{"message": "You have been unsubscribed from donation notifications"})
}

// --- helpers ---

func (h *Handler) storeError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, store.ErrUnavailable) {
		jsonError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
		return
	}
	log.Printf("%s: %v", op, err)
	jsonError(w, "Internal error", http.StatusInternalServerError)
}

func jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
