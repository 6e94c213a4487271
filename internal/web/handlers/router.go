package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes builds the full API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.Health)
	r.Get("/unsubscribe", h.UnsubscribeLink)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints. Pickups are deliberately unauthenticated:
		// anyone passing by can claim a donation.
		r.Get("/health", h.Health)
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/donations", h.ListDonations)
		r.Post("/donations/{id}/pickup", h.Pickup)
		r.Post("/delivery-confirmation/{trackingId}", h.ConfirmDelivery)
		r.Post("/subscribe-notifications", h.Subscribe)
		r.Post("/unsubscribe-notifications", h.Unsubscribe)

		// Authenticated endpoints.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.auth))
			r.Get("/auth/me", h.Me)
			r.Post("/donations", h.CreateDonation)
			r.Get("/donations/my", h.MyDonations)
		})

		// Admin endpoints.
		r.Route("/admin", func(r chi.Router) {
			r.Use(AuthMiddleware(h.auth))
			r.Use(AdminMiddleware)
			r.Get("/users", h.AdminListUsers)
			r.Post("/users/{id}/approve", h.AdminApproveUser)
			r.Post("/users/{id}/deny", h.AdminDenyUser)
			r.Delete("/users/{id}", h.AdminDeleteUser)
			r.Get("/donations", h.AdminListDonations)
			r.Post("/donations/{id}/approve", h.AdminApproveDonation)
			r.Post("/donations/{id}/deny", h.AdminDenyDonation)
			r.Delete("/donations/{id}", h.AdminDeleteDonation)
			r.Get("/stats", h.AdminStats)
			r.Get("/settings/{type}", h.AdminGetSetting)
			r.Post("/settings/{type}", h.AdminSaveSetting)
		})
	})

	return r
}
