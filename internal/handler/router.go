package handler

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the full route tree. Everything under /admin sits behind
// the basic-auth gate; the public API and health check do not.
func NewRouter(h *Handler, adminUser, adminPass string) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger)
	r.Use(CORS)

	r.Get("/health", HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/sessions", h.ListSessions)
		r.Get("/sessions/{id}/registrations", h.ListRegistrations)
		r.Post("/register", h.Register)
		r.Post("/unregister-request", h.UnregisterRequest)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(BasicAuth(adminUser, adminPass))

		r.Route("/api", func(r chi.Router) {
			r.Get("/sessions", h.AdminListSessions)
			r.Post("/sessions", h.AdminCreateSession)
			r.Put("/sessions/{id}", h.AdminUpdateSession)
			r.Delete("/sessions/{id}", h.AdminDeleteSession)

			r.Get("/registrations", h.AdminListRegistrations)
			r.Put("/registrations/{id}", h.AdminUpdateRegistration)
			r.Delete("/registrations/{id}", h.AdminDeleteRegistration)
		})
	})

	return r
}
