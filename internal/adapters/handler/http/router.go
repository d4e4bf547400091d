package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth         *AuthHandler
	Votes        *VoteHandler
	Registration *RegistrationHandler
	Rankings     *RankingHandler
	Admin        *AdminHandler
	Health       *HealthHandler
	AuthMW       *AuthMiddleware

	AllowedOrigins []string
}

func NewHandler(h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	if len(h.AllowedOrigins) > 0 {
		r.Use(corsMiddleware(h.AllowedOrigins))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/rankings", h.Rankings.GetRankings)
		r.Get("/rankings/{code}", h.Rankings.GetCountry)

		r.Group(func(r chi.Router) {
			r.Use(h.AuthMW.Handler)
			r.Get("/me", h.Registration.GetMe)
			r.Post("/votes", h.Votes.Submit)
			r.Get("/admin/votes", h.Admin.ExportVotes)
		})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/google/callback", h.Auth.GoogleCallback)
		r.Post("/refresh", h.Auth.Refresh)
		r.Post("/logout", h.Auth.Logout)
	})

	r.Get("/healthz", h.Health.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
