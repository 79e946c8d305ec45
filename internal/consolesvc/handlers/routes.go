package handlers

import (
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {

		// public routes here
		r.Get("/health", h.HealthHandler)
		r.With(httprate.LimitByIP(h.loginLimit, time.Minute)).Post("/auth/login", h.Login)

		// browsers cannot set headers on a websocket upgrade, so the token may ride in ?jwt=
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(h.tokenAuth, jwtauth.TokenFromQuery, jwtauth.TokenFromHeader))
			r.Use(jwtauth.Authenticator)
			r.Use(h.SessionCtx)

			r.Get("/ws", h.HandleWebSocket)
		})

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)
			r.Use(h.SessionCtx)

			r.Post("/auth/logout", h.Logout)
			r.Get("/auth/me", h.Me)

			r.Route("/views", func(r chi.Router) {
				r.Get("/dashboard", h.Dashboard)
				r.Get("/live", h.Live)
				r.Get("/players", h.Players)
				r.Get("/players/{uid}", h.PlayerDetail)
				r.Get("/games", h.Games)
				r.Get("/financial", h.Financial)
				r.Get("/cohorts", h.Cohorts)
				r.Get("/affiliates", h.Affiliates)
				r.Get("/bonus-analytics", h.BonusAnalytics)
				r.Get("/bonus", h.Bonus)
				r.Get("/risk", h.Risk)
				r.Get("/compliance", h.Compliance)
			})

			r.Post("/players/{uid}", h.SavePlayer)
			r.Post("/bonus/issue", h.IssueBonus)
			r.Post("/bonus/assign", h.AssignBonus)
			r.Post("/bonus/preview", h.PreviewBonusMessage)

			r.Route("/settings", func(r chi.Router) {
				r.Get("/profile", h.Profile)
				r.Get("/catalogue", h.Catalogue)
				r.Get("/team", h.Team)
				r.Post("/team/create", h.CreateAdmin)
				r.Post("/team/update", h.UpdateAdmin)
				r.Post("/team/delete", h.DeleteAdmin)
				r.Post("/password", h.ChangePassword)
				r.Get("/audit", h.AuditLog)
			})
		})
	})
}
