package handlers

import (
	"os"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {

		r.Get("/health", h.HealthHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Get("/games", h.ListGamesHandler)

			r.Post("/packs", h.ReceivePackHandler)
			r.Get("/packs/{packID}", h.GetPackHandler)
			r.Post("/packs/batch", h.ReceiveBatchHandler)
			r.Post("/packs/{packID}/activate", h.ActivatePackHandler)
			r.Post("/packs/{packID}/return", h.ReturnPackHandler)

			r.Post("/dayclose/scan", h.ResolveScanHandler)
			r.Post("/shifts", h.OpenShiftHandler)
			r.Post("/shifts/{shiftID}/close", h.CloseShiftHandler)
			r.Post("/shifts/{shiftID}/approve-variance", h.ApproveVarianceHandler)
		})
	})
}

func (h *Handler) InitAuth() {
	var jwtKey = os.Getenv("JWT_SECRET_KEY")
	h.tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)

	expirationTime := time.Now().Add(7 * 24 * time.Hour).Unix()

	_, tokenString, _ := h.tokenAuth.Encode(map[string]interface{}{
		"service_id": 8003031,
		"exp":        expirationTime,
	})

	// For debugging only, comment it out in production
	log.Infof("DEBUG: JWT for testing expires soon : %s", tokenString)
}
