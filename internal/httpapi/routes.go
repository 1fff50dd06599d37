package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openboard/darts-server/internal/rtc"
	"github.com/openboard/darts-server/internal/ws"
)

func SetupRoutes(gateway *ws.Gateway, issuer *rtc.Issuer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Post("/api/rtc/token", IssueRTCToken(issuer))
	r.Get("/ws", gateway.Handler())
	return r
}
