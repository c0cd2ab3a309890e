package api

import (
	"net/http"

	"golang.org/x/time/rate"

	"mediadl-server/internal/config"
)

// NewRouter setup routes and apply global middleware
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/info", h.Info)
	mux.HandleFunc("/api/download", h.Download)
	mux.HandleFunc("/api/status", h.StatusAll)
	mux.HandleFunc("/api/status/", h.Status)
	mux.HandleFunc("/api/cancel/", h.Cancel)
	mux.HandleFunc("/api/history", h.History)
	mux.HandleFunc("/api/clear-history", h.ClearHistory)
	mux.HandleFunc("/api/events", h.Events)
	mux.HandleFunc("/api/config", h.ServerConfig)
	mux.HandleFunc("/api/health", h.Health)

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	return CORSMiddleware(cfg.AllowedOrigins, RateLimitMiddleware(limiter, mux))
}
