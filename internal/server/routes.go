package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (alert push)
	mux.HandleFunc("/ws/alerts", s.app.WSHandler.HandleWebSocket)

	// API routes - Chat
	mux.HandleFunc("/api/chat", s.app.ChatHandler.ChatHandler)
	mux.HandleFunc("/api/chat/health", s.app.ChatHandler.HealthHandler)

	// API routes - Market data
	mux.HandleFunc("/api/market/status", s.app.MarketHandler.StatusHandler)
	mux.HandleFunc("/api/market/quote", s.app.MarketHandler.QuoteHandler)

	// API routes - Alerts
	mux.HandleFunc("/api/alerts", s.app.AlertHandler.AlertsHandler)
	mux.HandleFunc("/api/alerts/check", s.app.AlertHandler.CheckHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
