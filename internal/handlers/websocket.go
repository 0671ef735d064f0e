package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nivesh/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// AlertNotification is the message pushed when an alert fires
type AlertNotification struct {
	Type      string        `json:"type"`
	Alert     models.Alert  `json:"alert"`
	Quote     *models.Quote `json:"quote,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// WebSocketHandler pushes fired alerts to connected clients. Each client
// subscribes for one user; an alert is delivered to every connection that
// user has open. Implements the alert notifier wired into the evaluator.
type WebSocketHandler struct {
	logger  arbor.ILogger
	mu      sync.RWMutex
	clients map[*websocket.Conn]string // conn -> userID
}

// NewWebSocketHandler creates the alert push hub
func NewWebSocketHandler(logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		logger:  logger,
		clients: make(map[*websocket.Conn]string),
	}
}

// HandleWebSocket upgrades GET /ws/alerts?user_id=u1 connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = userID
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info().
		Str("user_id", userID).
		Int("clients", count).
		Msg("WebSocket client connected")

	// Reader loop exists only to detect disconnect
	go func() {
		defer h.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// NotifyAlert pushes a fired alert to the owning user's connections
func (h *WebSocketHandler) NotifyAlert(alert models.Alert, quote *models.Quote) {
	notification := AlertNotification{
		Type:      "alert_fired",
		Alert:     alert,
		Quote:     quote,
		Timestamp: time.Now(),
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0)
	for conn, userID := range h.clients {
		if userID == alert.UserID {
			conns = append(conns, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(notification); err != nil {
			h.logger.Warn().Err(err).Str("user_id", alert.UserID).Msg("Failed to push alert, dropping client")
			h.removeClient(conn)
		}
	}

	h.logger.Info().
		Str("alert_id", alert.ID).
		Str("user_id", alert.UserID).
		Int("delivered", len(conns)).
		Msg("Alert notification pushed")
}

// removeClient drops a connection from the hub
func (h *WebSocketHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients
func (h *WebSocketHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
