package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/models"
)

// CreateAlertRequest is the POST /api/alerts body
type CreateAlertRequest struct {
	UserID    string  `json:"user_id" validate:"required"`
	Symbol    string  `json:"symbol" validate:"required"`
	Threshold float64 `json:"threshold" validate:"required,gt=0"`
	Direction string  `json:"direction" validate:"omitempty,oneof=above below"`
}

// AlertHandler serves alert management endpoints
type AlertHandler struct {
	alerts   interfaces.AlertService
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewAlertHandler creates an alert handler
func NewAlertHandler(alerts interfaces.AlertService, logger arbor.ILogger) *AlertHandler {
	return &AlertHandler{
		alerts:   alerts,
		validate: validator.New(),
		logger:   logger,
	}
}

// AlertsHandler routes /api/alerts by method: GET lists, POST creates
func (h *AlertHandler) AlertsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listAlerts(w, r)
	case http.MethodPost:
		h.createAlert(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// listAlerts handles GET /api/alerts?user_id=u1
func (h *AlertHandler) listAlerts(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		WriteError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	active, err := h.alerts.ActiveAlerts(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list alerts")
		WriteError(w, http.StatusInternalServerError, "Failed to list alerts")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": active,
		"count":  len(active),
	})
}

// createAlert handles POST /api/alerts
func (h *AlertHandler) createAlert(w http.ResponseWriter, r *http.Request) {
	var req CreateAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "user_id, symbol and a positive threshold are required")
		return
	}

	alert := &models.Alert{
		UserID:         req.UserID,
		Symbol:         req.Symbol,
		ThresholdPrice: req.Threshold,
		Direction:      models.AlertDirection(req.Direction),
	}

	id, err := h.alerts.Register(r.Context(), alert)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to register alert")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"id":    id,
		"alert": alert,
	})
}

// CheckHandler handles POST /api/alerts/check?user_id=u1: evaluates the
// user's alerts now and returns any that fired
func (h *AlertHandler) CheckHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		WriteError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	fired, err := h.alerts.CheckAlerts(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Alert check failed")
		WriteError(w, http.StatusInternalServerError, "Alert check failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"fired": fired,
		"count": len(fired),
	})
}
