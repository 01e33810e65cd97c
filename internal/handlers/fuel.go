package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-fuel/internal/ledger"
	"github.com/ukydev/fleet-fuel/internal/models"
)

// FuelEngine is the ledger surface the fuel handlers talk to.
type FuelEngine interface {
	RecordRefuel(ctx context.Context, req models.RefuelRequest) (*models.RefuelResult, error)
	RecordRecharge(ctx context.Context, req models.RechargeRequest) (*models.RechargeResult, error)
	CurrentStock(ctx context.Context) (*models.StockSnapshot, error)
	History(ctx context.Context, filter models.HistoryFilter) ([]models.StockMovement, error)
}

// FuelHandler serves the ledger endpoints: refuels, recharges, current stock
// and history.
type FuelHandler struct {
	engine FuelEngine
}

// NewFuelHandler creates a fuel handler backed by the given engine.
func NewFuelHandler(engine FuelEngine) *FuelHandler {
	return &FuelHandler{engine: engine}
}

type refuelPayload struct {
	Date       string      `json:"date"`
	VehicleID  string      `json:"vehicle_id"`
	Odometer   json.Number `json:"odometer"`
	Liters     json.Number `json:"liters"`
	LocationID string      `json:"location_id"`
	DriverID   string      `json:"driver_id"`
}

type rechargePayload struct {
	Date     string      `json:"date"`
	Liters   json.Number `json:"liters"`
	DriverID string      `json:"driver_id"`
}

// RecordRefuel handles POST /api/refuels.
func (h *FuelHandler) RecordRefuel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload refuelPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	liters, err := payload.Liters.Float64()
	if err != nil {
		http.Error(w, "Invalid liters", http.StatusBadRequest)
		return
	}
	odometer, err := payload.Odometer.Float64()
	if err != nil {
		http.Error(w, "Invalid odometer", http.StatusBadRequest)
		return
	}
	date, err := parseDate(payload.Date)
	if err != nil {
		http.Error(w, "Invalid date", http.StatusBadRequest)
		return
	}

	result, err := h.engine.RecordRefuel(r.Context(), models.RefuelRequest{
		Date:       date,
		VehicleID:  payload.VehicleID,
		Odometer:   odometer,
		Liters:     liters,
		LocationID: payload.LocationID,
		DriverID:   payload.DriverID,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":         "Refuel recorded successfully",
		"refuel_event_id": result.EventID,
		"new_balance":     result.NewBalance,
		"alarm":           result.Alarm,
	})
}

// RecordRecharge handles POST /api/recharges.
func (h *FuelHandler) RecordRecharge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload rechargePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	liters, err := payload.Liters.Float64()
	if err != nil {
		http.Error(w, "Invalid liters", http.StatusBadRequest)
		return
	}
	date, err := parseDate(payload.Date)
	if err != nil {
		http.Error(w, "Invalid date", http.StatusBadRequest)
		return
	}

	result, err := h.engine.RecordRecharge(r.Context(), models.RechargeRequest{
		Date:     date,
		Liters:   liters,
		DriverID: payload.DriverID,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":           "Recharge recorded successfully",
		"recharge_event_id": result.EventID,
		"new_balance":       result.NewBalance,
	})
}

// CurrentStock handles GET /api/stock/current.
func (h *FuelHandler) CurrentStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, err := h.engine.CurrentStock(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"balance_liters": snap.BalanceLiter,
		"timestamp":      snap.Timestamp,
	})
}

// History handles GET /api/history with optional driver_id/vehicle_id filters.
func (h *FuelHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter := models.HistoryFilter{
		DriverID:  r.URL.Query().Get("driver_id"),
		VehicleID: r.URL.Query().Get("vehicle_id"),
	}
	movements, err := h.engine.History(r.Context(), filter)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, movements)
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// writeEngineError maps the engine's failure taxonomy onto HTTP statuses.
// Validation messages are safe to return; everything else stays generic and
// the cause is already logged inside the engine.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrNotFound):
		http.Error(w, "No stock records available", http.StatusNotFound)
	case errors.Is(err, ledger.ErrUnavailable):
		http.Error(w, "Storage unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Failed to process fuel operation", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}
