package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ukydev/fleet-fuel/internal/db"
)

const defaultReportLimit = 10

// ReportHandler serves the read-only aggregate reports computed from the
// refuel event log.
type ReportHandler struct {
	reports db.ReportStore
}

// NewReportHandler creates a report handler.
func NewReportHandler(reports db.ReportStore) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// TopVehicles handles GET /api/reports/top-vehicles?limit=N.
func (h *ReportHandler) TopVehicles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rows, err := h.reports.TopVehicles(r.Context(), reportLimit(r))
	if err != nil {
		http.Error(w, "Failed to compute report", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// TopDrivers handles GET /api/reports/top-drivers?limit=N.
func (h *ReportHandler) TopDrivers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rows, err := h.reports.TopDrivers(r.Context(), reportLimit(r))
	if err != nil {
		http.Error(w, "Failed to compute report", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// DailyConsumption handles GET /api/reports/daily-consumption?from=&to=
// with YYYY-MM-DD bounds, both optional.
func (h *ReportHandler) DailyConsumption(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "Invalid from date", http.StatusBadRequest)
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "Invalid to date", http.StatusBadRequest)
			return
		}
		// Include the whole end day.
		to = t.Add(24*time.Hour - time.Nanosecond)
	}
	rows, err := h.reports.DailyConsumption(r.Context(), from, to)
	if err != nil {
		http.Error(w, "Failed to compute report", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func reportLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			return n
		}
	}
	return defaultReportLimit
}
