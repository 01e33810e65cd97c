package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/fleet-fuel/internal/models"
)

type fakeReportStore struct {
	topVehicles []models.VehicleConsumption
	topDrivers  []models.DriverConsumption
	daily       []models.DailyConsumption
	err         error
	lastLimit   int
	lastFrom    time.Time
	lastTo      time.Time
}

func (f *fakeReportStore) TopVehicles(ctx context.Context, limit int) ([]models.VehicleConsumption, error) {
	f.lastLimit = limit
	return f.topVehicles, f.err
}

func (f *fakeReportStore) TopDrivers(ctx context.Context, limit int) ([]models.DriverConsumption, error) {
	f.lastLimit = limit
	return f.topDrivers, f.err
}

func (f *fakeReportStore) DailyConsumption(ctx context.Context, from, to time.Time) ([]models.DailyConsumption, error) {
	f.lastFrom, f.lastTo = from, to
	return f.daily, f.err
}

func TestTopVehicles(t *testing.T) {
	store := &fakeReportStore{topVehicles: []models.VehicleConsumption{
		{VehicleID: "vehicle-1", Liters: 540, Refuels: 4},
	}}
	handler := NewReportHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/top-vehicles?limit=3", nil)
	w := httptest.NewRecorder()
	handler.TopVehicles(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, store.lastLimit)

	var resp []models.VehicleConsumption
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, 540.0, resp[0].Liters)
}

func TestTopVehicles_DefaultLimit(t *testing.T) {
	store := &fakeReportStore{}
	handler := NewReportHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/top-vehicles?limit=-4", nil)
	w := httptest.NewRecorder()
	handler.TopVehicles(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultReportLimit, store.lastLimit)
}

func TestTopDrivers_StoreError(t *testing.T) {
	handler := NewReportHandler(&fakeReportStore{err: errors.New("aggregation failed")})

	req := httptest.NewRequest(http.MethodGet, "/api/reports/top-drivers", nil)
	w := httptest.NewRecorder()
	handler.TopDrivers(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDailyConsumption_ParsesRange(t *testing.T) {
	store := &fakeReportStore{daily: []models.DailyConsumption{{Day: "2025-03-01", Liters: 320}}}
	handler := NewReportHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/daily-consumption?from=2025-03-01&to=2025-03-07", nil)
	w := httptest.NewRecorder()
	handler.DailyConsumption(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), store.lastFrom)
	assert.Equal(t, 7, store.lastTo.Day())
}

func TestDailyConsumption_BadDate(t *testing.T) {
	handler := NewReportHandler(&fakeReportStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/reports/daily-consumption?from=March", nil)
	w := httptest.NewRecorder()
	handler.DailyConsumption(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
