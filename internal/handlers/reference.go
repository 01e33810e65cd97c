package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ukydev/fleet-fuel/internal/db"
	"github.com/ukydev/fleet-fuel/internal/models"
)

// ReferenceHandler serves the vehicle, driver and fuel-location CRUD
// endpoints. The ledger only ever sees their identifiers.
type ReferenceHandler struct {
	vehicles  db.VehicleCollection
	drivers   db.DriverCollection
	locations db.LocationCollection
}

// NewReferenceHandler creates a reference-data handler.
func NewReferenceHandler(vehicles db.VehicleCollection, drivers db.DriverCollection, locations db.LocationCollection) *ReferenceHandler {
	return &ReferenceHandler{vehicles: vehicles, drivers: drivers, locations: locations}
}

// Vehicles handles GET/POST /api/vehicles.
func (h *ReferenceHandler) Vehicles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		vehicles, err := h.vehicles.FindVehicles(r.Context())
		if err != nil {
			http.Error(w, "Failed to list vehicles", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, vehicles)
	case http.MethodPost:
		var vehicle models.Vehicle
		if err := json.NewDecoder(r.Body).Decode(&vehicle); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if vehicle.Plate == "" {
			http.Error(w, "Plate is required", http.StatusBadRequest)
			return
		}
		if vehicle.Status == "" {
			vehicle.Status = "active"
		}
		if err := h.vehicles.InsertVehicle(r.Context(), &vehicle); err != nil {
			http.Error(w, "Failed to create vehicle", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, vehicle)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// VehicleByID handles GET/PUT/DELETE /api/vehicles/{id}.
func (h *ReferenceHandler) VehicleByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/vehicles/")
	if id == "" {
		http.Error(w, "Vehicle ID required", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		vehicle, err := h.vehicles.FindVehicleByID(r.Context(), id)
		if err != nil {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, vehicle)
	case http.MethodPut:
		var vehicle models.Vehicle
		if err := json.NewDecoder(r.Body).Decode(&vehicle); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if err := h.vehicles.UpdateVehicle(r.Context(), id, vehicle); err != nil {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Vehicle updated successfully"})
	case http.MethodDelete:
		if err := h.vehicles.DeleteVehicle(r.Context(), id); err != nil {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Vehicle deleted successfully"})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Drivers handles GET/POST /api/drivers.
func (h *ReferenceHandler) Drivers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		drivers, err := h.drivers.FindDrivers(r.Context())
		if err != nil {
			http.Error(w, "Failed to list drivers", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, drivers)
	case http.MethodPost:
		var driver models.Driver
		if err := json.NewDecoder(r.Body).Decode(&driver); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if driver.FirstName == "" || driver.LastName == "" {
			http.Error(w, "First and last name are required", http.StatusBadRequest)
			return
		}
		if driver.Status == "" {
			driver.Status = "active"
		}
		if err := h.drivers.InsertDriver(r.Context(), &driver); err != nil {
			http.Error(w, "Failed to create driver", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, driver)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// DriverByID handles GET/PUT/DELETE /api/drivers/{id}.
func (h *ReferenceHandler) DriverByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/drivers/")
	if id == "" {
		http.Error(w, "Driver ID required", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		driver, err := h.drivers.FindDriverByID(r.Context(), id)
		if err != nil {
			http.Error(w, "Driver not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, driver)
	case http.MethodPut:
		var driver models.Driver
		if err := json.NewDecoder(r.Body).Decode(&driver); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if err := h.drivers.UpdateDriver(r.Context(), id, driver); err != nil {
			http.Error(w, "Driver not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Driver updated successfully"})
	case http.MethodDelete:
		if err := h.drivers.DeleteDriver(r.Context(), id); err != nil {
			http.Error(w, "Driver not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Driver deleted successfully"})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Locations handles GET/POST /api/locations.
func (h *ReferenceHandler) Locations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		locations, err := h.locations.FindLocations(r.Context())
		if err != nil {
			http.Error(w, "Failed to list locations", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, locations)
	case http.MethodPost:
		var location models.FuelLocation
		if err := json.NewDecoder(r.Body).Decode(&location); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if location.Name == "" {
			http.Error(w, "Name is required", http.StatusBadRequest)
			return
		}
		if err := h.locations.InsertLocation(r.Context(), &location); err != nil {
			http.Error(w, "Failed to create location", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, location)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// LocationByID handles GET/PUT/DELETE /api/locations/{id}.
func (h *ReferenceHandler) LocationByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/locations/")
	if id == "" {
		http.Error(w, "Location ID required", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		location, err := h.locations.FindLocationByID(r.Context(), id)
		if err != nil {
			http.Error(w, "Location not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, location)
	case http.MethodPut:
		var location models.FuelLocation
		if err := json.NewDecoder(r.Body).Decode(&location); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if err := h.locations.UpdateLocation(r.Context(), id, location); err != nil {
			http.Error(w, "Location not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Location updated successfully"})
	case http.MethodDelete:
		if err := h.locations.DeleteLocation(r.Context(), id); err != nil {
			http.Error(w, "Location not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Location deleted successfully"})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
