package db

import (
	"context"
	"time"

	"github.com/ukydev/fleet-fuel/internal/models"
)

// VehicleCollection defines the interface for vehicle reference data.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error
	FindVehicles(ctx context.Context) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error
}

// DriverCollection defines the interface for driver reference data.
type DriverCollection interface {
	InsertDriver(ctx context.Context, driver *models.Driver) error
	FindDrivers(ctx context.Context) ([]models.Driver, error)
	FindDriverByID(ctx context.Context, id string) (*models.Driver, error)
	UpdateDriver(ctx context.Context, id string, driver models.Driver) error
	DeleteDriver(ctx context.Context, id string) error
}

// LocationCollection defines the interface for fuel location reference data.
type LocationCollection interface {
	InsertLocation(ctx context.Context, location *models.FuelLocation) error
	FindLocations(ctx context.Context) ([]models.FuelLocation, error)
	FindLocationByID(ctx context.Context, id string) (*models.FuelLocation, error)
	UpdateLocation(ctx context.Context, id string, location models.FuelLocation) error
	DeleteLocation(ctx context.Context, id string) error
}

// ReportStore defines the read-only aggregate queries over the event log.
type ReportStore interface {
	TopVehicles(ctx context.Context, limit int) ([]models.VehicleConsumption, error)
	TopDrivers(ctx context.Context, limit int) ([]models.DriverConsumption, error)
	DailyConsumption(ctx context.Context, from, to time.Time) ([]models.DailyConsumption, error)
}
