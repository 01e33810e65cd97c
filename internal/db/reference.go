package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ukydev/fleet-fuel/internal/models"
)

// MongoReferenceStore holds the reference-data collections the ledger events
// point into. The engine treats these identifiers as opaque foreign keys.
type MongoReferenceStore struct {
	vehicles  *mongo.Collection
	drivers   *mongo.Collection
	locations *mongo.Collection
}

// NewMongoReferenceStore wires the reference collections of the database.
func NewMongoReferenceStore(client *mongo.Client, database string) *MongoReferenceStore {
	d := client.Database(database)
	return &MongoReferenceStore{
		vehicles:  d.Collection("vehicles"),
		drivers:   d.Collection("drivers"),
		locations: d.Collection("fuel_locations"),
	}
}

// InsertVehicle inserts a vehicle record into the collection.
func (s *MongoReferenceStore) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.ID.IsZero() {
		vehicle.ID = primitive.NewObjectID()
	}
	vehicle.CreatedAt = time.Now()
	vehicle.UpdatedAt = time.Now()
	_, err := s.vehicles.InsertOne(ctx, vehicle)
	return err
}

// FindVehicles returns all vehicle records.
func (s *MongoReferenceStore) FindVehicles(ctx context.Context) ([]models.Vehicle, error) {
	cursor, err := s.vehicles.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var vehicles []models.Vehicle
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// FindVehicleByID finds a vehicle by its ID.
func (s *MongoReferenceStore) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle ID: %w", err)
	}
	var vehicle models.Vehicle
	err = s.vehicles.FindOne(ctx, bson.M{"_id": objectID}).Decode(&vehicle)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("vehicle not found")
		}
		return nil, err
	}
	return &vehicle, nil
}

// UpdateVehicle updates a vehicle by its ID.
func (s *MongoReferenceStore) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid vehicle ID: %w", err)
	}
	vehicle.UpdatedAt = time.Now()
	result, err := s.vehicles.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": vehicle})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("vehicle not found")
	}
	return nil
}

// DeleteVehicle deletes a vehicle by its ID.
func (s *MongoReferenceStore) DeleteVehicle(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid vehicle ID: %w", err)
	}
	result, err := s.vehicles.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("vehicle not found")
	}
	return nil
}

// InsertDriver inserts a driver record into the collection.
func (s *MongoReferenceStore) InsertDriver(ctx context.Context, driver *models.Driver) error {
	if driver.ID.IsZero() {
		driver.ID = primitive.NewObjectID()
	}
	driver.CreatedAt = time.Now()
	driver.UpdatedAt = time.Now()
	_, err := s.drivers.InsertOne(ctx, driver)
	return err
}

// FindDrivers returns all driver records.
func (s *MongoReferenceStore) FindDrivers(ctx context.Context) ([]models.Driver, error) {
	cursor, err := s.drivers.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var drivers []models.Driver
	if err := cursor.All(ctx, &drivers); err != nil {
		return nil, err
	}
	return drivers, nil
}

// FindDriverByID finds a driver by its ID.
func (s *MongoReferenceStore) FindDriverByID(ctx context.Context, id string) (*models.Driver, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid driver ID: %w", err)
	}
	var driver models.Driver
	err = s.drivers.FindOne(ctx, bson.M{"_id": objectID}).Decode(&driver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("driver not found")
		}
		return nil, err
	}
	return &driver, nil
}

// UpdateDriver updates a driver by its ID.
func (s *MongoReferenceStore) UpdateDriver(ctx context.Context, id string, driver models.Driver) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid driver ID: %w", err)
	}
	driver.UpdatedAt = time.Now()
	result, err := s.drivers.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": driver})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("driver not found")
	}
	return nil
}

// DeleteDriver deletes a driver by its ID.
func (s *MongoReferenceStore) DeleteDriver(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid driver ID: %w", err)
	}
	result, err := s.drivers.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("driver not found")
	}
	return nil
}

// InsertLocation inserts a fuel location record into the collection.
func (s *MongoReferenceStore) InsertLocation(ctx context.Context, location *models.FuelLocation) error {
	if location.ID.IsZero() {
		location.ID = primitive.NewObjectID()
	}
	location.CreatedAt = time.Now()
	location.UpdatedAt = time.Now()
	_, err := s.locations.InsertOne(ctx, location)
	return err
}

// FindLocations returns all fuel location records.
func (s *MongoReferenceStore) FindLocations(ctx context.Context) ([]models.FuelLocation, error) {
	cursor, err := s.locations.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var locations []models.FuelLocation
	if err := cursor.All(ctx, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// FindLocationByID finds a fuel location by its ID.
func (s *MongoReferenceStore) FindLocationByID(ctx context.Context, id string) (*models.FuelLocation, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid location ID: %w", err)
	}
	var location models.FuelLocation
	err = s.locations.FindOne(ctx, bson.M{"_id": objectID}).Decode(&location)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("location not found")
		}
		return nil, err
	}
	return &location, nil
}

// UpdateLocation updates a fuel location by its ID.
func (s *MongoReferenceStore) UpdateLocation(ctx context.Context, id string, location models.FuelLocation) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid location ID: %w", err)
	}
	location.UpdatedAt = time.Now()
	result, err := s.locations.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": location})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("location not found")
	}
	return nil
}

// DeleteLocation deletes a fuel location by its ID.
func (s *MongoReferenceStore) DeleteLocation(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid location ID: %w", err)
	}
	result, err := s.locations.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("location not found")
	}
	return nil
}
