package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ukydev/fleet-fuel/internal/models"
)

// MongoReportStore runs read-only aggregation pipelines over the refuel
// event log. Reports never touch the snapshot chain.
type MongoReportStore struct {
	refuels *mongo.Collection
}

// NewMongoReportStore wires the report queries against the database.
func NewMongoReportStore(client *mongo.Client, database string) *MongoReportStore {
	return &MongoReportStore{refuels: client.Database(database).Collection("refuel_events")}
}

// TopVehicles returns the vehicles with the highest total liters dispensed.
func (s *MongoReportStore) TopVehicles(ctx context.Context, limit int) ([]models.VehicleConsumption, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$vehicle_id"},
			{Key: "liters", Value: bson.D{{Key: "$sum", Value: "$liters"}}},
			{Key: "refuels", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "liters", Value: -1}}}},
		bson.D{{Key: "$limit", Value: limit}},
	}
	cursor, err := s.refuels.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []models.VehicleConsumption
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TopDrivers returns the drivers with the highest total liters dispensed.
func (s *MongoReportStore) TopDrivers(ctx context.Context, limit int) ([]models.DriverConsumption, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$driver_id"},
			{Key: "liters", Value: bson.D{{Key: "$sum", Value: "$liters"}}},
			{Key: "refuels", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "liters", Value: -1}}}},
		bson.D{{Key: "$limit", Value: limit}},
	}
	cursor, err := s.refuels.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []models.DriverConsumption
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DailyConsumption returns liters dispensed per calendar day in [from, to].
func (s *MongoReportStore) DailyConsumption(ctx context.Context, from, to time.Time) ([]models.DailyConsumption, error) {
	match := bson.M{}
	if !from.IsZero() || !to.IsZero() {
		span := bson.M{}
		if !from.IsZero() {
			span["$gte"] = from
		}
		if !to.IsZero() {
			span["$lte"] = to
		}
		match["timestamp"] = span
	}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "format", Value: "%Y-%m-%d"},
				{Key: "date", Value: "$timestamp"},
			}}}},
			{Key: "liters", Value: bson.D{{Key: "$sum", Value: "$liters"}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cursor, err := s.refuels.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []models.DailyConsumption
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
