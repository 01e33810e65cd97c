package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/ukydev/fleet-fuel/internal/ledger"
	"github.com/ukydev/fleet-fuel/internal/models"
)

// headID identifies the single current-balance aggregate document. Every
// ledger append rewrites it inside the transaction, so two concurrent appends
// conflict on it and one of them retries against the committed balance.
const headID = "fuel-depot"

// stockHead is the transactionally maintained current-balance aggregate.
type stockHead struct {
	ID           string             `bson:"_id"`
	SnapshotID   primitive.ObjectID `bson:"snapshot_id"`
	BalanceLiter float64            `bson:"balance_liters"`
	Timestamp    time.Time          `bson:"timestamp"`
}

// MongoLedgerStore implements ledger.Store on MongoDB collections.
type MongoLedgerStore struct {
	client    *mongo.Client
	refuels   *mongo.Collection
	recharges *mongo.Collection
	snapshots *mongo.Collection
	links     *mongo.Collection
	head      *mongo.Collection
}

// NewMongoLedgerStore wires the ledger collections of the given database.
func NewMongoLedgerStore(client *mongo.Client, database string) *MongoLedgerStore {
	d := client.Database(database)
	return &MongoLedgerStore{
		client:    client,
		refuels:   d.Collection("refuel_events"),
		recharges: d.Collection("recharge_events"),
		snapshots: d.Collection("stock_snapshots"),
		links:     d.Collection("stock_links"),
		head:      d.Collection("stock_head"),
	}
}

// InTransaction runs fn inside a session transaction with majority read and
// write concern. The driver retries fn on transient write conflicts, which is
// how concurrent appends against the head document get serialized.
func (s *MongoLedgerStore) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority())
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, opts)
	return err
}

// InsertRefuel inserts a refuel event, assigning its ID if unset.
func (s *MongoLedgerStore) InsertRefuel(ctx context.Context, ev *models.RefuelEvent) error {
	if ev.ID.IsZero() {
		ev.ID = primitive.NewObjectID()
	}
	_, err := s.refuels.InsertOne(ctx, ev)
	return err
}

// InsertRecharge inserts a recharge event, assigning its ID if unset.
func (s *MongoLedgerStore) InsertRecharge(ctx context.Context, ev *models.RechargeEvent) error {
	if ev.ID.IsZero() {
		ev.ID = primitive.NewObjectID()
	}
	_, err := s.recharges.InsertOne(ctx, ev)
	return err
}

// InsertSnapshot appends a balance snapshot and rewrites the head aggregate
// in the same transaction.
func (s *MongoLedgerStore) InsertSnapshot(ctx context.Context, snap *models.StockSnapshot) error {
	if snap.ID.IsZero() {
		snap.ID = primitive.NewObjectID()
	}
	if _, err := s.snapshots.InsertOne(ctx, snap); err != nil {
		return err
	}
	head := stockHead{
		ID:           headID,
		SnapshotID:   snap.ID,
		BalanceLiter: snap.BalanceLiter,
		Timestamp:    snap.Timestamp,
	}
	_, err := s.head.ReplaceOne(ctx, bson.M{"_id": headID}, head, options.Replace().SetUpsert(true))
	return err
}

// InsertLink inserts the event-to-snapshot bridge record.
func (s *MongoLedgerStore) InsertLink(ctx context.Context, link *models.StockLink) error {
	if link.ID.IsZero() {
		link.ID = primitive.NewObjectID()
	}
	_, err := s.links.InsertOne(ctx, link)
	return err
}

// LatestSnapshot reads the head aggregate, falling back to the newest row of
// the snapshot log when the head document does not exist yet. An empty ledger
// yields ledger.ErrNotFound.
func (s *MongoLedgerStore) LatestSnapshot(ctx context.Context) (*models.StockSnapshot, error) {
	var head stockHead
	err := s.head.FindOne(ctx, bson.M{"_id": headID}).Decode(&head)
	if err == nil {
		return &models.StockSnapshot{
			ID:           head.SnapshotID,
			Timestamp:    head.Timestamp,
			BalanceLiter: head.BalanceLiter,
		}, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, mapStorageErr(err)
	}

	// Deterministic tie-break when two snapshots share a timestamp.
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	var snap models.StockSnapshot
	err = s.snapshots.FindOne(ctx, bson.M{}, opts).Decode(&snap)
	if err == mongo.ErrNoDocuments {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return &snap, nil
}

// ListRefuels returns refuel events matching the filter, oldest first.
func (s *MongoLedgerStore) ListRefuels(ctx context.Context, filter models.HistoryFilter) ([]models.RefuelEvent, error) {
	query := bson.M{}
	if filter.DriverID != "" {
		query["driver_id"] = filter.DriverID
	}
	if filter.VehicleID != "" {
		query["vehicle_id"] = filter.VehicleID
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.refuels.Find(ctx, query, opts)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer cursor.Close(ctx)
	var events []models.RefuelEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, mapStorageErr(err)
	}
	return events, nil
}

// ListRecharges returns recharge events matching the filter, oldest first.
// A vehicle filter excludes recharges entirely; they are not tied to vehicles.
func (s *MongoLedgerStore) ListRecharges(ctx context.Context, filter models.HistoryFilter) ([]models.RechargeEvent, error) {
	if filter.VehicleID != "" {
		return nil, nil
	}
	query := bson.M{}
	if filter.DriverID != "" {
		query["driver_id"] = filter.DriverID
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.recharges.Find(ctx, query, opts)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer cursor.Close(ctx)
	var events []models.RechargeEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, mapStorageErr(err)
	}
	return events, nil
}

// mapStorageErr translates driver-level connectivity failures into the
// engine's taxonomy so handlers can answer 503 instead of a generic 500.
func mapStorageErr(err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}
	return err
}
