package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventKind discriminates the two kinds of ledger-triggering events.
type EventKind string

const (
	EventRefuel   EventKind = "refuel"
	EventRecharge EventKind = "recharge"
)

// RefuelEvent records fuel dispensed from the depot into a vehicle.
// Immutable once created.
type RefuelEvent struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
	VehicleID  string             `bson:"vehicle_id" json:"vehicle_id"`
	Odometer   float64            `bson:"odometer" json:"odometer"` // in kilometers
	Liters     float64            `bson:"liters" json:"liters"`
	LocationID string             `bson:"location_id" json:"location_id"`
	DriverID   string             `bson:"driver_id" json:"driver_id"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// RechargeEvent records fuel delivered into the depot. Immutable once created.
type RechargeEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Liters    float64            `bson:"liters" json:"liters"`
	DriverID  string             `bson:"driver_id" json:"driver_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// StockSnapshot is one point-in-time fuel balance resulting from a single
// triggering event. Snapshots are append-only; the latest one by
// (timestamp, id) is the authoritative current stock.
type StockSnapshot struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
	BalanceLiter float64            `bson:"balance_liters" json:"balance_liters"`
}

// StockLink bridges a triggering event to the snapshot it produced.
// Both refuels and recharges are linked.
type StockLink struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID    primitive.ObjectID `bson:"event_id" json:"event_id"`
	EventKind  EventKind          `bson:"event_kind" json:"event_kind"`
	SnapshotID primitive.ObjectID `bson:"snapshot_id" json:"snapshot_id"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
}

// StockMovement is one row of the reconstructed ledger history: an inflow
// (recharge) or outflow (refuel) plus the running balance after it.
type StockMovement struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      EventKind `json:"kind"`
	VehicleID string    `json:"vehicle_id,omitempty"`
	DriverID  string    `json:"driver_id"`
	Inflow    float64   `json:"inflow"`
	Outflow   float64   `json:"outflow"`
	Balance   float64   `json:"balance"`
}

// HistoryFilter optionally restricts history reconstruction to a driver
// and/or vehicle. Zero values mean no restriction.
type HistoryFilter struct {
	DriverID  string
	VehicleID string
}

// RefuelRequest is the validated input for recording a refuel.
type RefuelRequest struct {
	Date       time.Time
	VehicleID  string
	Odometer   float64
	Liters     float64
	LocationID string
	DriverID   string
}

// RechargeRequest is the validated input for recording a depot recharge.
type RechargeRequest struct {
	Date     time.Time
	Liters   float64
	DriverID string
}

// RefuelResult is returned to the caller after a committed refuel.
type RefuelResult struct {
	EventID    primitive.ObjectID `json:"refuel_event_id"`
	NewBalance float64            `json:"new_balance"`
	Alarm      bool               `json:"alarm"`
}

// RechargeResult is returned to the caller after a committed recharge.
// Recharges raise the balance, so no alarm is derived.
type RechargeResult struct {
	EventID    primitive.ObjectID `json:"recharge_event_id"`
	NewBalance float64            `json:"new_balance"`
}
