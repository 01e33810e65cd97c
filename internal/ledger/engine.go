package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-fuel/internal/models"
)

// Store is the transactional storage the engine appends the ledger through.
// InTransaction must run fn atomically: either every write made inside fn
// becomes visible together, or none does. Implementations must also serialize
// concurrent transactions that touch the ledger head, so that two appends can
// never both read the same prior balance (the callback may be retried on a
// write conflict and therefore has to be safe to re-run).
type Store interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	InsertRefuel(ctx context.Context, ev *models.RefuelEvent) error
	InsertRecharge(ctx context.Context, ev *models.RechargeEvent) error
	InsertSnapshot(ctx context.Context, snap *models.StockSnapshot) error
	InsertLink(ctx context.Context, link *models.StockLink) error

	// LatestSnapshot returns the most recent balance snapshot, or
	// ErrNotFound when the ledger is empty.
	LatestSnapshot(ctx context.Context) (*models.StockSnapshot, error)

	ListRefuels(ctx context.Context, filter models.HistoryFilter) ([]models.RefuelEvent, error)
	ListRecharges(ctx context.Context, filter models.HistoryFilter) ([]models.RechargeEvent, error)
}

// Engine owns the fuel-stock ledger invariant:
//
//	current stock = seed − Σ refueled liters + Σ recharged liters
//
// expressed as an append-only chain of snapshots, each caused by exactly one
// refuel or recharge event.
type Engine struct {
	store     Store
	seed      float64
	threshold float64
}

// NewEngine creates a ledger engine. seed is the balance assumed when the
// ledger is empty; threshold is the low-stock alarm level.
func NewEngine(store Store, seed, threshold float64) *Engine {
	return &Engine{store: store, seed: seed, threshold: threshold}
}

// Threshold returns the configured low-stock alarm level.
func (e *Engine) Threshold() float64 { return e.threshold }

// RecordRefuel appends a refuel to the ledger: the event record, the new
// balance snapshot and the bridge link are committed as one unit. The result
// carries the new balance and whether it is at or below the alarm threshold.
func (e *Engine) RecordRefuel(ctx context.Context, req models.RefuelRequest) (*models.RefuelResult, error) {
	if err := validateRefuel(req); err != nil {
		return nil, err
	}
	// A caller disconnect must not abort a ledger append midway; the unit
	// always runs to commit or rollback.
	ctx = context.WithoutCancel(ctx)

	ev := &models.RefuelEvent{
		Timestamp:  req.Date,
		VehicleID:  req.VehicleID,
		Odometer:   req.Odometer,
		Liters:     req.Liters,
		LocationID: req.LocationID,
		DriverID:   req.DriverID,
		CreatedAt:  time.Now().UTC(),
	}

	var res models.RefuelResult
	err := e.store.InTransaction(ctx, func(ctx context.Context) error {
		if err := e.store.InsertRefuel(ctx, ev); err != nil {
			return fmt.Errorf("insert refuel: %w", err)
		}
		prior, err := e.priorBalance(ctx)
		if err != nil {
			return err
		}
		snap := &models.StockSnapshot{
			Timestamp:    ev.Timestamp,
			BalanceLiter: prior - ev.Liters,
		}
		if err := e.store.InsertSnapshot(ctx, snap); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		link := &models.StockLink{
			EventID:    ev.ID,
			EventKind:  models.EventRefuel,
			SnapshotID: snap.ID,
			Timestamp:  ev.Timestamp,
		}
		if err := e.store.InsertLink(ctx, link); err != nil {
			return fmt.Errorf("insert link: %w", err)
		}
		res = models.RefuelResult{
			EventID:    ev.ID,
			NewBalance: snap.BalanceLiter,
			Alarm:      snap.BalanceLiter <= e.threshold,
		}
		return nil
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"vehicle_id": req.VehicleID,
			"driver_id":  req.DriverID,
			"liters":     req.Liters,
		}).Error("Refuel transaction failed")
		return nil, ErrTransactionFailed
	}
	return &res, nil
}

// RecordRecharge appends a depot recharge to the ledger inside the same kind
// of atomic unit as a refuel. The prior balance defaults to the seed when the
// ledger is empty, matching the refuel path.
func (e *Engine) RecordRecharge(ctx context.Context, req models.RechargeRequest) (*models.RechargeResult, error) {
	if err := validateRecharge(req); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	ev := &models.RechargeEvent{
		Timestamp: req.Date,
		Liters:    req.Liters,
		DriverID:  req.DriverID,
		CreatedAt: time.Now().UTC(),
	}

	var res models.RechargeResult
	err := e.store.InTransaction(ctx, func(ctx context.Context) error {
		if err := e.store.InsertRecharge(ctx, ev); err != nil {
			return fmt.Errorf("insert recharge: %w", err)
		}
		prior, err := e.priorBalance(ctx)
		if err != nil {
			return err
		}
		snap := &models.StockSnapshot{
			Timestamp:    ev.Timestamp,
			BalanceLiter: prior + ev.Liters,
		}
		if err := e.store.InsertSnapshot(ctx, snap); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		link := &models.StockLink{
			EventID:    ev.ID,
			EventKind:  models.EventRecharge,
			SnapshotID: snap.ID,
			Timestamp:  ev.Timestamp,
		}
		if err := e.store.InsertLink(ctx, link); err != nil {
			return fmt.Errorf("insert link: %w", err)
		}
		res = models.RechargeResult{EventID: ev.ID, NewBalance: snap.BalanceLiter}
		return nil
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"driver_id": req.DriverID,
			"liters":    req.Liters,
		}).Error("Recharge transaction failed")
		return nil, ErrTransactionFailed
	}
	return &res, nil
}

// CurrentStock returns the latest balance snapshot, or ErrNotFound when no
// event has been recorded yet.
func (e *Engine) CurrentStock(ctx context.Context) (*models.StockSnapshot, error) {
	return e.store.LatestSnapshot(ctx)
}

// priorBalance reads the balance the next snapshot chains from. An empty
// ledger yields the seed. A stored balance that is not a finite number also
// falls back to the seed rather than poisoning the chain.
func (e *Engine) priorBalance(ctx context.Context) (float64, error) {
	snap, err := e.store.LatestSnapshot(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return e.seed, nil
		}
		return 0, fmt.Errorf("read latest snapshot: %w", err)
	}
	if math.IsNaN(snap.BalanceLiter) || math.IsInf(snap.BalanceLiter, 0) {
		log.WithField("snapshot_id", snap.ID.Hex()).Warn("Latest snapshot balance is not finite, using seed")
		return e.seed, nil
	}
	return snap.BalanceLiter, nil
}

func validateRefuel(req models.RefuelRequest) error {
	if !isFinite(req.Liters) || req.Liters <= 0 {
		return fmt.Errorf("%w: liters must be a positive number", ErrInvalidInput)
	}
	if !isFinite(req.Odometer) || req.Odometer < 0 {
		return fmt.Errorf("%w: odometer must be a non-negative number", ErrInvalidInput)
	}
	if req.VehicleID == "" {
		return fmt.Errorf("%w: vehicle_id is required", ErrInvalidInput)
	}
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	return nil
}

func validateRecharge(req models.RechargeRequest) error {
	if !isFinite(req.Liters) || req.Liters <= 0 {
		return fmt.Errorf("%w: liters must be a positive number", ErrInvalidInput)
	}
	if req.DriverID == "" {
		return fmt.Errorf("%w: driver_id is required", ErrInvalidInput)
	}
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
