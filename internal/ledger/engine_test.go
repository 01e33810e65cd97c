package ledger

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-fuel/internal/models"
)

func newObjectID() primitive.ObjectID { return primitive.NewObjectID() }

// fakeStore is an in-memory ledger store. Writers are serialized through
// InTransaction, which also rolls every write of a failed callback back,
// mirroring the all-or-nothing contract of the real store.
type fakeStore struct {
	mu        sync.Mutex
	refuels   []models.RefuelEvent
	recharges []models.RechargeEvent
	snapshots []models.StockSnapshot
	links     []models.StockLink

	failSnapshot bool
	failLink     bool
}

var errInjected = errors.New("injected storage failure")

func (s *fakeStore) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, c, n, l := len(s.refuels), len(s.recharges), len(s.snapshots), len(s.links)
	if err := fn(ctx); err != nil {
		s.refuels = s.refuels[:r]
		s.recharges = s.recharges[:c]
		s.snapshots = s.snapshots[:n]
		s.links = s.links[:l]
		return err
	}
	return nil
}

func (s *fakeStore) InsertRefuel(ctx context.Context, ev *models.RefuelEvent) error {
	if ev.ID.IsZero() {
		ev.ID = newObjectID()
	}
	s.refuels = append(s.refuels, *ev)
	return nil
}

func (s *fakeStore) InsertRecharge(ctx context.Context, ev *models.RechargeEvent) error {
	if ev.ID.IsZero() {
		ev.ID = newObjectID()
	}
	s.recharges = append(s.recharges, *ev)
	return nil
}

func (s *fakeStore) InsertSnapshot(ctx context.Context, snap *models.StockSnapshot) error {
	if s.failSnapshot {
		return errInjected
	}
	if snap.ID.IsZero() {
		snap.ID = newObjectID()
	}
	s.snapshots = append(s.snapshots, *snap)
	return nil
}

func (s *fakeStore) InsertLink(ctx context.Context, link *models.StockLink) error {
	if s.failLink {
		return errInjected
	}
	if link.ID.IsZero() {
		link.ID = newObjectID()
	}
	s.links = append(s.links, *link)
	return nil
}

func (s *fakeStore) LatestSnapshot(ctx context.Context) (*models.StockSnapshot, error) {
	if len(s.snapshots) == 0 {
		return nil, ErrNotFound
	}
	latest := s.snapshots[0]
	for _, snap := range s.snapshots[1:] {
		if !snap.Timestamp.Before(latest.Timestamp) {
			latest = snap
		}
	}
	return &latest, nil
}

func (s *fakeStore) ListRefuels(ctx context.Context, filter models.HistoryFilter) ([]models.RefuelEvent, error) {
	var out []models.RefuelEvent
	for _, ev := range s.refuels {
		if filter.DriverID != "" && ev.DriverID != filter.DriverID {
			continue
		}
		if filter.VehicleID != "" && ev.VehicleID != filter.VehicleID {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *fakeStore) ListRecharges(ctx context.Context, filter models.HistoryFilter) ([]models.RechargeEvent, error) {
	if filter.VehicleID != "" {
		return nil, nil
	}
	var out []models.RechargeEvent
	for _, ev := range s.recharges {
		if filter.DriverID != "" && ev.DriverID != filter.DriverID {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func refuelReq(liters float64) models.RefuelRequest {
	return models.RefuelRequest{
		Date:       time.Now(),
		VehicleID:  "vehicle-1",
		Odometer:   12345,
		Liters:     liters,
		LocationID: "depot-pump-1",
		DriverID:   "driver-1",
	}
}

func TestRecordRefuel_EmptyLedgerUsesSeed(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store, 10000, 1500)

	result, err := engine.RecordRefuel(context.Background(), refuelReq(200))
	require.NoError(t, err)

	assert.Equal(t, 9800.0, result.NewBalance)
	assert.False(t, result.Alarm)
	assert.False(t, result.EventID.IsZero())

	require.Len(t, store.refuels, 1)
	require.Len(t, store.snapshots, 1)
	require.Len(t, store.links, 1)
	assert.Equal(t, store.refuels[0].ID, store.links[0].EventID)
	assert.Equal(t, store.snapshots[0].ID, store.links[0].SnapshotID)
	assert.Equal(t, models.EventRefuel, store.links[0].EventKind)
}

func TestRecordRefuel_AlarmBoundary(t *testing.T) {
	cases := []struct {
		name    string
		liters  float64
		balance float64
		alarm   bool
	}{
		{"just above threshold", 499, 1501, false},
		{"exactly at threshold", 500, 1500, true},
		{"below threshold", 501, 1499, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{}
			engine := NewEngine(store, 2000, 1500)

			result, err := engine.RecordRefuel(context.Background(), refuelReq(tc.liters))
			require.NoError(t, err)
			assert.Equal(t, tc.balance, result.NewBalance)
			assert.Equal(t, tc.alarm, result.Alarm)
		})
	}
}

func TestRecordRefuel_BalanceOf1600MinusTwoHundredAlarms(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store, 10000, 1500)

	_, err := engine.RecordRefuel(context.Background(), refuelReq(8400))
	require.NoError(t, err)

	result, err := engine.RecordRefuel(context.Background(), refuelReq(200))
	require.NoError(t, err)
	assert.Equal(t, 1400.0, result.NewBalance)
	assert.True(t, result.Alarm)
}

func TestRecordRefuel_InvalidInputWritesNothing(t *testing.T) {
	cases := []struct {
		name string
		req  models.RefuelRequest
	}{
		{"NaN liters", models.RefuelRequest{Date: time.Now(), VehicleID: "v1", Odometer: 1, Liters: math.NaN()}},
		{"infinite liters", models.RefuelRequest{Date: time.Now(), VehicleID: "v1", Odometer: 1, Liters: math.Inf(1)}},
		{"zero liters", models.RefuelRequest{Date: time.Now(), VehicleID: "v1", Odometer: 1, Liters: 0}},
		{"negative liters", models.RefuelRequest{Date: time.Now(), VehicleID: "v1", Odometer: 1, Liters: -5}},
		{"NaN odometer", models.RefuelRequest{Date: time.Now(), VehicleID: "v1", Odometer: math.NaN(), Liters: 10}},
		{"negative odometer", models.RefuelRequest{Date: time.Now(), VehicleID: "v1", Odometer: -1, Liters: 10}},
		{"missing vehicle", models.RefuelRequest{Date: time.Now(), Odometer: 1, Liters: 10}},
		{"missing date", models.RefuelRequest{VehicleID: "v1", Odometer: 1, Liters: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{}
			engine := NewEngine(store, 10000, 1500)

			_, err := engine.RecordRefuel(context.Background(), tc.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Empty(t, store.refuels)
			assert.Empty(t, store.snapshots)
			assert.Empty(t, store.links)
		})
	}
}

func TestRecordRefuel_FullRollbackOnFailure(t *testing.T) {
	t.Run("snapshot insert fails", func(t *testing.T) {
		store := &fakeStore{failSnapshot: true}
		engine := NewEngine(store, 10000, 1500)

		_, err := engine.RecordRefuel(context.Background(), refuelReq(200))
		assert.ErrorIs(t, err, ErrTransactionFailed)
		assert.Empty(t, store.refuels, "refuel event must not be visible after rollback")
		assert.Empty(t, store.snapshots)
		assert.Empty(t, store.links)
	})

	t.Run("link insert fails", func(t *testing.T) {
		store := &fakeStore{failLink: true}
		engine := NewEngine(store, 10000, 1500)

		_, err := engine.RecordRefuel(context.Background(), refuelReq(200))
		assert.ErrorIs(t, err, ErrTransactionFailed)
		assert.Empty(t, store.refuels)
		assert.Empty(t, store.snapshots)
		assert.Empty(t, store.links)
	})
}

func TestRecordRecharge(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store, 10000, 1500)

	result, err := engine.RecordRecharge(context.Background(), models.RechargeRequest{
		Date:     time.Now(),
		Liters:   500,
		DriverID: "driver-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 10500.0, result.NewBalance)

	require.Len(t, store.recharges, 1)
	require.Len(t, store.snapshots, 1)
	require.Len(t, store.links, 1)
	assert.Equal(t, models.EventRecharge, store.links[0].EventKind)
}

func TestRecordRecharge_InvalidInput(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store, 10000, 1500)

	cases := []models.RechargeRequest{
		{Date: time.Now(), Liters: 0, DriverID: "driver-1"},
		{Date: time.Now(), Liters: math.NaN(), DriverID: "driver-1"},
		{Date: time.Now(), Liters: 100},
		{Liters: 100, DriverID: "driver-1"},
	}
	for _, req := range cases {
		_, err := engine.RecordRecharge(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Empty(t, store.recharges)
	assert.Empty(t, store.snapshots)
}

func TestCurrentStock_EmptyLedger(t *testing.T) {
	engine := NewEngine(&fakeStore{}, 10000, 1500)

	_, err := engine.CurrentStock(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplayProperty(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store, 10000, 1500)
	rng := rand.New(rand.NewSource(42))

	expected := 10000.0
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		liters := 1 + rng.Float64()*100
		date := base.Add(time.Duration(i) * time.Minute)
		if rng.Intn(3) == 0 {
			_, err := engine.RecordRecharge(context.Background(), models.RechargeRequest{
				Date: date, Liters: liters, DriverID: "driver-1",
			})
			require.NoError(t, err)
			expected += liters
		} else {
			req := refuelReq(liters)
			req.Date = date
			_, err := engine.RecordRefuel(context.Background(), req)
			require.NoError(t, err)
			expected -= liters
		}
	}

	snap, err := engine.CurrentStock(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, expected, snap.BalanceLiter, 1e-6)
}

func TestConcurrentRefuels_NoLostUpdate(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store, 10000, 1500)

	const workers = 20
	const liters = 50.0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.RecordRefuel(context.Background(), refuelReq(liters))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := engine.CurrentStock(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 10000-workers*liters, snap.BalanceLiter, 1e-6)
	assert.Len(t, store.snapshots, workers)
}

func TestPriorBalanceNotFiniteFallsBackToSeed(t *testing.T) {
	store := &fakeStore{
		snapshots: []models.StockSnapshot{
			{ID: newObjectID(), Timestamp: time.Now(), BalanceLiter: math.NaN()},
		},
	}
	engine := NewEngine(store, 10000, 1500)

	result, err := engine.RecordRefuel(context.Background(), refuelReq(200))
	require.NoError(t, err)
	assert.Equal(t, 9800.0, result.NewBalance)
}
