package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/fleet-fuel/internal/models"
)

func seedHistory(t *testing.T, engine *Engine) {
	t.Helper()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	steps := []struct {
		kind    models.EventKind
		liters  float64
		vehicle string
		driver  string
		offset  time.Duration
	}{
		{models.EventRefuel, 200, "vehicle-1", "driver-1", 0},
		{models.EventRecharge, 1000, "", "driver-2", time.Hour},
		{models.EventRefuel, 150, "vehicle-2", "driver-2", 2 * time.Hour},
		{models.EventRefuel, 50, "vehicle-1", "driver-1", 3 * time.Hour},
	}
	for _, step := range steps {
		date := base.Add(step.offset)
		var err error
		if step.kind == models.EventRefuel {
			_, err = engine.RecordRefuel(context.Background(), models.RefuelRequest{
				Date: date, VehicleID: step.vehicle, Odometer: 1000,
				Liters: step.liters, LocationID: "depot-pump-1", DriverID: step.driver,
			})
		} else {
			_, err = engine.RecordRecharge(context.Background(), models.RechargeRequest{
				Date: date, Liters: step.liters, DriverID: step.driver,
			})
		}
		require.NoError(t, err)
	}
}

func TestHistory_MergesAndComputesRunningBalance(t *testing.T) {
	engine := NewEngine(&fakeStore{}, 10000, 1500)
	seedHistory(t, engine)

	movements, err := engine.History(context.Background(), models.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, movements, 4)

	assert.Equal(t, models.EventRefuel, movements[0].Kind)
	assert.Equal(t, 9800.0, movements[0].Balance)
	assert.Equal(t, models.EventRecharge, movements[1].Kind)
	assert.Equal(t, 10800.0, movements[1].Balance)
	assert.Equal(t, 10650.0, movements[2].Balance)
	assert.Equal(t, 10600.0, movements[3].Balance)

	for i := 1; i < len(movements); i++ {
		assert.False(t, movements[i].Timestamp.Before(movements[i-1].Timestamp),
			"movements must be ordered by timestamp ascending")
	}

	// The last running balance matches the ledger's current stock.
	snap, err := engine.CurrentStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap.BalanceLiter, movements[len(movements)-1].Balance)
}

func TestHistory_IdempotentRead(t *testing.T) {
	engine := NewEngine(&fakeStore{}, 10000, 1500)
	seedHistory(t, engine)

	first, err := engine.History(context.Background(), models.HistoryFilter{})
	require.NoError(t, err)
	second, err := engine.History(context.Background(), models.HistoryFilter{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHistory_DriverFilter(t *testing.T) {
	engine := NewEngine(&fakeStore{}, 10000, 1500)
	seedHistory(t, engine)

	movements, err := engine.History(context.Background(), models.HistoryFilter{DriverID: "driver-2"})
	require.NoError(t, err)
	require.Len(t, movements, 2)

	// Filtered running balance is the net flow for the driver, starting at zero.
	assert.Equal(t, models.EventRecharge, movements[0].Kind)
	assert.Equal(t, 1000.0, movements[0].Balance)
	assert.Equal(t, models.EventRefuel, movements[1].Kind)
	assert.Equal(t, 850.0, movements[1].Balance)
}

func TestHistory_VehicleFilterExcludesRecharges(t *testing.T) {
	engine := NewEngine(&fakeStore{}, 10000, 1500)
	seedHistory(t, engine)

	movements, err := engine.History(context.Background(), models.HistoryFilter{VehicleID: "vehicle-1"})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, models.EventRefuel, m.Kind)
		assert.Equal(t, "vehicle-1", m.VehicleID)
	}
	assert.Equal(t, -250.0, movements[1].Balance)
}

func TestHistory_EmptyLedger(t *testing.T) {
	engine := NewEngine(&fakeStore{}, 10000, 1500)

	movements, err := engine.History(context.Background(), models.HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, movements)
}
