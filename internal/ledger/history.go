package ledger

import (
	"context"
	"fmt"

	"github.com/ukydev/fleet-fuel/internal/models"
)

// History reconstructs the ledger movements from the immutable event log:
// refuels as outflows and recharges as inflows, merged by timestamp ascending,
// with a running balance as the prefix sum of inflow − outflow. The read is
// pure and idempotent; running it twice with no intervening writes returns
// identical output.
//
// Without a filter the running balance starts at the seed, so the last row
// matches the current stock. A driver/vehicle filter restricts the sequence to
// that subset, and the running balance then starts at zero and reads as the
// net flow attributable to the filter.
func (e *Engine) History(ctx context.Context, filter models.HistoryFilter) ([]models.StockMovement, error) {
	refuels, err := e.store.ListRefuels(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list refuels: %w", err)
	}
	recharges, err := e.store.ListRecharges(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list recharges: %w", err)
	}

	balance := 0.0
	if filter.DriverID == "" && filter.VehicleID == "" {
		balance = e.seed
	}

	movements := make([]models.StockMovement, 0, len(refuels)+len(recharges))
	i, j := 0, 0
	for i < len(refuels) || j < len(recharges) {
		// Stable merge: on a timestamp tie the refuel comes first.
		takeRefuel := j >= len(recharges) ||
			(i < len(refuels) && !refuels[i].Timestamp.After(recharges[j].Timestamp))
		if takeRefuel {
			ev := refuels[i]
			i++
			balance -= ev.Liters
			movements = append(movements, models.StockMovement{
				Timestamp: ev.Timestamp,
				Kind:      models.EventRefuel,
				VehicleID: ev.VehicleID,
				DriverID:  ev.DriverID,
				Outflow:   ev.Liters,
				Balance:   balance,
			})
		} else {
			ev := recharges[j]
			j++
			balance += ev.Liters
			movements = append(movements, models.StockMovement{
				Timestamp: ev.Timestamp,
				Kind:      models.EventRecharge,
				DriverID:  ev.DriverID,
				Inflow:    ev.Liters,
				Balance:   balance,
			})
		}
	}
	return movements, nil
}
