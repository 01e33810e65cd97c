package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-fuel/internal/db"
	"github.com/ukydev/fleet-fuel/internal/ledger"
	"github.com/ukydev/fleet-fuel/internal/models"
)

// StockReader is the slice of the ledger engine the scheduler reads from.
type StockReader interface {
	CurrentStock(ctx context.Context) (*models.StockSnapshot, error)
	Threshold() float64
}

// Scheduler runs the periodic stock watchdog and the daily consumption
// summary.
type Scheduler struct {
	Cron    *cron.Cron
	Engine  StockReader
	Reports db.ReportStore
}

// NewScheduler creates a new Scheduler.
func NewScheduler(engine StockReader, reports db.ReportStore) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Engine:  engine,
		Reports: reports,
	}
}

// RegisterAll registers the stock watchdog and daily report tasks.
func (s *Scheduler) RegisterAll(stockCheckCron, dailyReportCron string) error {
	if _, err := s.Cron.AddFunc(stockCheckCron, s.stockCheck); err != nil {
		return fmt.Errorf("register stock check: %w", err)
	}
	if _, err := s.Cron.AddFunc(dailyReportCron, s.dailyReport); err != nil {
		return fmt.Errorf("register daily report: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("Scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Info("Scheduler stopped")
}

func (s *Scheduler) stockCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap, err := s.Engine.CurrentStock(ctx)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			log.Info("Stock check: ledger is empty")
			return
		}
		log.WithError(err).Error("Stock check failed")
		return
	}
	if snap.BalanceLiter <= s.Engine.Threshold() {
		log.WithFields(log.Fields{
			"balance_liters": snap.BalanceLiter,
			"threshold":      s.Engine.Threshold(),
		}).Warn("Low fuel stock alarm")
		return
	}
	log.WithField("balance_liters", snap.BalanceLiter).Info("Stock check OK")
}

func (s *Scheduler) dailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	to := time.Now()
	from := to.AddDate(0, 0, -1)
	rows, err := s.Reports.DailyConsumption(ctx, from, to)
	if err != nil {
		log.WithError(err).Error("Daily consumption report failed")
		return
	}
	total := 0.0
	for _, row := range rows {
		total += row.Liters
	}
	log.WithFields(log.Fields{
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
		"liters": total,
	}).Info("Daily fuel consumption")
}
