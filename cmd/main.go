package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-fuel/internal/config"
	"github.com/ukydev/fleet-fuel/internal/db"
	"github.com/ukydev/fleet-fuel/internal/handlers"
	"github.com/ukydev/fleet-fuel/internal/ingest"
	"github.com/ukydev/fleet-fuel/internal/ledger"
	"github.com/ukydev/fleet-fuel/internal/middleware"
	"github.com/ukydev/fleet-fuel/internal/scheduler"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	cfgPath := os.Getenv("CONFIG_FILE")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	client, err := db.ConnectMongo(cfg.Mongo.URI)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	log.Info("Connected to MongoDB")

	ledgerStore := db.NewMongoLedgerStore(client, cfg.Mongo.Database)
	referenceStore := db.NewMongoReferenceStore(client, cfg.Mongo.Database)
	reportStore := db.NewMongoReportStore(client, cfg.Mongo.Database)

	engine := ledger.NewEngine(ledgerStore, cfg.Stock.SeedBalance, cfg.Stock.AlarmThreshold)

	fuelHandler := handlers.NewFuelHandler(engine)
	referenceHandler := handlers.NewReferenceHandler(referenceStore, referenceStore, referenceStore)
	reportHandler := handlers.NewReportHandler(reportStore)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/refuels", fuelHandler.RecordRefuel)
	mux.HandleFunc("/api/recharges", fuelHandler.RecordRecharge)
	mux.HandleFunc("/api/stock/current", fuelHandler.CurrentStock)
	mux.HandleFunc("/api/history", fuelHandler.History)
	mux.HandleFunc("/api/reports/top-vehicles", reportHandler.TopVehicles)
	mux.HandleFunc("/api/reports/top-drivers", reportHandler.TopDrivers)
	mux.HandleFunc("/api/reports/daily-consumption", reportHandler.DailyConsumption)
	mux.HandleFunc("/api/vehicles", referenceHandler.Vehicles)
	mux.HandleFunc("/api/vehicles/", referenceHandler.VehicleByID)
	mux.HandleFunc("/api/drivers", referenceHandler.Drivers)
	mux.HandleFunc("/api/drivers/", referenceHandler.DriverByID)
	mux.HandleFunc("/api/locations", referenceHandler.Locations)
	mux.HandleFunc("/api/locations/", referenceHandler.LocationByID)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	rateLimiter := middleware.NewRateLimitMiddleware()
	handler := middleware.RequestLogger(
		rateLimiter.RateLimit(cfg.RateLimit.MaxRequests, cfg.RateLimit.WindowSeconds)(mux),
	)

	sched := scheduler.NewScheduler(engine, reportStore)
	if err := sched.RegisterAll(cfg.Schedule.StockCheckCron, cfg.Schedule.DailyReportCron); err != nil {
		log.WithError(err).Fatal("Failed to register scheduled tasks")
	}
	sched.Start()
	defer sched.Stop()

	if cfg.MQTT.Broker != "" {
		bridge := ingest.NewBridge(ingest.Options{
			Broker:        cfg.MQTT.Broker,
			ClientID:      cfg.MQTT.ClientID,
			RefuelTopic:   cfg.MQTT.RefuelTopic,
			RechargeTopic: cfg.MQTT.RechargeTopic,
		}, engine)
		if err := bridge.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start MQTT intake")
		}
		defer bridge.Stop()
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: handler,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
}
