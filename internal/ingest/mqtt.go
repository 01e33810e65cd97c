package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-fuel/internal/models"
)

// Recorder is the slice of the ledger engine the MQTT bridge records through.
type Recorder interface {
	RecordRefuel(ctx context.Context, req models.RefuelRequest) (*models.RefuelResult, error)
	RecordRecharge(ctx context.Context, req models.RechargeRequest) (*models.RechargeResult, error)
}

// Options configures the MQTT bridge.
type Options struct {
	Broker        string
	ClientID      string
	RefuelTopic   string
	RechargeTopic string
}

// RefuelMessage is the wire format pump stations publish for a refuel.
type RefuelMessage struct {
	Date       time.Time `json:"date"`
	VehicleID  string    `json:"vehicle_id"`
	Odometer   float64   `json:"odometer"`
	Liters     float64   `json:"liters"`
	LocationID string    `json:"location_id"`
	DriverID   string    `json:"driver_id"`
}

// RechargeMessage is the wire format for a depot recharge delivery.
type RechargeMessage struct {
	Date     time.Time `json:"date"`
	Liters   float64   `json:"liters"`
	DriverID string    `json:"driver_id"`
}

// Bridge subscribes to the pump-station topics and records events through
// the same ledger path as the HTTP API. Malformed payloads are logged and
// dropped; the ledger is never touched by them.
type Bridge struct {
	opts   Options
	engine Recorder
	client mqtt.Client
}

// NewBridge creates an MQTT bridge feeding the given recorder.
func NewBridge(opts Options, engine Recorder) *Bridge {
	return &Bridge{opts: opts, engine: engine}
}

// Start connects to the broker and subscribes to both topics.
func (b *Bridge) Start() error {
	clientOpts := mqtt.NewClientOptions().
		AddBroker(b.opts.Broker).
		SetClientID(b.opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)
	b.client = mqtt.NewClient(clientOpts)

	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	if token := b.client.Subscribe(b.opts.RefuelTopic, 1, b.handleRefuel); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", b.opts.RefuelTopic, token.Error())
	}
	if token := b.client.Subscribe(b.opts.RechargeTopic, 1, b.handleRecharge); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", b.opts.RechargeTopic, token.Error())
	}
	log.WithFields(log.Fields{
		"broker":         b.opts.Broker,
		"refuel_topic":   b.opts.RefuelTopic,
		"recharge_topic": b.opts.RechargeTopic,
	}).Info("MQTT intake started")
	return nil
}

// Stop disconnects from the broker.
func (b *Bridge) Stop() {
	if b.client != nil {
		b.client.Disconnect(250)
	}
}

func (b *Bridge) handleRefuel(_ mqtt.Client, msg mqtt.Message) {
	var m RefuelMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		log.WithError(err).WithField("topic", msg.Topic()).Warn("Dropping malformed refuel message")
		return
	}
	result, err := b.engine.RecordRefuel(context.Background(), models.RefuelRequest{
		Date:       m.Date,
		VehicleID:  m.VehicleID,
		Odometer:   m.Odometer,
		Liters:     m.Liters,
		LocationID: m.LocationID,
		DriverID:   m.DriverID,
	})
	if err != nil {
		log.WithError(err).WithField("vehicle_id", m.VehicleID).Error("Failed to record refuel from MQTT")
		return
	}
	log.WithFields(log.Fields{
		"vehicle_id":  m.VehicleID,
		"liters":      m.Liters,
		"new_balance": result.NewBalance,
		"alarm":       result.Alarm,
	}).Info("Recorded refuel from MQTT")
}

func (b *Bridge) handleRecharge(_ mqtt.Client, msg mqtt.Message) {
	var m RechargeMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		log.WithError(err).WithField("topic", msg.Topic()).Warn("Dropping malformed recharge message")
		return
	}
	result, err := b.engine.RecordRecharge(context.Background(), models.RechargeRequest{
		Date:     m.Date,
		Liters:   m.Liters,
		DriverID: m.DriverID,
	})
	if err != nil {
		log.WithError(err).WithField("driver_id", m.DriverID).Error("Failed to record recharge from MQTT")
		return
	}
	log.WithFields(log.Fields{
		"driver_id":   m.DriverID,
		"liters":      m.Liters,
		"new_balance": result.NewBalance,
	}).Info("Recorded recharge from MQTT")
}
