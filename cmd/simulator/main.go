package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// RefuelEvent is the payload sent for a simulated refuel.
type RefuelEvent struct {
	Date       string  `json:"date"`
	VehicleID  string  `json:"vehicle_id"`
	Odometer   float64 `json:"odometer"`
	Liters     float64 `json:"liters"`
	LocationID string  `json:"location_id"`
	DriverID   string  `json:"driver_id"`
}

// RechargeEvent is the payload sent for a simulated depot recharge.
type RechargeEvent struct {
	Date     string  `json:"date"`
	Liters   float64 `json:"liters"`
	DriverID string  `json:"driver_id"`
}

// VehicleState tracks one simulated vehicle between refuels.
type VehicleState struct {
	VehicleID string
	DriverID  string
	Odometer  float64
}

var locations = []string{"depot-pump-1", "depot-pump-2", "station-north", "station-south"}

func postJSON(apiURL string, path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(apiURL+path, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return nil
}

func randomRefuel(s *VehicleState) RefuelEvent {
	s.Odometer += 50 + rand.Float64()*450
	return RefuelEvent{
		Date:       time.Now().Format(time.RFC3339),
		VehicleID:  s.VehicleID,
		Odometer:   s.Odometer,
		Liters:     20 + rand.Float64()*60,
		LocationID: locations[rand.Intn(len(locations))],
		DriverID:   s.DriverID,
	}
}

func simulateVehicle(apiURL string, publish func(topic string, body interface{}) error, refuelTopic string, s *VehicleState, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for range tick.C {
		ev := randomRefuel(s)
		var err error
		if publish != nil {
			err = publish(refuelTopic, ev)
		} else {
			err = postJSON(apiURL, "/refuels", ev)
		}
		if err != nil {
			log.WithError(err).WithField("vehicle_id", s.VehicleID).Error("Failed to send refuel")
			continue
		}
		log.WithFields(log.Fields{
			"vehicle_id": s.VehicleID,
			"liters":     ev.Liters,
		}).Info("Sent refuel")
	}
}

func simulateRecharges(apiURL string, publish func(topic string, body interface{}) error, rechargeTopic string, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for range tick.C {
		ev := RechargeEvent{
			Date:     time.Now().Format(time.RFC3339),
			Liters:   2000 + rand.Float64()*3000,
			DriverID: fmt.Sprintf("driver-%d", 1+rand.Intn(5)),
		}
		var err error
		if publish != nil {
			err = publish(rechargeTopic, ev)
		} else {
			err = postJSON(apiURL, "/recharges", ev)
		}
		if err != nil {
			log.WithError(err).Error("Failed to send recharge")
			continue
		}
		log.WithField("liters", ev.Liters).Info("Sent recharge")
	}
}

func main() {
	fleetSize := 5
	if v := os.Getenv("FLEET_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			fleetSize = n
		}
	}

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8081/api"
	}

	interval := 5 * time.Second
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			interval = time.Duration(n) * time.Second
		}
	}

	// With a broker configured the simulator publishes over MQTT like a pump
	// station; otherwise it posts to the HTTP API.
	var publish func(topic string, body interface{}) error
	broker := os.Getenv("MQTT_BROKER")
	if broker != "" {
		opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID("fuel-simulator")
		client := mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.WithError(token.Error()).Fatal("Failed to connect to MQTT broker")
		}
		defer client.Disconnect(250)
		publish = func(topic string, body interface{}) error {
			data, err := json.Marshal(body)
			if err != nil {
				return err
			}
			token := client.Publish(topic, 1, false, data)
			token.Wait()
			return token.Error()
		}
	}

	refuelTopic := os.Getenv("MQTT_REFUEL_TOPIC")
	if refuelTopic == "" {
		refuelTopic = "fuel/refuels"
	}
	rechargeTopic := os.Getenv("MQTT_RECHARGE_TOPIC")
	if rechargeTopic == "" {
		rechargeTopic = "fuel/recharges"
	}

	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"api_url":    apiURL,
		"broker":     broker,
		"interval":   interval,
	}).Info("Starting fuel operations simulation")

	for i := 0; i < fleetSize; i++ {
		state := &VehicleState{
			VehicleID: fmt.Sprintf("vehicle-%d", i+1),
			DriverID:  fmt.Sprintf("driver-%d", 1+rand.Intn(5)),
			Odometer:  10000 + rand.Float64()*90000,
		}
		go simulateVehicle(apiURL, publish, refuelTopic, state, interval)
	}
	go simulateRecharges(apiURL, publish, rechargeTopic, interval*10)

	log.Info("Fuel simulation started")
	select {} // Block forever
}
