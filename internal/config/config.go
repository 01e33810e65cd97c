package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Stock struct {
		SeedBalance    float64 `yaml:"seed_balance"`
		AlarmThreshold float64 `yaml:"alarm_threshold"`
	} `yaml:"stock"`
	MQTT struct {
		Broker        string `yaml:"broker"`
		ClientID      string `yaml:"client_id"`
		RefuelTopic   string `yaml:"refuel_topic"`
		RechargeTopic string `yaml:"recharge_topic"`
	} `yaml:"mqtt"`
	Schedule struct {
		StockCheckCron  string `yaml:"stock_check_cron"`
		DailyReportCron string `yaml:"daily_report_cron"`
	} `yaml:"schedule"`
	RateLimit struct {
		MaxRequests   int `yaml:"max_requests"`
		WindowSeconds int `yaml:"window_seconds"`
	} `yaml:"rate_limit"`
}

// Load reads config from an optional YAML file, then applies environment
// variable overrides and defaults. A .env file is honored when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("MONGO_DB"); v != "" {
		cfg.Mongo.Database = v
	}
	if v := os.Getenv("SEED_BALANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Stock.SeedBalance = f
		}
	}
	if v := os.Getenv("ALARM_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Stock.AlarmThreshold = f
		}
	}
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
	}
	if v := os.Getenv("MQTT_CLIENT_ID"); v != "" {
		cfg.MQTT.ClientID = v
	}
	if v := os.Getenv("STOCK_CHECK_CRON"); v != "" {
		cfg.Schedule.StockCheckCron = v
	}
	if v := os.Getenv("DAILY_REPORT_CRON"); v != "" {
		cfg.Schedule.DailyReportCron = v
	}

	// Defaults
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8081"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "fleet_fuel"
	}
	if cfg.Stock.SeedBalance == 0 {
		cfg.Stock.SeedBalance = 10000
	}
	if cfg.Stock.AlarmThreshold == 0 {
		cfg.Stock.AlarmThreshold = 1500
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "fleet-fuel-server"
	}
	if cfg.MQTT.RefuelTopic == "" {
		cfg.MQTT.RefuelTopic = "fuel/refuels"
	}
	if cfg.MQTT.RechargeTopic == "" {
		cfg.MQTT.RechargeTopic = "fuel/recharges"
	}
	if cfg.Schedule.StockCheckCron == "" {
		cfg.Schedule.StockCheckCron = "0 */15 * * * *"
	}
	if cfg.Schedule.DailyReportCron == "" {
		cfg.Schedule.DailyReportCron = "0 0 6 * * *"
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = 120
	}
	if cfg.RateLimit.WindowSeconds == 0 {
		cfg.RateLimit.WindowSeconds = 60
	}

	return cfg, nil
}

// Validate checks that required fields are set and coherent.
func (c *Config) Validate() error {
	if c.Stock.SeedBalance < 0 {
		return fmt.Errorf("stock.seed_balance must not be negative")
	}
	if c.Stock.AlarmThreshold < 0 {
		return fmt.Errorf("stock.alarm_threshold must not be negative")
	}
	if c.Stock.AlarmThreshold > c.Stock.SeedBalance {
		return fmt.Errorf("stock.alarm_threshold must not exceed stock.seed_balance")
	}
	return nil
}
