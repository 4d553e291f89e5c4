package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/smartcatan/go/clients/board_client"
	"github.com/mcdev12/smartcatan/go/internal/events"
	"github.com/mcdev12/smartcatan/go/internal/notify"
	"github.com/mcdev12/smartcatan/go/internal/store"
	"github.com/mcdev12/smartcatan/go/internal/synchronizer"
)

const (
	ViewGateway  = "gateway"
	ViewTerminal = "terminal"
)

type Config struct {
	View string `yaml:"view"`

	Device struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"device"`

	Sync synchronizer.Config `yaml:"sync"`

	Gateway struct {
		Port            int           `yaml:"port"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
		HealthThreshold time.Duration `yaml:"health_threshold"`
	} `yaml:"gateway"`

	Store         store.Config           `yaml:"store"`
	Events        events.JetStreamConfig `yaml:"events"`
	HomeAssistant notify.Config          `yaml:"home_assistant"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // console or json
		File   string `yaml:"file"`
	} `yaml:"log"`
}

func defaultConfig() Config {
	var cfg Config
	cfg.View = ViewGateway
	cfg.Device.URL = board_client.DefaultBaseURL
	cfg.Device.Timeout = board_client.DefaultTimeout
	cfg.Sync = synchronizer.DefaultConfig()
	cfg.Gateway.Port = 8090
	cfg.Gateway.AllowedOrigins = []string{"*"}
	cfg.Gateway.HealthThreshold = 10 * time.Second
	cfg.Store = store.DefaultConfig()
	cfg.Events = events.DefaultJetStreamConfig()
	cfg.HomeAssistant.WebhookID = notify.DefaultWebhookID
	cfg.HomeAssistant.Timeout = 5 * time.Second
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// loadConfig reads path over the defaults and then applies environment
// overrides. A missing file is not an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.View = getEnv("VIEW", c.View)

	c.Device.URL = getEnv("DEVICE_URL", c.Device.URL)
	c.Device.Timeout = getEnvAsDuration("DEVICE_TIMEOUT", c.Device.Timeout)
	c.Sync.PollInterval = getEnvAsDuration("POLL_INTERVAL", c.Sync.PollInterval)

	c.Gateway.Port = getEnvAsInt("GATEWAY_PORT", c.Gateway.Port)
	if origins := getEnv("ALLOWED_ORIGINS", ""); origins != "" {
		c.Gateway.AllowedOrigins = strings.Split(origins, ",")
	}

	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.SQLitePath = getEnv("STORE_SQLITE_PATH", c.Store.SQLitePath)
	c.Store.Retention = getEnvAsInt("STORE_RETENTION", c.Store.Retention)
	c.Store.Postgres = c.Store.Postgres.WithEnv()

	c.Events.URL = getEnv("NATS_URL", c.Events.URL)

	c.HomeAssistant.URL = getEnv("HA_URL", c.HomeAssistant.URL)
	c.HomeAssistant.Token = getEnv("HA_TOKEN", c.HomeAssistant.Token)
	c.HomeAssistant.WebhookID = getEnv("HA_WEBHOOK_ID", c.HomeAssistant.WebhookID)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
}

func (c Config) validate() error {
	if c.View != ViewGateway && c.View != ViewTerminal {
		return fmt.Errorf("invalid view %q: want %s or %s", c.View, ViewGateway, ViewTerminal)
	}
	if c.Device.URL == "" {
		return errors.New("device url is required")
	}
	if c.Sync.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Sync.PollInterval)
	}
	switch c.Store.Driver {
	case store.DriverSQLite, store.DriverPostgres, store.DriverNone:
	default:
		return fmt.Errorf("%w: %q", store.ErrUnknownDriver, c.Store.Driver)
	}
	return nil
}
