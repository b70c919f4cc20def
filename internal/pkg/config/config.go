package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	SimulatorCfg *SimulatorConfig
	DashboardCfg *DashboardConfig
	LogLevel     string `env:"LOG_LEVEL" envDefault:"INFO"`
}

type SimulatorConfig struct {
	ConnectionsFile string        `env:"DEVICE_CONNECTIONS" envDefault:"device_connections.json"`
	MessageInterval time.Duration `env:"MESSAGE_INTERVAL" envDefault:"60s"`
	Duration        time.Duration `env:"SIM_DURATION" envDefault:"30m"`
	AnomalyRate     float64       `env:"ANOMALY_RATE" envDefault:"0.05"`
	SendTimeout     time.Duration `env:"SEND_TIMEOUT" envDefault:"10s"`
}

type DashboardConfig struct {
	Addr      string `env:"DASHBOARD_ADDR" envDefault:"0.0.0.0:8080"`
	StaticDir string `env:"DASHBOARD_DIR" envDefault:"web"`
}

// FromEnv builds the baseline Config from environment variables. The CLI
// layer starts from this and overrides whatever flags were set explicitly.
func FromEnv() (*Config, error) {
	cfg := &Config{
		SimulatorCfg: &SimulatorConfig{},
		DashboardCfg: &DashboardConfig{},
	}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
