// Package config loads service configuration from file, environment and
// defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Data     DataConfig     `mapstructure:"data"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// ServerConfig configures the HTTP/WebSocket listener.
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"readTimeout"`
	WriteTimeout  time.Duration `mapstructure:"writeTimeout"`
	WebSocketPath string        `mapstructure:"websocketPath"`
}

// DataConfig configures dataset ingestion.
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

// DefaultsConfig holds analysis parameters used when a request omits them.
type DefaultsConfig struct {
	Investment     float64 `mapstructure:"investment"`
	RiskFreeRate   float64 `mapstructure:"riskFreeRate"`
	Slippage       float64 `mapstructure:"slippage"`
	TaxRate        float64 `mapstructure:"taxRate"`
	MonteCarloRuns int     `mapstructure:"monteCarloRuns"`
	RollingWindow  int     `mapstructure:"rollingWindow"`
}

// Load reads configuration from the given file path (optional), environment
// variables prefixed with ANALYTICS_, and built-in defaults, in that order
// of increasing precedence for env over file.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.websocketPath", "/ws")
	v.SetDefault("data.dir", "./data")
	v.SetDefault("defaults.investment", 125000.0)
	v.SetDefault("defaults.riskFreeRate", 0.0)
	v.SetDefault("defaults.slippage", 0.0)
	v.SetDefault("defaults.taxRate", 0.0)
	v.SetDefault("defaults.monteCarloRuns", 50)
	v.SetDefault("defaults.rollingWindow", 90)

	v.SetEnvPrefix("ANALYTICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
