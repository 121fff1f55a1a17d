// Package config loads server configuration from a YAML file plus
// SUPMAP_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the complete server configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Collaborators CollaboratorsConfig `yaml:"collaborators"`
	Engine        EngineConfig        `yaml:"engine"`
	Statistics    StatisticsConfig    `yaml:"statistics"`
	Log           LogConfig           `yaml:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CorsOrigins []string `yaml:"cors_origins"`
}

// CollaboratorsConfig holds the endpoints of the external services the
// core talks to.
type CollaboratorsConfig struct {
	IncidentStoreURL    string `yaml:"incident_store_url"`
	ItineraryStoreURL   string `yaml:"itinerary_store_url"`
	NotificationSinkURL string `yaml:"notification_sink_url"`
	GoogleAPIKey        string `yaml:"google_api_key"`
}

// EngineConfig holds the spatial thresholds of the correlation engine.
// Both are meters: tolerance policy is metric everywhere.
type EngineConfig struct {
	ProximityRadiusMeters float64 `yaml:"proximity_radius_meters"`
	RouteToleranceMeters  float64 `yaml:"route_tolerance_meters"`
}

// StatisticsConfig holds the congestion aggregation settings.
type StatisticsConfig struct {
	DatabaseURL      string        `yaml:"database_url"`
	RefreshInterval  time.Duration `yaml:"refresh_interval"`
	SnapshotTTL      time.Duration `yaml:"snapshot_ttl"`
	DefaultThreshold int           `yaml:"default_threshold"`
	DefaultRadius    float64       `yaml:"default_radius_meters"`
	Zones            []Zone        `yaml:"zones"`
}

// Zone is a congestion monitoring area refreshed by the periodic job.
type Zone struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	Lat          float64 `yaml:"lat"`
	Lng          float64 `yaml:"lng"`
	RadiusMeters float64 `yaml:"radius_meters"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the baseline configuration; file and environment
// values override it.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CorsOrigins: []string{"*"},
		},
		Collaborators: CollaboratorsConfig{
			IncidentStoreURL:    "http://localhost:7004",
			ItineraryStoreURL:   "http://localhost:7003",
			NotificationSinkURL: "http://localhost:7005",
		},
		Engine: EngineConfig{
			ProximityRadiusMeters: 300,
			RouteToleranceMeters:  100,
		},
		Statistics: StatisticsConfig{
			RefreshInterval:  time.Minute,
			SnapshotTTL:      2 * time.Minute,
			DefaultThreshold: 5,
			DefaultRadius:    1000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from path (optional; skipped when empty or
// missing) and from SUPMAP_-prefixed environment variables, where
// SUPMAP_SERVER_PORT maps to server.port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("SUPMAP_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "SUPMAP_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// InitLogger builds the global zap logger from the log settings.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("failed to parse log level %q: %w", cfg.Level, err)
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	return nil
}
