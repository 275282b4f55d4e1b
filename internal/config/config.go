package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FleetConfig holds fleet registry and safety settings.
type FleetConfig struct {
	MaxSize          int           `json:"maxSize" mapstructure:"maxSize"`
	HeartbeatTimeout time.Duration `json:"heartbeatTimeout" mapstructure:"heartbeatTimeout"`
	MinSeparation    float64       `json:"minSeparation" mapstructure:"minSeparation"`
	EventBuffer      int           `json:"eventBuffer" mapstructure:"eventBuffer"`
}

// FlightConfig holds per-vehicle flight limits.
type FlightConfig struct {
	MinAltitude      float64 `json:"minAltitude" mapstructure:"minAltitude"`
	MaxAltitude      float64 `json:"maxAltitude" mapstructure:"maxAltitude"`
	SafeBattery      float64 `json:"safeBattery" mapstructure:"safeBattery"`
	EmergencyBattery float64 `json:"emergencyBattery" mapstructure:"emergencyBattery"`
}

// WeatherConfig holds flight safety thresholds for weather assessment.
type WeatherConfig struct {
	MaxWindSpeed     float64 `json:"maxWindSpeed" mapstructure:"maxWindSpeed"`
	MaxGustSpeed     float64 `json:"maxGustSpeed" mapstructure:"maxGustSpeed"`
	MinVisibility    float64 `json:"minVisibility" mapstructure:"minVisibility"`
	MaxPrecipitation float64 `json:"maxPrecipitation" mapstructure:"maxPrecipitation"`
}

// ObstacleConfig holds detection range and threat distance bands.
type ObstacleConfig struct {
	DetectionRange   float64 `json:"detectionRange" mapstructure:"detectionRange"`
	CriticalDistance float64 `json:"criticalDistance" mapstructure:"criticalDistance"`
	WarningDistance  float64 `json:"warningDistance" mapstructure:"warningDistance"`
}

// MemoryConfig holds in-memory/JSON storage backend settings.
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds local database dump settings.
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
}

// WebsocketConfig holds ground station streaming settings.
type WebsocketConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	Secret  string `json:"secret" mapstructure:"secret"`
}

// StorageConfig selects and configures the history backend.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// OTelConfig holds OpenTelemetry exporter settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./fleetlogs")

	viper.SetDefault("fleet.maxSize", 10)
	viper.SetDefault("fleet.heartbeatTimeout", "30s")
	viper.SetDefault("fleet.minSeparation", 10.0)
	viper.SetDefault("fleet.eventBuffer", 256)

	viper.SetDefault("flight.minAltitude", 5.0)
	viper.SetDefault("flight.maxAltitude", 120.0)
	viper.SetDefault("flight.safeBattery", 20.0)
	viper.SetDefault("flight.emergencyBattery", 10.0)

	viper.SetDefault("weather.maxWindSpeed", 12.0)
	viper.SetDefault("weather.maxGustSpeed", 15.0)
	viper.SetDefault("weather.minVisibility", 1000.0)
	viper.SetDefault("weather.maxPrecipitation", 2.0)
	viper.SetDefault("weather.pollInterval", "10m")
	viper.SetDefault("weather.homeLat", 0.0)
	viper.SetDefault("weather.homeLon", 0.0)

	viper.SetDefault("obstacle.detectionRange", 50.0)
	viper.SetDefault("obstacle.criticalDistance", 10.0)
	viper.SetDefault("obstacle.warningDistance", 20.0)

	viper.SetDefault("monitor.sweepInterval", "10s")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./flightlogs")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpPath", "./flightlogs/fleet.sqlite")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "fleet")

	viper.SetDefault("influx.enabled", true)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "fleet-metrics")

	viper.SetDefault("session.name", "")

	viper.SetDefault("ingest.enabled", true)
	viper.SetDefault("ingest.listenAddr", ":5021")

	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("websocket.enabled", false)
	viper.SetDefault("websocket.url", "ws://localhost:5001/telemetry")
	viper.SetDefault("websocket.secret", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "fleetd")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName("fleetd.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetFleetConfig returns the fleet registry and safety settings.
func GetFleetConfig() FleetConfig {
	return FleetConfig{
		MaxSize:          viper.GetInt("fleet.maxSize"),
		HeartbeatTimeout: viper.GetDuration("fleet.heartbeatTimeout"),
		MinSeparation:    viper.GetFloat64("fleet.minSeparation"),
		EventBuffer:      viper.GetInt("fleet.eventBuffer"),
	}
}

// GetFlightConfig returns the per-vehicle flight limits.
func GetFlightConfig() FlightConfig {
	return FlightConfig{
		MinAltitude:      viper.GetFloat64("flight.minAltitude"),
		MaxAltitude:      viper.GetFloat64("flight.maxAltitude"),
		SafeBattery:      viper.GetFloat64("flight.safeBattery"),
		EmergencyBattery: viper.GetFloat64("flight.emergencyBattery"),
	}
}

// GetWeatherConfig returns the weather safety thresholds.
func GetWeatherConfig() WeatherConfig {
	return WeatherConfig{
		MaxWindSpeed:     viper.GetFloat64("weather.maxWindSpeed"),
		MaxGustSpeed:     viper.GetFloat64("weather.maxGustSpeed"),
		MinVisibility:    viper.GetFloat64("weather.minVisibility"),
		MaxPrecipitation: viper.GetFloat64("weather.maxPrecipitation"),
	}
}

// GetObstacleConfig returns the obstacle detection settings.
func GetObstacleConfig() ObstacleConfig {
	return ObstacleConfig{
		DetectionRange:   viper.GetFloat64("obstacle.detectionRange"),
		CriticalDistance: viper.GetFloat64("obstacle.criticalDistance"),
		WarningDistance:  viper.GetFloat64("obstacle.warningDistance"),
	}
}

// GetStorageConfig returns the history backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
	}
}

// GetWebsocketConfig returns the ground station streaming settings.
func GetWebsocketConfig() WebsocketConfig {
	return WebsocketConfig{
		Enabled: viper.GetBool("websocket.enabled"),
		URL:     viper.GetString("websocket.url"),
		Secret:  viper.GetString("websocket.secret"),
	}
}

// GetOTelConfig returns the OpenTelemetry exporter settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
