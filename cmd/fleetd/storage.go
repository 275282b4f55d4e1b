package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/skycoord/fleet/internal/config"
	"github.com/skycoord/fleet/internal/database"
	"github.com/skycoord/fleet/internal/storage"
)

// DatabaseManager is set when the postgres backend is selected.
var DatabaseManager *database.Manager

// createStorageBackend builds the configured history backend. The
// postgres backend additionally needs a live database connection; the
// manager falls back to in-memory SQLite with periodic disk dumps when
// the server is unreachable.
func createStorageBackend() (storage.Backend, error) {
	cfg := config.GetStorageConfig()

	deps := storage.Dependencies{
		Vehicles:        VehicleCache,
		LogManager:      LogManager,
		IsDatabaseValid: func() bool { return false },
	}

	switch cfg.Type {
	case "postgres":
		DatabaseManager = database.NewManager(ZLogger)
		if err := DatabaseManager.Connect(); err != nil {
			return nil, fmt.Errorf("error connecting to database: %w", err)
		}
		if DatabaseManager.ShouldSaveLocal {
			DatabaseManager.SqliteFilePath = fmt.Sprintf(
				"%s.%s", cfg.SQLite.DumpPath, time.Now().Format("20060102_150405"))
		}
		if err := DatabaseManager.Setup(); err != nil {
			return nil, fmt.Errorf("error setting up database: %w", err)
		}
		deps.DB = DatabaseManager.DB
		deps.IsDatabaseValid = func() bool { return DatabaseManager.IsValid }
	case "websocket":
		// derive the stream URL from the ops server address when no
		// explicit one is configured
		if viper.GetString("websocket.url") == "" {
			viper.Set("websocket.url", httpToWS(config.GetString("api.serverUrl"))+"/telemetry")
		}
	}

	return storage.NewBackend(cfg, deps)
}

// setupDB connects to postgres and migrates the schema, for first-time
// provisioning before the daemon runs.
func setupDB() error {
	m := database.NewManager(ZLogger)
	db, err := m.GetPostgresDB()
	if err != nil {
		return fmt.Errorf("error connecting to postgres: %w", err)
	}
	m.DB = db
	m.IsValid = true
	return m.Setup()
}

func httpToWS(url string) string {
	url = strings.Replace(url, "https://", "wss://", 1)
	url = strings.Replace(url, "http://", "ws://", 1)
	return url
}
