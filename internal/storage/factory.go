// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/skycoord/fleet/internal/cache"
	"github.com/skycoord/fleet/internal/config"
	"github.com/skycoord/fleet/internal/logging"
	gormstorage "github.com/skycoord/fleet/internal/storage/gorm"
	"github.com/skycoord/fleet/internal/storage/memory"
	sqlitestorage "github.com/skycoord/fleet/internal/storage/sqlite"
	"github.com/skycoord/fleet/internal/storage/websocket"

	"gorm.io/gorm"
)

// Dependencies carries the shared services a backend may need.
type Dependencies struct {
	DB         *gorm.DB
	Vehicles   *cache.VehicleCache
	LogManager *logging.SlogManager

	// IsDatabaseValid reports whether the postgres connection is usable.
	IsDatabaseValid func() bool
}

// NewBackend creates a storage backend based on configuration.
func NewBackend(cfg config.StorageConfig, deps Dependencies) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return gormstorage.New(gormstorage.Dependencies{
			DB:              deps.DB,
			Vehicles:        deps.Vehicles,
			LogManager:      deps.LogManager,
			IsDatabaseValid: deps.IsDatabaseValid,
		}), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     cfg.SQLite.DumpPath,
		}, deps.Vehicles, deps.LogManager)
	case "memory":
		return memory.New(cfg.Memory), nil
	case "websocket":
		ws := config.GetWebsocketConfig()
		return websocket.New(websocket.Config{
			URL:    ws.URL,
			Secret: ws.Secret,
		}), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
