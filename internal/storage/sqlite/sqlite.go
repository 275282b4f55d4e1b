// Package sqlitestorage implements the storage.Backend interface using an
// in-memory SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend via composition — the only SQLite-specific
// concerns are (a) creating the in-memory DB, (b) the periodic disk dump,
// and (c) exposing the dump file path for operators.
package sqlitestorage

import (
	"fmt"
	"time"

	"github.com/skycoord/fleet/internal/cache"
	"github.com/skycoord/fleet/internal/database"
	"github.com/skycoord/fleet/internal/logging"
	gormstorage "github.com/skycoord/fleet/internal/storage/gorm"

	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      Config
	log      *logging.SlogManager
	stopChan chan struct{}
}

// New creates a new SQLite storage backend.
func New(cfg Config, vehicles *cache.VehicleCache, logManager *logging.SlogManager) (*Backend, error) {
	db, err := database.GetSqliteDBStandalone("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:         db,
		Vehicles:   vehicles,
		LogManager: logManager,
	})

	return &Backend{
		Backend:  gormBackend,
		db:       db,
		cfg:      cfg,
		log:      logManager,
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine, closes the embedded GORM backend, and
// writes a final snapshot so a session end never loses the tail of the run.
func (b *Backend) Close() error {
	close(b.stopChan)
	if err := b.Backend.Close(); err != nil {
		return err
	}
	if b.cfg.DumpPath != "" {
		if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
			return fmt.Errorf("final dump failed: %w", err)
		}
	}
	return nil
}

// GetExportedFilePath returns the disk dump path.
func (b *Backend) GetExportedFilePath() string {
	return b.cfg.DumpPath
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via
// VACUUM INTO. VACUUM INTO creates a point-in-time snapshot, so no pause
// mechanism is needed.
func (b *Backend) dumpLoop() {
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Error dumping to disk: %v", err), "ERROR")
			} else {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Dumped to disk in %s", time.Since(start)), "DEBUG")
			}
		}
	}
}
