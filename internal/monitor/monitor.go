package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/skycoord/fleet/internal/coord"
	"github.com/skycoord/fleet/internal/geo"
	"github.com/skycoord/fleet/internal/influx"
	"github.com/skycoord/fleet/internal/logging"
	"github.com/skycoord/fleet/internal/storage"
	"github.com/skycoord/fleet/pkg/core"
)

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Coordinator *coord.Coordinator
	Backend     storage.Backend
	Influx      *influx.Manager
	LogManager  *logging.SlogManager

	// SweepInterval is how often the monitor samples the fleet.
	SweepInterval time.Duration
	// HeartbeatTimeout marks vehicles inactive when telemetry goes stale.
	HeartbeatTimeout time.Duration
	// StatusDir is where status.txt is written; empty disables the file.
	StatusDir string
}

// Service runs the periodic fleet sweep: statistics snapshots, separation
// checks, liveness detection, and station keeping.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}

	// inactive vehicles already reported, so each stale vehicle
	// produces one event instead of one per sweep
	reported map[string]bool
	// tasked vehicles already reported outside their mission area
	offStation map[string]bool
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.SweepInterval <= 0 {
		deps.SweepInterval = 10 * time.Second
	}
	return &Service{
		deps:       deps,
		stopChan:   make(chan struct{}),
		reported:   make(map[string]bool),
		offStation: make(map[string]bool),
	}
}

// IsRunning returns whether the monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Sweep runs one monitoring pass and returns the statistics snapshot.
func (s *Service) Sweep() core.Statistics {
	now := time.Now()
	stats := s.deps.Coordinator.Statistics()

	if s.deps.Backend != nil {
		if err := s.deps.Backend.RecordStatistics(&stats); err != nil {
			s.deps.LogManager.WriteLog("monitor", fmt.Sprintf("Failed to record statistics: %v", err), "ERROR")
		}
	}
	if s.deps.Influx != nil {
		point := influx.StatisticsPoint(&stats, now)
		if err := s.deps.Influx.WritePoint(context.Background(), influx.BucketStatistics, point); err != nil {
			s.deps.LogManager.WriteLog("monitor", fmt.Sprintf("Failed to write statistics point: %v", err), "WARN")
		}
	}

	for _, risk := range s.deps.Coordinator.CheckCollisionRisks() {
		if s.deps.Backend != nil {
			if err := s.deps.Backend.RecordCollisionRisk(&risk); err != nil {
				s.deps.LogManager.WriteLog("monitor", fmt.Sprintf("Failed to record collision risk: %v", err), "ERROR")
			}
		}
		if s.deps.Influx != nil {
			point := influx.CollisionRiskPoint(&risk, now)
			if err := s.deps.Influx.WritePoint(context.Background(), influx.BucketFlightSafety, point); err != nil {
				s.deps.LogManager.WriteLog("monitor", fmt.Sprintf("Failed to write collision risk point: %v", err), "WARN")
			}
		}
	}

	s.sweepLiveness(now)
	s.sweepStations(now)

	return stats
}

// sweepStations records one vehicle_off_station event per excursion for
// vehicles assigned to an active mission that report a position outside
// the mission area. A vehicle that returns to its area is eligible to
// be reported again.
func (s *Service) sweepStations(now time.Time) {
	outside := make(map[string]bool)
	for _, m := range s.deps.Coordinator.ListMissions() {
		if m.Status != core.MissionActive {
			continue
		}
		for _, id := range m.AssignedVehicles {
			v, err := s.deps.Coordinator.GetVehicle(id)
			if err != nil {
				continue
			}
			if geo.Contains(m.Area, v.Position) {
				continue
			}
			outside[id] = true
			if s.offStation[id] {
				continue
			}
			s.offStation[id] = true

			s.deps.LogManager.WriteLog("monitor", fmt.Sprintf("Vehicle %s is outside mission %s area", id, m.ID), "WARN")
			if s.deps.Backend != nil {
				event := core.FleetEvent{
					Kind:      core.EventVehicleOffStation,
					VehicleID: id,
					MissionID: m.ID,
					Time:      now,
				}
				if err := s.deps.Backend.RecordFleetEvent(&event); err != nil {
					s.deps.LogManager.WriteLog("monitor", fmt.Sprintf("Failed to record off-station event: %v", err), "ERROR")
				}
			}
		}
	}

	for id := range s.offStation {
		if !outside[id] {
			delete(s.offStation, id)
		}
	}
}

// sweepLiveness records one vehicle_inactive event per stale vehicle.
// Vehicles that resume telemetry are eligible to be reported again.
func (s *Service) sweepLiveness(now time.Time) {
	stale := s.deps.Coordinator.ListInactiveVehicles(s.deps.HeartbeatTimeout)

	staleSet := make(map[string]bool, len(stale))
	for _, id := range stale {
		staleSet[id] = true
		if s.reported[id] {
			continue
		}
		s.reported[id] = true

		s.deps.LogManager.WriteLog("monitor", fmt.Sprintf("Vehicle %s telemetry is stale", id), "WARN")
		if s.deps.Backend != nil {
			event := core.FleetEvent{
				Kind:      core.EventVehicleInactive,
				VehicleID: id,
				Time:      now,
			}
			if err := s.deps.Backend.RecordFleetEvent(&event); err != nil {
				s.deps.LogManager.WriteLog("monitor", fmt.Sprintf("Failed to record inactive event: %v", err), "ERROR")
			}
		}
	}

	for id := range s.reported {
		if !staleSet[id] {
			delete(s.reported, id)
		}
	}
}

// StatusReport renders the current fleet statistics as indented JSON for
// the status file and diagnostic commands.
func (s *Service) StatusReport() string {
	stats := s.deps.Coordinator.Statistics()
	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "%s"}`, err)
	}
	return string(out)
}

// Start starts the monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting fleet monitor goroutine", "function", "monitor.Start")

		var statusFile *os.File
		if s.deps.StatusDir != "" {
			var err error
			statusFile, err = os.Create(s.deps.StatusDir + "/status.txt")
			if err != nil {
				logger.Error("Error creating status file", "error", err)
			} else {
				defer statusFile.Close()
			}
		}

		ticker := time.NewTicker(s.deps.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Sweep()

				if statusFile != nil {
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					statusFile.WriteString(s.StatusReport() + "\n")
				}
			}
		}
	}()

	return nil
}

// Stop stops the monitor
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
