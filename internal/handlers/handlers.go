package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/skycoord/fleet/internal/cache"
	"github.com/skycoord/fleet/internal/coord"
	"github.com/skycoord/fleet/internal/dispatcher"
	"github.com/skycoord/fleet/internal/influx"
	"github.com/skycoord/fleet/internal/logging"
	"github.com/skycoord/fleet/internal/obstacle"
	"github.com/skycoord/fleet/internal/parser"
	"github.com/skycoord/fleet/internal/storage"
	"github.com/skycoord/fleet/internal/util"
	"github.com/skycoord/fleet/internal/weather"
	"github.com/skycoord/fleet/pkg/core"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Coordinator *coord.Coordinator
	Parser      *parser.Parser
	Cache       *cache.VehicleCache
	Weather     *weather.Service
	Obstacles   *obstacle.Tracker
	Influx      *influx.Manager
	LogManager  *logging.SlogManager
}

// Service wires wire commands to the coordinator and the history backend
type Service struct {
	deps         Dependencies
	backend      storage.Backend
	writeLogFunc func(source, data, level string)
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	s := &Service{
		deps: deps,
	}
	// Default writeLog function uses the logging manager
	s.writeLogFunc = func(source, data, level string) {
		if deps.LogManager != nil {
			deps.LogManager.WriteLog(source, data, level)
		}
	}
	return s
}

// SetBackend sets the storage backend for history recording
func (s *Service) SetBackend(b storage.Backend) {
	s.backend = b
}

func (s *Service) hasBackend() bool {
	return s.backend != nil
}

func (s *Service) writeLog(source, data, level string) {
	s.writeLogFunc(source, data, level)
}

// RegisterHandlers registers all command handlers with the dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Registration - sync (fleet queries must see the vehicle immediately)
	d.Register(":REGISTER:VEHICLE:", s.handleRegisterVehicle, dispatcher.Logged())
	d.Register(":REMOVE:VEHICLE:", s.handleRemoveVehicle, dispatcher.Logged())

	// High-volume telemetry - buffered
	d.Register(":VEHICLE:TELEMETRY:", s.handleTelemetry, dispatcher.Buffered(10000), dispatcher.Logged())

	// Mission lifecycle - sync (callers need the mission id back)
	d.Register(":NEW:MISSION:", s.handleMissionCreate, dispatcher.Logged())
	d.Register(":ASSIGN:MISSION:", s.handleMissionAssign, dispatcher.Logged())
	d.Register(":COMPLETE:MISSION:", s.handleMissionComplete, dispatcher.Logged())
	d.Register(":FAIL:MISSION:", s.handleMissionFail, dispatcher.Logged())
	d.Register(":COVERAGE:", s.handleCoverage, dispatcher.Logged())

	// Flight commands - sync (pre-flight gates must reject before ack)
	d.Register(":VEHICLE:ARM:", s.handleArm, dispatcher.Logged())
	d.Register(":VEHICLE:DISARM:", s.handleDisarm, dispatcher.Logged())
	d.Register(":VEHICLE:TAKEOFF:", s.handleTakeoff, dispatcher.Logged())
	d.Register(":VEHICLE:LAND:", s.handleLand, dispatcher.Logged())
	d.Register(":VEHICLE:MODE:", s.handleFlightMode, dispatcher.Logged())
	d.Register(":VEHICLE:NAVIGATE:", s.handleNavigate, dispatcher.Logged())
	d.Register(":VEHICLE:RTL:", s.handleReturnToLaunch, dispatcher.Logged())
	d.Register(":VEHICLE:ESTOP:", s.handleEmergencyStop, dispatcher.Logged())

	// Environment feeds - buffered
	d.Register(":WEATHER:", s.handleWeather, dispatcher.Buffered(100), dispatcher.Logged())
	d.Register(":OBSTACLE:", s.handleObstacle, dispatcher.Buffered(1000), dispatcher.Logged())

	// Queries and telemetry sinks
	d.Register(":FLEET:STATS:", s.handleFleetStats, dispatcher.Logged())
	d.Register(":METRIC:", s.handleMetric, dispatcher.Buffered(1000))
	d.Register(":LOG:", s.handleLog, dispatcher.Buffered(1000))
}

func (s *Service) handleRegisterVehicle(e dispatcher.Event) (any, error) {
	reg, err := s.deps.Parser.ParseRegister(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to register vehicle: %w", err)
	}

	if err := s.deps.Coordinator.RegisterVehicle(reg.VehicleID, reg.Position, reg.Capabilities); err != nil {
		return nil, err
	}

	vehicle, err := s.deps.Coordinator.GetVehicle(reg.VehicleID)
	if err != nil {
		return nil, err
	}

	// Cache for telemetry handler lookups
	s.deps.Cache.Add(vehicle)

	if s.hasBackend() {
		s.backend.AddVehicle(&vehicle)
	}

	return reg.VehicleID, nil
}

func (s *Service) handleRemoveVehicle(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseVehicleID(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to remove vehicle: %w", err)
	}

	if err := s.deps.Coordinator.UnregisterVehicle(id); err != nil {
		return nil, err
	}

	s.deps.Cache.Remove(id)

	if s.hasBackend() {
		s.backend.RemoveVehicle(id)
	}

	return nil, nil
}

func (s *Service) handleTelemetry(e dispatcher.Event) (any, error) {
	id, update, err := s.deps.Parser.ParseTelemetry(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse telemetry: %w", err)
	}

	// Validate vehicle exists in cache before touching the coordinator
	if _, ok := s.deps.Cache.Get(id); !ok {
		return nil, fmt.Errorf("vehicle %s not found in cache", id)
	}

	if err := s.deps.Coordinator.UpdateTelemetry(id, update); err != nil {
		return nil, err
	}

	vehicle, err := s.deps.Coordinator.GetVehicle(id)
	if err != nil {
		return nil, err
	}
	sample := core.TelemetrySample{
		VehicleID: id,
		Position:  vehicle.Position,
		Battery:   vehicle.BatteryLevel,
		Status:    vehicle.Status,
		Time:      time.Now(),
	}

	if s.hasBackend() {
		s.backend.RecordTelemetry(&sample)
	}
	if s.deps.Influx != nil {
		s.deps.Influx.WritePoint(context.Background(), influx.BucketTelemetry, influx.TelemetryPoint(&sample))
	}

	return nil, nil
}

func (s *Service) handleMissionCreate(e dispatcher.Event) (any, error) {
	mc, err := s.deps.Parser.ParseMissionCreate(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to create mission: %w", err)
	}

	mission, err := s.deps.Coordinator.CreateMission(mc.Type, mc.Area, mc.Priority)
	if err != nil {
		return nil, err
	}

	if s.hasBackend() {
		s.backend.RecordMission(&mission)
	}

	return mission.ID, nil
}

func (s *Service) handleMissionAssign(e dispatcher.Event) (any, error) {
	missionID, vehicleIDs, err := s.deps.Parser.ParseAssign(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to assign mission: %w", err)
	}

	// Empty vehicle list means auto-select the first ready idle
	// vehicle in registration order
	if len(vehicleIDs) == 0 {
		err = s.deps.Coordinator.AutoAssignMission(missionID)
	} else {
		err = s.deps.Coordinator.AssignMission(missionID, vehicleIDs)
	}
	if err != nil {
		return nil, err
	}

	s.recordMissionSnapshot(missionID)
	return nil, nil
}

func (s *Service) handleMissionComplete(e dispatcher.Event) (any, error) {
	missionID, err := s.deps.Parser.ParseMissionID(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to complete mission: %w", err)
	}

	if err := s.deps.Coordinator.CompleteMission(missionID); err != nil {
		return nil, err
	}

	s.recordMissionSnapshot(missionID)
	return nil, nil
}

func (s *Service) handleMissionFail(e dispatcher.Event) (any, error) {
	missionID, err := s.deps.Parser.ParseMissionID(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to fail mission: %w", err)
	}

	if err := s.deps.Coordinator.FailMission(missionID); err != nil {
		return nil, err
	}

	s.recordMissionSnapshot(missionID)
	return nil, nil
}

// recordMissionSnapshot records the current mission row after a
// lifecycle change. Missing missions are skipped, the lifecycle call
// already failed in that case.
func (s *Service) recordMissionSnapshot(missionID string) {
	if !s.hasBackend() {
		return
	}
	mission, err := s.deps.Coordinator.GetMission(missionID)
	if err != nil {
		return
	}
	s.backend.RecordMission(&mission)
}

func (s *Service) handleCoverage(e dispatcher.Event) (any, error) {
	area, vehicleIDs, err := s.deps.Parser.ParseCoverage(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to optimize coverage: %w", err)
	}

	targets, err := s.deps.Coordinator.OptimizeCoverage(area, vehicleIDs)
	if err != nil {
		return nil, err
	}
	return targets, nil
}

// preflightGate rejects arm and takeoff commands when current weather
// is not flyable. The gate lives here, never in the state machine.
func (s *Service) preflightGate(id string) error {
	if s.deps.Weather == nil {
		return nil
	}
	if !s.deps.Weather.SafeToFly() {
		verdict := s.deps.Weather.AssessCurrent()
		s.writeLog(":PREFLIGHT:", fmt.Sprintf("Vehicle %s blocked by weather: %s", id, verdict), "WARN")
		return fmt.Errorf("weather conditions %s: vehicle %s may not fly", verdict, id)
	}
	return nil
}

func (s *Service) handleArm(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseVehicleID(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to arm vehicle: %w", err)
	}
	if err := s.preflightGate(id); err != nil {
		return nil, err
	}
	return nil, s.deps.Coordinator.Arm(id)
}

func (s *Service) handleDisarm(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseVehicleID(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to disarm vehicle: %w", err)
	}
	return nil, s.deps.Coordinator.Disarm(id)
}

func (s *Service) handleTakeoff(e dispatcher.Event) (any, error) {
	id, alt, err := s.deps.Parser.ParseTakeoff(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to take off: %w", err)
	}
	if err := s.preflightGate(id); err != nil {
		return nil, err
	}
	return nil, s.deps.Coordinator.Takeoff(id, alt)
}

func (s *Service) handleLand(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseVehicleID(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to land vehicle: %w", err)
	}
	return nil, s.deps.Coordinator.Land(id)
}

func (s *Service) handleFlightMode(e dispatcher.Event) (any, error) {
	id, mode, err := s.deps.Parser.ParseFlightMode(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to set flight mode: %w", err)
	}
	return nil, s.deps.Coordinator.SetFlightMode(id, mode)
}

func (s *Service) handleNavigate(e dispatcher.Event) (any, error) {
	id, pos, err := s.deps.Parser.ParseNavigate(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}
	return nil, s.deps.Coordinator.NavigateTo(id, pos.Lat, pos.Lon, pos.Alt)
}

func (s *Service) handleReturnToLaunch(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseVehicleID(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to return to launch: %w", err)
	}
	return nil, s.deps.Coordinator.ReturnToLaunch(id)
}

func (s *Service) handleEmergencyStop(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseVehicleID(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to emergency stop: %w", err)
	}
	return nil, s.deps.Coordinator.EmergencyStop(id)
}

func (s *Service) handleWeather(e dispatcher.Event) (any, error) {
	data, err := s.deps.Parser.ParseWeather(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to process weather: %w", err)
	}

	if s.deps.Weather != nil {
		s.deps.Weather.Observe(data)
	}

	if s.hasBackend() {
		s.backend.RecordWeather(&data)
	}

	return nil, nil
}

func (s *Service) handleObstacle(e dispatcher.Event) (any, error) {
	report, err := s.deps.Parser.ParseObstacle(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to process obstacle: %w", err)
	}

	obs := s.deps.Obstacles.Add(report.Type, report.Offset, report.Confidence)

	// Attach to the observing vehicle's flight controller as data only
	if err := s.deps.Coordinator.ObserveObstacle(report.VehicleID, obs); err != nil {
		return nil, err
	}

	if s.hasBackend() {
		s.backend.RecordObstacle(&obs)
	}

	return obs.ID, nil
}

func (s *Service) handleFleetStats(e dispatcher.Event) (any, error) {
	stats := s.deps.Coordinator.Statistics()
	return stats, nil
}

func (s *Service) handleMetric(e dispatcher.Event) (any, error) {
	if s.deps.Influx == nil {
		return nil, nil
	}

	bucket, point, err := influx.ProcessMetricData(e.Args, util.FixEscapeQuotes, util.TrimQuotes)
	if err != nil {
		return nil, fmt.Errorf("failed to process metric: %w", err)
	}

	return nil, s.deps.Influx.WritePoint(context.Background(), bucket, point)
}

// handleLog forwards controller-side log lines into the shared log.
// Args: [source, level, message]
func (s *Service) handleLog(e dispatcher.Event) (any, error) {
	data := make([]string, len(e.Args))
	copy(data, e.Args)
	for i, v := range data {
		data[i] = util.FixEscapeQuotes(util.TrimQuotes(v))
	}
	if len(data) < 3 {
		return nil, fmt.Errorf("log: expected 3 args, got %d", len(data))
	}
	s.writeLog(data[0], data[2], data[1])
	return nil, nil
}
