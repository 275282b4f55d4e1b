package coord

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/skycoord/fleet/pkg/core"
)

var testArea = core.AreaBounds{MinLat: 40.0, MaxLat: 40.1, MinLon: -75.0, MaxLon: -74.9}

func newTestCoordinator() *Coordinator {
	return New(DefaultConfig(), nil)
}

func register(t *testing.T, c *Coordinator, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := c.RegisterVehicle(id, core.Position{Lat: 40, Lon: -75}, nil); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
}

func TestRegisterUnregister(t *testing.T) {
	c := newTestCoordinator()
	register(t, c, "UAV-01")

	if err := c.RegisterVehicle("UAV-01", core.Position{}, nil); !errors.Is(err, core.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	if err := c.UnregisterVehicle("UAV-01"); err != nil {
		t.Fatalf("unregister failed: %v", err)
	}
	if _, err := c.GetVehicle("UAV-01"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound after unregister, got %v", err)
	}
	if _, err := c.FlightState("UAV-01"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("flight controller should be gone, got %v", err)
	}
}

func TestUnregister_RemovesFromMissions(t *testing.T) {
	c := newTestCoordinator()
	register(t, c, "UAV-01", "UAV-02")

	m, err := c.CreateMission(core.TaskSurvey, testArea, 1)
	if err != nil {
		t.Fatalf("create mission: %v", err)
	}
	if err := c.AssignMission(m.ID, []string{"UAV-01", "UAV-02"}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if err := c.UnregisterVehicle("UAV-01"); err != nil {
		t.Fatalf("unregister: %v", err)
	}

	got, _ := c.GetMission(m.ID)
	if len(got.AssignedVehicles) != 1 || got.AssignedVehicles[0] != "UAV-02" {
		t.Errorf("expected [UAV-02], got %v", got.AssignedVehicles)
	}
}

func TestUnregister_ActiveMissionMayEmpty(t *testing.T) {
	c := newTestCoordinator()
	register(t, c, "UAV-01")

	m, _ := c.CreateMission(core.TaskPatrol, testArea, 1)
	c.AssignMission(m.ID, []string{"UAV-01"})
	c.UnregisterVehicle("UAV-01")

	// Known gap preserved from the source: the mission stays active
	// with no vehicles, and is not failed or reassigned.
	got, _ := c.GetMission(m.ID)
	if got.Status != core.MissionActive || len(got.AssignedVehicles) != 0 {
		t.Errorf("expected active mission with no vehicles, got %s %v", got.Status, got.AssignedVehicles)
	}
}

func TestTaskAssignmentConsistency(t *testing.T) {
	c := newTestCoordinator()
	register(t, c, "UAV-01")

	m, _ := c.CreateMission(core.TaskSurvey, testArea, 1)
	if err := c.AssignMission(m.ID, []string{"UAV-01"}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	v, _ := c.GetVehicle("UAV-01")
	if v.Task != core.TaskSurvey {
		t.Errorf("expected survey task, got %s", v.Task)
	}

	if err := c.CompleteMission(m.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	v, _ = c.GetVehicle("UAV-01")
	if v.Task != core.TaskIdle {
		t.Errorf("expected idle after completion, got %s", v.Task)
	}
}

func TestAssign_AtomicOnInvalidVehicle(t *testing.T) {
	c := newTestCoordinator()
	register(t, c, "UAV-01")

	m, _ := c.CreateMission(core.TaskSurvey, testArea, 1)
	err := c.AssignMission(m.ID, []string{"UAV-01", "UAV-99"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got, _ := c.GetMission(m.ID)
	if got.Status != core.MissionPending {
		t.Errorf("mission should stay pending, got %s", got.Status)
	}
	v, _ := c.GetVehicle("UAV-01")
	if v.Task != core.TaskIdle {
		t.Errorf("vehicle task should stay idle, got %s", v.Task)
	}
}

func TestCreateMission_Validation(t *testing.T) {
	c := newTestCoordinator()

	if _, err := c.CreateMission(core.TaskIdle, testArea, 1); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("idle is not an assignable mission type, got %v", err)
	}

	bad := core.AreaBounds{MinLat: 41, MaxLat: 40, MinLon: -75, MaxLon: -74.9}
	if _, err := c.CreateMission(core.TaskSurvey, bad, 1); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for inverted bounds, got %v", err)
	}
}

func TestCheckCollisionRisks_Scenario(t *testing.T) {
	c := newTestCoordinator()
	if err := c.RegisterVehicle("A", core.Position{Lat: 40.0, Lon: -75.0, Alt: 0}, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.RegisterVehicle("B", core.Position{Lat: 40.00005, Lon: -75.0, Alt: 0}, nil); err != nil {
		t.Fatal(err)
	}

	risks := c.CheckCollisionRisks()
	if len(risks) != 1 {
		t.Fatalf("expected exactly one risk pair, got %d", len(risks))
	}
	if risks[0].VehicleA != "A" || risks[0].VehicleB != "B" {
		t.Errorf("expected (A,B), got (%s,%s)", risks[0].VehicleA, risks[0].VehicleB)
	}
	if math.Abs(risks[0].Distance-5.566) > 0.01 {
		t.Errorf("expected ~5.566m, got %.3f", risks[0].Distance)
	}
}

func TestOptimizeCoverage(t *testing.T) {
	c := newTestCoordinator()

	targets, err := c.OptimizeCoverage(testArea, []string{"UAV-01", "UAV-02"})
	if err != nil {
		t.Fatalf("optimize coverage: %v", err)
	}
	if math.Abs(targets["UAV-01"].Lat-40.0333) > 0.001 {
		t.Errorf("UAV-01 lat: expected ~40.0333, got %.4f", targets["UAV-01"].Lat)
	}
	if math.Abs(targets["UAV-02"].Lat-40.0667) > 0.001 {
		t.Errorf("UAV-02 lat: expected ~40.0667, got %.4f", targets["UAV-02"].Lat)
	}

	bad := core.AreaBounds{MinLat: 41, MaxLat: 40}
	if _, err := c.OptimizeCoverage(bad, nil); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestBatteryEmergency_ThroughTelemetry(t *testing.T) {
	c := newTestCoordinator()
	register(t, c, "UAV-01")

	if err := c.Arm("UAV-01"); err != nil {
		t.Fatalf("arm: %v", err)
	}
	if err := c.Takeoff("UAV-01", 20); err != nil {
		t.Fatalf("takeoff: %v", err)
	}

	battery := 5.0
	if err := c.UpdateTelemetry("UAV-01", core.TelemetryUpdate{Battery: &battery}); err != nil {
		t.Fatalf("telemetry: %v", err)
	}

	st, _ := c.FlightState("UAV-01")
	if st.Status != core.StatusGrounded || st.Armed {
		t.Errorf("expected grounded disarmed after battery emergency, got %+v", st)
	}
	v, _ := c.GetVehicle("UAV-01")
	if v.Position.Alt != 0 {
		t.Errorf("registry altitude should be 0 after emergency landing, got %.1f", v.Position.Alt)
	}
}

func TestFlightOps_EndToEnd(t *testing.T) {
	c := newTestCoordinator()
	register(t, c, "UAV-01")

	if err := c.Takeoff("UAV-01", 15); !errors.Is(err, core.ErrPreconditionFailed) {
		t.Errorf("takeoff while disarmed: expected ErrPreconditionFailed, got %v", err)
	}

	if err := c.Arm("UAV-01"); err != nil {
		t.Fatal(err)
	}
	if err := c.Takeoff("UAV-01", 15); err != nil {
		t.Fatal(err)
	}
	st, _ := c.FlightState("UAV-01")
	if st.Status != core.StatusHovering {
		t.Errorf("expected hovering, got %s", st.Status)
	}

	if err := c.NavigateTo("UAV-01", 40.05, -74.95, 30); err != nil {
		t.Fatal(err)
	}
	v, _ := c.GetVehicle("UAV-01")
	if v.Position.Lat != 40.05 || v.Position.Alt != 30 {
		t.Errorf("registry position not synced: %+v", v.Position)
	}

	if err := c.ReturnToLaunch("UAV-01"); err != nil {
		t.Fatal(err)
	}
	st, _ = c.FlightState("UAV-01")
	if st.Status != core.StatusGrounded {
		t.Errorf("expected grounded after RTL, got %s", st.Status)
	}
}

func TestStatistics(t *testing.T) {
	c := newTestCoordinator()
	register(t, c, "UAV-01", "UAV-02", "UAV-03")

	m, _ := c.CreateMission(core.TaskSurvey, testArea, 1)
	c.AssignMission(m.ID, []string{"UAV-01"})

	stats := c.Statistics()
	if stats.TotalVehicles != 3 {
		t.Errorf("expected 3 vehicles, got %d", stats.TotalVehicles)
	}
	if stats.IdleVehicles != 2 || stats.ActiveVehicles != 1 {
		t.Errorf("expected 2 idle / 1 active, got %d / %d", stats.IdleVehicles, stats.ActiveVehicles)
	}
	if stats.TotalMissions != 1 || stats.ActiveMissions != 1 {
		t.Errorf("expected 1/1 missions, got %d/%d", stats.TotalMissions, stats.ActiveMissions)
	}
}

func TestListInactiveVehicles(t *testing.T) {
	c := newTestCoordinator()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })

	register(t, c, "UAV-01", "UAV-02")
	now = now.Add(45 * time.Second)
	c.UpdateTelemetry("UAV-02", core.TelemetryUpdate{})

	inactive := c.ListInactiveVehicles(30 * time.Second)
	if len(inactive) != 1 || inactive[0] != "UAV-01" {
		t.Errorf("expected [UAV-01], got %v", inactive)
	}
}

func TestEvents_AtMostOnceInOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EventBuffer = 4
	c := New(cfg, nil)

	register(t, c, "UAV-01")
	m, _ := c.CreateMission(core.TaskSurvey, testArea, 1)
	c.AssignMission(m.ID, []string{"UAV-01"})

	wantKinds := []core.EventKind{
		core.EventVehicleRegistered,
		core.EventMissionCreated,
		core.EventMissionAssigned,
	}
	for i, want := range wantKinds {
		select {
		case ev := <-c.Events():
			if ev.Kind != want {
				t.Errorf("event %d: expected %s, got %s", i, want, ev.Kind)
			}
		default:
			t.Fatalf("event %d missing", i)
		}
	}
}

func TestEvents_DropWhenFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EventBuffer = 1
	c := New(cfg, nil)

	// Two events with capacity one: the second is dropped, neither
	// registration blocks.
	register(t, c, "UAV-01", "UAV-02")

	ev := <-c.Events()
	if ev.Kind != core.EventVehicleRegistered || ev.VehicleID != "UAV-01" {
		t.Errorf("expected UAV-01 registration event, got %+v", ev)
	}
	select {
	case ev := <-c.Events():
		t.Errorf("expected second event dropped, got %+v", ev)
	default:
	}
}

func TestConcurrentQueries(t *testing.T) {
	c := newTestCoordinator()
	register(t, c, "UAV-01", "UAV-02")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			c.CheckCollisionRisks()
			c.Statistics()
			c.ListVehicles()
		}
	}()

	for i := 0; i < 200; i++ {
		battery := float64(50 + i%50)
		c.UpdateTelemetry("UAV-01", core.TelemetryUpdate{Battery: &battery})
	}
	<-done
}
