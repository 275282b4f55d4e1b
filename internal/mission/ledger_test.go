package mission

import (
	"errors"
	"testing"

	"github.com/skycoord/fleet/internal/fleet"
	"github.com/skycoord/fleet/pkg/core"
)

var testArea = core.AreaBounds{MinLat: 40.0, MaxLat: 40.1, MinLon: -75.0, MaxLon: -74.9}

func newTestLedger(vehicleIDs ...string) (*Ledger, *fleet.Registry) {
	r := fleet.NewRegistry(10)
	for _, id := range vehicleIDs {
		r.Register(id, core.Position{}, nil)
	}
	return NewLedger(r), r
}

func TestCreate_SequentialIDs(t *testing.T) {
	l, _ := newTestLedger()

	m1 := l.Create(core.TaskSurvey, testArea, 1)
	m2 := l.Create(core.TaskPatrol, testArea, 2)

	if m1.ID != "MISSION-0001" {
		t.Errorf("expected MISSION-0001, got %s", m1.ID)
	}
	if m2.ID != "MISSION-0002" {
		t.Errorf("expected MISSION-0002, got %s", m2.ID)
	}
	if m1.Status != core.MissionPending {
		t.Errorf("expected pending, got %s", m1.Status)
	}
}

func TestAssign(t *testing.T) {
	l, r := newTestLedger("UAV-01", "UAV-02")
	m := l.Create(core.TaskSurvey, testArea, 1)

	if err := l.Assign(m.ID, []string{"UAV-01", "UAV-02"}); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	if m.Status != core.MissionActive {
		t.Errorf("expected active, got %s", m.Status)
	}
	for _, id := range []string{"UAV-01", "UAV-02"} {
		v, _ := r.Get(id)
		if v.Task != core.TaskSurvey {
			t.Errorf("%s: expected survey task, got %s", id, v.Task)
		}
	}
}

func TestAssign_Atomic(t *testing.T) {
	l, r := newTestLedger("UAV-01")
	m := l.Create(core.TaskSurvey, testArea, 1)

	err := l.Assign(m.ID, []string{"UAV-01", "UAV-99"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Nothing changed.
	if m.Status != core.MissionPending {
		t.Errorf("mission status changed on failed assign: %s", m.Status)
	}
	if len(m.AssignedVehicles) != 0 {
		t.Errorf("assignment list changed on failed assign: %v", m.AssignedVehicles)
	}
	v, _ := r.Get("UAV-01")
	if v.Task != core.TaskIdle {
		t.Errorf("vehicle task changed on failed assign: %s", v.Task)
	}
}

func TestAssign_UnknownMission(t *testing.T) {
	l, _ := newTestLedger("UAV-01")
	err := l.Assign("MISSION-9999", []string{"UAV-01"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAutoAssign_RegistrationOrder(t *testing.T) {
	l, r := newTestLedger("UAV-01", "UAV-02", "UAV-03")

	// UAV-01 is busy, UAV-02 and UAV-03 are idle and ready.
	busy, _ := r.Get("UAV-01")
	busy.Task = core.TaskPatrol

	m := l.Create(core.TaskSurvey, testArea, 1)
	if err := l.AutoAssign(m.ID); err != nil {
		t.Fatalf("auto-assign failed: %v", err)
	}

	if len(m.AssignedVehicles) != 1 || m.AssignedVehicles[0] != "UAV-02" {
		t.Errorf("expected [UAV-02], got %v", m.AssignedVehicles)
	}
}

func TestAutoAssign_NoCandidate(t *testing.T) {
	l, r := newTestLedger("UAV-01")
	v, _ := r.Get("UAV-01")
	v.Status = "maintenance"

	m := l.Create(core.TaskSurvey, testArea, 1)
	err := l.AutoAssign(m.ID)
	if !errors.Is(err, core.ErrNoAvailableVehicle) {
		t.Errorf("expected ErrNoAvailableVehicle, got %v", err)
	}
	if m.Status != core.MissionPending {
		t.Errorf("mission status changed on failed auto-assign: %s", m.Status)
	}
}

func TestComplete_FreesVehicles(t *testing.T) {
	l, r := newTestLedger("UAV-01", "UAV-02")
	m := l.Create(core.TaskSurvey, testArea, 1)
	l.Assign(m.ID, []string{"UAV-01", "UAV-02"})

	if err := l.Complete(m.ID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if m.Status != core.MissionCompleted {
		t.Errorf("expected completed, got %s", m.Status)
	}
	for _, id := range []string{"UAV-01", "UAV-02"} {
		v, _ := r.Get(id)
		if v.Task != core.TaskIdle {
			t.Errorf("%s still tasked after completion: %s", id, v.Task)
		}
	}
}

func TestComplete_SkipsUnregistered(t *testing.T) {
	l, r := newTestLedger("UAV-01", "UAV-02")
	m := l.Create(core.TaskSurvey, testArea, 1)
	l.Assign(m.ID, []string{"UAV-01", "UAV-02"})

	// UAV-01 drops off the fleet mid-mission.
	r.Unregister("UAV-01")

	if err := l.Complete(m.ID); err != nil {
		t.Fatalf("completion must not fail on unregistered vehicles: %v", err)
	}
	v, _ := r.Get("UAV-02")
	if v.Task != core.TaskIdle {
		t.Errorf("surviving vehicle still tasked: %s", v.Task)
	}
}

func TestFail_Explicit(t *testing.T) {
	l, r := newTestLedger("UAV-01")
	m := l.Create(core.TaskInspection, testArea, 3)
	l.Assign(m.ID, []string{"UAV-01"})

	if err := l.Fail(m.ID); err != nil {
		t.Fatalf("fail failed: %v", err)
	}
	if m.Status != core.MissionFailed {
		t.Errorf("expected failed, got %s", m.Status)
	}
	v, _ := r.Get("UAV-01")
	if v.Task != core.TaskIdle {
		t.Errorf("vehicle still tasked after mission failure: %s", v.Task)
	}
}

func TestRemoveVehicle_KeepsMissionActive(t *testing.T) {
	l, _ := newTestLedger("UAV-01")
	m := l.Create(core.TaskSurvey, testArea, 1)
	l.Assign(m.ID, []string{"UAV-01"})

	l.RemoveVehicle("UAV-01")

	// The mission stays active with zero assigned vehicles.
	if len(m.AssignedVehicles) != 0 {
		t.Errorf("expected empty assignment list, got %v", m.AssignedVehicles)
	}
	if m.Status != core.MissionActive {
		t.Errorf("expected active, got %s", m.Status)
	}
}
