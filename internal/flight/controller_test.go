package flight

import (
	"errors"
	"testing"

	"github.com/skycoord/fleet/pkg/core"
)

func newTestController() *Controller {
	return NewController("UAV-01", core.Position{Lat: 40.0, Lon: -75.0}, DefaultLimits())
}

func TestArm_BatteryThreshold(t *testing.T) {
	c := newTestController()

	c.UpdateBattery(15)
	if err := c.Arm(); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition with battery 15, got %v", err)
	}
	if c.State().Armed {
		t.Error("vehicle should not be armed after refused arm")
	}

	c.UpdateBattery(25)
	if err := c.Arm(); err != nil {
		t.Errorf("unexpected error with battery 25: %v", err)
	}
	if !c.State().Armed {
		t.Error("vehicle should be armed")
	}
}

func TestArm_Idempotent(t *testing.T) {
	c := newTestController()

	if err := c.Arm(); err != nil {
		t.Fatalf("first arm failed: %v", err)
	}
	if err := c.Arm(); err != nil {
		t.Errorf("second arm should succeed, got %v", err)
	}
}

func TestDisarm_OnlyOnGround(t *testing.T) {
	c := newTestController()
	c.Arm()
	c.Takeoff(15)

	if err := c.Disarm(); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition while hovering, got %v", err)
	}

	c.Land()
	if err := c.Disarm(); err != nil {
		t.Errorf("disarm on ground failed: %v", err)
	}
	if st := c.State(); st.Armed || st.Mode != core.ModeIdle {
		t.Errorf("expected disarmed idle, got %+v", st)
	}
}

func TestTakeoff(t *testing.T) {
	tests := []struct {
		name    string
		arm     bool
		alt     float64
		wantErr error
	}{
		{"not armed", false, 15, core.ErrPreconditionFailed},
		{"below minimum", true, 2, core.ErrInvalidParameter},
		{"above maximum", true, 200, core.ErrInvalidParameter},
		{"valid", true, 15, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController()
			if tt.arm {
				c.Arm()
			}

			err := c.Takeoff(tt.alt)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if c.State().Status != core.StatusGrounded {
					t.Errorf("failed takeoff should leave vehicle grounded, got %s", c.State().Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.State().Status != core.StatusHovering {
				t.Errorf("expected hovering, got %s", c.State().Status)
			}
			if c.Position().Alt != tt.alt {
				t.Errorf("expected altitude %.1f, got %.1f", tt.alt, c.Position().Alt)
			}
		})
	}
}

func TestLand_IdempotentOnGround(t *testing.T) {
	c := newTestController()
	if err := c.Land(); err != nil {
		t.Errorf("land while grounded should succeed, got %v", err)
	}
}

func TestLand_ResetsModeAndAltitude(t *testing.T) {
	c := newTestController()
	c.Arm()
	c.Takeoff(20)

	if err := c.Land(); err != nil {
		t.Fatalf("land failed: %v", err)
	}
	st := c.State()
	if st.Status != core.StatusGrounded || st.Mode != core.ModeIdle {
		t.Errorf("expected grounded idle, got %+v", st)
	}
	if c.Position().Alt != 0 {
		t.Errorf("expected altitude 0, got %.1f", c.Position().Alt)
	}
}

func TestSetMode_RequiresArmed(t *testing.T) {
	c := newTestController()

	if err := c.SetMode(core.ModeAuto); !errors.Is(err, core.ErrPreconditionFailed) {
		t.Errorf("expected ErrPreconditionFailed, got %v", err)
	}
	if err := c.SetMode(core.ModeIdle); err != nil {
		t.Errorf("idle mode should be allowed while disarmed, got %v", err)
	}

	c.Arm()
	if err := c.SetMode(core.ModeWaypoint); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if c.State().Mode != core.ModeWaypoint {
		t.Errorf("expected waypoint mode, got %s", c.State().Mode)
	}
}

func TestNavigateTo(t *testing.T) {
	c := newTestController()

	if err := c.NavigateTo(40.1, -75.1, 30); !errors.Is(err, core.ErrPreconditionFailed) {
		t.Errorf("expected ErrPreconditionFailed while grounded, got %v", err)
	}

	c.Arm()
	c.Takeoff(15)

	if err := c.NavigateTo(40.1, -75.1, 500); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for altitude 500, got %v", err)
	}

	if err := c.NavigateTo(40.1, -75.1, 30); err != nil {
		t.Fatalf("navigate failed: %v", err)
	}
	if c.State().Status != core.StatusFlying {
		t.Errorf("expected flying, got %s", c.State().Status)
	}
	if pos := c.Position(); pos.Lat != 40.1 || pos.Lon != -75.1 || pos.Alt != 30 {
		t.Errorf("unexpected position %+v", pos)
	}
}

func TestReturnToLaunch(t *testing.T) {
	c := newTestController()

	// No-op when grounded.
	if err := c.ReturnToLaunch(); err != nil {
		t.Errorf("RTL while grounded should succeed, got %v", err)
	}

	c.Arm()
	c.Takeoff(15)
	if err := c.ReturnToLaunch(); err != nil {
		t.Fatalf("RTL failed: %v", err)
	}
	if c.State().Status != core.StatusGrounded {
		t.Errorf("expected grounded after RTL, got %s", c.State().Status)
	}
}

func TestUpdateBattery_Clamps(t *testing.T) {
	c := newTestController()

	c.UpdateBattery(150)
	if c.Battery() != 100 {
		t.Errorf("expected clamp to 100, got %.1f", c.Battery())
	}
	c.UpdateBattery(-5)
	if c.Battery() != 0 {
		t.Errorf("expected clamp to 0, got %.1f", c.Battery())
	}
}

func TestUpdateBattery_EmergencyWhileAirborne(t *testing.T) {
	c := newTestController()
	c.Arm()
	c.Takeoff(20)

	c.UpdateBattery(5)

	st := c.State()
	if st.Status != core.StatusGrounded {
		t.Errorf("expected grounded after emergency landing, got %s", st.Status)
	}
	if st.Armed {
		t.Error("expected disarmed after emergency landing")
	}
	if c.Position().Alt != 0 {
		t.Errorf("expected altitude 0, got %.1f", c.Position().Alt)
	}
}

func TestUpdateBattery_NoEmergencyOnGround(t *testing.T) {
	c := newTestController()

	c.UpdateBattery(5)
	if c.State().Status != core.StatusGrounded {
		t.Errorf("expected grounded, got %s", c.State().Status)
	}
}

func TestEmergencyStop_Unconditional(t *testing.T) {
	c := newTestController()
	c.Arm()
	c.Takeoff(50)
	c.NavigateTo(40.2, -75.2, 60)

	if err := c.EmergencyStop(); err != nil {
		t.Fatalf("emergency stop failed: %v", err)
	}
	st := c.State()
	if st.Status != core.StatusGrounded || st.Armed {
		t.Errorf("expected grounded disarmed, got %+v", st)
	}
}

func TestObserveObstacle_DataOnly(t *testing.T) {
	c := newTestController()
	c.Arm()
	c.Takeoff(20)

	c.ObserveObstacle(core.Obstacle{ID: "OBS-0001", Type: core.ObstacleTower, Distance: 8, Threat: core.ThreatCritical})

	// No autonomous reaction: still hovering.
	if c.State().Status != core.StatusHovering {
		t.Errorf("obstacle must not change flight state, got %s", c.State().Status)
	}
	if len(c.Obstacles()) != 1 {
		t.Errorf("expected 1 obstacle recorded, got %d", len(c.Obstacles()))
	}
}
