// Package flight implements the per-vehicle flight state machine:
// arm/disarm rules, takeoff and landing sequences, navigation
// preconditions, and the battery-driven emergency escalation.
//
// A Controller is not safe for concurrent use; the coordinator owns one
// per vehicle and serializes all access behind its own lock.
package flight

import (
	"fmt"

	"github.com/skycoord/fleet/pkg/core"
)

// Limits holds the safety parameters for a controller.
type Limits struct {
	MinAltitude      float64 // meters
	MaxAltitude      float64 // meters
	SafeBattery      float64 // percent, below which arming is refused
	EmergencyBattery float64 // percent, below which an airborne vehicle emergency-lands
}

// DefaultLimits returns the standard safety envelope.
func DefaultLimits() Limits {
	return Limits{
		MinAltitude:      5,
		MaxAltitude:      120,
		SafeBattery:      20,
		EmergencyBattery: 10,
	}
}

// Controller tracks one vehicle's flight state and enforces transition
// legality. States: grounded, taking_off, flying, hovering, landing,
// emergency; initial state is grounded. Emergency is entered only via
// EmergencyStop (called directly or battery-triggered) and always
// resolves back to grounded through the landing path.
type Controller struct {
	id        string
	limits    Limits
	state     core.FlightState
	position  core.Position
	battery   float64
	obstacles []core.Obstacle
}

// NewController creates a controller for the given vehicle, grounded and
// disarmed at the given position with a full battery.
func NewController(id string, pos core.Position, limits Limits) *Controller {
	return &Controller{
		id:     id,
		limits: limits,
		state: core.FlightState{
			Mode:   core.ModeIdle,
			Status: core.StatusGrounded,
		},
		position: pos,
		battery:  100,
	}
}

// State returns the current flight state.
func (c *Controller) State() core.FlightState { return c.state }

// Position returns the controller's current position.
func (c *Controller) Position() core.Position { return c.position }

// SetPosition overwrites the controller's position from telemetry.
func (c *Controller) SetPosition(pos core.Position) { c.position = pos }

// Battery returns the last known battery level.
func (c *Controller) Battery() float64 { return c.battery }

// Arm arms the vehicle for flight. Arming an already-armed vehicle
// succeeds. Arming below the safe battery threshold is refused.
func (c *Controller) Arm() error {
	if c.battery < c.limits.SafeBattery {
		return fmt.Errorf("arm %s: battery %.1f%% below safe threshold %.1f%%: %w",
			c.id, c.battery, c.limits.SafeBattery, core.ErrInvalidTransition)
	}
	c.state.Armed = true
	return nil
}

// Disarm disarms the vehicle. Only legal while grounded or landing; on
// success the flight mode resets to idle.
func (c *Controller) Disarm() error {
	if c.state.Status != core.StatusGrounded && c.state.Status != core.StatusLanding {
		return fmt.Errorf("disarm %s while %s: %w", c.id, c.state.Status, core.ErrInvalidTransition)
	}
	c.state.Armed = false
	c.state.Mode = core.ModeIdle
	return nil
}

// Takeoff climbs to the target altitude: grounded -> taking_off ->
// hovering, flight mode auto. The vehicle must be armed and the target
// altitude inside the configured envelope.
func (c *Controller) Takeoff(targetAltitude float64) error {
	if !c.state.Armed {
		return fmt.Errorf("takeoff %s: not armed: %w", c.id, core.ErrPreconditionFailed)
	}
	if targetAltitude < c.limits.MinAltitude || targetAltitude > c.limits.MaxAltitude {
		return fmt.Errorf("takeoff %s: altitude %.1fm outside [%.1f, %.1f]: %w",
			c.id, targetAltitude, c.limits.MinAltitude, c.limits.MaxAltitude, core.ErrInvalidParameter)
	}

	c.state.Status = core.StatusTakingOff
	c.state.Mode = core.ModeAuto

	c.position.Alt = targetAltitude
	c.state.Status = core.StatusHovering
	return nil
}

// Land descends and settles: any airborne state -> landing -> grounded,
// flight mode idle. Landing while already grounded succeeds.
func (c *Controller) Land() error {
	if c.state.Status == core.StatusGrounded {
		return nil
	}

	c.state.Status = core.StatusLanding

	c.position.Alt = 0
	c.state.Status = core.StatusGrounded
	c.state.Mode = core.ModeIdle
	return nil
}

// SetMode changes the flight mode. Any mode other than idle requires
// the vehicle to be armed.
func (c *Controller) SetMode(mode core.FlightMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("set mode %s on %s: %w", mode, c.id, core.ErrInvalidParameter)
	}
	if !c.state.Armed && mode != core.ModeIdle {
		return fmt.Errorf("set mode %s on %s: not armed: %w", mode, c.id, core.ErrPreconditionFailed)
	}
	c.state.Mode = mode
	return nil
}

// NavigateTo moves the vehicle to the target coordinates. Only legal
// while flying or hovering; on success the status becomes flying.
func (c *Controller) NavigateTo(lat, lon, alt float64) error {
	if c.state.Status != core.StatusFlying && c.state.Status != core.StatusHovering {
		return fmt.Errorf("navigate %s while %s: %w", c.id, c.state.Status, core.ErrPreconditionFailed)
	}
	if alt < c.limits.MinAltitude || alt > c.limits.MaxAltitude {
		return fmt.Errorf("navigate %s: altitude %.1fm outside [%.1f, %.1f]: %w",
			c.id, alt, c.limits.MinAltitude, c.limits.MaxAltitude, core.ErrInvalidParameter)
	}
	c.position = core.Position{Lat: lat, Lon: lon, Alt: alt}
	c.state.Status = core.StatusFlying
	return nil
}

// ReturnToLaunch switches to return_to_launch mode and lands. A no-op
// when already grounded.
func (c *Controller) ReturnToLaunch() error {
	if c.state.Status == core.StatusGrounded {
		return nil
	}
	c.state.Mode = core.ModeReturnToLaunch
	return c.Land()
}

// EmergencyStop forces the vehicle down unconditionally: status
// emergency, mode return_to_launch, then the landing path back to
// grounded and disarmed. It never fails.
func (c *Controller) EmergencyStop() error {
	c.state.Status = core.StatusEmergency
	c.state.Mode = core.ModeReturnToLaunch
	if err := c.Land(); err != nil {
		return err
	}
	c.state.Armed = false
	return nil
}

// UpdateBattery records a new battery level, clamped to [0, 100]. If
// the level drops below the emergency threshold while airborne, the
// vehicle emergency-lands. This is the only coordinator-uninitiated
// transition in the model; it is observable afterward through the
// flight state, not through an error.
func (c *Controller) UpdateBattery(level float64) {
	c.battery = max(0, min(100, level))

	if c.battery < c.limits.EmergencyBattery && c.state.Status.Airborne() {
		c.EmergencyStop()
	}
}

// ObserveObstacle records an obstacle detection against this vehicle.
// Obstacles are input data only: no avoidance maneuver is triggered.
func (c *Controller) ObserveObstacle(o core.Obstacle) {
	c.obstacles = append(c.obstacles, o)
}

// Obstacles returns the obstacles observed so far.
func (c *Controller) Obstacles() []core.Obstacle { return c.obstacles }
