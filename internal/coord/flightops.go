// internal/coord/flightops.go
//
// Flight-control pass-throughs. Each operation resolves the vehicle's
// controller under the coordinator lock, applies the transition, and
// mirrors any resulting position change back into the registry record.
// Weather gating deliberately does not live here: the flight-safety
// verdict is a caller-side pre-flight check, not a state-machine rule.
package coord

import (
	"fmt"

	"github.com/skycoord/fleet/internal/flight"
	"github.com/skycoord/fleet/pkg/core"
)

// controller resolves a vehicle's flight controller. Callers hold the lock.
func (c *Coordinator) controller(id string) (*flight.Controller, error) {
	ctrl, ok := c.controllers[id]
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", id, core.ErrNotFound)
	}
	return ctrl, nil
}

// Arm arms a vehicle for flight.
func (c *Coordinator) Arm(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctrl, err := c.controller(id)
	if err != nil {
		return err
	}
	if err := ctrl.Arm(); err != nil {
		return err
	}
	c.log.Info("vehicle armed", "vehicle", id)
	return nil
}

// Disarm disarms a vehicle.
func (c *Coordinator) Disarm(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctrl, err := c.controller(id)
	if err != nil {
		return err
	}
	if err := ctrl.Disarm(); err != nil {
		return err
	}
	c.log.Info("vehicle disarmed", "vehicle", id)
	return nil
}

// Takeoff climbs a vehicle to the target altitude.
func (c *Coordinator) Takeoff(id string, targetAltitude float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctrl, err := c.controller(id)
	if err != nil {
		return err
	}
	if err := ctrl.Takeoff(targetAltitude); err != nil {
		return err
	}
	c.syncPosition(id, ctrl)
	c.log.Info("takeoff complete", "vehicle", id, "altitude", targetAltitude)
	return nil
}

// Land brings a vehicle down.
func (c *Coordinator) Land(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctrl, err := c.controller(id)
	if err != nil {
		return err
	}
	if err := ctrl.Land(); err != nil {
		return err
	}
	c.syncPosition(id, ctrl)
	c.log.Info("landed", "vehicle", id)
	return nil
}

// SetFlightMode changes a vehicle's flight mode.
func (c *Coordinator) SetFlightMode(id string, mode core.FlightMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctrl, err := c.controller(id)
	if err != nil {
		return err
	}
	if err := ctrl.SetMode(mode); err != nil {
		return err
	}
	c.log.Info("flight mode changed", "vehicle", id, "mode", mode)
	return nil
}

// NavigateTo moves a flying or hovering vehicle to the target coordinates.
func (c *Coordinator) NavigateTo(id string, lat, lon, alt float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctrl, err := c.controller(id)
	if err != nil {
		return err
	}
	if err := ctrl.NavigateTo(lat, lon, alt); err != nil {
		return err
	}
	c.syncPosition(id, ctrl)
	return nil
}

// ReturnToLaunch sends a vehicle home via the landing path.
func (c *Coordinator) ReturnToLaunch(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctrl, err := c.controller(id)
	if err != nil {
		return err
	}
	if err := ctrl.ReturnToLaunch(); err != nil {
		return err
	}
	c.syncPosition(id, ctrl)
	c.log.Info("return to launch complete", "vehicle", id)
	return nil
}

// EmergencyStop forces a vehicle down unconditionally.
func (c *Coordinator) EmergencyStop(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctrl, err := c.controller(id)
	if err != nil {
		return err
	}
	if err := ctrl.EmergencyStop(); err != nil {
		return err
	}
	c.syncPosition(id, ctrl)
	c.log.Warn("emergency stop", "vehicle", id)
	c.emit(core.EventEmergencyStop, id, "", "manual")
	return nil
}

// ObserveObstacle feeds an obstacle detection to a vehicle's
// controller. Data only; no autonomous reaction follows.
func (c *Coordinator) ObserveObstacle(id string, o core.Obstacle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctrl, err := c.controller(id)
	if err != nil {
		return err
	}
	ctrl.ObserveObstacle(o)
	return nil
}
