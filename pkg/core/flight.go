// pkg/core/flight.go
package core

// FlightMode is the commanded control mode of a vehicle.
type FlightMode string

const (
	ModeIdle           FlightMode = "idle"
	ModeManual         FlightMode = "manual"
	ModeAuto           FlightMode = "auto"
	ModeWaypoint       FlightMode = "waypoint"
	ModeReturnToLaunch FlightMode = "return_to_launch"
	ModeLanding        FlightMode = "landing"
)

// IsValid reports whether m is one of the defined flight modes.
func (m FlightMode) IsValid() bool {
	switch m {
	case ModeIdle, ModeManual, ModeAuto, ModeWaypoint, ModeReturnToLaunch, ModeLanding:
		return true
	}
	return false
}

func (m FlightMode) String() string { return string(m) }

// FlightStatus is the observed phase of flight.
type FlightStatus string

const (
	StatusGrounded  FlightStatus = "grounded"
	StatusTakingOff FlightStatus = "taking_off"
	StatusFlying    FlightStatus = "flying"
	StatusHovering  FlightStatus = "hovering"
	StatusLanding   FlightStatus = "landing"
	StatusEmergency FlightStatus = "emergency"
)

// IsValid reports whether s is one of the defined flight statuses.
func (s FlightStatus) IsValid() bool {
	switch s {
	case StatusGrounded, StatusTakingOff, StatusFlying, StatusHovering, StatusLanding, StatusEmergency:
		return true
	}
	return false
}

func (s FlightStatus) String() string { return string(s) }

// Airborne reports whether the vehicle is in any non-grounded phase.
func (s FlightStatus) Airborne() bool {
	return s != StatusGrounded
}

// FlightState is a vehicle's arm/mode/status snapshot.
// Invariants: Armed=false implies Mode=ModeIdle; Status=StatusEmergency
// is only entered via an emergency stop and always carries
// Mode=ModeReturnToLaunch.
type FlightState struct {
	Armed  bool         `json:"armed"`
	Mode   FlightMode   `json:"flightMode"`
	Status FlightStatus `json:"flightStatus"`
}
