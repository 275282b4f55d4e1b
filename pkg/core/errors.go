// pkg/core/errors.go
package core

import "errors"

// Failure taxonomy for coordinator operations. All of these are local,
// synchronous, recoverable failures: the coordinator's state is left
// unchanged whenever one of them is returned. Callers match with
// errors.Is after any amount of %w wrapping.
var (
	// ErrNotFound means a referenced vehicle or mission id is absent.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists means a vehicle id is already registered.
	ErrAlreadyExists = errors.New("already exists")

	// ErrCapacityExceeded means the fleet is at its configured maximum size.
	ErrCapacityExceeded = errors.New("fleet capacity exceeded")

	// ErrInvalidParameter means an altitude or area bound is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrPreconditionFailed means an operation was attempted in the wrong
	// flight state, e.g. navigating while grounded.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrInvalidTransition means an arm/disarm rule was violated.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrNoAvailableVehicle means auto-assignment found no idle, ready vehicle.
	ErrNoAvailableVehicle = errors.New("no available vehicle")
)
