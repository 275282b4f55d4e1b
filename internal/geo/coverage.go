// internal/geo/coverage.go
package geo

import "github.com/skycoord/fleet/pkg/core"

// CoverageTargets spreads N vehicles over an area: the latitude span is
// divided into N+1 equal steps, vehicle i (1-indexed by input order)
// sits at minLat + i*step, and every vehicle shares the longitude
// midpoint. Deliberately a simple deterministic grid, not a coverage
// optimizer; callers depend on the placement being predictable.
func CoverageTargets(bounds core.AreaBounds, vehicleIDs []string) map[string]core.Target {
	targets := make(map[string]core.Target, len(vehicleIDs))
	if len(vehicleIDs) == 0 {
		return targets
	}

	latStep := (bounds.MaxLat - bounds.MinLat) / float64(len(vehicleIDs)+1)
	lonMid := Center(bounds).Lon

	for i, id := range vehicleIDs {
		targets[id] = core.Target{
			Lat: bounds.MinLat + float64(i+1)*latStep,
			Lon: lonMid,
		}
	}
	return targets
}
