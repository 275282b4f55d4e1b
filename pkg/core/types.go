// pkg/core/types.go
package core

// Position is a geodetic coordinate: latitude/longitude in degrees,
// altitude in meters above ground.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt"`
}

// AreaBounds is an axis-aligned lat/lon rectangle describing a mission area.
type AreaBounds struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLon float64 `json:"minLon"`
	MaxLon float64 `json:"maxLon"`
}

// Valid reports whether the bounds are ordered (min <= max on both axes).
func (b AreaBounds) Valid() bool {
	return b.MinLat <= b.MaxLat && b.MinLon <= b.MaxLon
}

// Target is a coverage target for a single vehicle: latitude and
// longitude only, altitude is left to the flight controller.
type Target struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
