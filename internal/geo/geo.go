// Package geo holds the fleet's spatial helpers: separation distance,
// coverage allocation, coordinate parsing, and projection of geodetic
// positions into web mercator for storage.
package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/skycoord/fleet/pkg/core"
)

// MetersPerDegree is the flat-earth degree-to-meter factor used for
// separation distances. The equirectangular approximation is part of
// the coordination contract — the minimum-separation threshold is
// defined against it — so it must not be replaced with a geodesic
// formula.
const MetersPerDegree = 111320

// DefaultMinSeparation is the collision-risk threshold in meters.
const DefaultMinSeparation = 10.0

// ErrInvalidCoordinates is returned when a coordinate string cannot be parsed.
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Separation returns the approximate 3-D distance in meters between two
// positions using the flat-earth conversion.
func Separation(a, b core.Position) float64 {
	dx := (a.Lat - b.Lat) * MetersPerDegree
	dy := (a.Lon - b.Lon) * MetersPerDegree
	dz := a.Alt - b.Alt
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// CollisionRisks scans every unordered pair of vehicles, in the order
// given, and returns the pairs closer than minSeparation. Each pair is
// reported once with the first-registered vehicle in slot A. A
// non-positive minSeparation falls back to DefaultMinSeparation.
func CollisionRisks(vehicles []*core.Vehicle, minSeparation float64) []core.CollisionRisk {
	if minSeparation <= 0 {
		minSeparation = DefaultMinSeparation
	}

	var risks []core.CollisionRisk
	for i := 0; i < len(vehicles); i++ {
		for j := i + 1; j < len(vehicles); j++ {
			d := Separation(vehicles[i].Position, vehicles[j].Position)
			if d < minSeparation {
				risks = append(risks, core.CollisionRisk{
					VehicleA: vehicles[i].ID,
					VehicleB: vehicles[j].ID,
					Distance: d,
				})
			}
		}
	}
	return risks
}

// PositionFromString parses a "lat,lon" or "lat,lon,alt" string.
func PositionFromString(s string) (core.Position, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return core.Position{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return core.Position{}, ErrInvalidCoordinates
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return core.Position{}, ErrInvalidCoordinates
	}
	var alt float64
	if len(parts) > 2 {
		alt, err = strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return core.Position{}, ErrInvalidCoordinates
		}
	}
	return core.Position{Lat: lat, Lon: lon, Alt: alt}, nil
}

// BoundsFromString parses a "minLat,maxLat,minLon,maxLon" string.
func BoundsFromString(s string) (core.AreaBounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return core.AreaBounds{}, ErrInvalidCoordinates
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return core.AreaBounds{}, ErrInvalidCoordinates
		}
		vals[i] = v
	}
	return core.AreaBounds{MinLat: vals[0], MaxLat: vals[1], MinLon: vals[2], MaxLon: vals[3]}, nil
}

// Point3857 projects a geodetic position to web mercator (EPSG:3857)
// and returns it as a geometry point. Stored telemetry always carries
// 3857 coordinates so exports can be interpreted without spatial
// awareness in SQLite.
func Point3857(pos core.Position) geom.Point {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(pos.Lon, pos.Lat, 0)
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: x, Y: y},
		Z:    pos.Alt,
		Type: geom.CoordinatesType(geom.DimXYZ),
	})
}

// Envelope converts area bounds to a geometry envelope for containment
// and centroid queries.
func Envelope(b core.AreaBounds) geom.Envelope {
	return geom.NewEnvelope(
		geom.XY{X: b.MinLon, Y: b.MinLat},
		geom.XY{X: b.MaxLon, Y: b.MaxLat},
	)
}

// AreaWKB encodes the area bounds as a WKB geometry. Mission rows keep
// the encoded envelope alongside the raw bounds so exports can be loaded
// into spatially aware tooling without re-deriving the polygon.
func AreaWKB(b core.AreaBounds) []byte {
	return Envelope(b).AsGeometry().AsBinary()
}

// Contains reports whether the position lies inside the area bounds.
func Contains(b core.AreaBounds, pos core.Position) bool {
	return Envelope(b).Contains(geom.XY{X: pos.Lon, Y: pos.Lat})
}

// Center returns the midpoint of the area bounds.
func Center(b core.AreaBounds) core.Position {
	c, ok := Envelope(b).Center().XY()
	if !ok {
		return core.Position{}
	}
	return core.Position{Lat: c.Y, Lon: c.X}
}
