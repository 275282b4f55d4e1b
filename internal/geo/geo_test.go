package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/skycoord/fleet/pkg/core"
)

func TestSeparation_KnownDistance(t *testing.T) {
	// ~5.5m of latitude separation at the flat-earth conversion.
	a := core.Position{Lat: 40.0, Lon: -75.0, Alt: 0}
	b := core.Position{Lat: 40.00005, Lon: -75.0, Alt: 0}

	d := Separation(a, b)
	want := 0.00005 * MetersPerDegree
	if math.Abs(d-want) > 0.01 {
		t.Errorf("expected %.3f, got %.3f", want, d)
	}
}

func TestSeparation_Symmetric(t *testing.T) {
	a := core.Position{Lat: 40.0, Lon: -75.0, Alt: 10}
	b := core.Position{Lat: 40.001, Lon: -75.002, Alt: 40}

	if d1, d2 := Separation(a, b), Separation(b, a); d1 != d2 {
		t.Errorf("separation not symmetric: %.6f vs %.6f", d1, d2)
	}
}

func TestSeparation_IncludesAltitude(t *testing.T) {
	a := core.Position{Lat: 40, Lon: -75, Alt: 0}
	b := core.Position{Lat: 40, Lon: -75, Alt: 30}

	if d := Separation(a, b); math.Abs(d-30) > 1e-9 {
		t.Errorf("expected 30m vertical separation, got %.3f", d)
	}
}

func TestCollisionRisks(t *testing.T) {
	vehicles := []*core.Vehicle{
		{ID: "A", Position: core.Position{Lat: 40.0, Lon: -75.0}},
		{ID: "B", Position: core.Position{Lat: 40.00005, Lon: -75.0}},
		{ID: "C", Position: core.Position{Lat: 41.0, Lon: -75.0}},
	}

	risks := CollisionRisks(vehicles, 10)
	if len(risks) != 1 {
		t.Fatalf("expected exactly 1 risk pair, got %d", len(risks))
	}
	r := risks[0]
	if r.VehicleA != "A" || r.VehicleB != "B" {
		t.Errorf("expected pair (A,B), got (%s,%s)", r.VehicleA, r.VehicleB)
	}
	if math.Abs(r.Distance-5.566) > 0.01 {
		t.Errorf("expected distance ~5.566, got %.3f", r.Distance)
	}
}

func TestCollisionRisks_EachPairOnce(t *testing.T) {
	// Three vehicles all inside the threshold: exactly 3 unordered pairs.
	vehicles := []*core.Vehicle{
		{ID: "A", Position: core.Position{Lat: 40.0, Lon: -75.0}},
		{ID: "B", Position: core.Position{Lat: 40.00001, Lon: -75.0}},
		{ID: "C", Position: core.Position{Lat: 40.00002, Lon: -75.0}},
	}

	risks := CollisionRisks(vehicles, 10)
	if len(risks) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(risks))
	}
	seen := make(map[string]bool)
	for _, r := range risks {
		key := r.VehicleA + "|" + r.VehicleB
		if seen[key] {
			t.Errorf("pair %s reported twice", key)
		}
		seen[key] = true
	}
}

func TestCollisionRisks_DefaultThreshold(t *testing.T) {
	vehicles := []*core.Vehicle{
		{ID: "A", Position: core.Position{Lat: 40.0, Lon: -75.0}},
		{ID: "B", Position: core.Position{Lat: 40.00005, Lon: -75.0}},
	}
	if risks := CollisionRisks(vehicles, 0); len(risks) != 1 {
		t.Errorf("expected default 10m threshold to flag the pair, got %d risks", len(risks))
	}
}

func TestCoverageTargets_TwoVehicles(t *testing.T) {
	bounds := core.AreaBounds{MinLat: 40.0, MaxLat: 40.1, MinLon: -75.0, MaxLon: -74.9}
	targets := CoverageTargets(bounds, []string{"UAV-01", "UAV-02"})

	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}
	if got := targets["UAV-01"]; math.Abs(got.Lat-40.0333) > 0.001 || got.Lon != -74.95 {
		t.Errorf("UAV-01: expected (40.0333, -74.95), got (%.4f, %.4f)", got.Lat, got.Lon)
	}
	if got := targets["UAV-02"]; math.Abs(got.Lat-40.0667) > 0.001 || got.Lon != -74.95 {
		t.Errorf("UAV-02: expected (40.0667, -74.95), got (%.4f, %.4f)", got.Lat, got.Lon)
	}
}

func TestCoverageTargets_Empty(t *testing.T) {
	bounds := core.AreaBounds{MinLat: 40.0, MaxLat: 40.1, MinLon: -75.0, MaxLon: -74.9}
	targets := CoverageTargets(bounds, nil)
	if len(targets) != 0 {
		t.Errorf("expected empty mapping, got %v", targets)
	}
}

func TestPositionFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    core.Position
		wantErr bool
	}{
		{"with altitude", "40.5,-75.25,50.0", core.Position{Lat: 40.5, Lon: -75.25, Alt: 50}, false},
		{"without altitude", "40.5,-75.25", core.Position{Lat: 40.5, Lon: -75.25}, false},
		{"spaces", " 40.5 , -75.25 , 10 ", core.Position{Lat: 40.5, Lon: -75.25, Alt: 10}, false},
		{"too few parts", "40.5", core.Position{}, true},
		{"garbage", "abc,def", core.Position{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PositionFromString(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCoordinates) {
					t.Errorf("expected ErrInvalidCoordinates, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestBoundsFromString(t *testing.T) {
	b, err := BoundsFromString("40.0,40.1,-75.0,-74.9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := core.AreaBounds{MinLat: 40.0, MaxLat: 40.1, MinLon: -75.0, MaxLon: -74.9}
	if b != want {
		t.Errorf("expected %+v, got %+v", want, b)
	}

	if _, err := BoundsFromString("40.0,40.1"); !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
}

func TestContains(t *testing.T) {
	bounds := core.AreaBounds{MinLat: 40.0, MaxLat: 40.1, MinLon: -75.0, MaxLon: -74.9}

	if !Contains(bounds, core.Position{Lat: 40.05, Lon: -74.95}) {
		t.Error("expected center point to be contained")
	}
	if Contains(bounds, core.Position{Lat: 41.0, Lon: -74.95}) {
		t.Error("expected far point to be outside")
	}
}

func TestCenter(t *testing.T) {
	bounds := core.AreaBounds{MinLat: 40.0, MaxLat: 40.1, MinLon: -75.0, MaxLon: -74.9}
	c := Center(bounds)
	if math.Abs(c.Lat-40.05) > 1e-9 || math.Abs(c.Lon+74.95) > 1e-9 {
		t.Errorf("expected (40.05, -74.95), got (%.4f, %.4f)", c.Lat, c.Lon)
	}
}

func TestPoint3857(t *testing.T) {
	origin, ok := Point3857(core.Position{Lat: 0, Lon: 0}).XY()
	if !ok {
		t.Fatal("expected a non-empty point")
	}
	if math.Abs(origin.X) > 1e-6 || math.Abs(origin.Y) > 1e-6 {
		t.Errorf("expected origin to project to (0, 0), got (%f, %f)", origin.X, origin.Y)
	}

	// Easting is analytic in spherical mercator, lon/180 * pi * R
	p, _ := Point3857(core.Position{Lat: 41, Lon: -74}).XY()
	wantX := -74.0 / 180.0 * math.Pi * 6378137
	if math.Abs(p.X-wantX) > 1.0 {
		t.Errorf("expected easting %.1f, got %.1f", wantX, p.X)
	}
	if p.Y <= 0 {
		t.Errorf("expected positive northing for northern latitude, got %.1f", p.Y)
	}

	north, _ := Point3857(core.Position{Lat: 45, Lon: 10}).XY()
	south, _ := Point3857(core.Position{Lat: -45, Lon: 10}).XY()
	if math.Abs(north.Y+south.Y) > 1e-3 {
		t.Errorf("expected symmetric northings, got %.3f and %.3f", north.Y, south.Y)
	}
}

func TestAreaWKB(t *testing.T) {
	a := core.AreaBounds{MinLat: 40.0, MaxLat: 40.1, MinLon: -75.0, MaxLon: -74.9}
	b := core.AreaBounds{MinLat: 50.0, MaxLat: 50.1, MinLon: -75.0, MaxLon: -74.9}

	ab := AreaWKB(a)
	if len(ab) == 0 {
		t.Fatal("expected non-empty encoding")
	}
	if string(ab) != string(AreaWKB(a)) {
		t.Error("expected encoding to be deterministic")
	}
	if string(ab) == string(AreaWKB(b)) {
		t.Error("expected distinct areas to encode differently")
	}
}
