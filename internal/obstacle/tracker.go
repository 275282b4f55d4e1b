// internal/obstacle/tracker.go

// Package obstacle tracks reported detections per vehicle and grades
// their threat to the platform.
package obstacle

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/skycoord/fleet/pkg/core"
)

// Params tune detection range and the distance bands that map to
// threat levels.
type Params struct {
	DetectionRange   float64 // meters
	CriticalDistance float64 // meters
	WarningDistance  float64 // meters
	// ConfidenceFloor is carried for config parity only. Detections
	// below it are still tracked; sensors are expected to gate their
	// own reports.
	ConfidenceFloor float64
}

func DefaultParams() Params {
	return Params{
		DetectionRange:   50.0,
		CriticalDistance: 10.0,
		WarningDistance:  20.0,
		ConfidenceFloor:  0.7,
	}
}

var threatRank = map[core.ThreatLevel]int{
	core.ThreatLow:      0,
	core.ThreatMedium:   1,
	core.ThreatHigh:     2,
	core.ThreatCritical: 3,
}

// Tracker keeps obstacles reported by sensors, keyed by id. Not safe
// for concurrent use; the coordinator serializes access.
type Tracker struct {
	params    Params
	obstacles map[string]*core.Obstacle
	counter   int
	log       *slog.Logger
	now       func() time.Time
}

func NewTracker(p Params, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		params:    p,
		obstacles: make(map[string]*core.Obstacle),
		log:       log,
		now:       time.Now,
	}
}

// SetClock replaces the time source, for tests.
func (t *Tracker) SetClock(now func() time.Time) { t.now = now }

// ThreatFor grades a distance against the configured bands.
func (t *Tracker) ThreatFor(distance float64) core.ThreatLevel {
	switch {
	case distance < t.params.CriticalDistance:
		return core.ThreatCritical
	case distance < t.params.WarningDistance:
		return core.ThreatHigh
	case distance < t.params.DetectionRange*0.5:
		return core.ThreatMedium
	default:
		return core.ThreatLow
	}
}

// Add records a detection and assigns it a sequential id.
func (t *Tracker) Add(kind core.ObstacleType, offset [3]float64, confidence float64) core.Obstacle {
	t.counter++
	distance := norm(offset)
	obs := core.Obstacle{
		ID:         fmt.Sprintf("OBS-%04d", t.counter),
		Type:       kind,
		Offset:     offset,
		Distance:   distance,
		Threat:     t.ThreatFor(distance),
		Confidence: confidence,
		DetectedAt: t.now(),
	}
	t.obstacles[obs.ID] = &obs
	t.log.Info("obstacle detected", "type", kind, "distance", distance, "threat", obs.Threat)
	return obs
}

// Update moves a tracked obstacle, recomputing distance and threat.
func (t *Tracker) Update(id string, offset [3]float64) error {
	obs, ok := t.obstacles[id]
	if !ok {
		return fmt.Errorf("update obstacle %s: %w", id, core.ErrNotFound)
	}
	obs.Offset = offset
	obs.Distance = norm(offset)
	obs.Threat = t.ThreatFor(obs.Distance)
	obs.DetectedAt = t.now()
	return nil
}

// Remove drops an obstacle from tracking.
func (t *Tracker) Remove(id string) error {
	if _, ok := t.obstacles[id]; !ok {
		return fmt.Errorf("remove obstacle %s: %w", id, core.ErrNotFound)
	}
	delete(t.obstacles, id)
	return nil
}

// List returns obstacles within maxDistance at or above minThreat,
// nearest first. Zero maxDistance means no distance filter; empty
// minThreat means no threat filter.
func (t *Tracker) List(maxDistance float64, minThreat core.ThreatLevel) []core.Obstacle {
	out := make([]core.Obstacle, 0, len(t.obstacles))
	minRank := -1
	if minThreat != "" {
		minRank = threatRank[minThreat]
	}
	for _, obs := range t.obstacles {
		if maxDistance > 0 && obs.Distance > maxDistance {
			continue
		}
		if threatRank[obs.Threat] < minRank {
			continue
		}
		out = append(out, *obs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}

// Critical returns only critical-threat obstacles, nearest first.
func (t *Tracker) Critical() []core.Obstacle {
	return t.List(0, core.ThreatCritical)
}

// ClearStale drops obstacles not refreshed within maxAge and reports
// how many were removed.
func (t *Tracker) ClearStale(maxAge time.Duration) int {
	cutoff := t.now().Add(-maxAge)
	removed := 0
	for id, obs := range t.obstacles {
		if obs.DetectedAt.Before(cutoff) {
			delete(t.obstacles, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked obstacles.
func (t *Tracker) Len() int { return len(t.obstacles) }

func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
