// internal/weather/weather.go

// Package weather assesses observations against flight safety thresholds.
// The verdict gates arm and takeoff at the command layer; the flight state
// machine itself never consults weather.
package weather

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/skycoord/fleet/pkg/core"
)

// Thresholds are the safety limits an observation is judged against.
type Thresholds struct {
	MaxWindSpeed     float64 // m/s
	MaxGustSpeed     float64 // m/s
	MinVisibility    float64 // meters
	MaxPrecipitation float64 // mm/hour
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxWindSpeed:     12.0,
		MaxGustSpeed:     15.0,
		MinVisibility:    1000.0,
		MaxPrecipitation: 2.0,
	}
}

// Service holds the latest observation and answers safety queries
// against it. Safe for concurrent use; observations arrive on a
// buffered feed while pre-flight gates read synchronously.
type Service struct {
	mu         sync.RWMutex
	thresholds Thresholds
	current    *core.WeatherData
	lastUpdate time.Time
	log        *slog.Logger
	now        func() time.Time

	// stale observations fall back to caution after this long
	updateInterval time.Duration
}

func NewService(t Thresholds, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		thresholds:     t,
		log:            log,
		now:            time.Now,
		updateInterval: 5 * time.Minute,
	}
}

// SetClock replaces the time source, for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Observe records a new weather observation.
func (s *Service) Observe(data core.WeatherData) {
	s.mu.Lock()
	s.current = &data
	s.lastUpdate = s.now()
	s.mu.Unlock()
	s.log.Info("weather updated",
		"condition", data.Condition,
		"windSpeed", data.WindSpeed,
		"visibility", data.Visibility)
}

// Current returns the latest observation, or nil if none has been recorded.
func (s *Service) Current() *core.WeatherData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	c := *s.current
	return &c
}

// Assess judges an observation. A nil observation yields caution rather
// than safe: absence of data is not evidence of good weather.
func (s *Service) Assess(data *core.WeatherData) core.FlightSafety {
	if data == nil {
		s.log.Warn("no weather data available for safety assessment")
		return core.SafetyCaution
	}

	if data.Condition == core.WeatherThunderstorm || data.Condition == core.WeatherHeavyRain {
		return core.SafetyGrounded
	}
	if data.WindSpeed > s.thresholds.MaxWindSpeed {
		return core.SafetyGrounded
	}

	if data.Visibility < s.thresholds.MinVisibility {
		return core.SafetyUnsafe
	}
	if data.Precipitation > s.thresholds.MaxPrecipitation {
		return core.SafetyUnsafe
	}

	if data.WindSpeed > s.thresholds.MaxWindSpeed*0.75 {
		return core.SafetyCaution
	}
	if data.Condition == core.WeatherRain || data.Condition == core.WeatherFog {
		return core.SafetyCaution
	}

	return core.SafetySafe
}

// AssessCurrent judges the latest observation.
func (s *Service) AssessCurrent() core.FlightSafety {
	return s.Assess(s.Current())
}

// SafeToFly reports whether the current verdict permits flight.
func (s *Service) SafeToFly() bool {
	return s.AssessCurrent().Flyable()
}

// NeedsUpdate reports whether the observation is missing or stale.
func (s *Service) NeedsUpdate() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return true
	}
	return s.now().Sub(s.lastUpdate) > s.updateInterval
}

// Alerts returns human-readable warnings for the current observation.
func (s *Service) Alerts() []string {
	current := s.Current()
	if current == nil {
		return []string{"no weather data available"}
	}

	var alerts []string
	if current.WindSpeed > s.thresholds.MaxWindSpeed {
		alerts = append(alerts, fmt.Sprintf("high wind speed: %.1f m/s", current.WindSpeed))
	}
	if current.Visibility < s.thresholds.MinVisibility {
		alerts = append(alerts, fmt.Sprintf("low visibility: %.0f m", current.Visibility))
	}
	if current.Precipitation > s.thresholds.MaxPrecipitation {
		alerts = append(alerts, fmt.Sprintf("heavy precipitation: %.1f mm/h", current.Precipitation))
	}
	if current.Condition == core.WeatherThunderstorm {
		alerts = append(alerts, "thunderstorm warning, do not fly")
	}
	return alerts
}
