package parser

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/skycoord/fleet/pkg/core"
)

// ParseWeather parses a weather observation delivered as JSON.
// Args: [weatherJSON]
func (p *Parser) ParseWeather(data []string) (core.WeatherData, error) {
	var weather core.WeatherData

	sanitize(data)

	if len(data) < 1 {
		return weather, fmt.Errorf("weather: expected 1 arg, got %d", len(data))
	}

	if err := json.Unmarshal([]byte(data[0]), &weather); err != nil {
		return weather, fmt.Errorf("error unmarshalling weather data: %w", err)
	}

	if weather.Time.IsZero() {
		weather.Time = time.Now()
	}

	p.logger.Debug("Parsed weather data",
		"condition", weather.Condition,
		"windSpeed", weather.WindSpeed)

	return weather, nil
}
