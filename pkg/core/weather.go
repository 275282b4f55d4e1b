// pkg/core/weather.go
package core

import "time"

// WeatherCondition categorizes the current weather.
type WeatherCondition string

const (
	WeatherClear        WeatherCondition = "clear"
	WeatherPartlyCloudy WeatherCondition = "partly_cloudy"
	WeatherCloudy       WeatherCondition = "cloudy"
	WeatherLightRain    WeatherCondition = "light_rain"
	WeatherRain         WeatherCondition = "rain"
	WeatherHeavyRain    WeatherCondition = "heavy_rain"
	WeatherSnow         WeatherCondition = "snow"
	WeatherThunderstorm WeatherCondition = "thunderstorm"
	WeatherFog          WeatherCondition = "fog"
	WeatherWindy        WeatherCondition = "windy"
)

// FlightSafety is the weather service's flight-safety verdict. It gates
// arm/takeoff on the caller side; the flight state machine itself never
// consults weather.
type FlightSafety string

const (
	SafetySafe     FlightSafety = "safe"
	SafetyCaution  FlightSafety = "caution"
	SafetyUnsafe   FlightSafety = "unsafe"
	SafetyGrounded FlightSafety = "grounded"
)

// Flyable reports whether flight operations are permitted under this verdict.
func (s FlightSafety) Flyable() bool {
	return s == SafetySafe || s == SafetyCaution
}

// WeatherData is an observation used for safety assessment.
type WeatherData struct {
	Temperature   float64          `json:"temperature"`   // Celsius
	Humidity      float64          `json:"humidity"`      // percent
	WindSpeed     float64          `json:"windSpeed"`     // m/s
	WindDirection float64          `json:"windDirection"` // degrees
	Pressure      float64          `json:"pressure"`      // hPa
	Visibility    float64          `json:"visibility"`    // meters
	Precipitation float64          `json:"precipitation"` // mm/hour
	Condition     WeatherCondition `json:"condition"`
	Time          time.Time        `json:"time"`
	Lat           float64          `json:"lat"`
	Lon           float64          `json:"lon"`
}
