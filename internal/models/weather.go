package models

import (
	"fmt"
	"strings"
)

// ForecastSlots is the number of forecast entries kept for display.
const ForecastSlots = 8

// Mode selects which upstream endpoint a screen talks to and how its
// payload is unpacked.
type Mode string

const (
	ModeCurrent  Mode = "current"
	ModeForecast Mode = "forecast"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeCurrent:
		return ModeCurrent, nil
	case ModeForecast:
		return ModeForecast, nil
	default:
		return "", fmt.Errorf("unknown display mode %q", s)
	}
}

// Query is the target of a single fetch. Exactly one of City or Coordinates
// is set; use CityQuery or CoordinatesQuery to build one.
type Query struct {
	City        string
	Coordinates *Coordinates
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func CityQuery(name string) Query {
	return Query{City: name}
}

func CoordinatesQuery(lat, lon float64) Query {
	return Query{Coordinates: &Coordinates{Latitude: lat, Longitude: lon}}
}

func (q Query) IsCoordinates() bool {
	return q.Coordinates != nil
}

func (q Query) String() string {
	if q.Coordinates != nil {
		return fmt.Sprintf("%.4f,%.4f", q.Coordinates.Latitude, q.Coordinates.Longitude)
	}
	return q.City
}

// Sample is one normalized weather observation.
type Sample struct {
	Timestamp                int64   `json:"timestamp"`
	TemperatureCelsius       float64 `json:"temperature_celsius"`
	HumidityPercent          int     `json:"humidity_percent"`
	ConditionDescription     string  `json:"condition_description"`
	WindSpeedMetersPerSecond float64 `json:"wind_speed_mps"`
}

// WeatherView is the display model produced by the normalizer. Samples is
// never empty for a view that reached the Success state.
type WeatherView struct {
	LocationName string   `json:"location_name"`
	Samples      []Sample `json:"samples"`
}
