package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bobby-s-dev/weather-viewer/internal/models"
)

// Required fields are pointers so a missing key can be told apart from a zero value.

type conditionPayload struct {
	Description *string `json:"description"`
}

type mainPayload struct {
	Temp     *float64 `json:"temp"`
	Humidity *int     `json:"humidity"`
}

type windPayload struct {
	Speed *float64 `json:"speed"`
}

type samplePayload struct {
	Dt      *int64             `json:"dt"`
	Main    *mainPayload       `json:"main"`
	Weather []conditionPayload `json:"weather"`
	Wind    *windPayload       `json:"wind"`
}

type currentPayload struct {
	samplePayload
	Name *string `json:"name"`
}

type forecastPayload struct {
	City *struct {
		Name *string `json:"name"`
	} `json:"city"`
	List []samplePayload `json:"list"`
}

// Normalizer maps a raw upstream payload for one mode into a WeatherView.
type Normalizer struct {
	mode models.Mode
}

func NewNormalizer(mode models.Mode) *Normalizer {
	return &Normalizer{mode: mode}
}

// Normalize returns a view with at least one sample, or a *models.ParseError.
func (n *Normalizer) Normalize(data []byte) (models.WeatherView, error) {
	var (
		view models.WeatherView
		err  error
	)
	switch n.mode {
	case models.ModeCurrent:
		view, err = normalizeCurrent(data)
	case models.ModeForecast:
		view, err = normalizeForecast(data)
	default:
		err = fmt.Errorf("unsupported mode %q", n.mode)
	}
	if err != nil {
		return models.WeatherView{}, &models.ParseError{Err: err}
	}
	return view, nil
}

func normalizeCurrent(data []byte) (models.WeatherView, error) {
	var payload currentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return models.WeatherView{}, fmt.Errorf("decode current weather: %w", err)
	}
	if payload.Name == nil {
		return models.WeatherView{}, errors.New("missing name")
	}

	sample, err := payload.toSample(false)
	if err != nil {
		return models.WeatherView{}, err
	}

	return models.WeatherView{
		LocationName: *payload.Name,
		Samples:      []models.Sample{sample},
	}, nil
}

func normalizeForecast(data []byte) (models.WeatherView, error) {
	var payload forecastPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return models.WeatherView{}, fmt.Errorf("decode forecast: %w", err)
	}
	if payload.City == nil || payload.City.Name == nil {
		return models.WeatherView{}, errors.New("missing city.name")
	}
	if len(payload.List) == 0 {
		return models.WeatherView{}, errors.New("empty forecast list")
	}

	entries := payload.List
	if len(entries) > models.ForecastSlots {
		entries = entries[:models.ForecastSlots]
	}

	samples := make([]models.Sample, 0, len(entries))
	for i, entry := range entries {
		sample, err := entry.toSample(true)
		if err != nil {
			return models.WeatherView{}, fmt.Errorf("list[%d]: %w", i, err)
		}
		samples = append(samples, sample)
	}

	return models.WeatherView{
		LocationName: *payload.City.Name,
		Samples:      samples,
	}, nil
}

func (p samplePayload) toSample(requireTimestamp bool) (models.Sample, error) {
	switch {
	case requireTimestamp && p.Dt == nil:
		return models.Sample{}, errors.New("missing dt")
	case p.Main == nil || p.Main.Temp == nil:
		return models.Sample{}, errors.New("missing main.temp")
	case p.Main.Humidity == nil:
		return models.Sample{}, errors.New("missing main.humidity")
	case len(p.Weather) == 0 || p.Weather[0].Description == nil:
		return models.Sample{}, errors.New("missing weather[0].description")
	case p.Wind == nil || p.Wind.Speed == nil:
		return models.Sample{}, errors.New("missing wind.speed")
	}

	sample := models.Sample{
		TemperatureCelsius:       *p.Main.Temp,
		HumidityPercent:          *p.Main.Humidity,
		ConditionDescription:     *p.Weather[0].Description,
		WindSpeedMetersPerSecond: *p.Wind.Speed,
	}
	if p.Dt != nil {
		sample.Timestamp = *p.Dt
	}
	return sample, nil
}
