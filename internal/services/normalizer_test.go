package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bobby-s-dev/weather-viewer/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const parisCurrent = `{
	"name": "Paris",
	"main": {"temp": 18.2, "humidity": 60},
	"weather": [{"description": "clear sky"}],
	"wind": {"speed": 3.1}
}`

func forecastJSON(city string, entries int) string {
	items := make([]string, 0, entries)
	for i := 0; i < entries; i++ {
		items = append(items, fmt.Sprintf(
			`{"dt": %d, "main": {"temp": %d.5, "humidity": %d}, "weather": [{"description": "slot %d"}], "wind": {"speed": %d.25}}`,
			1700000000+i*10800, i, 50+i, i, i,
		))
	}
	return fmt.Sprintf(`{"city": {"name": %q}, "list": [%s]}`, city, strings.Join(items, ","))
}

func TestNormalize_Current(t *testing.T) {
	view, err := NewNormalizer(models.ModeCurrent).Normalize([]byte(parisCurrent))
	require.NoError(t, err)

	want := models.WeatherView{
		LocationName: "Paris",
		Samples: []models.Sample{{
			TemperatureCelsius:       18.2,
			HumidityPercent:          60,
			ConditionDescription:     "clear sky",
			WindSpeedMetersPerSecond: 3.1,
		}},
	}
	if diff := cmp.Diff(want, view); diff != "" {
		t.Errorf("view mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_CurrentKeepsTimestampWhenPresent(t *testing.T) {
	payload := strings.Replace(parisCurrent, `"name"`, `"dt": 1700000000, "name"`, 1)
	view, err := NewNormalizer(models.ModeCurrent).Normalize([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), view.Samples[0].Timestamp)
}

func TestNormalize_ForecastTruncatesToEightInOrder(t *testing.T) {
	view, err := NewNormalizer(models.ModeForecast).Normalize([]byte(forecastJSON("Paris", 10)))
	require.NoError(t, err)

	assert.Equal(t, "Paris", view.LocationName)
	require.Len(t, view.Samples, models.ForecastSlots)
	for i, s := range view.Samples {
		assert.Equal(t, int64(1700000000+i*10800), s.Timestamp)
		assert.Equal(t, float64(i)+0.5, s.TemperatureCelsius)
		assert.Equal(t, 50+i, s.HumidityPercent)
		assert.Equal(t, fmt.Sprintf("slot %d", i), s.ConditionDescription)
		assert.Equal(t, float64(i)+0.25, s.WindSpeedMetersPerSecond)
	}
}

func TestNormalize_ForecastShorterThanEight(t *testing.T) {
	view, err := NewNormalizer(models.ModeForecast).Normalize([]byte(forecastJSON("Oslo", 3)))
	require.NoError(t, err)
	assert.Len(t, view.Samples, 3)
}

func TestNormalize_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mode    models.Mode
		payload string
	}{
		{"empty forecast list", models.ModeForecast, `{"city": {"name": "Paris"}, "list": []}`},
		{"missing forecast list", models.ModeForecast, `{"city": {"name": "Paris"}}`},
		{"missing city", models.ModeForecast, `{"list": []}`},
		{"forecast entry missing dt", models.ModeForecast, `{"city": {"name": "Paris"}, "list": [{"main": {"temp": 1, "humidity": 2}, "weather": [{"description": "x"}], "wind": {"speed": 1}}]}`},
		{"malformed json", models.ModeCurrent, `{"name":`},
		{"missing name", models.ModeCurrent, `{"main": {"temp": 1, "humidity": 2}, "weather": [{"description": "x"}], "wind": {"speed": 1}}`},
		{"missing temp", models.ModeCurrent, `{"name": "Paris", "main": {"humidity": 2}, "weather": [{"description": "x"}], "wind": {"speed": 1}}`},
		{"missing humidity", models.ModeCurrent, `{"name": "Paris", "main": {"temp": 1}, "weather": [{"description": "x"}], "wind": {"speed": 1}}`},
		{"empty weather", models.ModeCurrent, `{"name": "Paris", "main": {"temp": 1, "humidity": 2}, "weather": [], "wind": {"speed": 1}}`},
		{"missing wind", models.ModeCurrent, `{"name": "Paris", "main": {"temp": 1, "humidity": 2}, "weather": [{"description": "x"}]}`},
		{"unknown mode", models.Mode("daily"), parisCurrent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNormalizer(tt.mode).Normalize([]byte(tt.payload))
			require.Error(t, err)

			var parseErr *models.ParseError
			assert.True(t, errors.As(err, &parseErr))
			assert.Equal(t, models.MsgFetchFailed, models.UserMessage(err))
		})
	}
}
