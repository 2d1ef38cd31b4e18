package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bobby-s-dev/weather-viewer/internal/models"
	"go.uber.org/zap"
)

const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5"

type OpenWeatherClient struct {
	*BaseClient
	apiKey  string
	baseURL string
}

func NewOpenWeatherClient(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	baseClient := NewBaseClient("openweather", config, logger)
	return &OpenWeatherClient{
		BaseClient: baseClient,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Fetch returns the raw JSON body for query from the endpoint that mode
// reads: /weather for current conditions, /forecast for the forecast.
func (c *OpenWeatherClient) Fetch(ctx context.Context, mode models.Mode, query models.Query) ([]byte, error) {
	endpoint, err := endpointFor(mode)
	if err != nil {
		return nil, err
	}

	data, err := c.GetWithRetry(ctx, c.buildURL(endpoint, query))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s weather for %s: %w", mode, query, err)
	}
	return data, nil
}

func (c *OpenWeatherClient) buildURL(endpoint string, query models.Query) string {
	values := url.Values{}
	if query.IsCoordinates() {
		values.Set("lat", strconv.FormatFloat(query.Coordinates.Latitude, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(query.Coordinates.Longitude, 'f', -1, 64))
	} else {
		values.Set("q", query.City)
	}
	values.Set("appid", c.apiKey)
	values.Set("units", "metric")

	return fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, values.Encode())
}

func endpointFor(mode models.Mode) (string, error) {
	switch mode {
	case models.ModeCurrent:
		return "weather", nil
	case models.ModeForecast:
		return "forecast", nil
	default:
		return "", fmt.Errorf("unsupported mode %q", mode)
	}
}
