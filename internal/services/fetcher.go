package services

import (
	"context"
	"errors"
	"time"

	"github.com/bobby-s-dev/weather-viewer/internal/models"
	"github.com/bobby-s-dev/weather-viewer/internal/observability"
	"go.uber.org/zap"
)

type WeatherClient interface {
	Fetch(ctx context.Context, mode models.Mode, query models.Query) ([]byte, error)
}

// Fetcher runs one upstream call for its mode and normalizes the result.
type Fetcher struct {
	client     WeatherClient
	normalizer *Normalizer
	mode       models.Mode
	metrics    *observability.Metrics
	logger     *zap.Logger
}

func NewFetcher(client WeatherClient, mode models.Mode, metrics *observability.Metrics, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client:     client,
		normalizer: NewNormalizer(mode),
		mode:       mode,
		metrics:    metrics,
		logger:     logger,
	}
}

func (f *Fetcher) Mode() models.Mode {
	return f.mode
}

func (f *Fetcher) Fetch(ctx context.Context, query models.Query) (models.WeatherView, error) {
	startTime := time.Now()
	defer func() {
		f.metrics.FetchDuration.WithLabelValues(string(f.mode)).Observe(time.Since(startTime).Seconds())
	}()

	data, err := f.client.Fetch(ctx, f.mode, query)
	if err != nil {
		f.record(classify(err))
		return models.WeatherView{}, err
	}

	view, err := f.normalizer.Normalize(data)
	if err != nil {
		f.record(observability.OutcomeParseError)
		f.logger.Warn("Failed to normalize weather payload",
			zap.String("mode", string(f.mode)),
			zap.String("query", query.String()),
			zap.Error(err))
		return models.WeatherView{}, err
	}

	f.record(observability.OutcomeSuccess)
	f.logger.Debug("Weather fetched",
		zap.String("mode", string(f.mode)),
		zap.String("location", view.LocationName),
		zap.Int("samples", len(view.Samples)),
		zap.Duration("duration", time.Since(startTime)))

	return view, nil
}

func (f *Fetcher) record(outcome string) {
	f.metrics.FetchesTotal.WithLabelValues(string(f.mode), outcome).Inc()
}

func classify(err error) string {
	var httpErr *models.HTTPError
	var parseErr *models.ParseError
	switch {
	case errors.As(err, &httpErr):
		return observability.OutcomeHTTPError
	case errors.As(err, &parseErr):
		return observability.OutcomeParseError
	default:
		return observability.OutcomeTransportError
	}
}
