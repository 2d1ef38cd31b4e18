package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-viewer/internal/models"
	"github.com/bobby-s-dev/weather-viewer/internal/observability"
	"go.uber.org/zap"
)

// ErrGeolocationResolved is returned when a screen receives a second
// geolocation report.
var ErrGeolocationResolved = errors.New("geolocation already resolved for this session")

type ViewFetcher interface {
	Fetch(ctx context.Context, query models.Query) (models.WeatherView, error)
}

// Screen owns the RequestState of one browser session. Every transition
// takes a new sequence number; a fetch result is applied only while its
// number is still the latest.
type Screen struct {
	ctx     context.Context
	fetcher ViewFetcher
	timeout time.Duration
	metrics *observability.Metrics
	logger  *zap.Logger

	mu         sync.Mutex
	seq        uint64
	state      models.RequestState
	geolocated bool
}

func NewScreen(ctx context.Context, fetcher ViewFetcher, timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Screen {
	return &Screen{
		ctx:     ctx,
		fetcher: fetcher,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
		state:   models.Idle{},
	}
}

func (s *Screen) State() models.RequestState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Geolocated reports whether the one-shot geolocation result has arrived.
func (s *Screen) Geolocated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.geolocated
}

// Submit handles a typed city name. The returned channel is closed once the
// resulting fetch has resolved, or immediately when no fetch is issued.
func (s *Screen) Submit(city string) <-chan struct{} {
	name := strings.TrimSpace(city)
	if name == "" {
		s.metrics.ValidationFailures.WithLabelValues("empty_city").Inc()
		s.fail(&models.ValidationError{Input: city})
		return closed()
	}
	return s.start(models.CityQuery(name))
}

// Geolocate handles the browser's one-shot geolocation report: either
// coordinates or the error that prevented getting them.
func (s *Screen) Geolocate(coords *models.Coordinates, geoErr error) (<-chan struct{}, error) {
	s.mu.Lock()
	if s.geolocated {
		s.mu.Unlock()
		return nil, ErrGeolocationResolved
	}
	s.geolocated = true
	s.mu.Unlock()

	if geoErr != nil || coords == nil {
		if geoErr == nil {
			geoErr = &models.GeolocationError{}
		}
		s.metrics.ValidationFailures.WithLabelValues("geolocation_denied").Inc()
		s.fail(geoErr)
		return closed(), nil
	}
	return s.start(models.CoordinatesQuery(coords.Latitude, coords.Longitude)), nil
}

func (s *Screen) start(query models.Query) <-chan struct{} {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.state = models.Loading{Seq: seq}
	s.mu.Unlock()

	s.logger.Debug("Fetch started", zap.Uint64("seq", seq), zap.String("query", query.String()))

	done := make(chan struct{})
	go func() {
		defer close(done)

		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()

		var next models.RequestState
		view, err := s.fetcher.Fetch(ctx, query)
		if err != nil {
			s.logger.Info("Fetch failed",
				zap.Uint64("seq", seq),
				zap.String("query", query.String()),
				zap.Error(err))
			next = models.Failed{Message: models.UserMessage(err)}
		} else {
			next = models.Success{View: view}
		}

		if !s.apply(seq, next) {
			s.metrics.StaleResults.Inc()
			s.logger.Debug("Discarded stale fetch result", zap.Uint64("seq", seq))
		}
	}()
	return done
}

// fail moves straight to Failed and supersedes any fetch in flight.
func (s *Screen) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.state = models.Failed{Message: models.UserMessage(err)}
}

func (s *Screen) apply(seq uint64, next models.RequestState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return false
	}
	s.state = next
	return true
}

func closed() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
