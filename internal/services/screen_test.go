package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-viewer/internal/models"
	"github.com/bobby-s-dev/weather-viewer/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// gatedFetcher blocks each fetch until the test releases it, so tests can
// control completion order.
type gatedFetcher struct {
	mu    sync.Mutex
	gates map[string]chan result
	calls atomic.Int32
}

type result struct {
	view models.WeatherView
	err  error
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{gates: make(map[string]chan result)}
}

func (f *gatedFetcher) gate(key string) chan result {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.gates[key]
	if !ok {
		ch = make(chan result, 1)
		f.gates[key] = ch
	}
	return ch
}

func (f *gatedFetcher) Fetch(ctx context.Context, q models.Query) (models.WeatherView, error) {
	f.calls.Add(1)
	select {
	case r := <-f.gate(q.String()):
		return r.view, r.err
	case <-ctx.Done():
		return models.WeatherView{}, ctx.Err()
	}
}

func (f *gatedFetcher) release(key string, r result) {
	f.gate(key) <- r
}

func viewFor(name string) models.WeatherView {
	return models.WeatherView{
		LocationName: name,
		Samples:      []models.Sample{{TemperatureCelsius: 18.2, HumidityPercent: 60, ConditionDescription: "clear sky", WindSpeedMetersPerSecond: 3.1}},
	}
}

func newTestScreen(f ViewFetcher) (*Screen, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return NewScreen(context.Background(), f, time.Second, m, zap.NewNop()), m
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not resolve")
	}
}

func TestScreen_StartsIdle(t *testing.T) {
	s, _ := newTestScreen(newGatedFetcher())
	assert.Equal(t, models.Idle{}, s.State())
	assert.False(t, s.Geolocated())
}

func TestScreen_SubmitEmptyNeverFetches(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		f := newGatedFetcher()
		s, m := newTestScreen(f)

		wait(t, s.Submit(input))

		assert.Equal(t, models.Failed{Message: models.MsgInvalidLocation}, s.State())
		assert.Equal(t, int32(0), f.calls.Load())
		assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("empty_city")))
	}
}

func TestScreen_SubmitLoadingThenSuccess(t *testing.T) {
	f := newGatedFetcher()
	s, _ := newTestScreen(f)

	done := s.Submit("  Paris ")
	assert.IsType(t, models.Loading{}, s.State())

	f.release("Paris", result{view: viewFor("Paris")})
	wait(t, done)

	assert.Equal(t, models.Success{View: viewFor("Paris")}, s.State())
}

func TestScreen_FetchErrorsBecomeUserMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"http", &models.HTTPError{StatusCode: 404}, models.MsgFetchFailed},
		{"parse", &models.ParseError{Err: errors.New("empty forecast list")}, models.MsgFetchFailed},
		{"transport", &models.TransportError{Message: "connection refused"}, "connection refused"},
		{"unknown", errors.New("boom"), models.MsgFetchFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatedFetcher()
			s, _ := newTestScreen(f)

			done := s.Submit("Paris")
			f.release("Paris", result{err: tt.err})
			wait(t, done)

			assert.Equal(t, models.Failed{Message: tt.want}, s.State())
		})
	}
}

func TestScreen_StaleResultDoesNotOverwriteNewer(t *testing.T) {
	f := newGatedFetcher()
	s, m := newTestScreen(f)

	doneA := s.Submit("Paris")
	doneB := s.Submit("Berlin")

	f.release("Berlin", result{view: viewFor("Berlin")})
	wait(t, doneB)
	f.release("Paris", result{view: viewFor("Paris")})
	wait(t, doneA)

	assert.Equal(t, models.Success{View: viewFor("Berlin")}, s.State())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleResults))
}

func TestScreen_StaleFailureDoesNotOverwriteLoading(t *testing.T) {
	f := newGatedFetcher()
	s, _ := newTestScreen(f)

	doneA := s.Submit("Paris")
	doneB := s.Submit("Berlin")

	f.release("Paris", result{err: &models.HTTPError{StatusCode: 500}})
	wait(t, doneA)
	assert.IsType(t, models.Loading{}, s.State())

	f.release("Berlin", result{view: viewFor("Berlin")})
	wait(t, doneB)
	assert.Equal(t, models.Success{View: viewFor("Berlin")}, s.State())
}

func TestScreen_ValidationSupersedesInFlightFetch(t *testing.T) {
	f := newGatedFetcher()
	s, _ := newTestScreen(f)

	done := s.Submit("Paris")
	s.Submit(" ")

	f.release("Paris", result{view: viewFor("Paris")})
	wait(t, done)

	assert.Equal(t, models.Failed{Message: models.MsgInvalidLocation}, s.State())
}

func TestScreen_GeolocateCoordinates(t *testing.T) {
	f := newGatedFetcher()
	s, _ := newTestScreen(f)

	done, err := s.Geolocate(&models.Coordinates{Latitude: 48.8566, Longitude: 2.3522}, nil)
	require.NoError(t, err)
	assert.True(t, s.Geolocated())

	f.release(models.CoordinatesQuery(48.8566, 2.3522).String(), result{view: viewFor("Paris")})
	wait(t, done)

	assert.Equal(t, models.Success{View: viewFor("Paris")}, s.State())
}

func TestScreen_GeolocateDenied(t *testing.T) {
	f := newGatedFetcher()
	s, m := newTestScreen(f)

	done, err := s.Geolocate(nil, &models.GeolocationError{Reason: "User denied Geolocation"})
	require.NoError(t, err)
	wait(t, done)

	assert.Equal(t, models.Failed{Message: models.MsgLocationDenied}, s.State())
	assert.Equal(t, int32(0), f.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("geolocation_denied")))
}

func TestScreen_GeolocateOnlyOnce(t *testing.T) {
	s, _ := newTestScreen(newGatedFetcher())

	_, err := s.Geolocate(nil, &models.GeolocationError{})
	require.NoError(t, err)

	_, err = s.Geolocate(&models.Coordinates{Latitude: 1, Longitude: 2}, nil)
	assert.ErrorIs(t, err, ErrGeolocationResolved)
	assert.Equal(t, models.Failed{Message: models.MsgLocationDenied}, s.State())
}

func TestScreen_LateGeolocationLosesToManualSubmit(t *testing.T) {
	f := newGatedFetcher()
	s, _ := newTestScreen(f)

	geoDone, err := s.Geolocate(&models.Coordinates{Latitude: 1, Longitude: 2}, nil)
	require.NoError(t, err)
	cityDone := s.Submit("Paris")

	f.release("Paris", result{view: viewFor("Paris")})
	wait(t, cityDone)
	f.release(models.CoordinatesQuery(1, 2).String(), result{view: viewFor("Nowhere")})
	wait(t, geoDone)

	assert.Equal(t, models.Success{View: viewFor("Paris")}, s.State())
}

func TestScreen_TimeoutClearsLoading(t *testing.T) {
	f := newGatedFetcher()
	m := observability.NewMetricsForTesting()
	s := NewScreen(context.Background(), f, 20*time.Millisecond, m, zap.NewNop())

	wait(t, s.Submit("Paris"))

	state, ok := s.State().(models.Failed)
	require.True(t, ok)
	assert.Equal(t, models.MsgFetchFailed, state.Message)
}
