package citypulse

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulse-works/citypulse/internal/cache"
	"github.com/pulse-works/citypulse/internal/mapper"
	"github.com/pulse-works/citypulse/internal/model"
)

const parisSearchPayload = `[
	{"name": "Paris", "lat": "48.8566", "lon": "2.3522",
	 "address": {"country": "France", "state": "Ile-de-France"}}
]`

const weatherPayload = `{
	"main": {"temp": 21.6, "feels_like": 22.1, "humidity": 40},
	"wind": {"speed": 5.1},
	"weather": [{"main": "Clear", "description": "clear sky", "icon": "01d"}],
	"sys": {"sunrise": 1700000000, "sunset": 1700040000},
	"timezone": 3600
}`

const aqiPayload = `{"list": [{"main": {"aqi": 2}, "components": {"pm2_5": 4.1}}]}`

type fakeGeo struct {
	payload []byte
	err     error
	calls   int
}

func (f *fakeGeo) Search(_ context.Context, _ string, _ int) ([]byte, error) {
	f.calls++
	return f.payload, f.err
}

type fakeWeather struct {
	weatherPayload []byte
	weatherErr     error
	aqiPayload     []byte
	aqiErr         error
	weatherCalls   int
	aqiCalls       int
}

func (f *fakeWeather) CurrentWeather(_ context.Context, _, _ float64, _ string) ([]byte, error) {
	f.weatherCalls++
	return f.weatherPayload, f.weatherErr
}

func (f *fakeWeather) AirPollution(_ context.Context, _, _ float64) ([]byte, error) {
	f.aqiCalls++
	return f.aqiPayload, f.aqiErr
}

// brokenStore errors on every operation to exercise cache degradation.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, eris.New("cache down")
}
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return eris.New("cache down")
}
func (brokenStore) DeleteExpired(context.Context) (int, error) { return 0, eris.New("cache down") }
func (brokenStore) Close() error                               { return nil }

func newTestService(geo *fakeGeo, weather *fakeWeather, opts ...Option) *Service {
	base := []Option{WithLogger(zap.NewNop())}
	return NewService(geo, weather, cache.NewMemory(), append(base, opts...)...)
}

func TestSearch_EmptyQuerySkipsUpstream(t *testing.T) {
	geo := &fakeGeo{}
	svc := newTestService(geo, &fakeWeather{})

	for _, query := range []string{"", "   ", "\t\n"} {
		result, err := svc.Search(context.Background(), query)
		require.NoError(t, err)
		assert.Empty(t, result.Query)
		assert.Empty(t, result.Candidates)
	}
	assert.Zero(t, geo.calls)
}

func TestSearch_MapsCandidates(t *testing.T) {
	geo := &fakeGeo{payload: []byte(parisSearchPayload)}
	svc := newTestService(geo, &fakeWeather{})

	result, err := svc.Search(context.Background(), "  Paris,   France ")
	require.NoError(t, err)
	assert.Equal(t, "Paris, France", result.Query)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "Paris", result.Candidates[0].Name)
	assert.InDelta(t, 48.8566, result.Candidates[0].Lat, 1e-9)
}

func TestSearch_CacheHitSkipsSecondCall(t *testing.T) {
	geo := &fakeGeo{payload: []byte(parisSearchPayload)}
	svc := newTestService(geo, &fakeWeather{})

	_, err := svc.Search(context.Background(), "Paris")
	require.NoError(t, err)

	result, err := svc.Search(context.Background(), "Paris")
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, 1, geo.calls)
}

func TestSearch_CacheKeyIsCaseInsensitive(t *testing.T) {
	geo := &fakeGeo{payload: []byte(parisSearchPayload)}
	svc := newTestService(geo, &fakeWeather{})

	_, err := svc.Search(context.Background(), "PARIS")
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), "paris")
	require.NoError(t, err)
	assert.Equal(t, 1, geo.calls)
}

func TestSearch_UpstreamErrorPropagates(t *testing.T) {
	geo := &fakeGeo{err: eris.New("boom")}
	svc := newTestService(geo, &fakeWeather{})

	_, err := svc.Search(context.Background(), "Paris")
	require.Error(t, err)

	// The failure must not be cached.
	geo.err = nil
	geo.payload = []byte(parisSearchPayload)
	result, err := svc.Search(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Len(t, result.Candidates, 1)
	assert.Equal(t, 2, geo.calls)
}

func testPlace() model.Place {
	return model.Place{
		Name:         "Paris",
		Country:      "France",
		Lat:          48.8566,
		Lon:          2.3522,
		DisplayLabel: "Paris, Ile-de-France, France",
	}
}

func TestBuildDashboard_Success(t *testing.T) {
	weather := &fakeWeather{
		weatherPayload: []byte(weatherPayload),
		aqiPayload:     []byte(aqiPayload),
	}
	fixed := time.Date(2025, 6, 1, 15, 4, 5, 0, time.UTC)
	svc := newTestService(&fakeGeo{}, weather, WithClock(func() time.Time { return fixed }))

	dash, err := svc.BuildDashboard(context.Background(), testPlace())
	require.NoError(t, err)

	assert.Equal(t, "Paris", dash.Place.Name)
	assert.InDelta(t, 21.6, dash.Weather.Temperature, 1e-9)
	assert.Equal(t, "Clear sky", dash.Weather.Description)
	require.NotNil(t, dash.AirQuality)
	assert.Equal(t, 2, dash.AirQuality.AQIIndex)
	assert.Equal(t, fixed, dash.FetchedAt)
}

func TestBuildDashboard_CacheHitSkipsSecondCall(t *testing.T) {
	weather := &fakeWeather{
		weatherPayload: []byte(weatherPayload),
		aqiPayload:     []byte(aqiPayload),
	}
	svc := newTestService(&fakeGeo{}, weather)

	_, err := svc.BuildDashboard(context.Background(), testPlace())
	require.NoError(t, err)
	_, err = svc.BuildDashboard(context.Background(), testPlace())
	require.NoError(t, err)

	assert.Equal(t, 1, weather.weatherCalls)
	assert.Equal(t, 1, weather.aqiCalls)
}

func TestBuildDashboard_WeatherFetchErrorAborts(t *testing.T) {
	weather := &fakeWeather{weatherErr: eris.New("down")}
	svc := newTestService(&fakeGeo{}, weather)

	_, err := svc.BuildDashboard(context.Background(), testPlace())
	require.Error(t, err)
	assert.Zero(t, weather.aqiCalls)
}

func TestBuildDashboard_MissingTemperatureIsFatal(t *testing.T) {
	weather := &fakeWeather{weatherPayload: []byte(`{"wind":{"speed":3}}`)}
	svc := newTestService(&fakeGeo{}, weather)

	_, err := svc.BuildDashboard(context.Background(), testPlace())
	require.Error(t, err)
	assert.ErrorIs(t, err, mapper.ErrNoTemperature)
}

func TestBuildDashboard_AQIFailureIsAbsorbed(t *testing.T) {
	weather := &fakeWeather{
		weatherPayload: []byte(weatherPayload),
		aqiErr:         eris.New("aqi down"),
	}
	svc := newTestService(&fakeGeo{}, weather)

	dash, err := svc.BuildDashboard(context.Background(), testPlace())
	require.NoError(t, err)
	assert.Nil(t, dash.AirQuality)
}

func TestBuildDashboard_MalformedAQIMapsToNil(t *testing.T) {
	weather := &fakeWeather{
		weatherPayload: []byte(weatherPayload),
		aqiPayload:     []byte(`{"list": []}`),
	}
	svc := newTestService(&fakeGeo{}, weather)

	dash, err := svc.BuildDashboard(context.Background(), testPlace())
	require.NoError(t, err)
	assert.Nil(t, dash.AirQuality)
}

func TestBrokenCacheDegradesToUncached(t *testing.T) {
	geo := &fakeGeo{payload: []byte(parisSearchPayload)}
	weather := &fakeWeather{
		weatherPayload: []byte(weatherPayload),
		aqiPayload:     []byte(aqiPayload),
	}
	svc := NewService(geo, weather, brokenStore{}, WithLogger(zap.NewNop()))

	for i := 0; i < 2; i++ {
		_, err := svc.Search(context.Background(), "Paris")
		require.NoError(t, err)
		_, err = svc.BuildDashboard(context.Background(), testPlace())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, geo.calls)
	assert.Equal(t, 2, weather.weatherCalls)
	assert.Equal(t, 2, weather.aqiCalls)
}

func TestResolveSelection(t *testing.T) {
	ohio := "Ohio"
	illinois := "Illinois"
	candidates := []model.Place{
		{Name: "Springfield", State: &illinois, Country: "United States", Lat: 39.7990, Lon: -89.6439, DisplayLabel: "Springfield, Illinois, United States"},
		{Name: "Springfield", State: &ohio, Country: "United States", Lat: 39.9242, Lon: -83.8088, DisplayLabel: "Springfield, Ohio, United States"},
	}
	svc := newTestService(&fakeGeo{}, &fakeWeather{})

	selected := svc.ResolveSelection(candidates[1].Token(), candidates)
	require.NotNil(t, selected)
	assert.Equal(t, "Springfield, Ohio, United States", selected.DisplayLabel)

	assert.Nil(t, svc.ResolveSelection("not-a-token", candidates))
	assert.Nil(t, svc.ResolveSelection("", candidates))

	outsider := model.Place{Name: "Paris", Country: "France", Lat: 48.8566, Lon: 2.3522, DisplayLabel: "Paris, France"}
	assert.Nil(t, svc.ResolveSelection(outsider.Token(), candidates))
}
