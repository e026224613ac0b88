// Package citypulse orchestrates geocoding, weather, and air quality
// lookups behind the cache. It is the only layer that talks to both
// upstream clients.
package citypulse

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pulse-works/citypulse/internal/cache"
	"github.com/pulse-works/citypulse/internal/mapper"
	"github.com/pulse-works/citypulse/internal/model"
	"github.com/pulse-works/citypulse/internal/textutil"
)

const searchLimit = 5

// GeocodingClient is the slice of the Nominatim client the service needs.
type GeocodingClient interface {
	Search(ctx context.Context, query string, limit int) ([]byte, error)
}

// WeatherClient is the slice of the OpenWeather client the service needs.
type WeatherClient interface {
	CurrentWeather(ctx context.Context, lat, lon float64, units string) ([]byte, error)
	AirPollution(ctx context.Context, lat, lon float64) ([]byte, error)
}

// Service builds search results and dashboards. Raw upstream payloads are
// cached, not mapped structs, so mapper changes apply to cached entries
// without invalidation.
type Service struct {
	geo     GeocodingClient
	weather WeatherClient
	store   cache.Store

	units      string
	geoTTL     time.Duration
	weatherTTL time.Duration

	logger *zap.Logger
	now    func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithUnits sets the unit system sent to OpenWeather (metric, imperial,
// standard).
func WithUnits(units string) Option {
	return func(s *Service) {
		s.units = units
	}
}

// WithGeoTTL sets how long geocode payloads stay cached.
func WithGeoTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.geoTTL = ttl
	}
}

// WithWeatherTTL sets how long weather and AQI payloads stay cached.
func WithWeatherTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.weatherTTL = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the clock used for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService wires the service with its collaborators.
func NewService(geo GeocodingClient, weather WeatherClient, store cache.Store, opts ...Option) *Service {
	s := &Service{
		geo:        geo,
		weather:    weather,
		store:      store,
		units:      "metric",
		geoTTL:     6 * time.Hour,
		weatherTTL: 10 * time.Minute,
		logger:     zap.L(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search geocodes a free-text query into place candidates. An empty query
// after normalization returns a zero-value result without touching the
// upstream.
func (s *Service) Search(ctx context.Context, query string) (model.SearchResult, error) {
	q := textutil.Normalize(query)
	if q == "" {
		return model.SearchResult{}, nil
	}

	key := geoCacheKey(q)
	raw, hit := s.cacheGet(ctx, key)
	if !hit {
		var err error
		raw, err = s.geo.Search(ctx, q, searchLimit)
		if err != nil {
			return model.SearchResult{}, err
		}
		s.cacheSet(ctx, key, raw, s.geoTTL)
	}

	return model.SearchResult{
		Query:      q,
		Candidates: mapper.MapCandidates(raw),
	}, nil
}

// BuildDashboard assembles current weather and air quality for a place.
// Weather is mandatory; air quality is best effort and comes back nil when
// its fetch or mapping fails.
func (s *Service) BuildDashboard(ctx context.Context, place model.Place) (model.Dashboard, error) {
	weatherKey := fmt.Sprintf("citypulse:weather:%.3f:%.3f:%s", place.Lat, place.Lon, s.units)
	raw, hit := s.cacheGet(ctx, weatherKey)
	if !hit {
		var err error
		raw, err = s.weather.CurrentWeather(ctx, place.Lat, place.Lon, s.units)
		if err != nil {
			return model.Dashboard{}, err
		}
		s.cacheSet(ctx, weatherKey, raw, s.weatherTTL)
	}

	weather, err := mapper.MapWeather(raw, s.units)
	if err != nil {
		return model.Dashboard{}, err
	}

	return model.Dashboard{
		Place:      place,
		Weather:    weather,
		AirQuality: s.airQuality(ctx, place),
		FetchedAt:  s.now().UTC(),
	}, nil
}

// ResolveSelection matches a place token against the candidate list.
// Returns nil when the token does not decode or names a place that is not
// among the candidates.
func (s *Service) ResolveSelection(token string, candidates []model.Place) *model.Place {
	selected := model.PlaceFromToken(token)
	if selected == nil {
		return nil
	}
	for i := range candidates {
		if candidates[i].SamePlace(*selected) {
			return &candidates[i]
		}
	}
	return nil
}

// airQuality fetches and maps AQI. Every failure is absorbed: the
// dashboard renders without the AQI block rather than erroring.
func (s *Service) airQuality(ctx context.Context, place model.Place) *model.AirQuality {
	key := fmt.Sprintf("citypulse:aqi:%.3f:%.3f", place.Lat, place.Lon)
	raw, hit := s.cacheGet(ctx, key)
	if !hit {
		var err error
		raw, err = s.weather.AirPollution(ctx, place.Lat, place.Lon)
		if err != nil {
			s.logger.Warn("air quality fetch failed",
				zap.String("place", place.DisplayLabel),
				zap.Error(err),
			)
			return nil
		}
		s.cacheSet(ctx, key, raw, s.weatherTTL)
	}
	return mapper.MapAirQuality(raw)
}

// cacheGet treats any cache error as a miss so a broken cache degrades to
// uncached operation.
func (s *Service) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	val, found, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return val, found
}

func (s *Service) cacheSet(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := s.store.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func geoCacheKey(normalized string) string {
	sum := sha1.Sum([]byte(strings.ToLower(normalized)))
	return "citypulse:geo:" + hex.EncodeToString(sum[:])
}
