package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pulse-works/citypulse/internal/cache"
	"github.com/pulse-works/citypulse/internal/citypulse"
	"github.com/pulse-works/citypulse/pkg/nominatim"
	"github.com/pulse-works/citypulse/pkg/openweather"
)

// appEnv holds the initialized cache backend and service shared by the
// serve/search/weather commands.
type appEnv struct {
	Store   cache.Store
	Service *citypulse.Service
}

// Close releases resources held by the environment.
func (a *appEnv) Close() {
	if a.Store != nil {
		_ = a.Store.Close()
	}
}

// initApp opens the configured cache backend and wires the clients and
// service. Callers should defer env.Close().
func initApp(ctx context.Context) (*appEnv, error) {
	store, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return nil, eris.Wrap(err, "open cache")
	}

	httpClient := &http.Client{
		Timeout: time.Duration(cfg.HTTP.TimeoutSecs) * time.Second,
	}

	geoOpts := []nominatim.Option{
		nominatim.WithHTTPClient(httpClient),
		nominatim.WithBaseURL(cfg.Nominatim.BaseURL),
		nominatim.WithUserAgent(cfg.Nominatim.UserAgent),
		nominatim.WithRateLimit(cfg.Nominatim.RatePerSec),
	}
	if cfg.Nominatim.Email != "" {
		geoOpts = append(geoOpts, nominatim.WithEmail(cfg.Nominatim.Email))
	}
	geo := nominatim.NewClient(geoOpts...)

	weather := openweather.NewClient(cfg.OpenWeather.APIKey,
		openweather.WithHTTPClient(httpClient),
		openweather.WithBaseURL(cfg.OpenWeather.BaseURL),
	)

	svc := citypulse.NewService(geo, weather, store,
		citypulse.WithUnits(cfg.OpenWeather.Units),
		citypulse.WithGeoTTL(time.Duration(cfg.Geocode.TTLHours)*time.Hour),
		citypulse.WithWeatherTTL(time.Duration(cfg.Weather.TTLMinutes)*time.Minute),
	)

	return &appEnv{Store: store, Service: svc}, nil
}
