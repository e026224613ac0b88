// Package config loads application configuration from config.yaml and
// CITYPULSE_* environment variables.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pulse-works/citypulse/internal/cache"
)

// Config holds the full application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Cache       cache.Config      `yaml:"cache" mapstructure:"cache"`
	Geocode     GeocodeConfig     `yaml:"geocode" mapstructure:"geocode"`
	Weather     WeatherConfig     `yaml:"weather" mapstructure:"weather"`
	Nominatim   NominatimConfig   `yaml:"nominatim" mapstructure:"nominatim"`
	OpenWeather OpenWeatherConfig `yaml:"openweather" mapstructure:"openweather"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
}

// ServerConfig configures the web server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// GeocodeConfig configures geocode result caching.
type GeocodeConfig struct {
	TTLHours int `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// WeatherConfig configures weather and air-quality caching.
type WeatherConfig struct {
	TTLMinutes int `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// NominatimConfig holds Nominatim client settings. UserAgent should be a
// unique app identifier per the public instance's usage policy.
type NominatimConfig struct {
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent  string  `yaml:"user_agent" mapstructure:"user_agent"`
	Email      string  `yaml:"email" mapstructure:"email"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// OpenWeatherConfig holds OpenWeather API settings.
type OpenWeatherConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	Units   string `yaml:"units" mapstructure:"units"`
}

// HTTPConfig configures outbound HTTP behavior.
type HTTPConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CITYPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.sqlite_path", "citypulse-cache.db")
	v.SetDefault("cache.database_url", "")
	v.SetDefault("geocode.ttl_hours", 6)
	v.SetDefault("weather.ttl_minutes", 10)
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "citypulse/1.0 (local@example.com)")
	v.SetDefault("nominatim.email", "")
	v.SetDefault("nominatim.rate_per_sec", 1)
	v.SetDefault("openweather.base_url", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("openweather.api_key", "")
	v.SetDefault("openweather.units", "metric")
	v.SetDefault("http.timeout_secs", 8)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
