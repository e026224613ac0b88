package model

import "time"

// Weather is a normalized current-conditions reading in the unit system the
// dashboard was requested with.
type Weather struct {
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	WindUnit    string  `json:"wind_unit"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	IconURL     *string `json:"icon_url"`

	SunriseUTC            time.Time `json:"sunrise_utc"`
	SunsetUTC             time.Time `json:"sunset_utc"`
	TimezoneOffsetSeconds int       `json:"timezone_offset_seconds"`

	UnitSymbol string `json:"unit_symbol"`
}

// SunriseLocal returns the sunrise instant shifted into the location's
// local clock time.
func (w Weather) SunriseLocal() time.Time {
	return w.SunriseUTC.Add(time.Duration(w.TimezoneOffsetSeconds) * time.Second)
}

// SunsetLocal returns the sunset instant shifted into the location's local
// clock time.
func (w Weather) SunsetLocal() time.Time {
	return w.SunsetUTC.Add(time.Duration(w.TimezoneOffsetSeconds) * time.Second)
}

// AirQuality is a normalized air-pollution reading. Pollutant fields are nil
// when the provider omitted them or sent something unparseable.
type AirQuality struct {
	AQIIndex int      `json:"aqi_index"`
	AQILabel string   `json:"aqi_label"`
	PM25     *float64 `json:"pm25"`
	PM10     *float64 `json:"pm10"`
	NO2      *float64 `json:"no2"`
	O3       *float64 `json:"o3"`
}
