package model

import "time"

// Dashboard aggregates everything one rendered page needs for a resolved
// place. AirQuality is nil when the best-effort AQI fetch did not produce a
// usable reading.
type Dashboard struct {
	Place      Place       `json:"place"`
	Weather    Weather     `json:"weather"`
	AirQuality *AirQuality `json:"air_quality"`
	FetchedAt  time.Time   `json:"fetched_at"`
}
