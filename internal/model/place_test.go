package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSamePlace(t *testing.T) {
	base := Place{
		Name: "Springfield", Country: "United States",
		Lat: 39.7817, Lon: -89.6501,
		DisplayLabel: "Springfield, Illinois, United States",
	}

	tests := []struct {
		name  string
		other Place
		want  bool
	}{
		{"identical", base, true},
		{
			"coordinates within tolerance, label case differs",
			Place{Lat: 39.78175, Lon: -89.65005, DisplayLabel: "SPRINGFIELD, ILLINOIS, UNITED STATES"},
			true,
		},
		{
			"latitude too far",
			Place{Lat: 39.7830, Lon: -89.6501, DisplayLabel: base.DisplayLabel},
			false,
		},
		{
			"longitude too far",
			Place{Lat: 39.7817, Lon: -89.6520, DisplayLabel: base.DisplayLabel},
			false,
		},
		{
			"different label",
			Place{Lat: 39.7817, Lon: -89.6501, DisplayLabel: "Springfield, Missouri, United States"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.SamePlace(tt.other))
		})
	}
}

func TestWeather_LocalSunTimes(t *testing.T) {
	w := Weather{
		SunriseUTC:            time.Date(2025, 6, 21, 4, 46, 0, 0, time.UTC),
		SunsetUTC:             time.Date(2025, 6, 21, 19, 58, 0, 0, time.UTC),
		TimezoneOffsetSeconds: 7200, // UTC+2
	}

	assert.Equal(t, time.Date(2025, 6, 21, 6, 46, 0, 0, time.UTC), w.SunriseLocal())
	assert.Equal(t, time.Date(2025, 6, 21, 21, 58, 0, 0, time.UTC), w.SunsetLocal())
}
