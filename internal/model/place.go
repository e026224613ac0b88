// Package model holds the canonical value types the dashboard is assembled
// from. Values are constructed once by the mappers or the token codec and
// never mutated afterwards.
package model

import "strings"

// Coordinate tolerance for treating two candidates as the same place.
const samePlaceEpsilon = 0.0001

// Place is a resolved geocoding candidate.
type Place struct {
	Name         string  `json:"name"`
	State        *string `json:"state"`
	Country      string  `json:"country"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	DisplayLabel string  `json:"displayLabel"`
}

// SamePlace reports whether p and other refer to the same location:
// coordinates within samePlaceEpsilon on both axes and a case-insensitive
// match on the display label.
func (p Place) SamePlace(other Place) bool {
	return abs(p.Lat-other.Lat) < samePlaceEpsilon &&
		abs(p.Lon-other.Lon) < samePlaceEpsilon &&
		strings.EqualFold(p.DisplayLabel, other.DisplayLabel)
}

// SearchResult is a normalized query together with its geocoding candidates,
// in the order the provider returned them.
type SearchResult struct {
	Query      string  `json:"query"`
	Candidates []Place `json:"candidates"`
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
