// Package mapper normalizes raw provider payloads into the canonical model
// types. Provider JSON is treated as hostile: fields may be missing, have
// the wrong type, or carry numbers as strings, and mapping degrades rather
// than panics.
package mapper

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pulse-works/citypulse/internal/model"
	"github.com/pulse-works/citypulse/internal/textutil"
)

// namePaths is the priority order for deriving a candidate's name from a
// Nominatim search hit.
var namePaths = []string{
	"name",
	"address.city",
	"address.town",
	"address.village",
	"address.municipality",
	"address.county",
	"address.state_district",
	"display_name",
}

// MapPlace normalizes a single Nominatim search hit. It returns nil when
// the hit has no usable coordinates or when neither a name nor a country
// can be derived; callers skip such candidates.
func MapPlace(item gjson.Result) *model.Place {
	lat, ok := floatValue(item.Get("lat"))
	if !ok {
		return nil
	}
	lon, ok := floatValue(item.Get("lon"))
	if !ok {
		return nil
	}

	name := firstText(item, namePaths...)
	country := firstText(item, "address.country", "display_name")
	state := firstText(item, "address.state", "address.county", "address.region")

	if name == "" || country == "" {
		return nil
	}

	p := &model.Place{
		Name:         name,
		Country:      country,
		Lat:          lat,
		Lon:          lon,
		DisplayLabel: buildDisplayLabel(name, state, country),
	}
	if state != "" {
		p.State = &state
	}
	return p
}

// MapCandidates normalizes a raw Nominatim search response. Entries that are
// not objects or that MapPlace rejects are dropped silently; relative order
// of the survivors is preserved. A payload that is not an array maps to an
// empty slice.
func MapCandidates(raw []byte) []model.Place {
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsArray() {
		return nil
	}

	var places []model.Place
	parsed.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		if p := MapPlace(item); p != nil {
			places = append(places, *p)
		}
		return true
	})
	return places
}

// buildDisplayLabel joins name, state, and country with ", ", skipping parts
// that case-insensitively repeat the name and removing exact duplicates
// while keeping first-occurrence order.
func buildDisplayLabel(name, state, country string) string {
	parts := []string{name}
	if state != "" && !strings.EqualFold(state, name) {
		parts = append(parts, state)
	}
	if !strings.EqualFold(country, name) {
		parts = append(parts, country)
	}

	seen := make(map[string]struct{}, len(parts))
	unique := parts[:0]
	for _, part := range parts {
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		unique = append(unique, part)
	}
	return strings.Join(unique, ", ")
}

// firstText returns the first path whose value is a non-empty string after
// normalization. Non-string values never match.
func firstText(item gjson.Result, paths ...string) string {
	for _, path := range paths {
		v := item.Get(path)
		if v.Type != gjson.String {
			continue
		}
		if n := textutil.Normalize(v.Str); n != "" {
			return n
		}
	}
	return ""
}

// floatValue accepts JSON numbers and numeric strings, rejecting anything
// non-finite.
func floatValue(v gjson.Result) (float64, bool) {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// intValue accepts integral JSON numbers and integer strings.
func intValue(v gjson.Result) (int, bool) {
	switch v.Type {
	case gjson.Number:
		if v.Num != math.Trunc(v.Num) {
			return 0, false
		}
		return int(v.Num), true
	case gjson.String:
		parsed, err := strconv.Atoi(strings.TrimSpace(v.Str))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
