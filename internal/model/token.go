package model

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pulse-works/citypulse/internal/textutil"
)

// Bounds applied to token fields on decode. Tokens arrive from query strings
// and hidden form fields, so every field is treated as untrusted input.
const (
	maxTokenName  = 80
	maxTokenLabel = 140
)

// Token encodes the place as an opaque URL-safe string: the canonical JSON
// shape, base64url-encoded with padding stripped. The token survives a GET
// query parameter round trip and is the only state carried between the
// disambiguation step and the dashboard request.
func (p Place) Token() string {
	payload, err := json.Marshal(p)
	if err != nil {
		// Place contains only strings and floats; Marshal cannot fail on it.
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(payload)
}

// PlaceFromToken reverses Token. It returns nil on any malformation:
// invalid base64url, invalid or non-object JSON, missing or oversized
// string fields, or coordinates that are not finite numbers inside valid
// geographic ranges. It never returns an error; a bad token simply means
// "no selection".
func PlaceFromToken(token string) *Place {
	if token == "" {
		return nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return nil
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}

	name, ok := tokenText(fields["name"], maxTokenName, false)
	if !ok {
		return nil
	}
	country, ok := tokenText(fields["country"], maxTokenName, false)
	if !ok {
		return nil
	}
	label, ok := tokenText(fields["displayLabel"], maxTokenLabel, false)
	if !ok {
		return nil
	}
	// A malformed state degrades to absent instead of rejecting the token.
	state, _ := tokenText(fields["state"], maxTokenName, true)

	lat, ok := tokenFloat(fields["lat"])
	if !ok || lat < -90 || lat > 90 {
		return nil
	}
	lon, ok := tokenFloat(fields["lon"])
	if !ok || lon < -180 || lon > 180 {
		return nil
	}

	p := &Place{
		Name:         name,
		Country:      country,
		Lat:          lat,
		Lon:          lon,
		DisplayLabel: label,
	}
	if state != "" {
		p.State = &state
	}
	return p
}

// tokenText sanitizes a string field from the decoded token. When optional,
// any missing, null, or unusable value passes through as "".
func tokenText(v any, max int, optional bool) (string, bool) {
	s, isString := v.(string)
	if !isString {
		return "", optional
	}
	n, ok := textutil.NormalizeBounded(s, max)
	if !ok {
		return "", optional
	}
	return n, true
}

// tokenFloat accepts JSON numbers and numeric strings, rejecting anything
// non-finite.
func tokenFloat(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
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
