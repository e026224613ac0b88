package mapper

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	"github.com/pulse-works/citypulse/internal/model"
	"github.com/pulse-works/citypulse/internal/textutil"
)

const iconURLTemplate = "https://openweathermap.org/img/wn/%s@2x.png"

// ErrNoTemperature is returned when the current-weather payload lacks a
// numeric temperature. Unlike every other field this is unrecoverable: a
// dashboard without a temperature is useless, so the whole build fails.
var ErrNoTemperature = eris.New("weather payload did not contain a valid temperature")

// MapWeather normalizes an OpenWeather current-weather payload. All fields
// except the temperature degrade to defaults when missing or malformed.
// The units argument is the unit system the payload was requested with and
// only drives the derived display units.
func MapWeather(raw []byte, units string) (model.Weather, error) {
	payload := gjson.ParseBytes(raw)

	temp, ok := floatValue(payload.Get("main.temp"))
	if !ok {
		return model.Weather{}, ErrNoTemperature
	}

	feelsLike, ok := floatValue(payload.Get("main.feels_like"))
	if !ok {
		feelsLike = temp
	}
	humidity, ok := intValue(payload.Get("main.humidity"))
	if !ok {
		humidity = 0
	}
	windSpeed, ok := floatValue(payload.Get("wind.speed"))
	if !ok {
		windSpeed = 0
	}

	var condition, description, icon string
	if first := payload.Get("weather.0"); first.IsObject() {
		condition = stringValue(first.Get("main"))
		description = stringValue(first.Get("description"))
		icon = stringValue(first.Get("icon"))
	}
	if condition == "" {
		condition = "Weather"
	}
	if description == "" {
		description = "Current conditions"
	} else {
		description = textutil.CapitalizeFirst(description)
	}

	var iconURL *string
	if icon != "" {
		u := fmt.Sprintf(iconURLTemplate, icon)
		iconURL = &u
	}

	now := int(time.Now().Unix())
	sunrise, ok := intValue(payload.Get("sys.sunrise"))
	if !ok {
		sunrise = now
	}
	sunset, ok := intValue(payload.Get("sys.sunset"))
	if !ok {
		sunset = now
	}
	tzOffset, ok := intValue(payload.Get("timezone"))
	if !ok {
		tzOffset = 0
	}

	return model.Weather{
		Temperature:           temp,
		FeelsLike:             feelsLike,
		Humidity:              humidity,
		WindSpeed:             windSpeed,
		WindUnit:              windUnit(units),
		Condition:             condition,
		Description:           description,
		IconURL:               iconURL,
		SunriseUTC:            time.Unix(int64(sunrise), 0).UTC(),
		SunsetUTC:             time.Unix(int64(sunset), 0).UTC(),
		TimezoneOffsetSeconds: tzOffset,
		UnitSymbol:            unitSymbol(units),
	}, nil
}

// MapAirQuality normalizes an OpenWeather air-pollution payload. Air quality
// is best-effort everywhere it is consumed, so any structural problem maps
// to nil instead of an error. Pollutant components are independently
// optional.
func MapAirQuality(raw []byte) *model.AirQuality {
	first := gjson.GetBytes(raw, "list.0")
	if !first.IsObject() {
		return nil
	}

	index, ok := intValue(first.Get("main.aqi"))
	if !ok || index < 1 || index > 5 {
		return nil
	}

	return &model.AirQuality{
		AQIIndex: index,
		AQILabel: aqiLabel(index),
		PM25:     nullableFloat(first.Get("components.pm2_5")),
		PM10:     nullableFloat(first.Get("components.pm10")),
		NO2:      nullableFloat(first.Get("components.no2")),
		O3:       nullableFloat(first.Get("components.o3")),
	}
}

func nullableFloat(v gjson.Result) *float64 {
	f, ok := floatValue(v)
	if !ok {
		return nil
	}
	return &f
}

func stringValue(v gjson.Result) string {
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

func windUnit(units string) string {
	if units == "imperial" {
		return "mph"
	}
	return "m/s"
}

func unitSymbol(units string) string {
	switch units {
	case "imperial":
		return "°F"
	case "standard":
		return "K"
	default:
		return "°C"
	}
}

func aqiLabel(index int) string {
	switch index {
	case 1:
		return "Good"
	case 2:
		return "Fair"
	case 3:
		return "Moderate"
	case 4:
		return "Poor"
	case 5:
		return "Very Poor"
	default:
		return ""
	}
}
