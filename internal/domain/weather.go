package domain

import "context"

// Condition is the closed set of weather categories the delay rules know about.
type Condition string

const (
	ConditionThunderstorm Condition = "Thunderstorm"
	ConditionRain         Condition = "Rain"
	ConditionDrizzle      Condition = "Drizzle"
	ConditionClouds       Condition = "Clouds"
	ConditionClear        Condition = "Clear"
	// ConditionOther covers every reported condition without a dedicated rule.
	ConditionOther Condition = "Other"
)

// ParseCondition maps a provider's "main" condition string onto the closed
// Condition set. Matching is exact, as OpenWeather reports it.
func ParseCondition(s string) Condition {
	switch Condition(s) {
	case ConditionThunderstorm, ConditionRain, ConditionDrizzle, ConditionClouds, ConditionClear:
		return Condition(s)
	default:
		return ConditionOther
	}
}

// WeatherData is the current weather at a coordinate. It is recomputed for
// every query and never persisted.
type WeatherData struct {
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Temp        int     `json:"temp"`
	Icon        string  `json:"icon"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// WeatherSource fetches live weather. It may fail; callers that need a total
// function wrap it in a probe with a fallback.
type WeatherSource interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (WeatherData, error)
}
