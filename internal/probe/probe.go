// Package probe resolves a coordinate to current weather without ever
// failing the caller.
package probe

import (
	"context"
	"log/slog"
	"math"

	"github.com/couchcryptid/parcel-delay-service/internal/domain"
	"github.com/couchcryptid/parcel-delay-service/internal/observability"
)

// Resolution sources, used as the metrics label.
const (
	SourceLive     = "live"
	SourceFallback = "fallback"
	SourceOverride = "override"
)

// Override forces the weather at selected coordinates. Apply reports false
// when the coordinate is not covered.
type Override interface {
	Apply(lat, lon float64) (domain.WeatherData, bool)
}

// Probe wraps an optional live weather source with an override strategy and
// a deterministic fallback.
type Probe struct {
	source   domain.WeatherSource
	override Override
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates a Probe. source and override may be nil: a nil source always
// falls back, a nil override never forces.
func New(source domain.WeatherSource, override Override, metrics *observability.Metrics, logger *slog.Logger) *Probe {
	return &Probe{
		source:   source,
		override: override,
		metrics:  metrics,
		logger:   logger,
	}
}

// Resolve returns the weather at lat/lon. The override wins over live data,
// even when the live fetch succeeds. Transport failures are logged and
// absorbed into Fallback.
func (p *Probe) Resolve(ctx context.Context, lat, lon float64) domain.WeatherData {
	var (
		live    domain.WeatherData
		liveErr error
	)
	if p.source != nil {
		live, liveErr = p.source.CurrentWeather(ctx, lat, lon)
		if liveErr != nil {
			p.logger.Warn("weather fetch failed, using fallback",
				"lat", lat, "lon", lon, "error", liveErr)
		}
	}

	if p.override != nil {
		if w, ok := p.override.Apply(lat, lon); ok {
			p.metrics.WeatherResolutions.WithLabelValues(SourceOverride).Inc()
			return w
		}
	}

	if p.source == nil || liveErr != nil {
		p.metrics.WeatherResolutions.WithLabelValues(SourceFallback).Inc()
		return Fallback(lat, lon)
	}

	p.metrics.WeatherResolutions.WithLabelValues(SourceLive).Inc()
	return live
}

// Fallback is the clear-sky weather used when no live data is available.
func Fallback(lat, lon float64) domain.WeatherData {
	return domain.WeatherData{
		Condition:   string(domain.ConditionClear),
		Description: "clear sky",
		Temp:        28,
		Icon:        "01d",
		Lat:         lat,
		Lon:         lon,
	}
}

// HubOverride forces a thunderstorm at a single hub coordinate so the demo
// dataset always produces a weather delay.
type HubOverride struct {
	Lat       float64
	Lon       float64
	Tolerance float64
}

// DefaultTolerance is the per-axis match distance in degrees.
const DefaultTolerance = 0.01

// NewHubOverride returns an override for the hub at lat/lon.
func NewHubOverride(lat, lon float64) HubOverride {
	return HubOverride{Lat: lat, Lon: lon, Tolerance: DefaultTolerance}
}

// Apply implements Override.
func (h HubOverride) Apply(lat, lon float64) (domain.WeatherData, bool) {
	if math.Abs(lat-h.Lat) >= h.Tolerance || math.Abs(lon-h.Lon) >= h.Tolerance {
		return domain.WeatherData{}, false
	}
	return domain.WeatherData{
		Condition:   string(domain.ConditionThunderstorm),
		Description: "severe thunderstorm",
		Temp:        22,
		Icon:        "11d",
		Lat:         lat,
		Lon:         lon,
	}, true
}
