// Package pipeline runs the delay prediction for a parcel: resolve the
// weather at its current position, classify the delay and raise an alert.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/parcel-delay-service/internal/domain"
	"github.com/couchcryptid/parcel-delay-service/internal/observability"
)

// WeatherResolver returns the weather at a coordinate. It never fails.
type WeatherResolver interface {
	Resolve(ctx context.Context, lat, lon float64) domain.WeatherData
}

// AlertInserter adds an alert to the notification feed unless one with the
// same key exists.
type AlertInserter interface {
	InsertIfAbsent(item domain.NotificationItem) (domain.NotificationItem, bool)
}

// AlertPublisher forwards newly raised alerts to an external feed.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, alerts []domain.DelayAlert) error
}

// Translator localizes display strings.
type Translator interface {
	T(key string) string
}

// Evaluation is the outcome of one prediction run.
type Evaluation struct {
	Weather    domain.WeatherData       `json:"weather"`
	Prediction domain.PredictionResult  `json:"prediction"`
	Alert      *domain.NotificationItem `json:"alert,omitempty"`
}

// Evaluator wires the prediction stages together.
type Evaluator struct {
	weather    WeatherResolver
	alerts     AlertInserter
	publisher  AlertPublisher
	translator Translator
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates an Evaluator. Pass a nil publisher to keep alerts local.
func New(w WeatherResolver, a AlertInserter, p AlertPublisher, t Translator, logger *slog.Logger, metrics *observability.Metrics) *Evaluator {
	return &Evaluator{
		weather:    w,
		alerts:     a,
		publisher:  p,
		translator: t,
		logger:     logger,
		metrics:    metrics,
	}
}

// Predict resolves the weather and classifies the delay for parcel without
// touching the notification feed.
func (e *Evaluator) Predict(ctx context.Context, parcel domain.ParcelData) (domain.WeatherData, domain.PredictionResult) {
	weather := e.weather.Resolve(ctx, parcel.Current.Lat, parcel.Current.Lng)
	return weather, domain.Classify(weather, parcel.IsTrafficDelayed)
}

// Evaluate runs the full pipeline for a newly activated parcel. A positive
// delay raises at most one alert per parcel.
func (e *Evaluator) Evaluate(ctx context.Context, parcel domain.ParcelData) Evaluation {
	weather, prediction := e.Predict(ctx, parcel)
	e.metrics.Predictions.WithLabelValues(cause(prediction)).Inc()
	e.metrics.PredictedDelayHours.Observe(float64(prediction.DelayHours))

	e.logger.Info("delay predicted",
		"tracking_id", parcel.TrackingID,
		"condition", weather.Condition,
		"delay_hours", prediction.DelayHours,
		"confidence", prediction.Confidence,
	)

	eval := Evaluation{Weather: weather, Prediction: prediction}
	if prediction.DelayHours <= 0 {
		return eval
	}

	stored, inserted := e.alerts.InsertIfAbsent(e.buildAlert(parcel, weather, prediction))
	if !inserted {
		e.logger.Debug("delay alert already raised", "tracking_id", parcel.TrackingID)
		return eval
	}
	eval.Alert = &stored
	e.publish(ctx, stored, weather, prediction)
	return eval
}

func (e *Evaluator) publish(ctx context.Context, item domain.NotificationItem, weather domain.WeatherData, p domain.PredictionResult) {
	if e.publisher == nil {
		return
	}
	alert := domain.DelayAlert{
		NotificationID: item.ID,
		TrackingID:     item.Key.TrackingID,
		Kind:           item.Key.Kind,
		Title:          item.Title,
		Message:        item.Message,
		DelayHours:     p.DelayHours,
		Confidence:     p.Confidence,
		Condition:      weather.Condition,
		Traffic:        p.Traffic,
		CreatedAt:      item.Timestamp,
	}
	if err := e.publisher.PublishAlerts(ctx, []domain.DelayAlert{alert}); err != nil {
		e.metrics.AlertsPublished.WithLabelValues("error").Inc()
		e.logger.Warn("publish delay alert failed", "tracking_id", alert.TrackingID, "error", err)
		return
	}
	e.metrics.AlertsPublished.WithLabelValues("success").Inc()
}

func cause(p domain.PredictionResult) string {
	switch {
	case p.Traffic:
		return "traffic"
	case p.DelayHours > 0:
		return "weather"
	default:
		return "none"
	}
}
