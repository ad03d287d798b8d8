package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/parcel-delay-service/internal/domain"
	"github.com/couchcryptid/parcel-delay-service/internal/notify"
	"github.com/couchcryptid/parcel-delay-service/internal/observability"
	"github.com/couchcryptid/parcel-delay-service/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockResolver struct {
	condition string
	calls     int
}

func (m *mockResolver) Resolve(_ context.Context, lat, lon float64) domain.WeatherData {
	m.calls++
	return domain.WeatherData{Condition: m.condition, Description: "test", Temp: 25, Icon: "01d", Lat: lat, Lon: lon}
}

type mockPublisher struct {
	published []domain.DelayAlert
	err       error
}

func (m *mockPublisher) PublishAlerts(_ context.Context, alerts []domain.DelayAlert) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, alerts...)
	return nil
}

type keyTranslator struct{}

func (keyTranslator) T(key string) string {
	switch key {
	case "weatherBasedDelayDetected":
		return "Weather-based delay detected"
	case "estimatedDelay":
		return "Estimated delay"
	}
	return key
}

func newEvaluator(condition string, pub pipeline.AlertPublisher) (*pipeline.Evaluator, *notify.Center, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	center := notify.NewCenter(metrics)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return pipeline.New(&mockResolver{condition: condition}, center, pub, keyTranslator{}, logger, metrics), center, metrics
}

func parcel(id string, traffic bool) domain.ParcelData {
	return domain.ParcelData{
		TrackingID:       id,
		Status:           domain.StatusInTransit,
		Current:          domain.LatLng{Lat: 21.1458, Lng: 79.0882, Name: "Nagpur Hub"},
		IsTrafficDelayed: traffic,
	}
}

// --- tests ---

func TestEvaluate_WeatherDelayRaisesAlert(t *testing.T) {
	fixed := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { domain.SetClock(nil) })

	pub := &mockPublisher{}
	e, center, metrics := newEvaluator("Thunderstorm", pub)

	eval := e.Evaluate(context.Background(), parcel("IP123456789IN", false))

	assert.Equal(t, 24, eval.Prediction.DelayHours)
	assert.Equal(t, 88, eval.Prediction.Confidence)
	require.NotNil(t, eval.Alert)
	assert.Equal(t, "Weather-based delay detected", eval.Alert.Title)
	assert.Equal(t, "Estimated delay of 24h for IP123456789IN due to Thunderstorm.", eval.Alert.Message)
	assert.Equal(t, domain.NotificationWarning, eval.Alert.Type)

	items := center.Items()
	require.Len(t, items, 1)
	assert.Equal(t, *eval.Alert, items[0])

	want := []domain.DelayAlert{{
		NotificationID: eval.Alert.ID,
		TrackingID:     "IP123456789IN",
		Kind:           domain.EventDelay,
		Title:          "Weather-based delay detected",
		Message:        "Estimated delay of 24h for IP123456789IN due to Thunderstorm.",
		DelayHours:     24,
		Confidence:     88,
		Condition:      "Thunderstorm",
		CreatedAt:      fixed,
	}}
	if diff := cmp.Diff(want, pub.published); diff != "" {
		t.Fatalf("published alerts mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues("weather")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AlertsPublished.WithLabelValues("success")))
}

func TestEvaluate_TrafficOverridesWeather(t *testing.T) {
	e, center, metrics := newEvaluator("Clear", nil)

	eval := e.Evaluate(context.Background(), parcel("IP555666777IN", true))

	assert.Equal(t, 8, eval.Prediction.DelayHours)
	assert.Equal(t, 90, eval.Prediction.Confidence)
	require.Len(t, center.Items(), 1)
	assert.Equal(t, "Estimated delay of 8h for IP555666777IN due to Heavy Traffic.", center.Items()[0].Message)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues("traffic")))
}

func TestEvaluate_NoDelayNoAlert(t *testing.T) {
	pub := &mockPublisher{}
	e, center, metrics := newEvaluator("Clear", pub)

	eval := e.Evaluate(context.Background(), parcel("IP987654321IN", false))

	assert.Equal(t, 0, eval.Prediction.DelayHours)
	assert.Nil(t, eval.Alert)
	assert.Empty(t, center.Items())
	assert.Empty(t, pub.published)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues("none")))
}

func TestEvaluate_RepeatedRunsRaiseOneAlert(t *testing.T) {
	pub := &mockPublisher{}
	e, center, _ := newEvaluator("Rain", pub)

	first := e.Evaluate(context.Background(), parcel("IP321654987IN", false))
	second := e.Evaluate(context.Background(), parcel("IP321654987IN", false))

	assert.NotNil(t, first.Alert)
	assert.Nil(t, second.Alert)
	assert.Equal(t, 12, second.Prediction.DelayHours)
	assert.Len(t, center.Items(), 1)
	assert.Len(t, pub.published, 1)
}

func TestEvaluate_PublishFailureIsAbsorbed(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker unavailable")}
	e, center, metrics := newEvaluator("Clouds", pub)

	eval := e.Evaluate(context.Background(), parcel("IP456789123IN", false))

	require.NotNil(t, eval.Alert)
	assert.Len(t, center.Items(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AlertsPublished.WithLabelValues("error")))
}

func TestPredict_DoesNotNotify(t *testing.T) {
	e, center, _ := newEvaluator("Thunderstorm", nil)

	weather, prediction := e.Predict(context.Background(), parcel("IP123456789IN", false))

	assert.Equal(t, "Thunderstorm", weather.Condition)
	assert.Equal(t, 21.1458, weather.Lat)
	assert.Equal(t, 24, prediction.DelayHours)
	assert.Empty(t, center.Items())
}
