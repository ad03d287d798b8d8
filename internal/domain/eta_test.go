package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestLabelFor(t *testing.T) {
	assert.Equal(t, LabelOnTime, LabelFor(0))
	assert.Equal(t, LabelMinorDelay, LabelFor(4))
	assert.Equal(t, LabelMinorDelay, LabelFor(12))
	assert.Equal(t, LabelDelayed, LabelFor(24))
}

func TestProjectDelivery(t *testing.T) {
	expected := time.Date(2023, 10, 26, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, expected, ProjectDelivery(expected, PredictionResult{}))
	assert.Equal(t,
		time.Date(2023, 10, 27, 10, 0, 0, 0, time.UTC),
		ProjectDelivery(expected, Classify(WeatherData{Condition: "Thunderstorm"}, false)),
	)
	assert.Equal(t,
		time.Date(2023, 10, 26, 18, 0, 0, 0, time.UTC),
		ProjectDelivery(expected, Classify(WeatherData{}, true)),
	)
}

func TestSetClock(t *testing.T) {
	fixed := time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	assert.Equal(t, fixed, Now())
}
