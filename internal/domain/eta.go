package domain

import "time"

// DelayLabel buckets a predicted delay for display.
type DelayLabel string

const (
	LabelOnTime     DelayLabel = "onTime"
	LabelMinorDelay DelayLabel = "minorDelay"
	LabelDelayed    DelayLabel = "delayed"
)

// LabelFor returns the display bucket for delayHours: anything over 12 hours
// counts as delayed.
func LabelFor(delayHours int) DelayLabel {
	switch {
	case delayHours > 12:
		return LabelDelayed
	case delayHours > 0:
		return LabelMinorDelay
	default:
		return LabelOnTime
	}
}

// ProjectDelivery shifts the expected delivery time by the predicted delay.
func ProjectDelivery(expected time.Time, p PredictionResult) time.Time {
	if p.DelayHours <= 0 {
		return expected
	}
	return expected.Add(time.Duration(p.DelayHours) * time.Hour)
}
