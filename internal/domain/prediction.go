package domain

// PredictionResult is a delay estimate produced fresh on every evaluation.
type PredictionResult struct {
	DelayHours int    `json:"delay_hours"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason"`
	// ReasonKey is the localization key for Reason.
	ReasonKey string `json:"reason_key"`
	Traffic   bool   `json:"traffic"`
}

const (
	trafficDelayHours = 8
	trafficConfidence = 90
)

type rule struct {
	delayHours int
	confidence int
	reason     string
}

var (
	thunderstormRule = rule{24, 88, "Severe thunderstorm activity detected in the transit path."}
	rainRule         = rule{12, 92, "Moderate rain may slow down road transport transit."}
	cloudsRule       = rule{4, 94, "High cloud cover might slightly affect logistics scheduling."}
	clearRule        = rule{0, 98, "Clear weather detected. On-time delivery expected."}
)

// Classify predicts the extra transit time for a parcel given the weather at
// its current position and whether its route is flagged for traffic.
// A traffic flag overrides the weather entirely.
func Classify(weather WeatherData, trafficDelayed bool) PredictionResult {
	if trafficDelayed {
		return PredictionResult{
			DelayHours: trafficDelayHours,
			Confidence: trafficConfidence,
			Reason:     "Heavy traffic congestion detected along the main transit highway.",
			ReasonKey:  "trafficDelay",
			Traffic:    true,
		}
	}

	cond := ParseCondition(weather.Condition)

	var r rule
	switch cond {
	case ConditionThunderstorm:
		r = thunderstormRule
	case ConditionRain, ConditionDrizzle:
		r = rainRule
	case ConditionClouds:
		r = cloudsRule
	case ConditionClear:
		r = clearRule
	default:
		// Fail open: an unknown condition predicts on-time delivery.
		r = clearRule
	}

	return PredictionResult{
		DelayHours: r.delayHours,
		Confidence: r.confidence,
		Reason:     r.reason,
		ReasonKey:  reasonKey(cond),
	}
}

func reasonKey(c Condition) string {
	if c == ConditionOther {
		return "optimalConditions"
	}
	return "weatherReasons." + string(c)
}
