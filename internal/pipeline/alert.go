package pipeline

import (
	"fmt"

	"github.com/couchcryptid/parcel-delay-service/internal/domain"
)

// buildAlert formats the delay notification for parcel. Traffic delays name
// the congestion; weather delays name the reported condition.
func (e *Evaluator) buildAlert(parcel domain.ParcelData, weather domain.WeatherData, p domain.PredictionResult) domain.NotificationItem {
	reason := weather.Condition
	if p.Traffic {
		reason = "Heavy Traffic"
	}
	return domain.NotificationItem{
		Title: e.translator.T("weatherBasedDelayDetected"),
		Message: fmt.Sprintf("%s of %dh for %s due to %s.",
			e.translator.T("estimatedDelay"), p.DelayHours, parcel.TrackingID, reason),
		Type: domain.NotificationWarning,
		Key:  domain.AlertKey{TrackingID: parcel.TrackingID, Kind: domain.EventDelay},
	}
}
