// Package domain models parcel tracking state and the delay-prediction rules
// layered over it.
//
// # Parcels
//
// A parcel is keyed by its tracking ID, an uppercase alphanumeric string such
// as "IP123456789IN". Status only moves forward through
//
//	Collected → In Transit → Out for Delivery → Delivered
//
// and the activity log is ordered newest-first (index 0 is the most recent
// scan). Every fetched parcel carries at least one activity.
//
// # Delay Prediction
//
// [Classify] is a pure rule table over the current weather at the parcel's
// last known coordinate plus an explicit traffic flag. Traffic always wins:
//
//	traffic flagged          +8h  confidence 90
//	Thunderstorm             +24h confidence 88
//	Rain, Drizzle            +12h confidence 92
//	Clouds                   +4h  confidence 94
//	Clear or anything else   +0h  confidence 98
//
// Unrecognized conditions (Snow, Mist, Haze, ...) land in the default arm
// and predict an on-time delivery. There is no interpolation inside a
// category. Confidence is a heuristic percentage, not a calibrated
// probability.
//
// # Alerts
//
// Delay alerts are keyed by (tracking ID, event kind) so a re-run of the
// prediction for the same parcel never produces a second alert. See
// [AlertKey].
package domain
