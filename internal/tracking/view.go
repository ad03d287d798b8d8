package tracking

import (
	"context"
	"time"

	"github.com/couchcryptid/parcel-delay-service/internal/domain"
	"github.com/couchcryptid/parcel-delay-service/internal/i18n"
	"github.com/couchcryptid/parcel-delay-service/internal/pipeline"
)

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	State       State                `json:"state"`
	Active      *domain.ParcelData   `json:"active_parcel,omitempty"`
	Error       string               `json:"error,omitempty"`
	Evaluation  *pipeline.Evaluation `json:"evaluation,omitempty"`
	UnreadCount int                  `json:"unread_count"`
	Language    i18n.Language        `json:"language"`
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:       s.state,
		Error:       s.errMsg,
		UnreadCount: s.feed.UnreadCount(),
		Language:    s.translator.Language(),
	}
	if s.active != nil {
		p := *s.active
		snap.Active = &p
	}
	if s.lastEval != nil {
		e := *s.lastEval
		snap.Evaluation = &e
	}
	return snap
}

func (s *Session) activeParcel() (domain.ParcelData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return domain.ParcelData{}, ErrNoActiveParcel
	}
	return *s.active, nil
}

// Forecast is the delay prediction for the active parcel as displayed.
type Forecast struct {
	TrackingID        string                  `json:"tracking_id"`
	Weather           domain.WeatherData      `json:"weather"`
	Prediction        domain.PredictionResult `json:"prediction"`
	ExpectedDelivery  time.Time               `json:"expected_delivery"`
	ProjectedDelivery time.Time               `json:"projected_delivery"`
	Label             domain.DelayLabel       `json:"label"`
	LabelText         string                  `json:"label_text"`
	ReasonText        string                  `json:"reason_text"`
}

// Forecast recomputes the weather and prediction for the active parcel.
// It never touches the notification feed.
func (s *Session) Forecast(ctx context.Context) (Forecast, error) {
	parcel, err := s.activeParcel()
	if err != nil {
		return Forecast{}, err
	}

	weather, prediction := s.evaluator.Predict(ctx, parcel)
	label := domain.LabelFor(prediction.DelayHours)
	return Forecast{
		TrackingID:        parcel.TrackingID,
		Weather:           weather,
		Prediction:        prediction,
		ExpectedDelivery:  parcel.ExpectedDelivery,
		ProjectedDelivery: domain.ProjectDelivery(parcel.ExpectedDelivery, prediction),
		Label:             label,
		LabelText:         s.translator.T(string(label)),
		ReasonText:        s.translator.T(prediction.ReasonKey),
	}, nil
}

// Progress is the active parcel's position in the delivery lifecycle.
type Progress struct {
	TrackingID string               `json:"tracking_id"`
	Status     domain.ParcelStatus  `json:"status"`
	StatusText string               `json:"status_text"`
	Step       int                  `json:"step"`
	Ratio      float64              `json:"ratio"`
	Steps      []string             `json:"steps"`
	Activities []domain.ActivityLog `json:"activities"`
}

// Progress reports the delivery progress of the active parcel.
func (s *Session) Progress() (Progress, error) {
	parcel, err := s.activeParcel()
	if err != nil {
		return Progress{}, err
	}

	step, ratio := parcel.Progress()
	steps := make([]string, len(domain.Statuses))
	for i, st := range domain.Statuses {
		steps[i] = s.translator.T("steps." + st.StepKey())
	}
	return Progress{
		TrackingID: parcel.TrackingID,
		Status:     parcel.Status,
		StatusText: s.translator.T("steps." + parcel.Status.StepKey()),
		Step:       step,
		Ratio:      ratio,
		Steps:      steps,
		Activities: parcel.Activities,
	}, nil
}
