package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/couchcryptid/parcel-delay-service/internal/domain"
	"github.com/couchcryptid/parcel-delay-service/internal/i18n"
	"github.com/couchcryptid/parcel-delay-service/internal/tracking"
)

const maxBodyBytes = 1 << 16

// Session is the tracking session served by the API.
type Session interface {
	Snapshot() tracking.Snapshot
	Search(ctx context.Context, trackingID string) (tracking.Snapshot, error)
	Forecast(ctx context.Context) (tracking.Forecast, error)
	Progress() (tracking.Progress, error)
	Notifications() ([]domain.NotificationItem, int)
	MarkRead(id string)
	SetLanguage(lang i18n.Language) error
}

type searchRequest struct {
	TrackingID string `json:"tracking_id"`
}

type languageRequest struct {
	Language string `json:"language"`
}

type notificationsResponse struct {
	Items       []domain.NotificationItem `json:"items"`
	UnreadCount int                       `json:"unread_count"`
}

type errorResponse struct {
	Error   string             `json:"error"`
	Session *tracking.Snapshot `json:"session,omitempty"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	snap, err := s.session.Search(r.Context(), req.TrackingID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, snap)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidTrackingID):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: snap.Error, Session: &snap})
	case errors.Is(err, tracking.ErrSuperseded):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.logger.Debug("search abandoned", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "search cancelled"})
	default:
		s.logger.Error("search failed", "tracking_id", req.TrackingID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	fc, err := s.session.Forecast(r.Context())
	if errors.Is(err, tracking.ErrNoActiveParcel) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

func (s *Server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	p, err := s.session.Progress()
	if errors.Is(err, tracking.ErrNoActiveParcel) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	lang, err := i18n.ParseLanguage(req.Language)
	if err == nil {
		err = s.session.SetLanguage(lang)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	items, unread := s.session.Notifications()
	writeJSON(w, http.StatusOK, notificationsResponse{Items: items, UnreadCount: unread})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	s.session.MarkRead(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
