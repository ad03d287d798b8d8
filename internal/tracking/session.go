// Package tracking owns the single active parcel of a user session and
// triggers the delay prediction whenever that parcel changes.
package tracking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/parcel-delay-service/internal/domain"
	"github.com/couchcryptid/parcel-delay-service/internal/i18n"
	"github.com/couchcryptid/parcel-delay-service/internal/observability"
	"github.com/couchcryptid/parcel-delay-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

var (
	// ErrSuperseded is returned to a search whose result arrived after a
	// newer search was issued. The result is discarded.
	ErrSuperseded = errors.New("search superseded by a newer request")
	// ErrNoActiveParcel is returned by queries that need an active parcel.
	ErrNoActiveParcel = errors.New("no active parcel")
)

// State is the session's position in the search lifecycle.
type State string

const (
	StateNoActiveParcel State = "NoActiveParcel"
	StateSearchInFlight State = "SearchInFlight"
	StateParcelActive   State = "ParcelActive"
	StateSearchError    State = "SearchError"
)

// Evaluator runs the delay prediction for a parcel.
type Evaluator interface {
	Evaluate(ctx context.Context, parcel domain.ParcelData) pipeline.Evaluation
	Predict(ctx context.Context, parcel domain.ParcelData) (domain.WeatherData, domain.PredictionResult)
}

// Feed is the session's notification feed.
type Feed interface {
	InsertIfAbsent(item domain.NotificationItem) (domain.NotificationItem, bool)
	MarkRead(id string) bool
	UnreadCount() int
	Items() []domain.NotificationItem
}

// Translator localizes display strings for the active language.
type Translator interface {
	T(key string) string
	Language() i18n.Language
	SetLanguage(lang i18n.Language) error
}

// Options tunes a Session.
type Options struct {
	// Latency is the simulated lookup delay applied before every search.
	Latency time.Duration
	// Clock drives the latency timer. Defaults to the real clock.
	Clock clockwork.Clock
}

// Session is the coordinator for one user's tracking view. All state
// transitions happen under mu; the lookup and the prediction run outside it.
type Session struct {
	store      domain.ParcelStore
	evaluator  Evaluator
	feed       Feed
	translator Translator
	latency    time.Duration
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics

	mu         sync.Mutex
	state      State
	active     *domain.ParcelData
	errMsg     string
	generation uint64
	lastEval   *pipeline.Evaluation
}

// New creates a session in the NoActiveParcel state and seeds the feed with
// a welcome notification.
func New(store domain.ParcelStore, evaluator Evaluator, feed Feed, translator Translator, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &Session{
		store:      store,
		evaluator:  evaluator,
		feed:       feed,
		translator: translator,
		latency:    opts.Latency,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
		state:      StateNoActiveParcel,
	}
	feed.InsertIfAbsent(domain.NotificationItem{
		Title:   translator.T("welcomeTitle"),
		Message: translator.T("welcomeMessage"),
		Type:    domain.NotificationSuccess,
	})
	return s
}

// Search looks up trackingID and, on success, makes it the active parcel.
// A blank id only clears the current error. When the active parcel changes
// the prediction pipeline runs once before Search returns.
//
// Overlapping searches are not cancelled. Each search takes a generation
// number and a result whose generation is no longer the latest is dropped
// with ErrSuperseded.
func (s *Session) Search(ctx context.Context, trackingID string) (Snapshot, error) {
	if strings.TrimSpace(trackingID) == "" {
		return s.resetError(), nil
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.state = StateSearchInFlight
	s.mu.Unlock()

	s.logger.Debug("search started", "tracking_id", trackingID, "generation", gen)

	if err := s.wait(ctx); err != nil {
		s.mu.Lock()
		if gen == s.generation {
			s.state = s.restingState()
		}
		s.mu.Unlock()
		return Snapshot{}, err
	}

	parcel, lookupErr := s.store.Lookup(ctx, trackingID)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.metrics.Searches.WithLabelValues("superseded").Inc()
		s.logger.Debug("search result discarded", "tracking_id", trackingID, "generation", gen)
		return Snapshot{}, ErrSuperseded
	}
	if lookupErr != nil {
		s.state = StateSearchError
		s.errMsg = s.errorMessage(lookupErr)
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.metrics.Searches.WithLabelValues(searchOutcome(lookupErr)).Inc()
		s.logger.Info("search failed", "tracking_id", trackingID, "error", lookupErr)
		return snap, lookupErr
	}

	changed := s.active == nil || s.active.TrackingID != parcel.TrackingID
	s.active = &parcel
	s.state = StateParcelActive
	s.errMsg = ""
	if changed {
		s.lastEval = nil
	}
	s.mu.Unlock()

	s.metrics.Searches.WithLabelValues("found").Inc()
	s.logger.Info("parcel activated", "tracking_id", parcel.TrackingID, "status", parcel.Status, "changed", changed)

	if changed {
		// The pipeline always completes once started, even if the caller goes away.
		eval := s.evaluator.Evaluate(context.WithoutCancel(ctx), parcel)
		s.mu.Lock()
		if s.active != nil && s.active.TrackingID == parcel.TrackingID {
			s.lastEval = &eval
		}
		s.mu.Unlock()
	}

	return s.Snapshot(), nil
}

func (s *Session) resetError() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
	s.state = s.restingState()
	s.metrics.Searches.WithLabelValues("reset").Inc()
	return s.snapshotLocked()
}

// restingState is the state to fall back to when no search is pending.
// Callers must hold mu.
func (s *Session) restingState() State {
	if s.errMsg != "" {
		return StateSearchError
	}
	if s.active != nil {
		return StateParcelActive
	}
	return StateNoActiveParcel
}

func (s *Session) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.clock.After(s.latency):
		return nil
	}
}

func (s *Session) errorMessage(err error) string {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidTrackingID) {
		return s.translator.T("invalidId")
	}
	return err.Error()
}

func searchOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidTrackingID):
		return "invalid"
	default:
		return "error"
	}
}

// MarkRead marks a notification read. Unknown ids are ignored.
func (s *Session) MarkRead(id string) {
	s.feed.MarkRead(id)
}

// Notifications returns the feed newest first and the unread count.
func (s *Session) Notifications() ([]domain.NotificationItem, int) {
	return s.feed.Items(), s.feed.UnreadCount()
}

// SetLanguage switches the display language. It never re-runs the
// prediction pipeline.
func (s *Session) SetLanguage(lang i18n.Language) error {
	if err := s.translator.SetLanguage(lang); err != nil {
		return err
	}
	s.logger.Debug("language changed", "language", lang)
	return nil
}
