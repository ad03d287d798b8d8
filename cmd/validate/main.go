// Command validate checks a parcel dataset before it is served or seeded:
// field integrity, coordinate ranges, and the delay predictions and alerts
// each parcel would produce under the fallback weather with the hub
// override enabled.
//
// Usage:
//
//	go run ./cmd/validate                       # embedded dataset
//	go run ./cmd/validate -dataset parcels.json
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/parcel-delay-service/internal/dataset"
	"github.com/couchcryptid/parcel-delay-service/internal/domain"
	"github.com/couchcryptid/parcel-delay-service/internal/i18n"
	"github.com/couchcryptid/parcel-delay-service/internal/notify"
	"github.com/couchcryptid/parcel-delay-service/internal/observability"
	"github.com/couchcryptid/parcel-delay-service/internal/pipeline"
	"github.com/couchcryptid/parcel-delay-service/internal/probe"
	"github.com/jonboulle/clockwork"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("dataset", "", "path to a parcel dataset JSON file (default: embedded dataset)")
	hubLat := flag.Float64("hub-lat", 21.1458, "hub override latitude")
	hubLon := flag.Float64("hub-lon", 79.0882, "hub override longitude")
	flag.Parse()

	os.Exit(run(*path, *hubLat, *hubLon))
}

func run(path string, hubLat, hubLon float64) int {
	// Fixed clock so alert timestamps are reproducible across runs.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2023, time.October, 26, 9, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	fmt.Println("=== Parcel Dataset Validation ===")
	fmt.Println()

	parcels, err := loadParcels(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}

	hub := probe.NewHubOverride(hubLat, hubLon)
	phases := []*phase{
		validateIntegrity(parcels),
		validateCoordinates(parcels),
		validatePredictions(parcels, hub),
		validateAlertDedup(parcels, hub),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Parcels: %d\n", len(parcels))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  %d. %s\n", i+1, e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

// loadParcels decodes without validating so every problem can be reported.
func loadParcels(path string) ([]domain.ParcelData, error) {
	var r io.Reader
	if path == "" {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(dataset.Default()); err != nil {
			return nil, err
		}
		r = &buf
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var parcels []domain.ParcelData
	if err := json.NewDecoder(r).Decode(&parcels); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return parcels, nil
}

func validateIntegrity(parcels []domain.ParcelData) *phase {
	p := &phase{name: "Dataset integrity"}
	err := dataset.Validate(parcels)
	if err == nil {
		return p
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			p.errorf("%v", e)
		}
		return p
	}
	p.errorf("%v", err)
	return p
}

func validateCoordinates(parcels []domain.ParcelData) *phase {
	p := &phase{name: "Coordinate ranges"}
	for _, parcel := range parcels {
		for label, pt := range map[string]domain.LatLng{
			"origin":      parcel.Origin,
			"destination": parcel.Destination,
			"current":     parcel.Current,
		} {
			if pt.Lat < -90 || pt.Lat > 90 || pt.Lng < -180 || pt.Lng > 180 {
				p.errorf("%s: %s (%.4f, %.4f) out of range", parcel.TrackingID, label, pt.Lat, pt.Lng)
			}
		}
	}
	return p
}

func newEvaluator(hub probe.Override) (*pipeline.Evaluator, *notify.Center, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	tr, err := i18n.New(i18n.English)
	if err != nil {
		return nil, nil, err
	}
	feed := notify.NewCenter(metrics)
	wp := probe.New(nil, hub, metrics, logger)
	return pipeline.New(wp, feed, nil, tr, logger, metrics), feed, nil
}

func validatePredictions(parcels []domain.ParcelData, hub probe.HubOverride) *phase {
	p := &phase{name: "Delay predictions"}
	eval, _, err := newEvaluator(hub)
	if err != nil {
		p.errorf("build evaluator: %v", err)
		return p
	}

	fmt.Printf("  %-16s %-18s %-14s %6s %6s\n", "TRACKING ID", "STATUS", "CONDITION", "DELAY", "CONF")
	for _, parcel := range parcels {
		weather, pred := eval.Predict(context.Background(), parcel)
		fmt.Printf("  %-16s %-18s %-14s %5dh %5d%%\n",
			parcel.TrackingID, parcel.Status, weather.Condition, pred.DelayHours, pred.Confidence)

		_, atHub := hub.Apply(parcel.Current.Lat, parcel.Current.Lng)
		switch {
		case parcel.IsTrafficDelayed && pred.DelayHours != 8:
			p.errorf("%s: traffic-delayed parcel predicted %dh, want 8h", parcel.TrackingID, pred.DelayHours)
		case !parcel.IsTrafficDelayed && atHub && pred.DelayHours != 24:
			p.errorf("%s: hub parcel predicted %dh, want 24h", parcel.TrackingID, pred.DelayHours)
		case pred.Confidence < 0 || pred.Confidence > 100:
			p.errorf("%s: confidence %d out of range", parcel.TrackingID, pred.Confidence)
		}
	}
	fmt.Println()
	return p
}

func validateAlertDedup(parcels []domain.ParcelData, hub probe.HubOverride) *phase {
	p := &phase{name: "Alert deduplication"}
	eval, feed, err := newEvaluator(hub)
	if err != nil {
		p.errorf("build evaluator: %v", err)
		return p
	}

	want := 0
	for _, parcel := range parcels {
		first := eval.Evaluate(context.Background(), parcel)
		eval.Evaluate(context.Background(), parcel)
		if first.Prediction.DelayHours > 0 {
			want++
		}
	}
	if got := len(feed.Items()); got != want {
		p.errorf("expected %d alerts after evaluating every parcel twice, got %d", want, got)
	}
	return p
}
