// Package dataset loads and validates parcel fixtures. The embedded default
// set backs the in-memory parcel store and seeds Postgres.
package dataset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/couchcryptid/parcel-delay-service/internal/domain"
)

//go:embed parcels.json
var defaultParcels []byte

// Default returns the embedded demo parcels. It panics if the embedded file is
// malformed, which a unit test guards against.
func Default() []domain.ParcelData {
	parcels, err := Load(bytes.NewReader(defaultParcels))
	if err != nil {
		panic(fmt.Sprintf("embedded parcel dataset: %v", err))
	}
	return parcels
}

// Load decodes a JSON array of parcels and validates it.
func Load(r io.Reader) ([]domain.ParcelData, error) {
	var parcels []domain.ParcelData
	if err := json.NewDecoder(r).Decode(&parcels); err != nil {
		return nil, fmt.Errorf("decode parcels: %w", err)
	}
	if err := Validate(parcels); err != nil {
		return nil, err
	}
	return parcels, nil
}

// Validate checks every parcel and joins all problems into one error.
func Validate(parcels []domain.ParcelData) error {
	var errs []error
	seen := make(map[string]struct{}, len(parcels))

	for i, p := range parcels {
		if err := domain.ValidateTrackingID(p.TrackingID); err != nil {
			errs = append(errs, fmt.Errorf("parcel %d: %w", i, err))
		}
		if _, dup := seen[p.TrackingID]; dup {
			errs = append(errs, fmt.Errorf("parcel %d: duplicate tracking id %q", i, p.TrackingID))
		}
		seen[p.TrackingID] = struct{}{}

		if !p.Status.Valid() {
			errs = append(errs, fmt.Errorf("parcel %s: unknown status %q", p.TrackingID, p.Status))
		}
		if p.ExpectedDelivery.IsZero() {
			errs = append(errs, fmt.Errorf("parcel %s: expected_delivery is required", p.TrackingID))
		}
		if len(p.Activities) == 0 {
			errs = append(errs, fmt.Errorf("parcel %s: activities must not be empty", p.TrackingID))
		}
		for j := 1; j < len(p.Activities); j++ {
			if p.Activities[j].Timestamp.After(p.Activities[j-1].Timestamp) {
				errs = append(errs, fmt.Errorf("parcel %s: activity %d is newer than activity %d", p.TrackingID, j, j-1))
			}
		}
	}

	return errors.Join(errs...)
}
