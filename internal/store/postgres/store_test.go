//go:build postgres

package postgres

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/parcel-delay-service/internal/dataset"
	"github.com/couchcryptid/parcel-delay-service/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a disposable database in DATABASE_URL.
// Run with: go test -tags=postgres ./internal/store/postgres/ -v -count=1

func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Fatal("DATABASE_URL must be set to run postgres tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Open(ctx, url, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.InitSchema(ctx))
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, p := range dataset.Default() {
		require.NoError(t, s.Upsert(ctx, p))
	}

	for _, want := range dataset.Default() {
		got, err := s.Lookup(ctx, want.TrackingID)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })); diff != "" {
			t.Errorf("parcel %s mismatch (-want +got):\n%s", want.TrackingID, diff)
		}
	}
}

func TestStore_LookupNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Lookup(context.Background(), "ZZUNKNOWN")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_LookupWithoutActivities(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO parcels (
			tracking_id, status,
			origin_name, origin_lat, origin_lng,
			destination_name, destination_lat, destination_lng,
			current_name, current_lat, current_lng,
			expected_delivery, is_traffic_delayed
		) VALUES ('ZZNOACTIVITY', 'In Transit', 'A', 0, 0, 'B', 1, 1, 'C', 0.5, 0.5, now(), false)
		ON CONFLICT (tracking_id) DO NOTHING`)
	require.NoError(t, err)
	_, err = s.pool.Exec(ctx, `DELETE FROM parcel_activities WHERE tracking_id = 'ZZNOACTIVITY'`)
	require.NoError(t, err)

	_, err = s.Lookup(ctx, "ZZNOACTIVITY")
	assert.ErrorIs(t, err, ErrNoActivities)
}

func TestStore_Readiness(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.CheckReadiness(context.Background()))
}
