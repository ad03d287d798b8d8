package postgres

import (
	"context"
	"testing"

	"github.com/couchcryptid/parcel-delay-service/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestUpsert_RejectsEmptyActivities(t *testing.T) {
	s := &Store{}

	err := s.Upsert(context.Background(), domain.ParcelData{
		TrackingID: "IP123456789IN",
		Status:     domain.StatusInTransit,
	})
	require.ErrorIs(t, err, ErrNoActivities)
}
