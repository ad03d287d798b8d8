// Package postgres is a pgx-backed parcel store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/parcel-delay-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoActivities is returned for a parcel that has no activity history.
var ErrNoActivities = errors.New("parcel has no activities")

// Schema creates the parcel tables. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS parcels (
	tracking_id        TEXT PRIMARY KEY,
	status             TEXT NOT NULL,
	origin_name        TEXT NOT NULL DEFAULT '',
	origin_lat         DOUBLE PRECISION NOT NULL,
	origin_lng         DOUBLE PRECISION NOT NULL,
	destination_name   TEXT NOT NULL DEFAULT '',
	destination_lat    DOUBLE PRECISION NOT NULL,
	destination_lng    DOUBLE PRECISION NOT NULL,
	current_name       TEXT NOT NULL DEFAULT '',
	current_lat        DOUBLE PRECISION NOT NULL,
	current_lng        DOUBLE PRECISION NOT NULL,
	expected_delivery  TIMESTAMPTZ NOT NULL,
	is_traffic_delayed BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS parcel_activities (
	tracking_id TEXT NOT NULL REFERENCES parcels (tracking_id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	activity_id TEXT NOT NULL,
	status      TEXT NOT NULL,
	location    TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	details     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (tracking_id, seq)
);
`

const selectParcel = `
SELECT tracking_id, status,
	origin_name, origin_lat, origin_lng,
	destination_name, destination_lat, destination_lng,
	current_name, current_lat, current_lng,
	expected_delivery, is_traffic_delayed
FROM parcels
WHERE tracking_id = $1;
`

// seq 0 is the most recent activity.
const selectActivities = `
SELECT activity_id, status, location, occurred_at, details
FROM parcel_activities
WHERE tracking_id = $1
ORDER BY seq;
`

// Store implements domain.ParcelStore on Postgres.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("verify postgres connection: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InitSchema creates the tables if they do not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Lookup returns the parcel and its activities, newest first.
func (s *Store) Lookup(ctx context.Context, trackingID string) (domain.ParcelData, error) {
	id := domain.NormalizeTrackingID(trackingID)
	if err := domain.ValidateTrackingID(id); err != nil {
		return domain.ParcelData{}, err
	}

	var p domain.ParcelData
	var status string
	err := s.pool.QueryRow(ctx, selectParcel, id).Scan(
		&p.TrackingID, &status,
		&p.Origin.Name, &p.Origin.Lat, &p.Origin.Lng,
		&p.Destination.Name, &p.Destination.Lat, &p.Destination.Lng,
		&p.Current.Name, &p.Current.Lat, &p.Current.Lng,
		&p.ExpectedDelivery, &p.IsTrafficDelayed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ParcelData{}, fmt.Errorf("lookup %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.ParcelData{}, fmt.Errorf("lookup %s: query parcels: %w", id, err)
	}
	p.Status = domain.ParcelStatus(status)

	rows, err := s.pool.Query(ctx, selectActivities, id)
	if err != nil {
		return domain.ParcelData{}, fmt.Errorf("lookup %s: query activities: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.ActivityLog
		if err := rows.Scan(&a.ID, &a.Status, &a.Location, &a.Timestamp, &a.Details); err != nil {
			return domain.ParcelData{}, fmt.Errorf("lookup %s: scan activity: %w", id, err)
		}
		p.Activities = append(p.Activities, a)
	}
	if err := rows.Err(); err != nil {
		return domain.ParcelData{}, fmt.Errorf("lookup %s: activity iteration: %w", id, err)
	}
	if len(p.Activities) == 0 {
		return domain.ParcelData{}, fmt.Errorf("lookup %s: %w", id, ErrNoActivities)
	}

	return p, nil
}

// Upsert writes a parcel and replaces its activity history in one transaction.
func (s *Store) Upsert(ctx context.Context, p domain.ParcelData) error {
	if len(p.Activities) == 0 {
		return fmt.Errorf("upsert %s: %w", p.TrackingID, ErrNoActivities)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("upsert %s: begin: %w", p.TrackingID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO parcels (
			tracking_id, status,
			origin_name, origin_lat, origin_lng,
			destination_name, destination_lat, destination_lng,
			current_name, current_lat, current_lng,
			expected_delivery, is_traffic_delayed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (tracking_id) DO UPDATE SET
			status = EXCLUDED.status,
			origin_name = EXCLUDED.origin_name,
			origin_lat = EXCLUDED.origin_lat,
			origin_lng = EXCLUDED.origin_lng,
			destination_name = EXCLUDED.destination_name,
			destination_lat = EXCLUDED.destination_lat,
			destination_lng = EXCLUDED.destination_lng,
			current_name = EXCLUDED.current_name,
			current_lat = EXCLUDED.current_lat,
			current_lng = EXCLUDED.current_lng,
			expected_delivery = EXCLUDED.expected_delivery,
			is_traffic_delayed = EXCLUDED.is_traffic_delayed;`,
		p.TrackingID, string(p.Status),
		p.Origin.Name, p.Origin.Lat, p.Origin.Lng,
		p.Destination.Name, p.Destination.Lat, p.Destination.Lng,
		p.Current.Name, p.Current.Lat, p.Current.Lng,
		p.ExpectedDelivery, p.IsTrafficDelayed,
	)
	if err != nil {
		return fmt.Errorf("upsert %s: insert parcel: %w", p.TrackingID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM parcel_activities WHERE tracking_id = $1;`, p.TrackingID); err != nil {
		return fmt.Errorf("upsert %s: clear activities: %w", p.TrackingID, err)
	}

	batch := &pgx.Batch{}
	for i, a := range p.Activities {
		batch.Queue(`
			INSERT INTO parcel_activities (tracking_id, seq, activity_id, status, location, occurred_at, details)
			VALUES ($1, $2, $3, $4, $5, $6, $7);`,
			p.TrackingID, i, a.ID, a.Status, a.Location, a.Timestamp, a.Details,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert %s: insert activities: %w", p.TrackingID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("upsert %s: commit: %w", p.TrackingID, err)
	}
	s.logger.Debug("parcel upserted", "tracking_id", p.TrackingID, "activities", len(p.Activities))
	return nil
}
