package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hwids/internal/index"
	"hwids/internal/lookup"
	"hwids/internal/parser"
	"hwids/internal/textutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS hwids_snapshots (
	id            uuid PRIMARY KEY,
	source_sha256 text NOT NULL UNIQUE,
	source_bytes  integer NOT NULL,
	vendor_count  integer NOT NULL,
	device_count  integer NOT NULL,
	stop_reason   text NOT NULL,
	created_at    timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS hwids_vendors (
	snapshot_id   uuid NOT NULL REFERENCES hwids_snapshots (id) ON DELETE CASCADE,
	vendor_id     text NOT NULL,
	name          text NOT NULL,
	source_offset integer NOT NULL,
	source_line   integer NOT NULL,
	PRIMARY KEY (snapshot_id, vendor_id)
);

CREATE TABLE IF NOT EXISTS hwids_devices (
	snapshot_id  uuid NOT NULL REFERENCES hwids_snapshots (id) ON DELETE CASCADE,
	vendor_id    text NOT NULL,
	device_id    text NOT NULL,
	raw_name     text NOT NULL,
	display_name text NOT NULL,
	PRIMARY KEY (snapshot_id, vendor_id, device_id)
);
`

const latestSnapshot = `
	SELECT id, source_sha256, source_bytes, vendor_count, device_count, stop_reason, created_at
	FROM hwids_snapshots
	ORDER BY created_at DESC, id
	LIMIT 1`

var (
	vendorColumns = []string{"snapshot_id", "vendor_id", "name", "source_offset", "source_line"}
	deviceColumns = []string{"snapshot_id", "vendor_id", "device_id", "raw_name", "display_name"}
)

// Snapshot describes one stored parse pass.
type Snapshot struct {
	ID           uuid.UUID
	SourceSHA256 string
	SourceBytes  int
	VendorCount  int
	DeviceCount  int
	StopReason   string
	CreatedAt    time.Time
	// Existing is true when SaveSnapshot found the source already stored.
	Existing bool
}

// Store persists parse passes in PostgreSQL and answers name lookups from the
// most recent one.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the snapshot, vendor and device tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	log.Info().Msg("Store schema ensured")
	return nil
}

// SaveSnapshot stores a parse pass in one transaction. A source that was
// already stored is not inserted again; its snapshot is returned instead.
func (s *Store) SaveSnapshot(ctx context.Context, res *parser.ParseResult) (Snapshot, error) {
	// Same checks the offset artifact gets; nothing is written on failure.
	if _, err := index.BuildOffsetIndex(res); err != nil {
		return Snapshot{}, err
	}

	hash := textutil.Hash(res.Source())
	snap, err := s.snapshotByHash(ctx, hash)
	switch {
	case err == nil:
		snap.Existing = true
		log.Info().Str("snapshot", snap.ID.String()).Str("sha256", hash).Msg("Snapshot already stored")
		return snap, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return Snapshot{}, fmt.Errorf("find snapshot: %w", err)
	}

	snap = Snapshot{
		ID:           uuid.New(),
		SourceSHA256: hash,
		SourceBytes:  len(res.Source()),
		StopReason:   res.Stop().String(),
	}
	vendors := vendorRows(snap.ID, res)
	devices := deviceRows(snap.ID, res)
	snap.VendorCount = len(vendors)
	snap.DeviceCount = len(devices)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO hwids_snapshots (id, source_sha256, source_bytes, vendor_count, device_count, stop_reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		snap.ID, snap.SourceSHA256, snap.SourceBytes, snap.VendorCount, snap.DeviceCount, snap.StopReason,
	).Scan(&snap.CreatedAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"hwids_vendors"}, vendorColumns, pgx.CopyFromRows(vendors)); err != nil {
		return Snapshot{}, fmt.Errorf("copy vendors: %w", err)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"hwids_devices"}, deviceColumns, pgx.CopyFromRows(devices)); err != nil {
		return Snapshot{}, fmt.Errorf("copy devices: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("commit snapshot: %w", err)
	}

	log.Info().
		Str("snapshot", snap.ID.String()).
		Int("vendors", snap.VendorCount).
		Int("devices", snap.DeviceCount).
		Msg("Stored snapshot")
	return snap, nil
}

func (s *Store) snapshotByHash(ctx context.Context, hash string) (Snapshot, error) {
	var snap Snapshot
	err := s.pool.QueryRow(ctx, `
		SELECT id, source_sha256, source_bytes, vendor_count, device_count, stop_reason, created_at
		FROM hwids_snapshots
		WHERE source_sha256 = $1`, hash,
	).Scan(&snap.ID, &snap.SourceSHA256, &snap.SourceBytes, &snap.VendorCount, &snap.DeviceCount, &snap.StopReason, &snap.CreatedAt)
	return snap, err
}

// Latest returns the most recently stored snapshot.
func (s *Store) Latest(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.pool.QueryRow(ctx, latestSnapshot).
		Scan(&snap.ID, &snap.SourceSHA256, &snap.SourceBytes, &snap.VendorCount, &snap.DeviceCount, &snap.StopReason, &snap.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("latest snapshot: %w", lookup.ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("latest snapshot: %w", err)
	}
	return snap, nil
}

// Vendor resolves a vendor name from the latest snapshot.
func (s *Store) Vendor(ctx context.Context, vendorID string) (string, error) {
	var name string
	err := s.pool.QueryRow(ctx, `
		WITH latest AS (`+latestSnapshot+`)
		SELECT v.name
		FROM hwids_vendors v
		JOIN latest l ON v.snapshot_id = l.id
		WHERE v.vendor_id = $1`, textutil.NormalizeID(vendorID),
	).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("vendor %s: %w", vendorID, lookup.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query vendor %s: %w", vendorID, err)
	}
	return name, nil
}

// Device resolves a device display name from the latest snapshot.
func (s *Store) Device(ctx context.Context, vendorID, deviceID string) (string, error) {
	var name string
	err := s.pool.QueryRow(ctx, `
		WITH latest AS (`+latestSnapshot+`)
		SELECT d.display_name
		FROM hwids_devices d
		JOIN latest l ON d.snapshot_id = l.id
		WHERE d.vendor_id = $1 AND d.device_id = $2`,
		textutil.NormalizeID(vendorID), textutil.NormalizeID(deviceID),
	).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("device %s:%s: %w", vendorID, deviceID, lookup.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query device %s:%s: %w", vendorID, deviceID, err)
	}
	return name, nil
}
