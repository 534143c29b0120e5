package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwids/internal/lookup"
	"hwids/internal/parser"
)

const db = `# test database
8086  Intel Corporation
	1237  440FX - 82441FX PMC [Natoma]
	1237  440FX - 82441FX PMC [Natoma rev 2]
10DE  NVIDIA Corporation
	2206  GA102 [GeForce RTX 3080]
		10de 1467  RTX 3080 Founders Edition
C 00  Unclassified device
`

func parse(t *testing.T, src string) *parser.ParseResult {
	t.Helper()
	res, err := parser.New(parser.WithLogger(zerolog.Nop())).Parse([]byte(src))
	require.NoError(t, err)
	return res
}

func TestVendorRows(t *testing.T) {
	id := uuid.New()
	rows := vendorRows(id, parse(t, db))

	require.Len(t, rows, 2)
	assert.Equal(t, []any{id, "8086", "Intel Corporation", 16, 2}, rows[0])
	// IDs are normalized to lower case.
	assert.Equal(t, "10de", rows[1][1])
	assert.Equal(t, "NVIDIA Corporation", rows[1][2])
}

func TestDeviceRowsLastDeclarationWins(t *testing.T) {
	id := uuid.New()
	rows := deviceRows(id, parse(t, db))

	require.Len(t, rows, 2)
	assert.Equal(t, []any{id, "8086", "1237", " 440FX - 82441FX PMC [Natoma rev 2]", "Natoma rev 2"}, rows[0])
	assert.Equal(t, []any{id, "10de", "2206", " GA102 [GeForce RTX 3080]", "GeForce RTX 3080"}, rows[1])
}

// TestStoreRoundTrip needs a disposable PostgreSQL database.
func TestStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("HWIDS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("HWIDS_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	s := New(pool)
	require.NoError(t, s.EnsureSchema(ctx))

	// A unique comment gives this run its own source hash.
	src := "# run " + uuid.NewString() + "\n" + db
	res := parse(t, src)

	snap, err := s.SaveSnapshot(ctx, res)
	require.NoError(t, err)
	assert.False(t, snap.Existing)
	assert.Equal(t, 2, snap.VendorCount)
	assert.Equal(t, 2, snap.DeviceCount)

	again, err := s.SaveSnapshot(ctx, res)
	require.NoError(t, err)
	assert.True(t, again.Existing)
	assert.Equal(t, snap.ID, again.ID)

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, latest.ID)

	name, err := s.Vendor(ctx, "0x10DE")
	require.NoError(t, err)
	assert.Equal(t, "NVIDIA Corporation", name)

	name, err = s.Device(ctx, "8086", "1237")
	require.NoError(t, err)
	assert.Equal(t, "Natoma rev 2", name)

	_, err = s.Device(ctx, "8086", "ffff")
	assert.ErrorIs(t, err, lookup.ErrNotFound)
}
