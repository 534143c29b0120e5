package lookup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwids/internal/export"
	"hwids/internal/parser"
)

// Vendors are deliberately out of ID order.
const db = `# test database
8086  Intel Corporation
	1237  440FX - 82441FX PMC [Natoma]
# retired
	7000  82371SB PIIX3 ISA [Natoma/Triton II]
1002  Advanced Micro Devices, Inc. [AMD/ATI]
	6798  Tahiti XT [Radeon HD 7970/8970 OEM / R9 280X]
		1002 3000  Tahiti XT2

10de  NVIDIA Corporation
	2206  GA102 [GeForce RTX 3080]
	abcd Simple Device
C 00  Unclassified device
	00  Non-VGA unclassified device
`

func artifacts(t *testing.T, enc export.Encoding) map[string][]byte {
	t.Helper()
	res, err := parser.New(parser.WithLogger(zerolog.Nop())).Parse([]byte(db))
	require.NoError(t, err)

	out := make(map[string][]byte)
	for _, e := range export.New(export.SelectBoth, export.Options{Encoding: enc}) {
		data, err := e.Export(res)
		require.NoError(t, err)
		out[e.Name()] = data
	}
	return out
}

func resolvers(t *testing.T) map[string]Resolver {
	t.Helper()
	rs := make(map[string]Resolver)
	for _, enc := range []export.Encoding{export.EncodingJSON, export.EncodingCBOR} {
		for name, data := range artifacts(t, enc) {
			r, err := Decode(data)
			require.NoError(t, err, "%s/%s", name, enc)
			rs[name+"/"+string(enc)] = r
		}
	}
	require.Len(t, rs, 4)
	return rs
}

func TestVendorLookup(t *testing.T) {
	ctx := context.Background()
	for name, r := range resolvers(t) {
		t.Run(name, func(t *testing.T) {
			for id, want := range map[string]string{
				"8086":   "Intel Corporation",
				"0x1002": "Advanced Micro Devices, Inc. [AMD/ATI]",
				"10DE":   "NVIDIA Corporation",
			} {
				got, err := r.Vendor(ctx, id)
				require.NoError(t, err, id)
				assert.Equal(t, want, got, id)
			}

			_, err := r.Vendor(ctx, "ffff")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestDeviceLookup(t *testing.T) {
	ctx := context.Background()
	for name, r := range resolvers(t) {
		t.Run(name, func(t *testing.T) {
			cases := []struct {
				vendor, device, want string
			}{
				{"8086", "1237", "Natoma"},
				{"8086", "7000", "Natoma/Triton II"},
				{"1002", "6798", "Radeon HD 7970/8970 OEM / R9 280X"},
				{"10de", "2206", "GeForce RTX 3080"},
				{"10de", "ABCD", "Simple Device"},
			}
			for _, c := range cases {
				got, err := r.Device(ctx, c.vendor, c.device)
				require.NoError(t, err, "%s:%s", c.vendor, c.device)
				assert.Equal(t, c.want, got)
			}

			_, err := r.Device(ctx, "8086", "6798")
			assert.ErrorIs(t, err, ErrNotFound)
			// Subsystem IDs are not devices.
			_, err = r.Device(ctx, "1002", "1002")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = r.Device(ctx, "ffff", "0001")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestOffsetResolverStopsAtClassSection(t *testing.T) {
	r, err := Decode(artifacts(t, export.EncodingJSON)[export.KindOffsetTable])
	require.NoError(t, err)

	_, err = r.Device(context.Background(), "10de", "00")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	for name, data := range artifacts(t, export.EncodingCBOR) {
		path := filepath.Join(dir, name+".cbor")
		require.NoError(t, os.WriteFile(path, data, 0o644))

		r, err := Load(path)
		require.NoError(t, err)
		got, err := r.Vendor(context.Background(), "8086")
		require.NoError(t, err)
		assert.Equal(t, "Intel Corporation", got)
	}

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestDecodeRejectsBadArtifacts(t *testing.T) {
	_, err := Decode([]byte(`{"kind":"something_else"}`))
	assert.Error(t, err)

	// A table whose counts disagree with its contents fails validation.
	_, err = Decode([]byte(`{"kind":"offset_table","vendor_count":2,"offset_count":2,"blob_size":0,"ids":[],"offsets":[],"blob":""}`))
	assert.Error(t, err)
}
