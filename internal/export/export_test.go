package export

import (
	"bytes"
	"context"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hwparser "hwids/internal/parser"
)

const db = `# test database
1002  Advanced Micro Devices, Inc. [AMD/ATI]
	6798  Tahiti XT [Radeon HD 7970/8970 OEM / R9 280X]
		1002 3000  Tahiti XT2
10de  NVIDIA Corporation
	2206  GA102 [GeForce RTX 3080]
	abcd Simple Device "quoted"
8086  Intel Corporation
	1237  440FX - 82441FX PMC [Natoma]
C 00  Unclassified device
`

func parse(t *testing.T, src string) *hwparser.ParseResult {
	t.Helper()
	res, err := hwparser.New(hwparser.WithLogger(zerolog.Nop())).Parse([]byte(src))
	require.NoError(t, err)
	return res
}

func TestParseSelection(t *testing.T) {
	for in, want := range map[string]Selection{
		"offsetTable":  SelectOffsetTable,
		"offset-table": SelectOffsetTable,
		"NESTED_TABLE": SelectNestedTable,
		"both":         SelectBoth,
		"":             SelectBoth,
	} {
		got, err := ParseSelection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSelection("everything")
	assert.Error(t, err)

	assert.True(t, SelectBoth.Offset())
	assert.True(t, SelectBoth.Nested())
	assert.False(t, SelectOffsetTable.Nested())
	assert.False(t, SelectNestedTable.Offset())
}

func TestParseEncoding(t *testing.T) {
	enc, err := ParseEncoding("CBOR")
	require.NoError(t, err)
	assert.Equal(t, EncodingCBOR, enc)
	_, err = ParseEncoding("xml")
	assert.Error(t, err)
}

func TestNewSelectsExporters(t *testing.T) {
	assert.Len(t, New(SelectBoth, Options{}), 2)
	exps := New(SelectNestedTable, Options{Encoding: EncodingCBOR})
	require.Len(t, exps, 1)
	assert.Equal(t, KindNestedTable, exps[0].Name())
}

func TestOffsetTableRoundTrip(t *testing.T) {
	res := parse(t, db)
	for _, enc := range []Encoding{EncodingJSON, EncodingCBOR} {
		t.Run(string(enc), func(t *testing.T) {
			data, err := (&OffsetTableExporter{Encoding: enc}).Export(res)
			require.NoError(t, err)

			kind, err := Kind(data)
			require.NoError(t, err)
			assert.Equal(t, KindOffsetTable, kind)

			var table OffsetTable
			require.NoError(t, Decode(data, &table))
			require.NoError(t, table.Validate())

			assert.Equal(t, 3, table.VendorCount)
			assert.Equal(t, len(db), table.BlobSize)
			assert.Equal(t, []byte(db), table.Blob)
			assert.Equal(t, []string{"1002", "10de", "8086"}, table.IDs)
			for i, off := range table.Offsets {
				assert.True(t, bytes.HasPrefix(table.Blob[off:], []byte(table.IDs[i]+" ")))
				if i > 0 {
					assert.LessOrEqual(t, table.Offsets[i-1], off)
				}
			}
		})
	}
}

func TestNestedTableRoundTrip(t *testing.T) {
	res := parse(t, db)
	for _, enc := range []Encoding{EncodingJSON, EncodingCBOR} {
		t.Run(string(enc), func(t *testing.T) {
			data, err := (&NestedTableExporter{Encoding: enc}).Export(res)
			require.NoError(t, err)

			var table NestedTable
			require.NoError(t, Decode(data, &table))
			require.NoError(t, table.Validate())

			assert.Equal(t, 3, table.VendorCount)
			assert.Equal(t, 4, table.DeviceCount)
			assert.Equal(t, "NVIDIA Corporation", table.Vendors["10de"].Name)
			assert.Equal(t, "GeForce RTX 3080", table.Vendors["10de"].Devices["2206"])
			assert.Equal(t, `Simple Device "quoted"`, table.Vendors["10de"].Devices["abcd"])
			assert.Equal(t, "Natoma", table.Vendors["8086"].Devices["1237"])
		})
	}
}

func TestExportersAreDeterministic(t *testing.T) {
	for _, enc := range []Encoding{EncodingJSON, EncodingCBOR, EncodingGo} {
		for _, exp := range New(SelectBoth, Options{Encoding: enc, GoPackage: "pciids"}) {
			t.Run(string(enc)+"/"+exp.Name(), func(t *testing.T) {
				first, err := exp.Export(parse(t, db))
				require.NoError(t, err)
				second, err := exp.Export(parse(t, db))
				require.NoError(t, err)
				assert.Equal(t, first, second)
			})
		}
	}
}

func TestGoSourceOutput(t *testing.T) {
	res := parse(t, db)

	offsetSrc, err := (&OffsetTableExporter{Encoding: EncodingGo, GoPackage: "pciids"}).Export(res)
	require.NoError(t, err)
	nestedSrc, err := (&NestedTableExporter{Encoding: EncodingGo, GoPackage: "pciids"}).Export(res)
	require.NoError(t, err)

	for name, src := range map[string][]byte{"offset.go": offsetSrc, "nested.go": nestedSrc} {
		_, err := parser.ParseFile(token.NewFileSet(), name, src, parser.AllErrors)
		assert.NoError(t, err, name)
		assert.True(t, bytes.HasPrefix(src, []byte("// Code generated by hwids; DO NOT EDIT.")))
	}

	offset := string(offsetSrc)
	assert.Contains(t, offset, "const VendorCount = 3")
	assert.Contains(t, offset, `"10de",`)
	assert.Contains(t, offset, "var VendorOffsets = [VendorCount]int{")

	nested := string(nestedSrc)
	assert.Contains(t, nested, `"2206": "GeForce RTX 3080",`)
	assert.Contains(t, nested, `"abcd": "Simple Device \"quoted\"",`)
	assert.Less(t, strings.Index(nested, `"1002"`), strings.Index(nested, `"8086"`))
}

func TestRunAndWriteAll(t *testing.T) {
	dir := t.TempDir()
	res := parse(t, db)

	targets := []Target{
		{Exporter: &OffsetTableExporter{Encoding: EncodingJSON}, Path: filepath.Join(dir, "offset.json")},
		{Exporter: &NestedTableExporter{Encoding: EncodingCBOR}, Path: filepath.Join(dir, "out", "nested.cbor")},
	}
	artifacts, err := Run(context.Background(), res, targets, 2)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, KindOffsetTable, artifacts[0].Name)
	assert.Equal(t, KindNestedTable, artifacts[1].Name)

	require.NoError(t, WriteAll(artifacts))
	for _, a := range artifacts {
		data, err := os.ReadFile(a.Path)
		require.NoError(t, err)
		assert.Equal(t, a.Data, data)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
}

func TestRunIsAllOrNothing(t *testing.T) {
	res := parse(t, "10de  NVIDIA\n\t0001  A\n10de  NVIDIA again\n")

	targets := []Target{
		{Exporter: &NestedTableExporter{Encoding: EncodingJSON}, Path: "nested.json"},
		{Exporter: &OffsetTableExporter{Encoding: EncodingJSON}, Path: "offset.json"},
	}
	artifacts, err := Run(context.Background(), res, targets, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, hwparser.ErrInvariantViolation)
	assert.Nil(t, artifacts)
}

func TestRunNestedOnlyRejectsDuplicateVendor(t *testing.T) {
	dir := t.TempDir()
	res := parse(t, "10de Nvidia\n\t0001 A\n8086 Intel\n10de Nvidia again\n\t0002 B\n")

	targets := []Target{
		{Exporter: &NestedTableExporter{Encoding: EncodingJSON}, Path: filepath.Join(dir, "nested.json")},
	}
	artifacts, err := Run(context.Background(), res, targets, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, hwparser.ErrInvariantViolation)
	assert.Nil(t, artifacts)
	assert.NoFileExists(t, filepath.Join(dir, "nested.json"))
}

func TestWriteAllRollsBackOnRenameFailure(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "offset.json")
	fresh := filepath.Join(dir, "nested.json")
	blocked := filepath.Join(dir, "nested.go")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(blocked, "keep"), 0o755))

	err := WriteAll([]Artifact{
		{Name: KindOffsetTable, Path: existing, Data: []byte("new offset")},
		{Name: KindNestedTable, Path: fresh, Data: []byte("new nested")},
		{Name: KindNestedTable, Path: blocked, Data: []byte("package x")},
	})
	require.ErrorContains(t, err, "rename "+blocked)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
	assert.NoFileExists(t, fresh)
	assert.DirExists(t, filepath.Join(blocked, "keep"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"offset.json", "nested.go"}, names)
}

func TestValidateRejectsInconsistentTables(t *testing.T) {
	offset := &OffsetTable{Kind: KindOffsetTable, VendorCount: 1, OffsetCount: 1, IDs: []string{"10de"}, Offsets: []int{5}, Blob: []byte("10de x\n"), BlobSize: 7}
	assert.Error(t, offset.Validate())

	tabbed := &OffsetTable{Kind: KindOffsetTable, VendorCount: 1, OffsetCount: 1, IDs: []string{"10de"}, Offsets: []int{0}, Blob: []byte("10de\tx\n"), BlobSize: 7}
	assert.Error(t, tabbed.Validate())

	nested := &NestedTable{Kind: KindNestedTable, VendorCount: 2, Vendors: map[string]VendorEntry{}}
	assert.Error(t, nested.Validate())

	wrongKind := &NestedTable{Kind: KindOffsetTable}
	assert.Error(t, wrongKind.Validate())
}
