package export

import (
	"bytes"
	"fmt"

	"hwids/internal/index"
	"hwids/internal/parser"
)

// OffsetTable is the offset-table artifact: vendor IDs, the byte offset of
// each vendor line, and the source text those offsets point into. Lengths
// are stored next to the data so a reader can size fixed storage up front.
type OffsetTable struct {
	Kind        string   `json:"kind"`
	VendorCount int      `json:"vendor_count"`
	OffsetCount int      `json:"offset_count"`
	BlobSize    int      `json:"blob_size"`
	IDs         []string `json:"ids"`
	Offsets     []int    `json:"offsets"`
	Blob        []byte   `json:"blob"`
}

// Validate checks the internal consistency of a decoded table.
func (t *OffsetTable) Validate() error {
	if t.Kind != KindOffsetTable {
		return fmt.Errorf("artifact kind %q is not %s", t.Kind, KindOffsetTable)
	}
	if len(t.IDs) != t.VendorCount || len(t.Offsets) != t.OffsetCount || t.VendorCount != t.OffsetCount {
		return fmt.Errorf("offset table lengths disagree: %d ids, %d offsets, counts %d/%d",
			len(t.IDs), len(t.Offsets), t.VendorCount, t.OffsetCount)
	}
	if len(t.Blob) != t.BlobSize {
		return fmt.Errorf("offset table blob is %d bytes, header says %d", len(t.Blob), t.BlobSize)
	}
	for i, off := range t.Offsets {
		if off < 0 || off >= len(t.Blob) {
			return fmt.Errorf("offset %d of vendor %s is outside the blob", off, t.IDs[i])
		}
		if !bytes.HasPrefix(t.Blob[off:], []byte(t.IDs[i]+" ")) {
			return fmt.Errorf("offset %d does not start vendor %s", off, t.IDs[i])
		}
		if i > 0 && off <= t.Offsets[i-1] {
			return fmt.Errorf("offsets are not increasing at vendor %s", t.IDs[i])
		}
	}
	return nil
}

// BuildOffsetTable assembles the artifact value. The blob is the whole
// source text, unmodified.
func BuildOffsetTable(res *parser.ParseResult) (*OffsetTable, error) {
	idx, err := index.BuildOffsetIndex(res)
	if err != nil {
		return nil, fmt.Errorf("build offset index: %w", err)
	}
	src := res.Source()
	return &OffsetTable{
		Kind:        KindOffsetTable,
		VendorCount: idx.Len(),
		OffsetCount: idx.Len(),
		BlobSize:    len(src),
		IDs:         idx.IDs(),
		Offsets:     idx.Offsets(),
		Blob:        []byte(src),
	}, nil
}

// OffsetTableExporter emits the offset-table artifact. Vendor and device
// names are never copied out of the blob.
type OffsetTableExporter struct {
	Encoding  Encoding
	GoPackage string
}

func (e *OffsetTableExporter) Name() string { return KindOffsetTable }

func (e *OffsetTableExporter) Export(res *parser.ParseResult) ([]byte, error) {
	table, err := BuildOffsetTable(res)
	if err != nil {
		return nil, err
	}
	if e.Encoding == EncodingGo {
		return renderOffsetTableGo(e.GoPackage, table)
	}
	data, err := encode(table, e.Encoding)
	if err != nil {
		return nil, fmt.Errorf("encode offset table: %w", err)
	}
	return data, nil
}
