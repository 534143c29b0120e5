package export

import (
	"fmt"

	"hwids/internal/index"
	"hwids/internal/parser"
)

// NestedTable is the nested-table artifact: every vendor with its name and
// a device ID to display name map. It is self-contained.
type NestedTable struct {
	Kind        string                 `json:"kind"`
	VendorCount int                    `json:"vendor_count"`
	DeviceCount int                    `json:"device_count"`
	Vendors     map[string]VendorEntry `json:"vendors"`
}

// VendorEntry is one vendor of the nested table.
type VendorEntry struct {
	Name    string            `json:"name"`
	Devices map[string]string `json:"devices"`
}

// Validate checks the internal consistency of a decoded table.
func (t *NestedTable) Validate() error {
	if t.Kind != KindNestedTable {
		return fmt.Errorf("artifact kind %q is not %s", t.Kind, KindNestedTable)
	}
	if len(t.Vendors) != t.VendorCount {
		return fmt.Errorf("nested table has %d vendors, header says %d", len(t.Vendors), t.VendorCount)
	}
	devices := 0
	for _, v := range t.Vendors {
		devices += len(v.Devices)
	}
	if devices != t.DeviceCount {
		return fmt.Errorf("nested table has %d devices, header says %d", devices, t.DeviceCount)
	}
	return nil
}

// BuildNestedTable assembles the artifact value.
func BuildNestedTable(res *parser.ParseResult) (*NestedTable, error) {
	tbl, err := index.BuildNestedTable(res)
	if err != nil {
		return nil, fmt.Errorf("build nested table: %w", err)
	}
	out := &NestedTable{
		Kind:        KindNestedTable,
		VendorCount: tbl.Len(),
		DeviceCount: tbl.DeviceCount(),
		Vendors:     make(map[string]VendorEntry, tbl.Len()),
	}
	for _, vid := range tbl.VendorIDs() {
		name, _ := tbl.VendorName(vid)
		entry := VendorEntry{Name: name, Devices: make(map[string]string)}
		for _, did := range tbl.DeviceIDs(vid) {
			entry.Devices[did], _ = tbl.Lookup(vid, did)
		}
		out.Vendors[vid] = entry
	}
	return out, nil
}

// NestedTableExporter emits the nested-table artifact with all names
// materialized.
type NestedTableExporter struct {
	Encoding  Encoding
	GoPackage string
}

func (e *NestedTableExporter) Name() string { return KindNestedTable }

func (e *NestedTableExporter) Export(res *parser.ParseResult) ([]byte, error) {
	table, err := BuildNestedTable(res)
	if err != nil {
		return nil, err
	}
	if e.Encoding == EncodingGo {
		return renderNestedTableGo(e.GoPackage, table)
	}
	data, err := encode(table, e.Encoding)
	if err != nil {
		return nil, fmt.Errorf("encode nested table: %w", err)
	}
	return data, nil
}
