package index

import (
	"maps"
	"slices"

	"github.com/rs/zerolog/log"

	"hwids/internal/parser"
)

// NestedTable maps vendor ID to device ID to display name, with every name
// materialized. It does not depend on the source text.
type NestedTable struct {
	vendorNames map[string]string
	devices     map[string]map[string]string
	deviceCount int
}

// BuildNestedTable derives the table from a parse pass. A vendor declared
// twice is an ErrInvariantViolation; a device ID repeated under one vendor
// keeps the last name.
func BuildNestedTable(res *parser.ParseResult) (*NestedTable, error) {
	t := &NestedTable{
		vendorNames: make(map[string]string, res.VendorCount()),
		devices:     make(map[string]map[string]string, res.VendorCount()),
	}
	lines := make(map[string]int, res.VendorCount())

	for _, v := range res.Vendors() {
		if prev, dup := lines[v.ID]; dup {
			return nil, violation(v, "vendor %s already declared at line %d", v.ID, prev)
		}
		lines[v.ID] = v.Line
		t.vendorNames[v.ID] = v.Name
		devs := make(map[string]string, len(v.Devices))
		t.devices[v.ID] = devs
		for _, d := range v.Devices {
			if _, dup := devs[d.ID]; dup {
				log.Debug().Str("vendor", v.ID).Str("device", d.ID).Int("line", d.Line).Msg("Duplicate device id, keeping last")
			}
			devs[d.ID] = d.DisplayName
		}
	}

	for _, devs := range t.devices {
		t.deviceCount += len(devs)
	}
	return t, nil
}

// Lookup returns the display name of a device.
func (t *NestedTable) Lookup(vendorID, deviceID string) (string, bool) {
	name, ok := t.devices[vendorID][deviceID]
	return name, ok
}

// VendorName returns the name of a vendor.
func (t *NestedTable) VendorName(vendorID string) (string, bool) {
	name, ok := t.vendorNames[vendorID]
	return name, ok
}

// VendorIDs returns the vendor IDs in sorted order.
func (t *NestedTable) VendorIDs() []string {
	return slices.Sorted(maps.Keys(t.devices))
}

// DeviceIDs returns the device IDs of a vendor in sorted order.
func (t *NestedTable) DeviceIDs(vendorID string) []string {
	return slices.Sorted(maps.Keys(t.devices[vendorID]))
}

// Len returns the number of vendors.
func (t *NestedTable) Len() int { return len(t.devices) }

// DeviceCount returns the number of distinct devices.
func (t *NestedTable) DeviceCount() int { return t.deviceCount }
