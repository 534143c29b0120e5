package lookup

import (
	"context"
	"fmt"

	"hwids/internal/export"
	"hwids/internal/textutil"
)

// NestedResolver answers lookups from a nested table with two map reads.
type NestedResolver struct {
	table *export.NestedTable
	// vendors maps a normalized vendor ID to the key used in the table.
	vendors map[string]string
	devices map[string]map[string]string
}

// NewNestedResolver validates the table and indexes its keys by normalized
// ID.
func NewNestedResolver(t *export.NestedTable) (*NestedResolver, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	r := &NestedResolver{
		table:   t,
		vendors: make(map[string]string, len(t.Vendors)),
		devices: make(map[string]map[string]string, len(t.Vendors)),
	}
	for vid, v := range t.Vendors {
		key := textutil.NormalizeID(vid)
		r.vendors[key] = vid
		devs := make(map[string]string, len(v.Devices))
		for did := range v.Devices {
			devs[textutil.NormalizeID(did)] = did
		}
		r.devices[key] = devs
	}
	return r, nil
}

func (r *NestedResolver) Vendor(_ context.Context, vendorID string) (string, error) {
	vid, ok := r.vendors[textutil.NormalizeID(vendorID)]
	if !ok {
		return "", fmt.Errorf("vendor %s: %w", vendorID, ErrNotFound)
	}
	return r.table.Vendors[vid].Name, nil
}

func (r *NestedResolver) Device(_ context.Context, vendorID, deviceID string) (string, error) {
	key := textutil.NormalizeID(vendorID)
	vid, ok := r.vendors[key]
	if !ok {
		return "", fmt.Errorf("vendor %s: %w", vendorID, ErrNotFound)
	}
	did, ok := r.devices[key][textutil.NormalizeID(deviceID)]
	if !ok {
		return "", fmt.Errorf("device %s:%s: %w", vendorID, deviceID, ErrNotFound)
	}
	return r.table.Vendors[vid].Devices[did], nil
}
