package lookup

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"hwids/internal/export"
	"hwids/internal/parser"
	"hwids/internal/textutil"
)

// OffsetResolver answers lookups from an offset table by slicing names out
// of the retained blob on demand.
type OffsetResolver struct {
	table *export.OffsetTable
	// byID is a permutation of table indexes ordered by normalized ID. The
	// table itself is in document order, which is not ID order.
	byID []int
	norm []string
}

// NewOffsetResolver validates the table and prepares its ID search order.
func NewOffsetResolver(t *export.OffsetTable) (*OffsetResolver, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	r := &OffsetResolver{
		table: t,
		byID:  make([]int, len(t.IDs)),
		norm:  make([]string, len(t.IDs)),
	}
	for i, id := range t.IDs {
		r.byID[i] = i
		r.norm[i] = textutil.NormalizeID(id)
	}
	sort.SliceStable(r.byID, func(a, b int) bool {
		return r.norm[r.byID[a]] < r.norm[r.byID[b]]
	})
	return r, nil
}

// find returns the table index of a vendor.
func (r *OffsetResolver) find(vendorID string) (int, bool) {
	want := textutil.NormalizeID(vendorID)
	pos := sort.Search(len(r.byID), func(i int) bool {
		return r.norm[r.byID[i]] >= want
	})
	if pos == len(r.byID) || r.norm[r.byID[pos]] != want {
		return 0, false
	}
	return r.byID[pos], true
}

// lineAt returns the line starting at off without its terminator, and the
// offset of the following line.
func (r *OffsetResolver) lineAt(off int) (string, int) {
	blob := r.table.Blob
	end := bytes.IndexByte(blob[off:], '\n')
	next := len(blob)
	if end < 0 {
		end = len(blob)
	} else {
		end += off
		next = end + 1
	}
	return strings.TrimSuffix(string(blob[off:end]), "\r"), next
}

func (r *OffsetResolver) Vendor(_ context.Context, vendorID string) (string, error) {
	i, ok := r.find(vendorID)
	if !ok {
		return "", fmt.Errorf("vendor %s: %w", vendorID, ErrNotFound)
	}
	line, _ := r.lineAt(r.table.Offsets[i])
	sep := strings.IndexByte(line, ' ')
	if sep < 0 {
		return "", fmt.Errorf("vendor %s: %w", vendorID, ErrNotFound)
	}
	return strings.Trim(line[sep:], " \t"), nil
}

// Device scans the device lines that follow the vendor line until the next
// unindented line.
func (r *OffsetResolver) Device(_ context.Context, vendorID, deviceID string) (string, error) {
	i, ok := r.find(vendorID)
	if !ok {
		return "", fmt.Errorf("vendor %s: %w", vendorID, ErrNotFound)
	}
	want := textutil.NormalizeID(deviceID)

	_, pos := r.lineAt(r.table.Offsets[i])
	for pos < len(r.table.Blob) {
		var line string
		line, pos = r.lineAt(pos)
		switch {
		case line == "" || line[0] == '#':
			continue
		case line[0] != '\t':
			return "", fmt.Errorf("device %s:%s: %w", vendorID, deviceID, ErrNotFound)
		case strings.HasPrefix(line, "\t\t"):
			continue
		}
		id, raw, ok := strings.Cut(line[1:], " ")
		if ok && strings.ToLower(id) == want {
			return parser.DisplayName(raw), nil
		}
	}
	return "", fmt.Errorf("device %s:%s: %w", vendorID, deviceID, ErrNotFound)
}
