package index

import (
	"fmt"
	"slices"
	"strings"

	"hwids/internal/parser"
)

// OffsetIndex pairs vendor IDs with the byte offsets of their lines in the
// source text. Entries are in document order, so offsets are strictly
// increasing; IDs are not sorted.
type OffsetIndex struct {
	ids     []string
	offsets []int
}

// BuildOffsetIndex derives the index from a parse pass. It re-checks the
// properties consumers rely on and reports ErrInvariantViolation if one
// does not hold.
func BuildOffsetIndex(res *parser.ParseResult) (*OffsetIndex, error) {
	vendors := res.Vendors()
	src := res.Source()

	idx := &OffsetIndex{
		ids:     make([]string, 0, len(vendors)),
		offsets: make([]int, 0, len(vendors)),
	}
	seen := make(map[string]int, len(vendors))

	for i, v := range vendors {
		if i > 0 && v.Offset <= idx.offsets[i-1] {
			return nil, violation(v, "offset %d does not follow %d", v.Offset, idx.offsets[i-1])
		}
		if prev, dup := seen[v.ID]; dup {
			return nil, violation(v, "vendor %s already declared at offset %d", v.ID, prev)
		}
		if v.Offset < 0 || v.Offset >= len(src) || !strings.HasPrefix(src[v.Offset:], v.ID+" ") {
			return nil, violation(v, "offset %d does not start vendor %s", v.Offset, v.ID)
		}
		seen[v.ID] = v.Offset
		idx.ids = append(idx.ids, v.ID)
		idx.offsets = append(idx.offsets, v.Offset)
	}

	return idx, nil
}

func violation(v parser.Vendor, format string, args ...any) error {
	return &parser.Error{
		Kind: parser.ErrInvariantViolation,
		Line: v.Line,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Len returns the number of vendors.
func (x *OffsetIndex) Len() int { return len(x.ids) }

// IDs returns a copy of the vendor IDs in document order.
func (x *OffsetIndex) IDs() []string { return slices.Clone(x.ids) }

// Offsets returns a copy of the vendor line offsets in document order.
func (x *OffsetIndex) Offsets() []int { return slices.Clone(x.offsets) }
