package store

import (
	"hwids/internal/parser"
	"hwids/internal/textutil"

	"github.com/google/uuid"
)

// vendorRows builds COPY rows for the vendor table. IDs are stored
// normalized; if two vendors normalize to the same ID the first is kept.
func vendorRows(id uuid.UUID, res *parser.ParseResult) [][]any {
	vendors := res.Vendors()
	rows := make([][]any, 0, len(vendors))
	seen := make(map[string]bool, len(vendors))
	for _, v := range vendors {
		vid := textutil.NormalizeID(v.ID)
		if seen[vid] {
			continue
		}
		seen[vid] = true
		rows = append(rows, []any{id, vid, v.Name, v.Offset, v.Line})
	}
	return rows
}

// deviceRows builds COPY rows for the device table. A device declared twice
// under one vendor keeps its last declaration, as in the nested table.
func deviceRows(id uuid.UUID, res *parser.ParseResult) [][]any {
	var rows [][]any
	pos := make(map[[2]string]int)
	for _, v := range res.Vendors() {
		vid := textutil.NormalizeID(v.ID)
		for _, d := range v.Devices {
			key := [2]string{vid, textutil.NormalizeID(d.ID)}
			row := []any{id, key[0], key[1], d.RawName, d.DisplayName}
			if i, ok := pos[key]; ok {
				rows[i] = row
				continue
			}
			pos[key] = len(rows)
			rows = append(rows, row)
		}
	}
	return rows
}
