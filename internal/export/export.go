package export

import (
	"fmt"
	"strings"

	"hwids/internal/parser"
)

// Artifact kinds, stored in every encoded artifact so a reader can tell them
// apart.
const (
	KindOffsetTable = "offset_table"
	KindNestedTable = "nested_table"
)

// Exporter turns a parse pass into one encoded artifact. Implementations are
// pure: they only read the ParseResult and own their output buffer, so
// several may run at once over the same result.
type Exporter interface {
	Name() string
	Export(res *parser.ParseResult) ([]byte, error)
}

// Selection picks which artifacts a build emits.
type Selection string

const (
	SelectOffsetTable Selection = "offsetTable"
	SelectNestedTable Selection = "nestedTable"
	SelectBoth        Selection = "both"
)

// ParseSelection accepts the selector names case-insensitively, with or
// without a dash or underscore ("offset-table", "nested_table").
func ParseSelection(s string) (Selection, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(s))
	switch norm {
	case "offsettable", "offset":
		return SelectOffsetTable, nil
	case "nestedtable", "nested":
		return SelectNestedTable, nil
	case "both", "":
		return SelectBoth, nil
	default:
		return "", fmt.Errorf("unknown artifact selection %q (want offsetTable, nestedTable or both)", s)
	}
}

// Offset reports whether the selection includes the offset table.
func (s Selection) Offset() bool { return s == SelectOffsetTable || s == SelectBoth }

// Nested reports whether the selection includes the nested table.
func (s Selection) Nested() bool { return s == SelectNestedTable || s == SelectBoth }

// Encoding is the on-disk representation of an artifact.
type Encoding string

const (
	EncodingJSON Encoding = "json"
	EncodingCBOR Encoding = "cbor"
	EncodingGo   Encoding = "go"
)

// ParseEncoding validates an encoding name.
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(s)); e {
	case EncodingJSON, EncodingCBOR, EncodingGo:
		return e, nil
	case "":
		return EncodingJSON, nil
	default:
		return "", fmt.Errorf("unknown encoding %q (want json, cbor or go)", s)
	}
}

// Options configures the exporters built by New.
type Options struct {
	Encoding Encoding
	// GoPackage is the package clause for the go encoding.
	GoPackage string
}

// New returns the exporters for a selection, offset table first.
func New(sel Selection, opts Options) []Exporter {
	if opts.GoPackage == "" {
		opts.GoPackage = "pciids"
	}
	var out []Exporter
	if sel.Offset() {
		out = append(out, &OffsetTableExporter{Encoding: opts.Encoding, GoPackage: opts.GoPackage})
	}
	if sel.Nested() {
		out = append(out, &NestedTableExporter{Encoding: opts.Encoding, GoPackage: opts.GoPackage})
	}
	return out
}
