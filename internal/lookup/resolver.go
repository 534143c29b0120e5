package lookup

import (
	"context"
	"errors"
	"fmt"
	"os"

	"hwids/internal/export"
)

// ErrNotFound is returned when a vendor or device is not recorded.
var ErrNotFound = errors.New("not found")

// Resolver turns vendor and device codes into names. IDs may carry a "0x"
// prefix and any letter case.
type Resolver interface {
	Vendor(ctx context.Context, vendorID string) (string, error)
	Device(ctx context.Context, vendorID, deviceID string) (string, error)
}

// Load reads an offset-table or nested-table artifact in JSON or CBOR and
// returns a resolver over it.
func Load(path string) (Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return Decode(data)
}

// Decode builds a resolver from encoded artifact bytes.
func Decode(data []byte) (Resolver, error) {
	kind, err := export.Kind(data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case export.KindOffsetTable:
		var t export.OffsetTable
		if err := export.Decode(data, &t); err != nil {
			return nil, fmt.Errorf("decode offset table: %w", err)
		}
		return NewOffsetResolver(&t)
	case export.KindNestedTable:
		var t export.NestedTable
		if err := export.Decode(data, &t); err != nil {
			return nil, fmt.Errorf("decode nested table: %w", err)
		}
		return NewNestedResolver(&t)
	default:
		return nil, fmt.Errorf("unsupported artifact kind %q", kind)
	}
}
