package parser

import "slices"

// Device is a product entry nested one level under a vendor.
type Device struct {
	// ID is the 4-hex-digit device code, case preserved.
	ID string
	// RawName is the text after the ID and one separating space, without the
	// line terminator. Column-layout spaces are kept.
	RawName string
	// DisplayName is the bracketed short name if RawName has one, else RawName.
	DisplayName string
	// Line is the 1-based line number in the source file.
	Line int
}

// Vendor is a top-level manufacturer entry.
type Vendor struct {
	// ID is the 4-hex-digit vendor code, case preserved.
	ID string
	// Name is the vendor name with surrounding spaces removed.
	Name string
	// Offset is the byte position of the first character of the vendor line
	// in the original source text.
	Offset int
	// Line is the 1-based line number in the source file.
	Line int
	// Devices are the vendor's devices in document order.
	Devices []Device
}

// StopReason records why a parse pass ended.
type StopReason int

const (
	// StopEOF means the whole input was consumed.
	StopEOF StopReason = iota
	// StopClassSection means the device-class section was reached.
	StopClassSection
	// StopSentinel means the configured sentinel vendor was reached.
	StopSentinel
)

func (s StopReason) String() string {
	switch s {
	case StopEOF:
		return "end of input"
	case StopClassSection:
		return "device class section"
	case StopSentinel:
		return "sentinel vendor"
	default:
		return "unknown"
	}
}

// ParseResult holds the output of one parse pass. It is never modified after
// Parse returns; accessors hand out copies.
type ParseResult struct {
	vendors    []Vendor
	source     string
	consumed   int
	subsystems int
	stop       StopReason
	stopLine   int
}

// Vendors returns the vendors in document order. The returned slice and the
// device slices inside it are copies.
func (r *ParseResult) Vendors() []Vendor {
	out := make([]Vendor, len(r.vendors))
	for i, v := range r.vendors {
		v.Devices = slices.Clone(v.Devices)
		out[i] = v
	}
	return out
}

// VendorCount returns the number of vendors.
func (r *ParseResult) VendorCount() int { return len(r.vendors) }

// DeviceCount returns the number of devices across all vendors.
func (r *ParseResult) DeviceCount() int {
	n := 0
	for _, v := range r.vendors {
		n += len(v.Devices)
	}
	return n
}

// Source returns the untouched input text. Vendor offsets index into it.
func (r *ParseResult) Source() string { return r.source }

// Consumed is the number of bytes read before the pass stopped.
func (r *ParseResult) Consumed() int { return r.consumed }

// Subsystems is the number of validated level-2 lines. They are not retained.
func (r *ParseResult) Subsystems() int { return r.subsystems }

// Stop reports why the pass ended.
func (r *ParseResult) Stop() StopReason { return r.stop }

// StopLine is the 1-based line that ended the pass, or 0 at end of input.
func (r *ParseResult) StopLine() int { return r.stopLine }
