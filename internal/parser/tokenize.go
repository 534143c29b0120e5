package parser

import (
	"strings"

	"hwids/internal/textutil"
)

type vendorFields struct {
	id   string
	name string
}

type deviceFields struct {
	id      string
	rawName string
}

type subsystemFields struct {
	subvendor string
	subdevice string
	name      string
}

// tokenizeVendor splits "<id> <name>". The ID must be followed by a space;
// a tab leaves it unterminated.
func tokenizeVendor(content string) (vendorFields, error) {
	sep := strings.IndexByte(content, ' ')
	if sep < 0 {
		if !textutil.IsHexID(content) {
			return vendorFields{}, failf(ErrInvalidID, "vendor id %q is not 4 hex digits", content)
		}
		return vendorFields{}, failf(ErrTruncatedInput, "vendor %s has no name", content)
	}

	id := content[:sep]
	if !textutil.IsHexID(id) {
		return vendorFields{}, failf(ErrInvalidID, "vendor id %q is not 4 hex digits", id)
	}
	name := strings.Trim(content[sep:], " \t")
	if name == "" {
		return vendorFields{}, failf(ErrTruncatedInput, "vendor %s has no name", id)
	}
	return vendorFields{id: id, name: name}, nil
}

// tokenizeDevice splits "<id> <name>" after the single indentation tab.
// Only one separating space is consumed so the name keeps the source's
// column layout.
func tokenizeDevice(content string) (deviceFields, error) {
	id, rawName, ok := strings.Cut(content, " ")
	if !textutil.IsHexID(id) {
		if !ok && len(id) < 4 {
			return deviceFields{}, failf(ErrTruncatedInput, "device entry %q is shorter than an id", content)
		}
		return deviceFields{}, failf(ErrInvalidID, "device id %q is not 4 hex digits", id)
	}
	if !ok || strings.TrimSpace(rawName) == "" {
		return deviceFields{}, failf(ErrTruncatedInput, "device %s has no name", id)
	}
	return deviceFields{id: id, rawName: rawName}, nil
}

// tokenizeSubsystem splits "<subvendor> <subdevice>  <name>".
func tokenizeSubsystem(content string) (subsystemFields, error) {
	subvendor, rest, ok := strings.Cut(content, " ")
	if !ok {
		return subsystemFields{}, failf(ErrTruncatedInput, "subsystem entry %q has no subdevice id", content)
	}
	subdevice, name, ok := strings.Cut(rest, " ")
	if !ok {
		return subsystemFields{}, failf(ErrTruncatedInput, "subsystem %s %s has no name", subvendor, rest)
	}
	if !textutil.IsHexID(subvendor) {
		return subsystemFields{}, failf(ErrInvalidID, "subvendor id %q is not 4 hex digits", subvendor)
	}
	if !textutil.IsHexID(subdevice) {
		return subsystemFields{}, failf(ErrInvalidID, "subdevice id %q is not 4 hex digits", subdevice)
	}
	name = strings.TrimLeft(name, " ")
	if name == "" {
		return subsystemFields{}, failf(ErrTruncatedInput, "subsystem %s %s has no name", subvendor, subdevice)
	}
	return subsystemFields{subvendor: subvendor, subdevice: subdevice, name: name}, nil
}

// DisplayName returns the text between the first '[' and the first ']' after
// it, or raw unchanged when there is no such pair.
func DisplayName(raw string) string {
	open := strings.IndexByte(raw, '[')
	if open < 0 {
		return raw
	}
	end := strings.IndexByte(raw[open+1:], ']')
	if end < 0 {
		return raw
	}
	return raw[open+1 : open+1+end]
}
