package parser

import (
	"fmt"
	"strings"

	"hwids/internal/textutil"
)

// ErrorKind classifies a database format violation. Each kind is itself an
// error so callers can test with errors.Is.
type ErrorKind string

const (
	ErrMalformedIndent    ErrorKind = "malformed indent"
	ErrOrphanDevice       ErrorKind = "orphan device"
	ErrInvariantViolation ErrorKind = "invariant violation"
	ErrTruncatedInput     ErrorKind = "truncated input"
	ErrInvalidID          ErrorKind = "invalid id"
)

func (k ErrorKind) Error() string { return string(k) }

// Error describes a fatal problem at a specific source line.
type Error struct {
	Kind ErrorKind
	// Line is 1-based; 0 when the problem is not tied to a line.
	Line int
	// Raw is the offending line as it appears in the source.
	Raw string
	Msg string
}

func (e *Error) Error() string {
	s := string(e.Kind)
	if e.Line > 0 {
		s = fmt.Sprintf("line %d: %s", e.Line, s)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Raw != "" {
		s += fmt.Sprintf(" (raw: %q)", textutil.Truncate(e.Raw, 80))
	}
	return s
}

func (e *Error) Unwrap() error { return e.Kind }

func failf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// at attaches the line number and raw text to a line-level error.
func at(err error, line int, raw string) error {
	if pe, ok := err.(*Error); ok {
		pe.Line = line
		pe.Raw = strings.TrimRight(raw, "\r\n")
		return pe
	}
	return err
}
