package parser

import (
	"strings"

	"hwids/internal/textutil"
)

// maxLevel is the deepest legal indentation: vendor, device, subsystem.
const maxLevel = 2

// Kind is the classification of one physical line.
type Kind int

const (
	KindBlank Kind = iota
	KindComment
	KindClassSection
	KindEntry
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindComment:
		return "comment"
	case KindClassSection:
		return "class section"
	case KindEntry:
		return "entry"
	default:
		return "unknown"
	}
}

// Line is a classified physical line.
type Line struct {
	Kind Kind
	// Level is the number of leading tabs of an entry line.
	Level int
	// Offset is the byte position of the line start in the source.
	Offset int
	// ContentOffset is the byte position just past the indentation.
	ContentOffset int
	// Content is the entry text without indentation or line terminator.
	Content string
	// Terminated is false for a final line with no trailing newline.
	Terminated bool
}

// Classify inspects one line, including its terminator, that starts at offset
// in the source. inHierarchy reports whether a vendor has already been seen;
// only then can a line open the device-class section.
func Classify(raw string, offset int, inHierarchy bool) (Line, error) {
	body, terminated := trimTerminator(raw)
	line := Line{Offset: offset, ContentOffset: offset, Terminated: terminated}

	switch {
	case body == "":
		line.Kind = KindBlank
		return line, nil
	case body[0] == '#':
		line.Kind = KindComment
		return line, nil
	case inHierarchy && isUpper(body[0]) && !startsWithHexID(body):
		line.Kind = KindClassSection
		return line, nil
	}

	level := 0
	for level < len(body) && body[level] == '\t' {
		level++
	}
	if level > maxLevel {
		return line, failf(ErrMalformedIndent, "%d leading tabs, want at most %d", level, maxLevel)
	}

	line.Kind = KindEntry
	line.Level = level
	line.ContentOffset = offset + level
	line.Content = body[level:]
	return line, nil
}

// trimTerminator removes a trailing "\n" or "\r\n".
func trimTerminator(raw string) (string, bool) {
	body, ok := strings.CutSuffix(raw, "\n")
	if !ok {
		return raw, false
	}
	return strings.TrimSuffix(body, "\r"), true
}

func isUpper(c byte) bool { return 'A' <= c && c <= 'Z' }

// startsWithHexID reports whether s opens with a 4-hex-digit token, which
// marks an upper-case vendor ID rather than a class header such as "C 00".
func startsWithHexID(s string) bool {
	if len(s) < 4 || !textutil.IsHexID(s[:4]) {
		return false
	}
	return len(s) == 4 || s[4] == ' ' || s[4] == '\t'
}
