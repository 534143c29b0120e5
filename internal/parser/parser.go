package parser

import (
	"fmt"
	"os"
	"strings"

	"hwids/internal/textutil"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Option configures a Parser.
type Option func(*Parser)

// WithStopVendor makes a vendor line carrying id end the pass before the
// vendor is recorded. Matching ignores letter case and a "0x" prefix. An
// empty id disables it.
func WithStopVendor(id string) Option {
	return func(p *Parser) { p.stopVendor = textutil.StripHexPrefix(strings.TrimSpace(id)) }
}

// WithLogger sets the logger used for parse diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// Parser walks a pci.ids style database. It holds configuration only; every
// Parse call owns its own state and output, so one Parser may be reused.
type Parser struct {
	stopVendor string
	logger     zerolog.Logger
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{logger: log.Logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile reads the whole database file and parses it.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read database: %w", err)
	}
	return p.Parse(data)
}

// walk is the state of a single pass.
type walk struct {
	p          *Parser
	vendors    []Vendor
	current    *Vendor
	subsystems int
}

// Parse walks src line by line. It stops without error at the device-class
// section or the sentinel vendor, and fails on the first format violation.
func (p *Parser) Parse(src []byte) (*ParseResult, error) {
	text := string(src)
	w := &walk{p: p}
	res := &ParseResult{source: text, stop: StopEOF}

	cursor := 0
	lineNum := 0
	for cursor < len(text) {
		raw := text[cursor:]
		if nl := strings.IndexByte(raw, '\n'); nl >= 0 {
			raw = raw[:nl+1]
		}
		lineNum++

		line, err := Classify(raw, cursor, len(w.vendors) > 0)
		if err != nil {
			return nil, at(err, lineNum, raw)
		}

		stop := false
		switch line.Kind {
		case KindBlank, KindComment:
		case KindClassSection:
			res.stop = StopClassSection
			stop = true
		case KindEntry:
			if !line.Terminated {
				return nil, at(failf(ErrTruncatedInput, "entry has no line terminator"), lineNum, raw)
			}
			stop, err = w.entry(line, lineNum)
			if err != nil {
				return nil, at(err, lineNum, raw)
			}
			if stop {
				res.stop = StopSentinel
			}
		}
		if stop {
			res.stopLine = lineNum
			break
		}
		cursor += len(raw)
	}

	res.vendors = w.vendors
	res.consumed = cursor
	res.subsystems = w.subsystems

	p.logger.Debug().
		Int("vendors", res.VendorCount()).
		Int("devices", res.DeviceCount()).
		Int("subsystems", res.subsystems).
		Int("consumed", res.consumed).
		Str("stop", res.stop.String()).
		Msg("Parsed database")

	return res, nil
}

// entry applies one indented entry to the walk state. It reports true when
// the sentinel vendor ends the pass.
func (w *walk) entry(line Line, lineNum int) (bool, error) {
	switch line.Level {
	case 0:
		f, err := tokenizeVendor(line.Content)
		if err != nil {
			return false, err
		}
		if w.p.stopVendor != "" && strings.EqualFold(f.id, w.p.stopVendor) {
			return true, nil
		}
		w.vendors = append(w.vendors, Vendor{
			ID:     f.id,
			Name:   f.name,
			Offset: line.Offset,
			Line:   lineNum,
		})
		w.current = &w.vendors[len(w.vendors)-1]

	case 1:
		if w.current == nil {
			return false, failf(ErrOrphanDevice, "device entry before any vendor")
		}
		f, err := tokenizeDevice(line.Content)
		if err != nil {
			return false, err
		}
		w.current.Devices = append(w.current.Devices, Device{
			ID:          f.id,
			RawName:     f.rawName,
			DisplayName: DisplayName(f.rawName),
			Line:        lineNum,
		})

	case 2:
		if w.current == nil {
			return false, failf(ErrOrphanDevice, "subsystem entry before any vendor")
		}
		if _, err := tokenizeSubsystem(line.Content); err != nil {
			return false, err
		}
		w.subsystems++

	default:
		return false, failf(ErrMalformedIndent, "indent level %d", line.Level)
	}
	return false, nil
}
