package nmea

import (
	"strconv"
)

// sentenceLimit is the maximum number of characters a valid sentence can
// span (sized for a full GGA sentence with headroom).
const sentenceLimit = 90

// Config controls parsing behavior. The zero value is usable: UTC times,
// ddm coordinate strings, and century 20 for two-digit RMC years.
type Config struct {
	// UTCOffsetHours shifts all parsed timestamps to a local offset,
	// e.g. -5.0 or 5.5. Applied modulo 24h.
	UTCOffsetHours float64

	// CoordFormat selects the style used by LatitudeString/LongitudeString.
	CoordFormat CoordFormat

	// Century supplies the century for two-digit RMC years until a ZDA
	// sentence provides a four-digit year.
	Century int
}

// Stats are monotonically increasing sentence counters. They are never
// reset for the lifetime of a Parser.
type Stats struct {
	// CleanSentences counts sentences that arrived with a valid checksum.
	CleanSentences uint64 `json:"clean_sentences"`
	// ParsedSentences counts sentences that were successfully decoded.
	ParsedSentences uint64 `json:"parsed_sentences"`
	// CRCFails counts well-formed checksums that did not match.
	CRCFails uint64 `json:"crc_fails"`
}

// Parser assembles NMEA sentences from a character stream and applies
// decoded sentences to its Fix state.
//
// It is not safe for concurrent use; a single reader must serialize
// calls to Update.
type Parser struct {
	fix Fix

	// segments holds the comma-split fields of the in-progress sentence.
	// Backing arrays are reused across sentences so steady-state parsing
	// does not allocate until a sentence completes.
	segments [][]byte
	active   int

	sentenceActive bool
	processCRC     bool
	crc            byte
	charCount      int

	stats Stats
}

// New returns a Parser with all fix data at defaults (no fix, DOPs
// infinite, zero position).
func New(cfg Config) *Parser {
	p := &Parser{
		segments: make([][]byte, 1, 24),
	}
	p.fix.init(cfg)
	return p
}

// Fix exposes the aggregate fix state updated by decoded sentences.
// The returned pointer stays valid for the Parser's lifetime.
func (p *Parser) Fix() *Fix { return &p.fix }

// Stats returns the current sentence counters.
func (p *Parser) Stats() Stats { return p.stats }

// Update consumes one input character. It returns the 5-character
// talker+message header (e.g. "GPGGA") and true on the exact character
// that completes a checksum-valid, successfully decoded sentence;
// otherwise it returns "", false.
//
// Bytes outside the printable range 10..126 are ignored entirely. A '$'
// always begins a fresh sentence, silently discarding any partial one.
// A sentence exceeding the length limit is abandoned without a result.
func (p *Parser) Update(c byte) (string, bool) {
	if c < 10 || c > 126 {
		return "", false
	}
	p.charCount++

	if c == '$' {
		p.newSentence()
		return "", false
	}
	if !p.sentenceActive {
		return "", false
	}

	valid := false
	switch c {
	case '*':
		// Checksum is now fixed; the next field collects its two hex digits.
		p.processCRC = false
		p.nextSegment()
		return "", false
	case ',':
		p.nextSegment()
	default:
		p.segments[p.active] = append(p.segments[p.active], c)

		if !p.processCRC && len(p.segments[p.active]) == 2 {
			want, err := strconv.ParseUint(string(p.segments[p.active]), 16, 8)
			switch {
			case err != nil:
				// Deformed checksum digits could never have matched;
				// drop the sentence without counting a CRC failure.
			case byte(want) == p.crc:
				valid = true
			default:
				p.stats.CRCFails++
			}
		}
	}

	if p.processCRC {
		p.crc ^= c
	}

	if valid {
		p.stats.CleanSentences++
		p.sentenceActive = false

		if header, ok := p.dispatch(); ok {
			p.stats.ParsedSentences++
			return header, true
		}
	}

	// Don't let garbage fill the buffer while waiting for a terminator.
	if p.charCount > sentenceLimit {
		p.sentenceActive = false
	}
	return "", false
}

// UpdateString feeds every byte of s through Update and returns the last
// completed sentence header, if any. Convenience for replaying captures.
func (p *Parser) UpdateString(s string) (string, bool) {
	header := ""
	done := false
	for i := 0; i < len(s); i++ {
		if h, ok := p.Update(s[i]); ok {
			header, done = h, true
		}
	}
	return header, done
}

func (p *Parser) newSentence() {
	p.segments = p.segments[:1]
	if p.segments[0] == nil {
		p.segments[0] = make([]byte, 0, 16)
	}
	p.segments[0] = p.segments[0][:0]
	p.active = 0
	p.sentenceActive = true
	p.processCRC = true
	p.crc = 0
	p.charCount = 0
}

func (p *Parser) nextSegment() {
	p.active++
	if p.active < cap(p.segments) {
		p.segments = p.segments[:p.active+1]
		if p.segments[p.active] == nil {
			p.segments[p.active] = make([]byte, 0, 16)
		}
		p.segments[p.active] = p.segments[p.active][:0]
	} else {
		p.segments = append(p.segments, make([]byte, 0, 16))
	}
}

// dispatch routes a checksum-valid sentence to its decoder. It returns
// the raw header and true only when the sentence type and talker are
// recognized and the decoder succeeded.
func (p *Parser) dispatch() (string, bool) {
	header := string(p.segments[0])
	if len(header) < 3 {
		return "", false
	}

	talker := normalizeTalker(header[:2])
	kind, ok := messageKindOf(header[2:])
	if !ok || !recognizedTalker(talker) {
		return "", false
	}

	fields := make([]string, len(p.segments))
	for i, s := range p.segments {
		fields[i] = string(s)
	}

	if !p.fix.decode(kind, talker, fields) {
		return "", false
	}
	return header, true
}
