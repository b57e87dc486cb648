// Package font provides font parsing, HarfBuzz shaping and glyph
// rasterization for etext. A Source owns one parsed font file; the
// Shaper turns strings into glyph sequences and the Rasterizer turns
// glyph IDs into coverage bitmaps ready for atlas upload.
package font

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	otfont "github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Font-related errors.
var (
	// ErrEmptyFont is returned when font data is empty.
	ErrEmptyFont = errors.New("font: empty font data")
)

// ID uniquely identifies a Source within a process.
// IDs are assigned from a monotonically increasing counter and are never
// reused, so an ID can safely key long-lived caches.
type ID uint64

// GlyphID is a glyph index within a font, as assigned by the font file.
// It is not a character code: shaping may map several runes to one glyph
// (ligatures) or one rune to several.
type GlyphID uint16

// nextSourceID assigns unique IDs to new sources.
var nextSourceID atomic.Uint64

// Source is a parsed font file. It is the heavyweight object: parse once,
// share across faces and renderers.
//
// The same data is parsed twice on purpose: sfnt drives metrics and
// outline rasterization, go-text/typesetting drives HarfBuzz shaping.
// Both address glyphs by the font file's glyph IDs, so results from one
// are valid inputs to the other.
//
// Source is safe for concurrent read access.
type Source struct {
	id   ID
	data []byte
	name string

	sfnt  *sfnt.Font
	shape *otfont.Font
}

// NewSource parses TTF or OTF font data.
func NewSource(data []byte) (*Source, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFont
	}

	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("font: failed to parse font: %w", err)
	}

	otFace, err := otfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("font: failed to parse font for shaping: %w", err)
	}

	s := &Source{
		id:    ID(nextSourceID.Add(1)),
		data:  data,
		sfnt:  sf,
		shape: otFace.Font,
	}

	var buf sfnt.Buffer
	if name, err := sf.Name(&buf, sfnt.NameIDFamily); err == nil {
		s.name = name
	}

	return s, nil
}

// NewSourceFromFile reads and parses a font file from disk.
func NewSourceFromFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("font: failed to read font file: %w", err)
	}
	return NewSource(data)
}

// ID returns the unique identifier of this source.
func (s *Source) ID() ID { return s.id }

// Name returns the font family name, or an empty string if unavailable.
func (s *Source) Name() string { return s.name }

// NumGlyphs returns the number of glyphs in the font.
func (s *Source) NumGlyphs() int { return s.sfnt.NumGlyphs() }

// GlyphIndex returns the glyph ID for a rune, or 0 (.notdef) if the font
// has no mapping for it.
func (s *Source) GlyphIndex(r rune) GlyphID {
	var buf sfnt.Buffer
	gid, err := s.sfnt.GlyphIndex(&buf, r)
	if err != nil {
		return 0
	}
	return GlyphID(gid)
}

// Metrics holds font-wide vertical metrics at a specific pixel size.
type Metrics struct {
	// Ascent is the distance from the baseline to the top of the font.
	Ascent float64

	// Descent is the distance from the baseline to the bottom of the
	// font, as a positive value.
	Descent float64

	// LineHeight is the recommended baseline-to-baseline distance.
	LineHeight float64
}

// Metrics returns the font metrics at the given pixel-per-em size.
func (s *Source) Metrics(ppem float64) Metrics {
	var buf sfnt.Buffer
	m, err := s.sfnt.Metrics(&buf, fixed.Int26_6(ppem*64), xfont.HintingNone)
	if err != nil {
		return Metrics{}
	}
	return Metrics{
		Ascent:     fixedToFloat(m.Ascent),
		Descent:    fixedToFloat(m.Descent),
		LineHeight: fixedToFloat(m.Height),
	}
}

// fixedToFloat converts a fixed.Int26_6 value to float64.
func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}

// floatToFixed converts a float64 to fixed.Int26_6.
func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
