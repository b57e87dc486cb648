package font

import (
	"sync"

	"github.com/go-text/typesetting/di"
	otfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
)

// ShapedGlyph is one glyph of shaper output, positioned relative to the
// pen. Offsets are fine-grained adjustments on top of the pen position;
// the advance moves the pen after the glyph.
type ShapedGlyph struct {
	// GID is the glyph ID in the font.
	GID GlyphID

	// Cluster is the byte offset in the original string of the first
	// rune that produced this glyph. Ligatures share a cluster.
	Cluster int

	// XOffset and YOffset adjust the glyph's draw position.
	XOffset float64
	YOffset float64

	// XAdvance is the horizontal pen advance for this glyph.
	XAdvance float64
}

// Shaper converts strings into glyph sequences with HarfBuzz shaping via
// go-text/typesetting: ligatures, kerning pairs and contextual alternates
// all resolve to the glyph IDs the rasterizer consumes.
//
// Shaper is safe for concurrent use; the underlying HarfbuzzShaper
// instances carry mutable state and are pooled per call.
type Shaper struct {
	pool sync.Pool
}

// NewShaper creates a new Shaper.
func NewShaper() *Shaper {
	return &Shaper{
		pool: sync.Pool{
			New: func() any {
				return &shaping.HarfbuzzShaper{}
			},
		},
	}
}

// Shape shapes text left-to-right at the given pixel size.
// The result references glyph IDs of src; callers pass them to the
// atlas cache and the Rasterizer.
func (s *Shaper) Shape(src *Source, text string, ppem float64) []ShapedGlyph {
	if text == "" || src == nil {
		return nil
	}

	runes := []rune(text)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      otfont.NewFace(src.shape),
		Size:      floatToFixed(ppem),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	s.pool.Put(hb)

	if len(output.Glyphs) == 0 {
		return nil
	}

	result := make([]ShapedGlyph, len(output.Glyphs))
	for i, g := range output.Glyphs {
		result[i] = ShapedGlyph{
			GID:      GlyphID(g.GlyphID),
			Cluster:  g.ClusterIndex,
			XOffset:  fixedToFloat(g.XOffset),
			YOffset:  fixedToFloat(g.YOffset),
			XAdvance: fixedToFloat(g.XAdvance),
		}
	}
	return result
}

// detectScript returns the script of the first non-space rune.
// Mixed-script text should be split into runs before shaping.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
