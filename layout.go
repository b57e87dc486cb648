package etext

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/bidi"

	"github.com/gogpu/etext/font"
)

// ErrUnsupportedDirection is returned for text whose base direction is
// right-to-left. Shaping runs left-to-right only; rejecting RTL input
// beats rendering it scrambled.
var ErrUnsupportedDirection = errors.New("etext: right-to-left text is not supported")

// positionedGlyph is one glyph with its absolute baseline pen position
// in window pixels.
type positionedGlyph struct {
	gid  font.GlyphID
	x, y float64
}

// layoutLine is one wrapped line of shaped glyphs, positioned relative
// to the line's own origin.
type layoutLine struct {
	glyphs []font.ShapedGlyph
	width  float64
}

// layoutArea shapes and wraps an area's text into absolutely positioned
// glyphs: greedy word wrap to the area width, the block centered
// horizontally and vertically inside the area rectangle.
func layoutArea(shaper *font.Shaper, src *font.Source, area *TextArea) ([]positionedGlyph, error) {
	if area.Text == "" || area.Size <= 0 {
		return nil, nil
	}
	if err := checkDirection(area.Text); err != nil {
		return nil, err
	}

	factor := area.LineHeightFactor
	if factor == 0 {
		factor = 1.0
	}
	lineHeight := area.Size * factor

	var lines []layoutLine
	for _, paragraph := range strings.Split(area.Text, "\n") {
		lines = append(lines, wrapParagraph(shaper, src, paragraph, area.Size, area.Width)...)
	}
	if len(lines) == 0 {
		return nil, nil
	}

	metrics := src.Metrics(area.Size)

	// Vertical middle alignment: center the block of lines, then place
	// each baseline an ascent below its line top.
	blockHeight := float64(len(lines)) * lineHeight
	top := area.Y + (area.Height-blockHeight)/2 + area.TopOffset

	var out []positionedGlyph
	for i, line := range lines {
		baseline := top + float64(i)*lineHeight + (lineHeight-metrics.Ascent-metrics.Descent)/2 + metrics.Ascent
		pen := area.X + (area.Width-line.width)/2 + area.LeftOffset
		for _, g := range line.glyphs {
			out = append(out, positionedGlyph{
				gid: g.GID,
				x:   pen + g.XOffset,
				y:   baseline - g.YOffset,
			})
			pen += g.XAdvance
		}
	}
	return out, nil
}

// wrapParagraph greedily packs whitespace-separated words into lines no
// wider than maxWidth. A word wider than the area gets a line of its
// own and is clipped later rather than broken mid-word. An empty
// paragraph still yields one empty line so blank lines keep their
// vertical space.
func wrapParagraph(shaper *font.Shaper, src *font.Source, text string, size, maxWidth float64) []layoutLine {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []layoutLine{{}}
	}

	spaceAdvance := shapedWidth(shaper.Shape(src, " ", size))

	var lines []layoutLine
	var current layoutLine
	for _, word := range words {
		glyphs := shaper.Shape(src, word, size)
		width := shapedWidth(glyphs)

		switch {
		case len(current.glyphs) == 0:
			current = layoutLine{glyphs: glyphs, width: width}
		case current.width+spaceAdvance+width <= maxWidth:
			current.glyphs = append(current.glyphs, font.ShapedGlyph{
				GID:      src.GlyphIndex(' '),
				XAdvance: spaceAdvance,
			})
			current.glyphs = append(current.glyphs, glyphs...)
			current.width += spaceAdvance + width
		default:
			lines = append(lines, current)
			current = layoutLine{glyphs: glyphs, width: width}
		}
	}
	return append(lines, current)
}

// shapedWidth sums the advances of a shaped run.
func shapedWidth(glyphs []font.ShapedGlyph) float64 {
	var w float64
	for _, g := range glyphs {
		w += g.XAdvance
	}
	return w
}

// checkDirection rejects text whose bidi base direction resolves to
// right-to-left.
func checkDirection(text string) error {
	p := bidi.Paragraph{}
	if _, err := p.SetString(text); err != nil {
		return ErrUnsupportedDirection
	}
	if !p.IsLeftToRight() {
		return ErrUnsupportedDirection
	}
	return nil
}
