package font

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// ErrGlyphNotFound is returned when a glyph ID does not exist in the font
// or its outline cannot be loaded. Callers may recover by substituting a
// fallback glyph (commonly glyph 0, .notdef).
var ErrGlyphNotFound = errors.New("font: glyph not found")

// Bitmap is a rasterized glyph: a row-major 8-bit coverage mask plus the
// metrics needed to place it relative to a text baseline.
//
// Whitespace glyphs rasterize to a zero-size bitmap with a real advance.
type Bitmap struct {
	// Pix holds Width*Height coverage samples, row-major, no padding.
	Pix []byte

	// Width and Height are the mask dimensions in pixels.
	Width  int
	Height int

	// BearingX is the horizontal offset from the pen position to the
	// left edge of the mask.
	BearingX int

	// BearingY is the distance from the baseline up to the top edge of
	// the mask (positive above the baseline).
	BearingY int

	// Advance is the horizontal pen advance after this glyph.
	Advance float64
}

// IsEmpty reports whether the bitmap has no visible texels.
func (b *Bitmap) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Rasterizer converts glyph outlines into coverage bitmaps using
// golang.org/x/image/vector. It is a pure transformation: it performs no
// caching of its own (the atlas cache owns that concern).
//
// A Rasterizer reuses internal buffers across calls and is not safe for
// concurrent use. The render loop is the intended single caller.
type Rasterizer struct {
	buf sfnt.Buffer
	ras vector.Rasterizer
}

// NewRasterizer creates a reusable glyph rasterizer.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{}
}

// Rasterize renders the glyph with the given ID at the given pixel size.
func (r *Rasterizer) Rasterize(src *Source, gid GlyphID, ppem float64) (*Bitmap, error) {
	if int(gid) >= src.NumGlyphs() {
		return nil, fmt.Errorf("%w: glyph %d of %d in %q",
			ErrGlyphNotFound, gid, src.NumGlyphs(), src.Name())
	}

	size := floatToFixed(ppem)

	segments, err := src.sfnt.LoadGlyph(&r.buf, sfnt.GlyphIndex(gid), size, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: glyph %d: %v", ErrGlyphNotFound, gid, err)
	}

	advance, err := src.sfnt.GlyphAdvance(&r.buf, sfnt.GlyphIndex(gid), size, xfont.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("%w: glyph %d: %v", ErrGlyphNotFound, gid, err)
	}

	bitmap := &Bitmap{Advance: fixedToFloat(advance)}

	// Whitespace and other blank glyphs have no outline.
	if len(segments) == 0 {
		return bitmap, nil
	}

	// Outline coordinates are y-down with the pen at the origin, so
	// Min.Y is negative for glyphs that rise above the baseline.
	bounds := segments.Bounds()
	minX := floorFixed(bounds.Min.X)
	minY := floorFixed(bounds.Min.Y)
	maxX := ceilFixed(bounds.Max.X)
	maxY := ceilFixed(bounds.Max.Y)

	width := maxX - minX
	height := maxY - minY
	if width <= 0 || height <= 0 {
		return bitmap, nil
	}

	// The vector rasterizer wants coordinates in the positive quadrant,
	// so the outline is shifted by the floored minimum while tracing.
	offX := -fixed.I(minX)
	offY := -fixed.I(minY)

	r.ras.Reset(width, height)
	r.ras.DrawOp = draw.Src
	traceSegments(&r.ras, segments, offX, offY)

	mask := image.NewAlpha(image.Rect(0, 0, width, height))
	r.ras.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	bitmap.Pix = mask.Pix
	bitmap.Width = width
	bitmap.Height = height
	bitmap.BearingX = minX
	bitmap.BearingY = -minY
	return bitmap, nil
}

// traceSegments feeds a glyph outline into the vector rasterizer,
// translated by (offX, offY).
func traceSegments(ras *vector.Rasterizer, segments sfnt.Segments, offX, offY fixed.Int26_6) {
	point := func(p fixed.Point26_6) (float32, float32) {
		return float32(p.X+offX) / 64, float32(p.Y+offY) / 64
	}
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			x, y := point(seg.Args[0])
			ras.MoveTo(x, y)
		case sfnt.SegmentOpLineTo:
			x, y := point(seg.Args[0])
			ras.LineTo(x, y)
		case sfnt.SegmentOpQuadTo:
			cx, cy := point(seg.Args[0])
			x, y := point(seg.Args[1])
			ras.QuadTo(cx, cy, x, y)
		case sfnt.SegmentOpCubeTo:
			c0x, c0y := point(seg.Args[0])
			c1x, c1y := point(seg.Args[1])
			x, y := point(seg.Args[2])
			ras.CubeTo(c0x, c0y, c1x, c1y, x, y)
		}
	}
	ras.ClosePath()
}

// floorFixed converts fixed.Int26_6 to the largest integer pixel <= v.
func floorFixed(v fixed.Int26_6) int {
	return int(v >> 6)
}

// ceilFixed converts fixed.Int26_6 to the smallest integer pixel >= v.
func ceilFixed(v fixed.Int26_6) int {
	return int((v + 63) >> 6)
}
