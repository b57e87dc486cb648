package etext

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/etext/atlas"
	"github.com/gogpu/etext/font"
	"github.com/gogpu/etext/gpu"
)

// buildAreaQuads lays out an area's text and resolves every visible
// glyph through the atlas cache into a clipped, UV-normalized quad.
//
// Per-glyph failures (missing glyph, atlas overflow) skip that glyph
// and continue; the rest of the area still renders.
func (r *TextRenderer) buildAreaQuads(s *areaState) error {
	s.quads = s.quads[:0]

	src, ok := r.fonts[s.area.Font]
	if !ok {
		return fmt.Errorf("%w: font %d", ErrFontNotRegistered, s.area.Font)
	}

	// The cache keys on integer pixels per em; laying out at the same
	// quantized size keeps advances consistent with the rasterized
	// bitmaps.
	ppem := uint16(math.Round(s.area.Size))
	if ppem == 0 {
		return nil
	}
	area := s.area
	area.Size = float64(ppem)

	glyphs, err := layoutArea(r.shaper, src, &area)
	if err != nil {
		return err
	}

	atlasW, atlasH := r.atlas.Capacity()

	for _, pg := range glyphs {
		key := atlas.Key{Font: area.Font, Glyph: pg.gid, PPEM: ppem}
		placement, err := r.atlas.GetOrInsert(key)
		if err != nil {
			if errors.Is(err, font.ErrGlyphNotFound) || errors.Is(err, atlas.ErrAtlasOverflow) {
				r.skipped++
				Logger().Debug("etext: skipping glyph",
					"glyph", uint16(pg.gid), "ppem", ppem, "error", err)
				continue
			}
			return err
		}
		if placement.Region.IsZero() {
			continue
		}

		// A grow mid-build resizes the UV denominator.
		if w, h := r.atlas.Capacity(); w != atlasW || h != atlasH {
			atlasW, atlasH = w, h
		}

		quad, ok := makeGlyphQuad(pg, placement, &area, atlasW, atlasH)
		if !ok {
			continue
		}
		s.quads = append(s.quads, quad)
	}
	return nil
}

// makeGlyphQuad positions a glyph's bitmap against its baseline pen
// position and clips the result to the area rectangle, trimming UVs
// proportionally. Returns false when the glyph is fully outside.
func makeGlyphQuad(pg positionedGlyph, p atlas.Placement, area *TextArea, atlasW, atlasH int) (gpu.Quad, bool) {
	x0 := pg.x + float64(p.BearingX)
	y0 := pg.y - float64(p.BearingY)
	x1 := x0 + float64(p.Region.Width)
	y1 := y0 + float64(p.Region.Height)

	clipX0 := math.Max(x0, area.X)
	clipY0 := math.Max(y0, area.Y)
	clipX1 := math.Min(x1, area.X+area.Width)
	clipY1 := math.Min(y1, area.Y+area.Height)
	if clipX0 >= clipX1 || clipY0 >= clipY1 {
		return gpu.Quad{}, false
	}

	// Texel coordinates of the visible sub-rectangle.
	u0 := float64(p.Region.X) + (clipX0 - x0)
	v0 := float64(p.Region.Y) + (clipY0 - y0)
	u1 := float64(p.Region.X) + float64(p.Region.Width) - (x1 - clipX1)
	v1 := float64(p.Region.Y) + float64(p.Region.Height) - (y1 - clipY1)

	return gpu.Quad{
		X0: float32(clipX0), Y0: float32(clipY0),
		X1: float32(clipX1), Y1: float32(clipY1),
		U0: float32(u0 / float64(atlasW)), V0: float32(v0 / float64(atlasH)),
		U1: float32(u1 / float64(atlasW)), V1: float32(v1 / float64(atlasH)),
	}, true
}
