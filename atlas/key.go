// Package atlas implements the glyph atlas cache: a bounded GPU texture
// treated as an LRU cache of rasterized glyph bitmaps. It decides which
// glyphs are resident, where each lives inside the shared texture, and
// when stale entries are evicted to make room for new insertions.
package atlas

import "github.com/gogpu/etext/font"

// Key identifies a cached rasterization unit. Two keys are equal exactly
// when all three fields are equal, so a Key is directly usable as a map
// key. A Key is immutable once constructed.
//
// The glyph field is a font glyph ID, not a character code: shaping may
// produce glyphs (ligatures, substitutions) that no single rune maps to.
type Key struct {
	// Font identifies the font source.
	Font font.ID

	// Glyph is the glyph ID within the font.
	Glyph font.GlyphID

	// PPEM is the integer pixel-per-em size of the rasterization.
	PPEM uint16
}

// Placement is the current home of a resident glyph: its region in the
// atlas texture plus the metrics needed to position the glyph against a
// text baseline. A Placement is never mutated after it is returned; it is
// either valid or evicted.
//
// Evictions can invalidate placements between lookups. Callers must not
// hold a Placement across frames without re-resolving through the cache,
// or must check Generation against Atlas.Generation before use.
type Placement struct {
	// Region is the glyph's area inside the atlas texture. A zero
	// region means the glyph has no visible texels (whitespace).
	Region Region

	// BearingX is the horizontal offset from pen to mask left edge.
	BearingX int

	// BearingY is the distance from baseline up to the mask top edge.
	BearingY int

	// Advance is the horizontal pen advance after this glyph.
	Advance float64

	// Generation is the atlas generation this placement was returned
	// under. It matches Atlas.Generation until the next eviction,
	// repack or reset.
	Generation uint64
}
