package font

import (
	"errors"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func testSource(t *testing.T) *Source {
	t.Helper()
	src, err := NewSource(goregular.TTF)
	if err != nil {
		t.Fatalf("NewSource() failed: %v", err)
	}
	return src
}

func TestRasterizer_Rasterize(t *testing.T) {
	src := testSource(t)
	r := NewRasterizer()

	gid := src.GlyphIndex('A')
	bitmap, err := r.Rasterize(src, gid, 32)
	if err != nil {
		t.Fatalf("Rasterize('A') failed: %v", err)
	}
	if bitmap.IsEmpty() {
		t.Fatal("'A' rasterized to an empty bitmap")
	}
	if len(bitmap.Pix) != bitmap.Width*bitmap.Height {
		t.Errorf("len(Pix) = %d, want %d", len(bitmap.Pix), bitmap.Width*bitmap.Height)
	}
	if bitmap.Advance <= 0 {
		t.Errorf("Advance = %v, want > 0", bitmap.Advance)
	}
	// 'A' sits on the baseline and rises above it.
	if bitmap.BearingY <= 0 {
		t.Errorf("BearingY = %d, want > 0", bitmap.BearingY)
	}

	// The mask has actual coverage somewhere.
	var max byte
	for _, p := range bitmap.Pix {
		if p > max {
			max = p
		}
	}
	if max < 128 {
		t.Errorf("max coverage = %d, want a mostly opaque stroke", max)
	}
}

func TestRasterizer_Whitespace(t *testing.T) {
	src := testSource(t)
	r := NewRasterizer()

	gid := src.GlyphIndex(' ')
	bitmap, err := r.Rasterize(src, gid, 32)
	if err != nil {
		t.Fatalf("Rasterize(' ') failed: %v", err)
	}
	if !bitmap.IsEmpty() {
		t.Errorf("space glyph bitmap = %dx%d, want empty", bitmap.Width, bitmap.Height)
	}
	if bitmap.Advance <= 0 {
		t.Errorf("space Advance = %v, want > 0", bitmap.Advance)
	}
}

func TestRasterizer_SizeScales(t *testing.T) {
	src := testSource(t)
	r := NewRasterizer()
	gid := src.GlyphIndex('M')

	small, err := r.Rasterize(src, gid, 12)
	if err != nil {
		t.Fatalf("Rasterize at 12px failed: %v", err)
	}
	large, err := r.Rasterize(src, gid, 48)
	if err != nil {
		t.Fatalf("Rasterize at 48px failed: %v", err)
	}
	if large.Width <= small.Width || large.Height <= small.Height {
		t.Errorf("48px glyph (%dx%d) not larger than 12px glyph (%dx%d)",
			large.Width, large.Height, small.Width, small.Height)
	}
	if large.Advance <= small.Advance {
		t.Errorf("48px advance %v not larger than 12px advance %v", large.Advance, small.Advance)
	}
}

func TestRasterizer_Descender(t *testing.T) {
	src := testSource(t)
	r := NewRasterizer()

	bitmap, err := r.Rasterize(src, src.GlyphIndex('g'), 32)
	if err != nil {
		t.Fatalf("Rasterize('g') failed: %v", err)
	}
	// 'g' extends below the baseline: the mask is taller than its rise.
	if bitmap.Height <= bitmap.BearingY {
		t.Errorf("'g' height %d does not extend below baseline (bearing %d)",
			bitmap.Height, bitmap.BearingY)
	}
}

func TestRasterizer_GlyphOutOfRange(t *testing.T) {
	src := testSource(t)
	r := NewRasterizer()

	_, err := r.Rasterize(src, GlyphID(src.NumGlyphs()), 16)
	if !errors.Is(err, ErrGlyphNotFound) {
		t.Errorf("Rasterize(out of range) error = %v, want ErrGlyphNotFound", err)
	}
}

func TestRasterizer_Reuse(t *testing.T) {
	src := testSource(t)
	r := NewRasterizer()

	// Rasterizing a large glyph then a small one must not leak stale
	// buffer content into the smaller mask dimensions.
	if _, err := r.Rasterize(src, src.GlyphIndex('W'), 64); err != nil {
		t.Fatalf("Rasterize('W') failed: %v", err)
	}
	small, err := r.Rasterize(src, src.GlyphIndex('.'), 12)
	if err != nil {
		t.Fatalf("Rasterize('.') failed: %v", err)
	}
	if len(small.Pix) != small.Width*small.Height {
		t.Errorf("len(Pix) = %d, want %d", len(small.Pix), small.Width*small.Height)
	}
}
