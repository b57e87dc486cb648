package font

import (
	"errors"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func TestNewSource(t *testing.T) {
	src, err := NewSource(goregular.TTF)
	if err != nil {
		t.Fatalf("NewSource() failed: %v", err)
	}
	if src.NumGlyphs() == 0 {
		t.Error("NumGlyphs() = 0")
	}
	if src.Name() == "" {
		t.Error("Name() is empty for Go Regular")
	}
}

func TestNewSource_Empty(t *testing.T) {
	if _, err := NewSource(nil); !errors.Is(err, ErrEmptyFont) {
		t.Errorf("NewSource(nil) error = %v, want ErrEmptyFont", err)
	}
}

func TestNewSource_Garbage(t *testing.T) {
	if _, err := NewSource([]byte("not a font")); err == nil {
		t.Error("NewSource() on garbage should fail")
	}
}

func TestSource_UniqueIDs(t *testing.T) {
	a, err := NewSource(goregular.TTF)
	if err != nil {
		t.Fatalf("NewSource() failed: %v", err)
	}
	b, err := NewSource(goregular.TTF)
	if err != nil {
		t.Fatalf("NewSource() failed: %v", err)
	}
	if a.ID() == b.ID() {
		t.Errorf("two sources share ID %d", a.ID())
	}
}

func TestSource_GlyphIndex(t *testing.T) {
	src, err := NewSource(goregular.TTF)
	if err != nil {
		t.Fatalf("NewSource() failed: %v", err)
	}

	if gid := src.GlyphIndex('A'); gid == 0 {
		t.Error("GlyphIndex('A') = 0, want a real glyph")
	}
	// A codepoint Go Regular does not cover maps to .notdef.
	if gid := src.GlyphIndex('\U0001F600'); gid != 0 {
		t.Errorf("GlyphIndex(emoji) = %d, want 0", gid)
	}
}

func TestSource_Metrics(t *testing.T) {
	src, err := NewSource(goregular.TTF)
	if err != nil {
		t.Fatalf("NewSource() failed: %v", err)
	}

	m := src.Metrics(16)
	if m.Ascent <= 0 {
		t.Errorf("Ascent = %v, want > 0", m.Ascent)
	}
	if m.Descent <= 0 {
		t.Errorf("Descent = %v, want > 0", m.Descent)
	}
	if m.LineHeight < m.Ascent+m.Descent-1 {
		t.Errorf("LineHeight = %v, smaller than ascent+descent = %v",
			m.LineHeight, m.Ascent+m.Descent)
	}

	// Metrics scale with the pixel size.
	m2 := src.Metrics(32)
	if m2.Ascent <= m.Ascent {
		t.Errorf("Ascent at 32px (%v) not larger than at 16px (%v)", m2.Ascent, m.Ascent)
	}
}

func TestNewSourceFromFile_Missing(t *testing.T) {
	if _, err := NewSourceFromFile("/nonexistent/font.ttf"); err == nil {
		t.Error("NewSourceFromFile() on missing file should fail")
	}
}
