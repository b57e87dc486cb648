package etext

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/etext/font"
)

func testSource(t *testing.T) *font.Source {
	t.Helper()
	src, err := font.NewSource(goregular.TTF)
	if err != nil {
		t.Fatalf("NewSource(goregular) failed: %v", err)
	}
	return src
}

func TestLayoutAreaEmpty(t *testing.T) {
	src := testSource(t)
	shaper := font.NewShaper()

	area := &TextArea{Width: 200, Height: 100, Size: 16}
	glyphs, err := layoutArea(shaper, src, area)
	if err != nil {
		t.Fatalf("layoutArea failed: %v", err)
	}
	if glyphs != nil {
		t.Errorf("expected nil glyphs for empty text, got %d", len(glyphs))
	}
}

func TestLayoutAreaSingleLine(t *testing.T) {
	src := testSource(t)
	shaper := font.NewShaper()

	area := &TextArea{X: 10, Y: 20, Width: 400, Height: 100, Text: "Hello", Size: 24}
	glyphs, err := layoutArea(shaper, src, area)
	if err != nil {
		t.Fatalf("layoutArea failed: %v", err)
	}
	if len(glyphs) != 5 {
		t.Fatalf("expected 5 glyphs, got %d", len(glyphs))
	}

	// One line: all glyphs share a baseline inside the area.
	baseline := glyphs[0].y
	for i, g := range glyphs {
		if g.y != baseline {
			t.Errorf("glyph %d baseline = %f, want %f", i, g.y, baseline)
		}
	}
	if baseline <= area.Y || baseline >= area.Y+area.Height {
		t.Errorf("baseline %f outside area [%f, %f]", baseline, area.Y, area.Y+area.Height)
	}

	// Pen advances monotonically.
	for i := 1; i < len(glyphs); i++ {
		if glyphs[i].x <= glyphs[i-1].x {
			t.Errorf("glyph %d x = %f, not right of %f", i, glyphs[i].x, glyphs[i-1].x)
		}
	}
}

func TestLayoutAreaCentersHorizontally(t *testing.T) {
	src := testSource(t)
	shaper := font.NewShaper()

	area := &TextArea{X: 0, Y: 0, Width: 400, Height: 100, Text: "Hi", Size: 24}
	glyphs, err := layoutArea(shaper, src, area)
	if err != nil {
		t.Fatalf("layoutArea failed: %v", err)
	}
	if len(glyphs) == 0 {
		t.Fatal("expected glyphs")
	}

	lineWidth := shapedWidth(shaper.Shape(src, "Hi", 24))
	leftMargin := glyphs[0].x - area.X
	rightMargin := (area.X + area.Width) - (glyphs[0].x + lineWidth)
	if math.Abs(leftMargin-rightMargin) > 0.01 {
		t.Errorf("margins not equal: left %f, right %f", leftMargin, rightMargin)
	}
	if leftMargin <= 0 {
		t.Errorf("expected positive left margin, got %f", leftMargin)
	}
}

func TestLayoutAreaWraps(t *testing.T) {
	src := testSource(t)
	shaper := font.NewShaper()

	area := &TextArea{Width: 120, Height: 400, Text: "the quick brown fox jumps over", Size: 20}
	glyphs, err := layoutArea(shaper, src, area)
	if err != nil {
		t.Fatalf("layoutArea failed: %v", err)
	}

	baselines := map[float64]bool{}
	for _, g := range glyphs {
		baselines[g.y] = true
	}
	if len(baselines) < 2 {
		t.Errorf("expected wrapping onto multiple lines, got %d baseline(s)", len(baselines))
	}

	// Every line stays within the area width.
	for _, g := range glyphs {
		if g.x < area.X {
			t.Errorf("glyph pen %f left of area", g.x)
		}
	}
}

func TestLayoutAreaNewlines(t *testing.T) {
	src := testSource(t)
	shaper := font.NewShaper()

	area := &TextArea{Width: 400, Height: 400, Text: "a\nb", Size: 20}
	glyphs, err := layoutArea(shaper, src, area)
	if err != nil {
		t.Fatalf("layoutArea failed: %v", err)
	}
	if len(glyphs) != 2 {
		t.Fatalf("expected 2 glyphs, got %d", len(glyphs))
	}
	gap := glyphs[1].y - glyphs[0].y
	if math.Abs(gap-20) > 0.01 {
		t.Errorf("baseline gap = %f, want 20 (size * factor 1.0)", gap)
	}
}

func TestLayoutAreaBlankLineKeepsSpace(t *testing.T) {
	src := testSource(t)
	shaper := font.NewShaper()

	area := &TextArea{Width: 400, Height: 400, Text: "a\n\nb", Size: 20}
	glyphs, err := layoutArea(shaper, src, area)
	if err != nil {
		t.Fatalf("layoutArea failed: %v", err)
	}
	if len(glyphs) != 2 {
		t.Fatalf("expected 2 glyphs, got %d", len(glyphs))
	}
	gap := glyphs[1].y - glyphs[0].y
	if math.Abs(gap-40) > 0.01 {
		t.Errorf("baseline gap across blank line = %f, want 40", gap)
	}
}

func TestLayoutAreaLineHeightFactor(t *testing.T) {
	src := testSource(t)
	shaper := font.NewShaper()

	area := &TextArea{Width: 400, Height: 400, Text: "a\nb", Size: 20, LineHeightFactor: 1.5}
	glyphs, err := layoutArea(shaper, src, area)
	if err != nil {
		t.Fatalf("layoutArea failed: %v", err)
	}
	gap := glyphs[1].y - glyphs[0].y
	if math.Abs(gap-30) > 0.01 {
		t.Errorf("baseline gap = %f, want 30 (20 * 1.5)", gap)
	}
}

func TestLayoutAreaOffsets(t *testing.T) {
	src := testSource(t)
	shaper := font.NewShaper()

	base := &TextArea{Width: 400, Height: 100, Text: "x", Size: 20}
	baseGlyphs, err := layoutArea(shaper, src, base)
	if err != nil {
		t.Fatalf("layoutArea failed: %v", err)
	}

	shifted := *base
	shifted.TopOffset = 7
	shifted.LeftOffset = -3
	shiftedGlyphs, err := layoutArea(shaper, src, &shifted)
	if err != nil {
		t.Fatalf("layoutArea failed: %v", err)
	}

	if got := shiftedGlyphs[0].x - baseGlyphs[0].x; math.Abs(got+3) > 0.01 {
		t.Errorf("left offset shifted x by %f, want -3", got)
	}
	if got := shiftedGlyphs[0].y - baseGlyphs[0].y; math.Abs(got-7) > 0.01 {
		t.Errorf("top offset shifted y by %f, want 7", got)
	}
}

func TestLayoutAreaRejectsRTL(t *testing.T) {
	src := testSource(t)
	shaper := font.NewShaper()

	area := &TextArea{Width: 400, Height: 100, Text: "שלום", Size: 20}
	_, err := layoutArea(shaper, src, area)
	if !errors.Is(err, ErrUnsupportedDirection) {
		t.Errorf("expected ErrUnsupportedDirection, got %v", err)
	}
}

func TestWrapParagraphLongWord(t *testing.T) {
	src := testSource(t)
	shaper := font.NewShaper()

	// A word wider than the area occupies its own line unbroken.
	lines := wrapParagraph(shaper, src, "a incomprehensibilities b", 20, 60)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[1].width <= 60 {
		t.Errorf("long word line width = %f, expected wider than area", lines[1].width)
	}
}

func TestWrapParagraphEmpty(t *testing.T) {
	src := testSource(t)
	shaper := font.NewShaper()

	lines := wrapParagraph(shaper, src, "   ", 20, 100)
	if len(lines) != 1 {
		t.Fatalf("expected 1 empty line, got %d", len(lines))
	}
	if len(lines[0].glyphs) != 0 {
		t.Errorf("expected no glyphs on blank line, got %d", len(lines[0].glyphs))
	}
}
