package gpu

import (
	"encoding/binary"
	"math"
	"testing"
)

func f32At(data []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
}

func TestBuildGlyphVertexData(t *testing.T) {
	quads := []Quad{
		{X0: 10, Y0: 20, X1: 30, Y1: 50, U0: 0.1, V0: 0.2, U1: 0.3, V1: 0.5},
	}

	data := buildGlyphVertexData(quads)

	// 1 quad * 6 vertices * 16 bytes = 96 bytes.
	if len(data) != 6*glyphVertexStride {
		t.Fatalf("expected %d bytes, got %d", 6*glyphVertexStride, len(data))
	}

	// Vertex 0: top-left corner with top-left UV.
	if got := f32At(data, 0); got != 10 {
		t.Errorf("v0.x = %f, want 10", got)
	}
	if got := f32At(data, 4); got != 20 {
		t.Errorf("v0.y = %f, want 20", got)
	}
	if got := f32At(data, 8); got != 0.1 {
		t.Errorf("v0.u = %f, want 0.1", got)
	}
	if got := f32At(data, 12); got != 0.2 {
		t.Errorf("v0.v = %f, want 0.2", got)
	}

	// Vertex 2 (end of first triangle): bottom-right corner.
	off := 2 * glyphVertexStride
	if got := f32At(data, off); got != 30 {
		t.Errorf("v2.x = %f, want 30", got)
	}
	if got := f32At(data, off+4); got != 50 {
		t.Errorf("v2.y = %f, want 50", got)
	}
	if got := f32At(data, off+8); got != 0.3 {
		t.Errorf("v2.u = %f, want 0.3", got)
	}
	if got := f32At(data, off+12); got != 0.5 {
		t.Errorf("v2.v = %f, want 0.5", got)
	}

	// Vertex 5 (end of second triangle): bottom-left corner.
	off = 5 * glyphVertexStride
	if got := f32At(data, off); got != 10 {
		t.Errorf("v5.x = %f, want 10", got)
	}
	if got := f32At(data, off+4); got != 50 {
		t.Errorf("v5.y = %f, want 50", got)
	}
}

func TestBuildGlyphVertexDataTriangleCorners(t *testing.T) {
	quads := []Quad{{X0: 0, Y0: 0, X1: 8, Y1: 8, U1: 1, V1: 1}}
	data := buildGlyphVertexData(quads)

	// Both triangles together must cover all four quad corners.
	corners := map[[2]float32]bool{}
	for v := 0; v < 6; v++ {
		off := v * glyphVertexStride
		corners[[2]float32{f32At(data, off), f32At(data, off+4)}] = true
	}
	for _, want := range [][2]float32{{0, 0}, {8, 0}, {8, 8}, {0, 8}} {
		if !corners[want] {
			t.Errorf("corner %v not covered by quad vertices", want)
		}
	}
	if len(corners) != 4 {
		t.Errorf("expected 4 distinct corners, got %d", len(corners))
	}
}

func TestBuildGlyphVertexDataEmpty(t *testing.T) {
	if data := buildGlyphVertexData(nil); len(data) != 0 {
		t.Errorf("expected 0 bytes for no quads, got %d", len(data))
	}
}

func TestBuildGlyphVertexDataMultipleQuads(t *testing.T) {
	quads := []Quad{
		{X0: 0, Y0: 0, X1: 10, Y1: 10},
		{X0: 100, Y0: 0, X1: 110, Y1: 10},
		{X0: 200, Y0: 0, X1: 210, Y1: 10},
	}

	data := buildGlyphVertexData(quads)
	if len(data) != 3*6*glyphVertexStride {
		t.Fatalf("expected %d bytes, got %d", 3*6*glyphVertexStride, len(data))
	}

	// First vertex of each quad carries that quad's X0.
	for i, q := range quads {
		off := i * 6 * glyphVertexStride
		if got := f32At(data, off); got != q.X0 {
			t.Errorf("quad %d: first vertex x = %f, want %f", i, got, q.X0)
		}
	}
}

func TestBuildBorderVertexData(t *testing.T) {
	borders := []Border{{X: 10, Y: 20, W: 100, H: 50}}

	data := buildBorderVertexData(borders)
	if len(data) != 4*lineVertexStride {
		t.Fatalf("expected %d bytes, got %d", 4*lineVertexStride, len(data))
	}

	want := [][2]float32{{10, 20}, {110, 20}, {110, 70}, {10, 70}}
	for i, w := range want {
		off := i * lineVertexStride
		if x, y := f32At(data, off), f32At(data, off+4); x != w[0] || y != w[1] {
			t.Errorf("corner %d = (%f, %f), want (%f, %f)", i, x, y, w[0], w[1])
		}
	}
}

func TestBuildBorderIndexData(t *testing.T) {
	data := buildBorderIndexData(2)

	// 2 rects * 8 indices * 2 bytes.
	if len(data) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(data))
	}

	want := []uint16{
		0, 1, 1, 2, 2, 3, 3, 0,
		4, 5, 5, 6, 6, 7, 7, 4,
	}
	for i, w := range want {
		got := binary.LittleEndian.Uint16(data[i*2:])
		if got != w {
			t.Errorf("index %d = %d, want %d", i, got, w)
		}
	}
}

func TestMakeFrameUniform(t *testing.T) {
	data := makeFrameUniform(800, 600, [4]float32{1, 0.5, 0, 1})

	if len(data) != frameUniformSize {
		t.Fatalf("expected %d bytes, got %d", frameUniformSize, len(data))
	}

	if w := binary.LittleEndian.Uint32(data[0:4]); w != 800 {
		t.Errorf("width = %d, want 800", w)
	}
	if h := binary.LittleEndian.Uint32(data[4:8]); h != 600 {
		t.Errorf("height = %d, want 600", h)
	}

	// Padding words stay zero.
	if p1, p2 := binary.LittleEndian.Uint32(data[8:12]), binary.LittleEndian.Uint32(data[12:16]); p1 != 0 || p2 != 0 {
		t.Errorf("expected zero padding, got %d, %d", p1, p2)
	}

	if r := f32At(data, 16); r != 1 {
		t.Errorf("color r = %f, want 1", r)
	}
	if g := f32At(data, 20); g != 0.5 {
		t.Errorf("color g = %f, want 0.5", g)
	}
	if a := f32At(data, 28); a != 1 {
		t.Errorf("color a = %f, want 1", a)
	}
}

func TestMakeFrameUniformPremultipliesAlpha(t *testing.T) {
	data := makeFrameUniform(100, 100, [4]float32{1, 0.8, 0.4, 0.5})

	if r := f32At(data, 16); r != 0.5 {
		t.Errorf("premultiplied r = %f, want 0.5", r)
	}
	if g := f32At(data, 20); g != 0.4 {
		t.Errorf("premultiplied g = %f, want 0.4", g)
	}
	if b := f32At(data, 24); b != 0.2 {
		t.Errorf("premultiplied b = %f, want 0.2", b)
	}
	if a := f32At(data, 28); a != 0.5 {
		t.Errorf("alpha = %f, want 0.5", a)
	}
}
