package etext

import (
	"github.com/gogpu/etext/font"
	"github.com/gogpu/etext/gpu"
)

// TextArea is a rectangular region of the window filled with laid-out
// text. Lines wrap to the area width, the block is centered both
// horizontally and vertically, and glyphs falling outside the rectangle
// are clipped.
type TextArea struct {
	// X, Y is the top-left corner of the area in window pixels.
	X, Y float64

	// Width, Height are the area dimensions in pixels.
	Width, Height float64

	// Text is the content. Newlines force line breaks; anything longer
	// than the area width wraps at word boundaries.
	Text string

	// Font selects a registered font source.
	Font font.ID

	// Size is the text size in pixels per em.
	Size float64

	// LineHeightFactor scales the baseline-to-baseline distance,
	// relative to Size. Zero means 1.0.
	LineHeightFactor float64

	// TopOffset and LeftOffset nudge the laid-out block from its
	// centered position, in pixels.
	TopOffset, LeftOffset float64
}

// AreaHandle identifies a text area owned by a TextRenderer. Handles
// are never reused within a renderer.
type AreaHandle uint32

// areaState pairs a TextArea with its cached layout output. quads are
// rebuilt lazily when the area is dirty or atlas placements went stale.
type areaState struct {
	area  TextArea
	dirty bool
	quads []gpu.Quad
}

// AddTextArea registers a text area and returns its handle. The area is
// laid out on the next Render.
func (r *TextRenderer) AddTextArea(area TextArea) AreaHandle {
	r.nextHandle++
	h := r.nextHandle
	r.areas[h] = &areaState{area: area, dirty: true}
	r.order = append(r.order, h)
	return h
}

// RemoveTextArea deletes a text area. Removing an unknown handle is a
// no-op.
func (r *TextRenderer) RemoveTextArea(h AreaHandle) {
	if _, ok := r.areas[h]; !ok {
		return
	}
	delete(r.areas, h)
	for i, oh := range r.order {
		if oh == h {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Area returns a copy of the text area for h.
func (r *TextRenderer) Area(h AreaHandle) (TextArea, bool) {
	s, ok := r.areas[h]
	if !ok {
		return TextArea{}, false
	}
	return s.area, true
}

// SetArea replaces the text area for h and marks it for re-layout.
// Setting an unknown handle is a no-op and returns false.
func (r *TextRenderer) SetArea(h AreaHandle, area TextArea) bool {
	s, ok := r.areas[h]
	if !ok {
		return false
	}
	s.area = area
	s.dirty = true
	return true
}

// MutateArea applies fn to the text area for h and marks it for
// re-layout. Returns false for an unknown handle.
func (r *TextRenderer) MutateArea(h AreaHandle, fn func(*TextArea)) bool {
	s, ok := r.areas[h]
	if !ok {
		return false
	}
	fn(&s.area)
	s.dirty = true
	return true
}

// AreaCount returns the number of registered text areas.
func (r *TextRenderer) AreaCount() int { return len(r.areas) }

// markAllDirty forces re-layout of every area, used when placements go
// stale wholesale (atlas reset or repack).
func (r *TextRenderer) markAllDirty() {
	for _, s := range r.areas {
		s.dirty = true
	}
}
