package atlas

import (
	"errors"
	"fmt"

	"github.com/gogpu/etext/font"
)

// Texture-related errors.
var (
	// ErrRegionOutOfBounds is returned when an upload region lies
	// outside the atlas surface.
	ErrRegionOutOfBounds = errors.New("atlas: region is outside atlas bounds")

	// ErrSizeMismatch is returned when a bitmap does not match the
	// region it is uploaded into.
	ErrSizeMismatch = errors.New("atlas: bitmap size does not match region")

	// ErrNilBitmap is returned when a nil bitmap is uploaded.
	ErrNilBitmap = errors.New("atlas: bitmap is nil")
)

// Texture is the GPU surface that physically stores glyph bitmaps: one
// fixed-dimension 2D texture of single-channel coverage texels. It is
// implemented by the gpu package for real devices and by in-memory fakes
// in tests.
//
// Texels outside any live placement hold undefined content; the renderer
// must never sample them (the fragment stage discards near-zero coverage
// defensively).
type Texture interface {
	// Width returns the surface width in texels.
	Width() int

	// Height returns the surface height in texels.
	Height() int

	// WriteRegion writes w*h coverage bytes (row-major) at (x, y).
	// The write is bounds-checked by the caller.
	WriteRegion(x, y, w, h int, pix []byte) error

	// Destroy releases the surface. The texture must not be used
	// afterwards.
	Destroy()
}

// TextureFactory creates atlas surfaces. The factory is invoked once at
// cache construction and again only when a rebuild grows the atlas.
type TextureFactory func(width, height int) (Texture, error)

// TextureManager owns the atlas surface and executes upload-region
// writes. A region once freed is logically garbage until overwritten; no
// read-back is ever required.
type TextureManager struct {
	factory TextureFactory
	texture Texture
	width   int
	height  int
}

// NewTextureManager creates the atlas surface via the factory.
func NewTextureManager(factory TextureFactory, width, height int) (*TextureManager, error) {
	tex, err := factory(width, height)
	if err != nil {
		return nil, fmt.Errorf("atlas: failed to create atlas texture: %w", err)
	}
	return &TextureManager{
		factory: factory,
		texture: tex,
		width:   width,
		height:  height,
	}, nil
}

// Capacity returns the surface dimensions.
func (m *TextureManager) Capacity() (width, height int) {
	return m.width, m.height
}

// Texture returns the current surface, for binding by the renderer.
// The returned value changes after Rebuild.
func (m *TextureManager) Texture() Texture {
	return m.texture
}

// UploadRegion writes a glyph bitmap into the given region.
// The bitmap dimensions must match the region exactly.
func (m *TextureManager) UploadRegion(region Region, bitmap *font.Bitmap) error {
	if bitmap == nil {
		return ErrNilBitmap
	}
	if region.IsZero() {
		return nil
	}
	if region.X < 0 || region.Y < 0 ||
		region.X+region.Width > m.width ||
		region.Y+region.Height > m.height {
		return fmt.Errorf("%w: %s exceeds %dx%d",
			ErrRegionOutOfBounds, region, m.width, m.height)
	}
	if bitmap.Width != region.Width || bitmap.Height != region.Height {
		return fmt.Errorf("%w: region is %dx%d but bitmap is %dx%d",
			ErrSizeMismatch, region.Width, region.Height, bitmap.Width, bitmap.Height)
	}

	if err := m.texture.WriteRegion(region.X, region.Y, region.Width, region.Height, bitmap.Pix); err != nil {
		return fmt.Errorf("atlas: failed to upload region: %w", err)
	}
	return nil
}

// replay writes raw coverage bytes during a rebuild.
func (m *TextureManager) replay(region Region, pix []byte) error {
	return m.texture.WriteRegion(region.X, region.Y, region.Width, region.Height, pix)
}

// Rebuild replaces the surface with a new one of the given dimensions.
// The old surface is destroyed; resident bitmaps must be re-uploaded by
// the caller afterwards.
func (m *TextureManager) Rebuild(width, height int) error {
	tex, err := m.factory(width, height)
	if err != nil {
		return fmt.Errorf("atlas: failed to rebuild atlas texture: %w", err)
	}
	if m.texture != nil {
		m.texture.Destroy()
	}
	m.texture = tex
	m.width = width
	m.height = height
	return nil
}

// Destroy releases the surface.
func (m *TextureManager) Destroy() {
	if m.texture != nil {
		m.texture.Destroy()
		m.texture = nil
	}
}
