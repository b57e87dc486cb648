package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/etext/atlas"
)

// AtlasTexture is the GPU-side atlas surface: a single-channel R8Unorm
// texture holding glyph coverage. It implements atlas.Texture, so the
// atlas cache can upload glyph regions without knowing about wgpu.
//
// Region writes go through queue.WriteTexture and take effect on the next
// queue submission; the single-writer render loop uploads before encoding
// draws, so a frame never samples a half-written glyph.
type AtlasTexture struct {
	device hal.Device
	queue  hal.Queue

	texture hal.Texture
	view    hal.TextureView

	width  int
	height int
}

// NewAtlasTexture creates a width x height coverage texture with a
// sampleable view.
func NewAtlasTexture(device hal.Device, queue hal.Queue, width, height int) (*AtlasTexture, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}

	w := uint32(width)  //nolint:gosec // atlas sizes are bounded by DefaultMaxSize
	h := uint32(height) //nolint:gosec

	texture, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "etext_glyph_atlas",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatR8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create atlas texture: %w", err)
	}

	view, err := device.CreateTextureView(texture, &hal.TextureViewDescriptor{
		Label:         "etext_glyph_atlas_view",
		Format:        gputypes.TextureFormatR8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(texture)
		return nil, fmt.Errorf("gpu: create atlas texture view: %w", err)
	}

	return &AtlasTexture{
		device:  device,
		queue:   queue,
		texture: texture,
		view:    view,
		width:   width,
		height:  height,
	}, nil
}

// Factory returns an atlas.TextureFactory bound to the given device and
// queue. The atlas cache calls it at construction and again on grow.
func Factory(device hal.Device, queue hal.Queue) atlas.TextureFactory {
	return func(width, height int) (atlas.Texture, error) {
		return NewAtlasTexture(device, queue, width, height)
	}
}

// Width returns the surface width in texels.
func (t *AtlasTexture) Width() int { return t.width }

// Height returns the surface height in texels.
func (t *AtlasTexture) Height() int { return t.height }

// View returns the sampleable texture view for bind group creation.
// The view stays valid until Destroy.
func (t *AtlasTexture) View() hal.TextureView { return t.view }

// WriteRegion uploads w*h tightly packed coverage bytes at (x, y).
func (t *AtlasTexture) WriteRegion(x, y, w, h int, pix []byte) error {
	if t.texture == nil {
		return fmt.Errorf("gpu: write to destroyed atlas texture")
	}
	if len(pix) < w*h {
		return fmt.Errorf("gpu: region %dx%d needs %d bytes, got %d", w, h, w*h, len(pix))
	}

	t.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(x), Y: uint32(y), Z: 0}, //nolint:gosec // bounds-checked by the atlas
			Aspect:   gputypes.TextureAspectAll,
		},
		pix[:w*h],
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(w), //nolint:gosec
			RowsPerImage: uint32(h), //nolint:gosec
		},
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}, //nolint:gosec
	)
	return nil
}

// Destroy releases the texture and its view. Safe to call twice.
func (t *AtlasTexture) Destroy() {
	if t.view != nil {
		t.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.texture != nil {
		t.device.DestroyTexture(t.texture)
		t.texture = nil
	}
}

var _ atlas.Texture = (*AtlasTexture)(nil)
