package etext

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/etext/atlas"
	"github.com/gogpu/etext/font"
	"github.com/gogpu/etext/gpu"
)

// Renderer errors.
var (
	// ErrFontNotRegistered is returned when a text area references a font
	// ID unknown to the renderer.
	ErrFontNotRegistered = errors.New("etext: font not registered")

	// ErrNoSurfaceSize is returned by Render before the surface size is
	// known. Call Resize or construct with WithSurfaceSize.
	ErrNoSurfaceSize = errors.New("etext: surface size not set")
)

// TextRenderer lays out text areas, keeps their glyphs resident in a
// GPU atlas and draws them as one textured-quad batch per frame.
//
// TextRenderer is single-writer: all methods, Render included, must be
// called from the goroutine driving the render loop.
type TextRenderer struct {
	handles  gpu.Handles
	pipeline *gpu.TextPipeline

	shaper *font.Shaper
	fonts  map[font.ID]*font.Source
	atlas  *atlas.Atlas

	areas      map[AreaHandle]*areaState
	order      []AreaHandle
	nextHandle AreaHandle

	width, height uint32
	color         [4]float32

	showAtlas   bool
	showBorders bool

	// quadsGen is the atlas generation the cached quads were built
	// against. A newer atlas generation means UVs may point at evicted
	// or moved regions and every area needs a rebuild.
	quadsGen uint64

	// frame holds the previous frame's GPU resources. They are released
	// at the start of the next Render, after the host has submitted the
	// pass that used them.
	frame *gpu.FrameResources

	// skipped counts glyphs dropped by per-glyph failures since
	// construction. Rendering continues without them.
	skipped uint64
}

// NewTextRenderer creates a text renderer on the host's GPU device.
// The provider must expose raw wgpu/hal handles, as gogpu device
// providers do.
func NewTextRenderer(provider gpu.DeviceHandle, opts ...Option) (*TextRenderer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	handles, err := gpu.ExtractHAL(provider)
	if err != nil {
		return nil, err
	}

	pipeline := gpu.NewTextPipeline(handles.Device, handles.Queue)
	if err := pipeline.Init(handles.SurfaceFormat); err != nil {
		return nil, err
	}

	fonts := make(map[font.ID]*font.Source)
	cache, err := atlas.New(
		&glyphSource{fonts: fonts, raster: font.NewRasterizer()},
		gpu.Factory(handles.Device, handles.Queue),
		o.atlasConfig,
	)
	if err != nil {
		pipeline.Destroy()
		return nil, err
	}
	cache.SetLogger(Logger())

	return &TextRenderer{
		handles:     handles,
		pipeline:    pipeline,
		shaper:      font.NewShaper(),
		fonts:       fonts,
		atlas:       cache,
		areas:       make(map[AreaHandle]*areaState),
		width:       o.width,
		height:      o.height,
		color:       o.color,
		showAtlas:   o.showAtlas,
		showBorders: o.showBorders,
	}, nil
}

// glyphSource adapts registered font sources and the outline rasterizer
// to the atlas cache's Rasterizer interface.
type glyphSource struct {
	fonts  map[font.ID]*font.Source
	raster *font.Rasterizer
}

func (g *glyphSource) Rasterize(key atlas.Key) (*font.Bitmap, error) {
	src, ok := g.fonts[key.Font]
	if !ok {
		return nil, fmt.Errorf("%w: font %d", ErrFontNotRegistered, key.Font)
	}
	return g.raster.Rasterize(src, key.Glyph, float64(key.PPEM))
}

// RegisterFont makes a parsed font source available to text areas and
// returns its ID.
func (r *TextRenderer) RegisterFont(src *font.Source) font.ID {
	r.fonts[src.ID()] = src
	return src.ID()
}

// RegisterFontData parses and registers TTF or OTF font data.
func (r *TextRenderer) RegisterFontData(data []byte) (font.ID, error) {
	src, err := font.NewSource(data)
	if err != nil {
		return 0, err
	}
	return r.RegisterFont(src), nil
}

// RegisterFontFile parses and registers a font file from disk.
func (r *TextRenderer) RegisterFontFile(path string) (font.ID, error) {
	src, err := font.NewSourceFromFile(path)
	if err != nil {
		return 0, err
	}
	return r.RegisterFont(src), nil
}

// Resize sets the surface size used for the pixel-to-NDC transform.
// Call it whenever the host window resizes.
func (r *TextRenderer) Resize(width, height uint32) {
	r.width = width
	r.height = height
}

// SetColor sets the foreground text color as straight-alpha RGBA. One
// color applies to all areas.
func (r *TextRenderer) SetColor(red, green, blue, alpha float32) {
	r.color = [4]float32{red, green, blue, alpha}
}

// ToggleDebugAtlas flips the atlas overlay, which blits the raw atlas
// texture into a quadrant of the surface.
func (r *TextRenderer) ToggleDebugAtlas() { r.showAtlas = !r.showAtlas }

// ToggleDebugAreaBorders flips the area border overlay, which outlines
// every text area rectangle.
func (r *TextRenderer) ToggleDebugAreaBorders() { r.showBorders = !r.showBorders }

// Stats returns the atlas cache statistics.
func (r *TextRenderer) Stats() atlas.Stats { return r.atlas.Stats() }

// SkippedGlyphs returns the number of glyphs dropped by per-glyph
// failures since construction.
func (r *TextRenderer) SkippedGlyphs() uint64 { return r.skipped }

// ResetAtlas drops every cached glyph. Use it after replacing fonts;
// areas are re-laid out on the next Render.
func (r *TextRenderer) ResetAtlas() {
	r.atlas.Reset()
	r.markAllDirty()
}

// Render lays out dirty areas, uploads missing glyphs to the atlas and
// records the frame's draws into the host's render pass. All uploads
// happen before any draw is recorded.
func (r *TextRenderer) Render(rp hal.RenderPassEncoder) error {
	frame, err := r.buildFrame()
	if err != nil {
		return err
	}
	r.pipeline.RecordDraws(rp, frame, r.showAtlas, r.showBorders)
	r.frame = frame
	return nil
}

// RenderToView encodes and submits a complete frame targeting the given
// surface view, for hosts that do not open a render pass of their own.
// A nil clear color loads the existing surface contents instead of
// clearing.
//
// The call blocks until the GPU finishes, so the host can present the
// surface immediately after.
func (r *TextRenderer) RenderToView(view hal.TextureView, clear *gputypes.Color) error {
	frame, err := r.buildFrame()
	if err != nil {
		return err
	}

	encoder, err := r.handles.Device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "etext_frame_encoder",
	})
	if err != nil {
		frame.Destroy()
		return fmt.Errorf("etext: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("etext_frame"); err != nil {
		frame.Destroy()
		return fmt.Errorf("etext: begin encoding: %w", err)
	}

	loadOp := gputypes.LoadOpLoad
	var clearValue gputypes.Color
	if clear != nil {
		loadOp = gputypes.LoadOpClear
		clearValue = *clear
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "etext_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     loadOp,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: clearValue,
		}},
	})
	r.pipeline.RecordDraws(rp, frame, r.showAtlas, r.showBorders)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		frame.Destroy()
		return fmt.Errorf("etext: end encoding: %w", err)
	}
	defer r.handles.Device.FreeCommandBuffer(cmdBuf)

	fence, err := r.handles.Device.CreateFence()
	if err != nil {
		frame.Destroy()
		return fmt.Errorf("etext: create fence: %w", err)
	}
	defer r.handles.Device.DestroyFence(fence)

	if err := r.handles.Queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		frame.Destroy()
		return fmt.Errorf("etext: submit: %w", err)
	}

	// Presentation needs the pass finished; wait before handing the
	// surface back to the host.
	ok, err := r.handles.Device.Wait(fence, 1, 5*time.Second)
	if err != nil || !ok {
		frame.Destroy()
		return fmt.Errorf("etext: wait for GPU: ok=%v err=%w", ok, err)
	}

	r.frame = frame
	return nil
}

// buildFrame runs the upload phase of a frame: dirty areas are laid
// out, missing glyphs rasterized and uploaded, and the quad batch
// serialized into fresh GPU buffers. No draws are recorded.
func (r *TextRenderer) buildFrame() (*gpu.FrameResources, error) {
	if r.width == 0 || r.height == 0 {
		return nil, ErrNoSurfaceSize
	}

	// The previous frame's buffers were submitted with the previous
	// pass; they are free now.
	if r.frame != nil {
		r.frame.Destroy()
		r.frame = nil
	}

	if err := r.prepare(); err != nil {
		return nil, err
	}

	var quads []gpu.Quad
	var borders []gpu.Border
	for _, h := range r.order {
		s := r.areas[h]
		quads = append(quads, s.quads...)
		if r.showBorders {
			borders = append(borders, gpu.Border{
				X: float32(s.area.X), Y: float32(s.area.Y),
				W: float32(s.area.Width), H: float32(s.area.Height),
			})
		}
	}

	view := r.atlas.Texture().(*gpu.AtlasTexture).View()
	return r.pipeline.BuildFrame(view, r.width, r.height, r.color, quads, borders)
}

// prepare rebuilds quads for dirty areas. Inserting one area's glyphs
// can evict another's, so the build repeats until a pass completes with
// the atlas generation unchanged. Thrashing beyond a few passes means
// the working set exceeds the atlas; the last build is used as is.
func (r *TextRenderer) prepare() error {
	if r.quadsGen != r.atlas.Generation() {
		r.markAllDirty()
	}

	for attempt := 0; attempt < 3; attempt++ {
		gen := r.atlas.Generation()
		for _, h := range r.order {
			s := r.areas[h]
			if !s.dirty {
				continue
			}
			if err := r.buildAreaQuads(s); err != nil {
				return err
			}
			s.dirty = false
		}
		if r.atlas.Generation() == gen {
			r.quadsGen = gen
			return nil
		}
		r.markAllDirty()
	}

	r.quadsGen = r.atlas.Generation()
	Logger().Debug("etext: atlas thrashing, frame uses last build",
		"resident", r.atlas.Len())
	return nil
}

// Destroy releases all GPU resources. The renderer must not be used
// afterwards.
func (r *TextRenderer) Destroy() {
	if r.frame != nil {
		r.frame.Destroy()
		r.frame = nil
	}
	r.atlas.Destroy()
	r.pipeline.Destroy()
}
