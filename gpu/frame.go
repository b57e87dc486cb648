package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Quad is one glyph as screen-space corners plus normalized atlas UVs.
// (X0, Y0) is the top-left corner in window pixels, (X1, Y1) the
// bottom-right; UVs address the glyph's atlas region in [0, 1].
type Quad struct {
	X0, Y0, X1, Y1 float32
	U0, V0, U1, V1 float32
}

// Border is a text area outline rectangle in window pixels, drawn by the
// debug border overlay.
type Border struct {
	X, Y, W, H float32
}

// FrameResources holds the per-frame GPU objects for one recorded frame:
// vertex buffers, the frame uniform and both bind groups. Build with
// TextPipeline.BuildFrame, release with Destroy after the frame's
// commands have been submitted.
type FrameResources struct {
	device hal.Device

	uniformBuf hal.Buffer
	glyphBuf   hal.Buffer
	glyphCount uint32

	borderVertBuf  hal.Buffer
	borderIdxBuf   hal.Buffer
	borderIdxCount uint32

	atlasBind hal.BindGroup
	frameBind hal.BindGroup
}

// BuildFrame creates the per-frame buffers and bind groups for a batch of
// glyph quads. The atlas view must come from the cache's current texture;
// after the atlas grows, the next BuildFrame picks up the new view.
//
// Color is straight-alpha RGBA; it is premultiplied before upload to
// match the pipeline's blend state.
func (p *TextPipeline) BuildFrame(
	view hal.TextureView,
	width, height uint32,
	color [4]float32,
	quads []Quad,
	borders []Border,
) (*FrameResources, error) {
	if !p.initialized {
		return nil, ErrPipelineNotInitialized
	}

	res := &FrameResources{device: p.device}

	uniformBuf, err := p.createAndUploadBuffer("etext_frame_uniform",
		makeFrameUniform(width, height, color),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	res.uniformBuf = uniformBuf

	if len(quads) > 0 {
		glyphBuf, err := p.createAndUploadBuffer("etext_glyph_verts",
			buildGlyphVertexData(quads),
			gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
		if err != nil {
			res.Destroy()
			return nil, err
		}
		res.glyphBuf = glyphBuf
		res.glyphCount = uint32(len(quads) * 6) //nolint:gosec // quad count fits uint32
	}

	if len(borders) > 0 {
		vertBuf, err := p.createAndUploadBuffer("etext_border_verts",
			buildBorderVertexData(borders),
			gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
		if err != nil {
			res.Destroy()
			return nil, err
		}
		res.borderVertBuf = vertBuf

		idxBuf, err := p.createAndUploadBuffer("etext_border_indices",
			buildBorderIndexData(len(borders)),
			gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
		if err != nil {
			res.Destroy()
			return nil, err
		}
		res.borderIdxBuf = idxBuf
		res.borderIdxCount = uint32(len(borders) * 8) //nolint:gosec
	}

	frameBind, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "etext_frame_bind",
		Layout: p.frameLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: frameUniformSize,
			}},
		},
	})
	if err != nil {
		res.Destroy()
		return nil, fmt.Errorf("gpu: create frame bind group: %w", err)
	}
	res.frameBind = frameBind

	atlasBind, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "etext_atlas_bind",
		Layout: p.atlasLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: p.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		res.Destroy()
		return nil, fmt.Errorf("gpu: create atlas bind group: %w", err)
	}
	res.atlasBind = atlasBind

	return res, nil
}

// RecordDraws records the glyph batch into an existing render pass,
// followed by the enabled debug overlays.
func (p *TextPipeline) RecordDraws(rp hal.RenderPassEncoder, res *FrameResources, showAtlas, showBorders bool) {
	if res == nil {
		return
	}

	if res.glyphCount > 0 {
		rp.SetPipeline(p.pipeline)
		rp.SetBindGroup(0, res.atlasBind, nil)
		rp.SetBindGroup(1, res.frameBind, nil)
		rp.SetVertexBuffer(0, res.glyphBuf, 0)
		rp.Draw(res.glyphCount, 1, 0, 0)
	}

	if showBorders && res.borderIdxCount > 0 {
		rp.SetPipeline(p.debugBorderPipeline)
		rp.SetBindGroup(0, res.frameBind, nil)
		rp.SetVertexBuffer(0, res.borderVertBuf, 0)
		rp.SetIndexBuffer(res.borderIdxBuf, gputypes.IndexFormatUint16, 0)
		rp.DrawIndexed(res.borderIdxCount, 1, 0, 0, 0)
	}

	if showAtlas {
		rp.SetPipeline(p.debugAtlasPipeline)
		rp.SetBindGroup(0, res.atlasBind, nil)
		rp.Draw(4, 1, 0, 0)
	}
}

// Destroy releases the frame's GPU objects. Safe to call on a partially
// built frame.
func (r *FrameResources) Destroy() {
	if r.device == nil {
		return
	}
	if r.atlasBind != nil {
		r.device.DestroyBindGroup(r.atlasBind)
		r.atlasBind = nil
	}
	if r.frameBind != nil {
		r.device.DestroyBindGroup(r.frameBind)
		r.frameBind = nil
	}
	if r.borderIdxBuf != nil {
		r.device.DestroyBuffer(r.borderIdxBuf)
		r.borderIdxBuf = nil
	}
	if r.borderVertBuf != nil {
		r.device.DestroyBuffer(r.borderVertBuf)
		r.borderVertBuf = nil
	}
	if r.glyphBuf != nil {
		r.device.DestroyBuffer(r.glyphBuf)
		r.glyphBuf = nil
	}
	if r.uniformBuf != nil {
		r.device.DestroyBuffer(r.uniformBuf)
		r.uniformBuf = nil
	}
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (p *TextPipeline) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s: %w", label, err)
	}
	p.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// buildGlyphVertexData serializes quads into raw vertex bytes. Each quad
// produces two triangles, 6 vertices x 16 bytes = 96 bytes per quad.
func buildGlyphVertexData(quads []Quad) []byte {
	data := make([]byte, len(quads)*6*glyphVertexStride)
	off := 0
	put := func(x, y, u, v float32) {
		binary.LittleEndian.PutUint32(data[off:], math.Float32bits(x))
		binary.LittleEndian.PutUint32(data[off+4:], math.Float32bits(y))
		binary.LittleEndian.PutUint32(data[off+8:], math.Float32bits(u))
		binary.LittleEndian.PutUint32(data[off+12:], math.Float32bits(v))
		off += glyphVertexStride
	}
	for _, q := range quads {
		// Triangle 1: top-left, top-right, bottom-right.
		put(q.X0, q.Y0, q.U0, q.V0)
		put(q.X1, q.Y0, q.U1, q.V0)
		put(q.X1, q.Y1, q.U1, q.V1)
		// Triangle 2: top-left, bottom-right, bottom-left.
		put(q.X0, q.Y0, q.U0, q.V0)
		put(q.X1, q.Y1, q.U1, q.V1)
		put(q.X0, q.Y1, q.U0, q.V1)
	}
	return data
}

// buildBorderVertexData serializes border rectangles as 4 corner vertices
// each.
func buildBorderVertexData(borders []Border) []byte {
	data := make([]byte, len(borders)*4*lineVertexStride)
	off := 0
	put := func(x, y float32) {
		binary.LittleEndian.PutUint32(data[off:], math.Float32bits(x))
		binary.LittleEndian.PutUint32(data[off+4:], math.Float32bits(y))
		off += lineVertexStride
	}
	for _, b := range borders {
		put(b.X, b.Y)
		put(b.X+b.W, b.Y)
		put(b.X+b.W, b.Y+b.H)
		put(b.X, b.Y+b.H)
	}
	return data
}

// buildBorderIndexData builds the line list indices closing each border
// rectangle: 4 edges, 8 indices per rectangle.
func buildBorderIndexData(count int) []byte {
	data := make([]byte, count*8*2)
	off := 0
	for i := 0; i < count; i++ {
		base := uint16(i * 4) //nolint:gosec // border count is small
		for _, idx := range [8]uint16{
			base, base + 1,
			base + 1, base + 2,
			base + 2, base + 3,
			base + 3, base,
		} {
			binary.LittleEndian.PutUint16(data[off:], idx)
			off += 2
		}
	}
	return data
}

// makeFrameUniform serializes the 32-byte frame uniform: window size,
// padding, premultiplied color.
func makeFrameUniform(width, height uint32, color [4]float32) []byte {
	buf := make([]byte, frameUniformSize)
	binary.LittleEndian.PutUint32(buf[0:], width)
	binary.LittleEndian.PutUint32(buf[4:], height)
	// buf[8:16] is padding, matching the vec2<u32> _pad in the shader.

	a := color[3]
	binary.LittleEndian.PutUint32(buf[16:], math.Float32bits(color[0]*a))
	binary.LittleEndian.PutUint32(buf[20:], math.Float32bits(color[1]*a))
	binary.LittleEndian.PutUint32(buf[24:], math.Float32bits(color[2]*a))
	binary.LittleEndian.PutUint32(buf[28:], math.Float32bits(a))
	return buf
}
