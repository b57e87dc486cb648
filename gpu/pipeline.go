package gpu

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Embedded WGSL shader sources.
//
//go:embed shaders/text.wgsl
var textShaderSource string

//go:embed shaders/debug_atlas.wgsl
var debugAtlasShaderSource string

//go:embed shaders/debug_borders.wgsl
var debugBordersShaderSource string

// Pipeline errors.
var (
	// ErrPipelineNotInitialized is returned when recording draws before Init.
	ErrPipelineNotInitialized = errors.New("gpu: text pipeline not initialized")
)

// glyphVertexStride is the byte stride per glyph vertex.
// Layout per vertex:
//
//	position  (vec2<f32>) = 8 bytes  (location 0)
//	tex_coord (vec2<f32>) = 8 bytes  (location 1)
//
// Total = 16 bytes per vertex.
const glyphVertexStride = 16

// lineVertexStride is the byte stride per debug border vertex: one
// position (vec2<f32>).
const lineVertexStride = 8

// frameUniformSize is the byte size of the frame uniform buffer.
// Layout: window_size (vec2<u32>) = 8 bytes + pad (vec2<u32>) = 8 bytes +
// color (vec4<f32>) = 16 bytes = 32 bytes.
const frameUniformSize = 32

// TextPipeline owns the GPU objects for glyph rendering: the glyph quad
// pipeline, the two debug overlay pipelines, the atlas sampler and the
// bind group layouts. Per-frame buffers and bind groups are built by
// BuildFrame; the pipeline itself is immutable after Init.
type TextPipeline struct {
	device hal.Device
	queue  hal.Queue

	// Shader modules, compiled from the embedded WGSL through naga.
	textShader    hal.ShaderModule
	atlasShader   hal.ShaderModule
	bordersShader hal.ShaderModule

	// Bind group layouts.
	//   atlasLayout: binding 0 texture, binding 1 sampler (fragment)
	//   frameLayout: binding 0 frame uniform (vertex + fragment)
	atlasLayout hal.BindGroupLayout
	frameLayout hal.BindGroupLayout

	textLayout    hal.PipelineLayout
	atlasPLayout  hal.PipelineLayout
	borderPLayout hal.PipelineLayout

	pipeline            hal.RenderPipeline
	debugAtlasPipeline  hal.RenderPipeline
	debugBorderPipeline hal.RenderPipeline

	sampler hal.Sampler

	initialized bool
}

// NewTextPipeline creates an uninitialized pipeline for the given device
// and queue. GPU objects are created by Init.
func NewTextPipeline(device hal.Device, queue hal.Queue) *TextPipeline {
	return &TextPipeline{device: device, queue: queue}
}

// Init compiles the shaders and creates all pipelines targeting the given
// surface format. Calling Init twice is a no-op.
func (p *TextPipeline) Init(format gputypes.TextureFormat) error {
	if p.initialized {
		return nil
	}
	if p.device == nil || p.queue == nil {
		return ErrNilDevice
	}

	if err := p.createShaders(); err != nil {
		p.Destroy()
		return err
	}
	if err := p.createLayouts(); err != nil {
		p.Destroy()
		return err
	}
	if err := p.createSampler(); err != nil {
		p.Destroy()
		return err
	}
	if err := p.createPipelines(format); err != nil {
		p.Destroy()
		return err
	}

	p.initialized = true
	slogger().Debug("gpu: text pipeline initialized", "format", format)
	return nil
}

// Initialized reports whether Init has completed.
func (p *TextPipeline) Initialized() bool { return p.initialized }

// compileShader compiles WGSL to SPIR-V through naga and creates a shader
// module from the result.
func (p *TextPipeline) compileShader(label, source string) (hal.ShaderModule, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile %s: %w", label, err)
	}

	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	module, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s module: %w", label, err)
	}
	return module, nil
}

func (p *TextPipeline) createShaders() error {
	var err error
	if p.textShader, err = p.compileShader("etext_text_shader", textShaderSource); err != nil {
		return err
	}
	if p.atlasShader, err = p.compileShader("etext_debug_atlas_shader", debugAtlasShaderSource); err != nil {
		return err
	}
	if p.bordersShader, err = p.compileShader("etext_debug_borders_shader", debugBordersShaderSource); err != nil {
		return err
	}
	return nil
}

func (p *TextPipeline) createLayouts() error {
	atlasLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "etext_atlas_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create atlas bind group layout: %w", err)
	}
	p.atlasLayout = atlasLayout

	frameLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "etext_frame_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create frame bind group layout: %w", err)
	}
	p.frameLayout = frameLayout

	textLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "etext_text_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.atlasLayout, p.frameLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create text pipeline layout: %w", err)
	}
	p.textLayout = textLayout

	atlasPLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "etext_debug_atlas_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.atlasLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create debug atlas pipeline layout: %w", err)
	}
	p.atlasPLayout = atlasPLayout

	borderPLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "etext_debug_borders_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.frameLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create debug borders pipeline layout: %w", err)
	}
	p.borderPLayout = borderPLayout

	return nil
}

// createSampler creates the atlas sampler. Nearest filtering keeps glyph
// edges exactly as rasterized; the one-texel atlas padding exists so that
// even nearest sampling at region edges never reads a neighbour.
func (p *TextPipeline) createSampler() error {
	sampler, err := p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "etext_atlas_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("gpu: create atlas sampler: %w", err)
	}
	p.sampler = sampler
	return nil
}

func (p *TextPipeline) createPipelines(format gputypes.TextureFormat) error {
	premulBlend := gputypes.BlendStatePremultiplied()

	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "etext_text_pipeline",
		Layout: p.textLayout,
		Vertex: hal.VertexState{
			Module:     p.textShader,
			EntryPoint: "vs_main",
			Buffers:    glyphVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.textShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create text pipeline: %w", err)
	}
	p.pipeline = pipeline

	debugAtlas, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "etext_debug_atlas_pipeline",
		Layout: p.atlasPLayout,
		Vertex: hal.VertexState{
			Module:     p.atlasShader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     p.atlasShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleStrip,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create debug atlas pipeline: %w", err)
	}
	p.debugAtlasPipeline = debugAtlas

	debugBorders, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "etext_debug_borders_pipeline",
		Layout: p.borderPLayout,
		Vertex: hal.VertexState{
			Module:     p.bordersShader,
			EntryPoint: "vs_main",
			Buffers:    lineVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.bordersShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyLineList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create debug borders pipeline: %w", err)
	}
	p.debugBorderPipeline = debugBorders

	return nil
}

// Destroy releases all GPU objects in reverse creation order. Safe to
// call multiple times or on a partially initialized pipeline.
func (p *TextPipeline) Destroy() {
	if p.device == nil {
		return
	}
	if p.debugBorderPipeline != nil {
		p.device.DestroyRenderPipeline(p.debugBorderPipeline)
		p.debugBorderPipeline = nil
	}
	if p.debugAtlasPipeline != nil {
		p.device.DestroyRenderPipeline(p.debugAtlasPipeline)
		p.debugAtlasPipeline = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.borderPLayout != nil {
		p.device.DestroyPipelineLayout(p.borderPLayout)
		p.borderPLayout = nil
	}
	if p.atlasPLayout != nil {
		p.device.DestroyPipelineLayout(p.atlasPLayout)
		p.atlasPLayout = nil
	}
	if p.textLayout != nil {
		p.device.DestroyPipelineLayout(p.textLayout)
		p.textLayout = nil
	}
	if p.frameLayout != nil {
		p.device.DestroyBindGroupLayout(p.frameLayout)
		p.frameLayout = nil
	}
	if p.atlasLayout != nil {
		p.device.DestroyBindGroupLayout(p.atlasLayout)
		p.atlasLayout = nil
	}
	if p.bordersShader != nil {
		p.device.DestroyShaderModule(p.bordersShader)
		p.bordersShader = nil
	}
	if p.atlasShader != nil {
		p.device.DestroyShaderModule(p.atlasShader)
		p.atlasShader = nil
	}
	if p.textShader != nil {
		p.device.DestroyShaderModule(p.textShader)
		p.textShader = nil
	}
	p.initialized = false
}

// glyphVertexLayout returns the vertex buffer layout for the glyph quad
// pipeline. Matches VertexInput in text.wgsl:
//
//	location 0: position (vec2<f32>)
//	location 1: tex_coord (vec2<f32>)
func glyphVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: glyphVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, // tex_coord
			},
		},
	}
}

// lineVertexLayout returns the vertex buffer layout for the debug border
// pipeline: a single position (vec2<f32>) per vertex.
func lineVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: lineVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			},
		},
	}
}
