// Package gpu implements the WebGPU backend for etext: the R8 atlas
// texture, the glyph render pipeline and the debug overlay pipelines.
//
// The package never creates a GPU device. The host application owns the
// device and passes it in, either directly as wgpu/hal handles or through
// a gpucontext.DeviceProvider. All GPU objects created here are destroyed
// by their owning etext renderer.
package gpu
