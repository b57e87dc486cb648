// Package etext renders text through a GPU glyph atlas.
//
// Glyphs are shaped with go-text/typesetting, rasterized to 8-bit
// coverage masks with golang.org/x/image and cached in a single
// LRU-managed atlas texture. Each frame the renderer resolves the
// glyphs of its text areas against the cache and draws them as
// textured quads in one batch.
//
// The host application owns the GPU device. etext receives it through
// a gpucontext.DeviceProvider and records its draws into a render pass
// the host opened:
//
//	r, err := etext.NewTextRenderer(provider)
//	fontID, err := r.RegisterFontFile("Roboto-Regular.ttf")
//	r.AddTextArea(etext.TextArea{
//	    X: 40, Y: 40, Width: 400, Height: 120,
//	    Text: "Hello, world", Font: fontID, Size: 24,
//	})
//	// per frame, inside the host's render pass:
//	err = r.Render(pass)
//
// The renderer is single-writer: all mutation, including Render, must
// happen on the goroutine driving the render loop.
package etext
