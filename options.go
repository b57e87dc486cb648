package etext

import "github.com/gogpu/etext/atlas"

// Option configures a TextRenderer during creation.
//
// Example:
//
//	r, err := etext.NewTextRenderer(provider,
//	    etext.WithSurfaceSize(800, 600),
//	    etext.WithAtlasSize(1024, 1024),
//	)
type Option func(*rendererOptions)

// rendererOptions holds optional configuration for renderer creation.
type rendererOptions struct {
	atlasConfig atlas.Config
	color       [4]float32
	width       uint32
	height      uint32
	showAtlas   bool
	showBorders bool
}

// defaultOptions returns the default renderer options: a DefaultSize
// atlas relieved by eviction, white text.
func defaultOptions() rendererOptions {
	return rendererOptions{
		atlasConfig: atlas.DefaultConfig(),
		color:       [4]float32{1, 1, 1, 1},
	}
}

// WithSurfaceSize sets the initial surface size in pixels. Without it,
// Resize must be called before the first Render.
func WithSurfaceSize(width, height uint32) Option {
	return func(o *rendererOptions) {
		o.width = width
		o.height = height
	}
}

// WithAtlasSize sets the initial atlas texture dimensions. Larger
// surfaces hold more glyphs before eviction sets in.
func WithAtlasSize(width, height int) Option {
	return func(o *rendererOptions) {
		o.atlasConfig.Width = width
		o.atlasConfig.Height = height
	}
}

// WithAtlasPadding sets the spacing between packed glyphs in texels.
func WithAtlasPadding(padding int) Option {
	return func(o *rendererOptions) {
		o.atlasConfig.Padding = padding
	}
}

// WithAtlasGrowth lets the atlas double its surface up to the given
// maximum instead of evicting when it fills. Growth repacks and
// re-uploads every resident glyph, so it is opt-in.
func WithAtlasGrowth(maxWidth, maxHeight int) Option {
	return func(o *rendererOptions) {
		o.atlasConfig.GrowOnDemand = true
		o.atlasConfig.MaxWidth = maxWidth
		o.atlasConfig.MaxHeight = maxHeight
	}
}

// WithColor sets the foreground text color as straight-alpha RGBA.
func WithColor(r, g, b, a float32) Option {
	return func(o *rendererOptions) {
		o.color = [4]float32{r, g, b, a}
	}
}

// WithDebugAtlas starts with the atlas overlay enabled. See
// TextRenderer.ToggleDebugAtlas.
func WithDebugAtlas() Option {
	return func(o *rendererOptions) {
		o.showAtlas = true
	}
}

// WithDebugAreaBorders starts with the area border overlay enabled. See
// TextRenderer.ToggleDebugAreaBorders.
func WithDebugAreaBorders() Option {
	return func(o *rendererOptions) {
		o.showBorders = true
	}
}
