package atlas

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/etext/font"
)

// ErrAtlasOverflow is returned when a glyph bitmap cannot fit even in a
// fully evicted atlas. It is a configuration error (the atlas surface is
// too small for the requested pixel sizes) and is surfaced to the
// caller, never retried with a different size. Growing instead of
// evicting is the opt-in GrowOnDemand policy, not a recovery path.
var ErrAtlasOverflow = errors.New("atlas: glyph does not fit in atlas")

// Rasterizer produces a coverage bitmap and metrics for a glyph key.
// The atlas cache invokes it on every miss; it must not cache results
// itself.
type Rasterizer interface {
	Rasterize(key Key) (*font.Bitmap, error)
}

// Config holds atlas cache configuration.
type Config struct {
	// Width and Height are the initial atlas dimensions.
	// Default: DefaultSize.
	Width  int
	Height int

	// Padding is the spacing between packed glyphs, preventing bilinear
	// sampling from bleeding into neighbours. Zero disables padding;
	// DefaultConfig uses DefaultPadding.
	Padding int

	// GrowOnDemand doubles the atlas (up to MaxWidth/MaxHeight) instead
	// of evicting when an allocation fails. Off by default: whether the
	// atlas should ever grow rather than evict is a policy choice the
	// caller makes explicitly.
	GrowOnDemand bool

	// MaxWidth and MaxHeight bound growth. Default: DefaultMaxSize.
	MaxWidth  int
	MaxHeight int
}

// DefaultConfig returns the default atlas configuration: a fixed
// DefaultSize surface relieved by LRU eviction.
func DefaultConfig() Config {
	return Config{
		Width:     DefaultSize,
		Height:    DefaultSize,
		Padding:   DefaultPadding,
		MaxWidth:  DefaultMaxSize,
		MaxHeight: DefaultMaxSize,
	}
}

// Stats holds cache statistics. Misses and evictions are normal
// operation, not errors.
type Stats struct {
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Insertions uint64
}

// entry is a resident glyph. Entries form an intrusive doubly-linked
// list ordered from most (head) to least (tail) recently used.
type entry struct {
	key       Key
	placement Placement

	// pix retains the coverage bytes so a rebuild can replay uploads
	// without re-rasterizing.
	pix []byte

	prev *entry
	next *entry
}

// Atlas is the glyph atlas cache. It maps glyph keys to live placements,
// backed by a shelf Allocator for space and LRU eviction for reclaiming
// it under pressure. It owns the authoritative record of what is
// resident.
//
// Atlas is single-writer: all mutation happens on the thread driving the
// render loop. Concurrent use requires external synchronization.
type Atlas struct {
	config   Config
	source   Rasterizer
	alloc    *Allocator
	textures *TextureManager

	entries map[Key]*entry
	head    *entry // most recently used
	tail    *entry // least recently used

	// generation increments on every eviction, repack and reset, so
	// previously returned placements can be detected as stale.
	generation uint64

	stats Stats
	log   *slog.Logger
}

// New creates a glyph atlas cache. The factory creates the GPU surface;
// the source rasterizes glyphs on miss.
func New(source Rasterizer, factory TextureFactory, config Config) (*Atlas, error) {
	if config.Width < MinSize {
		config.Width = DefaultSize
	}
	if config.Height < MinSize {
		config.Height = DefaultSize
	}
	if config.Padding < 0 {
		config.Padding = 0
	}
	if config.MaxWidth < config.Width {
		config.MaxWidth = DefaultMaxSize
	}
	if config.MaxHeight < config.Height {
		config.MaxHeight = DefaultMaxSize
	}

	textures, err := NewTextureManager(factory, config.Width, config.Height)
	if err != nil {
		return nil, err
	}

	return &Atlas{
		config:   config,
		source:   source,
		alloc:    NewAllocator(config.Width, config.Height, config.Padding),
		textures: textures,
		entries:  make(map[Key]*entry),
		log:      slog.New(nopHandler{}),
	}, nil
}

// SetLogger configures the cache logger. Pass nil to disable logging.
func (a *Atlas) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	a.log = l
}

// GetOrInsert returns the live placement for key, rasterizing, packing
// and uploading on miss. On a hit no GPU work happens; the entry's
// recency is bumped.
//
// When the atlas is full, least-recently-used entries are evicted one at
// a time until the allocation succeeds. If the cache empties without
// success the glyph cannot fit even in an empty atlas and
// ErrAtlasOverflow is returned with no change to packer state.
func (a *Atlas) GetOrInsert(key Key) (Placement, error) {
	if e, ok := a.entries[key]; ok {
		a.moveToFront(e)
		a.stats.Hits++
		e.placement.Generation = a.generation
		return e.placement, nil
	}

	a.stats.Misses++

	bitmap, err := a.source.Rasterize(key)
	if err != nil {
		return Placement{}, err
	}

	placement := Placement{
		BearingX:   bitmap.BearingX,
		BearingY:   bitmap.BearingY,
		Advance:    bitmap.Advance,
		Generation: a.generation,
	}

	// Whitespace: resident, but occupies no packer capacity and can
	// never trigger eviction.
	if bitmap.IsEmpty() {
		a.insert(key, placement, nil)
		return placement, nil
	}

	region, err := a.place(bitmap.Width, bitmap.Height)
	if err != nil {
		return Placement{}, err
	}

	if err := a.textures.UploadRegion(region, bitmap); err != nil {
		a.alloc.Free(region)
		return Placement{}, err
	}

	placement.Region = region
	placement.Generation = a.generation
	a.insert(key, placement, bitmap.Pix)
	return placement, nil
}

// place allocates atlas space for a w x h bitmap, growing or evicting
// under pressure. A bitmap that cannot fit even an empty surface fails
// fast without evicting anything.
func (a *Atlas) place(w, h int) (Region, error) {
	for {
		if a.alloc.Fits(w, h) {
			region, ok := a.alloc.Allocate(w, h)
			if ok {
				return region, nil
			}
			if a.config.GrowOnDemand && a.grow() {
				continue
			}
			if a.tail != nil {
				a.evict(a.tail)
				continue
			}
			// Unreachable: freeing the last region resets the shelf
			// structure, and an empty allocator places anything that
			// Fits.
		}

		if a.config.GrowOnDemand && a.grow() {
			continue
		}

		width, height := a.textures.Capacity()
		return Region{}, fmt.Errorf("%w: glyph %dx%d, atlas %dx%d",
			ErrAtlasOverflow, w, h, width, height)
	}
}

// insert records a new resident entry at the front of the recency list.
func (a *Atlas) insert(key Key, placement Placement, pix []byte) {
	e := &entry{key: key, placement: placement, pix: pix}
	a.entries[key] = e
	a.pushFront(e)
	a.stats.Insertions++
}

// evict removes an entry, returning its region to the allocator. The
// evicted key's next lookup is a miss. Outstanding placements for the
// key become stale, which the generation bump makes detectable.
func (a *Atlas) evict(e *entry) {
	a.alloc.Free(e.placement.Region)
	a.unlink(e)
	delete(a.entries, e.key)
	a.generation++
	a.stats.Evictions++
	a.log.Debug("atlas: evicted glyph",
		"font", uint64(e.key.Font), "glyph", uint16(e.key.Glyph), "ppem", e.key.PPEM)
}

// grow doubles the atlas surface up to the configured maximum, repacking
// and re-uploading every resident bitmap. Returns false when the atlas
// is already at maximum size.
func (a *Atlas) grow() bool {
	width, height := a.textures.Capacity()
	newW := min(width*2, a.config.MaxWidth)
	newH := min(height*2, a.config.MaxHeight)
	if newW == width && newH == height {
		return false
	}

	if err := a.textures.Rebuild(newW, newH); err != nil {
		a.log.Warn("atlas: grow failed", "error", err)
		return false
	}
	a.alloc = NewAllocator(newW, newH, a.config.Padding)

	// Every placement moves: all outstanding placements are stale.
	a.generation++

	// Repack residents most-recently-used first. A fresh repack into a
	// strictly larger surface fits in practice; an entry that somehow
	// does not is dropped rather than wedging the cache.
	for e := a.head; e != nil; {
		next := e.next
		if e.placement.Region.IsZero() {
			e.placement.Generation = a.generation
			e = next
			continue
		}
		region, ok := a.alloc.Allocate(e.placement.Region.Width, e.placement.Region.Height)
		if !ok {
			a.unlink(e)
			delete(a.entries, e.key)
			a.stats.Evictions++
			e = next
			continue
		}
		if err := a.textures.replay(region, e.pix); err != nil {
			a.alloc.Free(region)
			a.unlink(e)
			delete(a.entries, e.key)
			a.stats.Evictions++
			e = next
			continue
		}
		e.placement.Region = region
		e.placement.Generation = a.generation
		e = next
	}

	a.log.Info("atlas: grew atlas", "width", newW, "height", newH, "resident", len(a.entries))
	return true
}

// Reset drops every resident entry and restores the full free surface.
// Use it on font changes or device loss. Texture content is left as
// garbage; it is overwritten by subsequent insertions and never sampled
// through a live placement.
func (a *Atlas) Reset() {
	a.entries = make(map[Key]*entry)
	a.head = nil
	a.tail = nil
	a.alloc.Reset()
	a.generation++
}

// Generation returns the current atlas generation. A placement whose
// Generation field is older may have been evicted or moved.
func (a *Atlas) Generation() uint64 { return a.generation }

// Len returns the number of resident entries, whitespace included.
func (a *Atlas) Len() int { return len(a.entries) }

// Capacity returns the current atlas surface dimensions.
func (a *Atlas) Capacity() (width, height int) { return a.textures.Capacity() }

// Texture returns the current atlas surface for binding by the
// renderer. The value changes after a grow.
func (a *Atlas) Texture() Texture { return a.textures.Texture() }

// Utilization returns the fraction of the surface holding live glyphs.
func (a *Atlas) Utilization() float64 { return a.alloc.Utilization() }

// Stats returns a copy of the cache statistics.
func (a *Atlas) Stats() Stats { return a.stats }

// HitRate returns the hit fraction of all lookups, 0 when none happened.
func (a *Atlas) HitRate() float64 {
	total := a.stats.Hits + a.stats.Misses
	if total == 0 {
		return 0
	}
	return float64(a.stats.Hits) / float64(total)
}

// Destroy releases the atlas surface. The cache must not be used after.
func (a *Atlas) Destroy() {
	a.textures.Destroy()
	a.entries = nil
	a.head = nil
	a.tail = nil
}

// pushFront adds an entry at the head of the recency list.
func (a *Atlas) pushFront(e *entry) {
	e.prev = nil
	e.next = a.head
	if a.head != nil {
		a.head.prev = e
	}
	a.head = e
	if a.tail == nil {
		a.tail = e
	}
}

// moveToFront bumps an entry's recency.
func (a *Atlas) moveToFront(e *entry) {
	if e == a.head {
		return
	}
	a.unlink(e)
	a.pushFront(e)
}

// unlink removes an entry from the recency list.
func (a *Atlas) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		a.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		a.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}
