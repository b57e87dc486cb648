package atlas

import "fmt"

// Default atlas settings.
const (
	// DefaultSize is the default atlas dimension (512x512).
	DefaultSize = 512

	// DefaultMaxSize is the default upper bound when growing is enabled (8192x8192).
	DefaultMaxSize = 8192

	// MinSize is the minimum atlas dimension (64x64).
	MinSize = 64

	// DefaultPadding is the padding between packed regions.
	DefaultPadding = 1
)

// Region is a rectangular area inside the atlas surface.
// A zero-value Region is the degenerate placement of an empty bitmap
// (for example the space character); it occupies no atlas capacity.
type Region struct {
	// X is the left edge of the region.
	X int
	// Y is the top edge of the region.
	Y int
	// Width is the region width.
	Width int
	// Height is the region height.
	Height int
}

// IsZero reports whether the region is the degenerate empty placement.
func (r Region) IsZero() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether the point (x, y) is inside the region.
func (r Region) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Overlaps reports whether two regions share any texels.
func (r Region) Overlaps(o Region) bool {
	if r.IsZero() || o.IsZero() {
		return false
	}
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// String returns a string representation of the region.
func (r Region) String() string {
	return fmt.Sprintf("Region(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// shelf is one horizontal band of the shelf-packing algorithm.
type shelf struct {
	y      int // top Y coordinate of this shelf
	height int // shelf height including padding (fixed once items exist)
	nextX  int // next fresh X position on this shelf

	// free holds slots returned by Free, reusable by later allocations
	// whose padded width fits the slot.
	free []slot
}

// slot is a reusable hole on a shelf, created by freeing a region.
type slot struct {
	x     int
	width int // padded width of the original allocation
}

// allocKey identifies a live allocation by its region origin.
type allocKey struct {
	x, y int
}

// allocInfo records what Allocate handed out, so Free can validate the
// returned region and restore the exact slot.
type allocInfo struct {
	width, height int // unpadded, as returned to the caller
	slotWidth     int // padded slot width occupied on the shelf
	shelfIndex    int
}

// Allocator packs axis-aligned rectangles into a fixed-size 2D surface
// using shelf packing: the surface is divided into horizontal shelves and
// each rectangle is placed on the first shelf with room, or a new shelf is
// opened below. Freed regions return to a per-shelf free list and are
// reused by later same-or-smaller requests.
//
// Shelf packing trades packing density for simplicity: adversarial size
// mixes can fragment space faster than an optimal packer. The atlas cache
// relieves that pressure through eviction rather than best-fit search.
//
// Allocator is not safe for concurrent use; the atlas cache is the single
// writer (see Atlas).
type Allocator struct {
	width   int
	height  int
	padding int

	shelves []shelf
	allocs  map[allocKey]allocInfo

	allocCount int
	usedArea   int
}

// NewAllocator creates an allocator for a width x height surface with the
// given padding between regions.
func NewAllocator(width, height, padding int) *Allocator {
	if width < MinSize {
		width = MinSize
	}
	if height < MinSize {
		height = MinSize
	}
	if padding < 0 {
		padding = 0
	}

	return &Allocator{
		width:   width,
		height:  height,
		padding: padding,
		shelves: make([]shelf, 0, 16),
		allocs:  make(map[allocKey]allocInfo),
	}
}

// Width returns the surface width.
func (a *Allocator) Width() int { return a.width }

// Height returns the surface height.
func (a *Allocator) Height() int { return a.height }

// Fits reports whether a width x height rectangle could ever be placed on
// this surface, ignoring current occupancy. A false result is permanent
// for this allocator size.
func (a *Allocator) Fits(width, height int) bool {
	if width <= 0 || height <= 0 {
		return true
	}
	return width+a.padding <= a.width && height+a.padding <= a.height
}

// Allocate finds space for a width x height rectangle.
// It returns ok == false when no free space fits the request.
// Zero-area requests succeed with a zero Region and consume no capacity.
func (a *Allocator) Allocate(width, height int) (Region, bool) {
	if width <= 0 || height <= 0 {
		return Region{}, true
	}

	paddedW := width + a.padding
	paddedH := height + a.padding

	// Larger than the whole surface: can never fit.
	if paddedW > a.width || paddedH > a.height {
		return Region{}, false
	}

	// Reuse a freed slot if one is wide enough on a tall-enough shelf.
	for i := range a.shelves {
		s := &a.shelves[i]
		if paddedH > s.height {
			continue
		}
		for j, sl := range s.free {
			if sl.width < paddedW {
				continue
			}
			s.free = append(s.free[:j], s.free[j+1:]...)
			return a.commit(i, sl.x, s.y, width, height, sl.width), true
		}
	}

	// Append to an existing shelf with horizontal room.
	for i := range a.shelves {
		s := &a.shelves[i]
		if paddedH > s.height || s.nextX+paddedW > a.width {
			continue
		}
		x := s.nextX
		s.nextX += paddedW
		return a.commit(i, x, s.y, width, height, paddedW), true
	}

	// Open a new shelf below the last one.
	newY := 0
	if n := len(a.shelves); n > 0 {
		last := &a.shelves[n-1]
		newY = last.y + last.height
	}
	if newY+paddedH > a.height {
		return Region{}, false
	}

	a.shelves = append(a.shelves, shelf{
		y:      newY,
		height: paddedH,
		nextX:  paddedW,
	})
	return a.commit(len(a.shelves)-1, 0, newY, width, height, paddedW), true
}

// commit records a live allocation and returns its region.
func (a *Allocator) commit(shelfIndex, x, y, width, height, slotWidth int) Region {
	a.allocs[allocKey{x, y}] = allocInfo{
		width:      width,
		height:     height,
		slotWidth:  slotWidth,
		shelfIndex: shelfIndex,
	}
	a.allocCount++
	a.usedArea += width * height
	return Region{X: x, Y: y, Width: width, Height: height}
}

// Free releases a previously allocated region, making its slot available
// for reuse. Freeing the last live region drops the shelf structure, so a
// fully freed allocator places exactly what an empty one does. Freeing a
// zero Region is a no-op.
//
// Freeing a region that is not currently allocated (including freeing the
// same region twice) is a programming error and panics: the allocator's
// bookkeeping would otherwise corrupt silently.
func (a *Allocator) Free(r Region) {
	if r.IsZero() {
		return
	}

	info, ok := a.allocs[allocKey{r.X, r.Y}]
	if !ok {
		panic(fmt.Sprintf("atlas: free of unknown region %s", r))
	}
	if info.width != r.Width || info.height != r.Height {
		panic(fmt.Sprintf("atlas: free of mismatched region %s (allocated %dx%d)",
			r, info.width, info.height))
	}

	delete(a.allocs, allocKey{r.X, r.Y})
	a.usedArea -= r.Width * r.Height

	// Freed slots never merge across shelves, so accumulated shelf
	// heights would otherwise outlive the allocations that shaped them.
	// Once no live region remains the whole surface is free again.
	if len(a.allocs) == 0 {
		a.shelves = a.shelves[:0]
		return
	}

	s := &a.shelves[info.shelfIndex]
	s.free = append(s.free, slot{x: r.X, width: info.slotWidth})
}

// Reset drops all allocations and restores the full free surface.
// It runs in constant time relative to the accumulated allocation history.
func (a *Allocator) Reset() {
	a.shelves = a.shelves[:0]
	a.allocs = make(map[allocKey]allocInfo)
	a.allocCount = 0
	a.usedArea = 0
}

// UsedArea returns the total area of live regions.
func (a *Allocator) UsedArea() int { return a.usedArea }

// Utilization returns the fraction of the surface in use (0.0 to 1.0).
func (a *Allocator) Utilization() float64 {
	total := a.width * a.height
	if total == 0 {
		return 0
	}
	return float64(a.usedArea) / float64(total)
}

// AllocCount returns the number of successful non-degenerate allocations
// since creation or the last Reset.
func (a *Allocator) AllocCount() int { return a.allocCount }
